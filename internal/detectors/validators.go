package detectors

import v "github.com/redactyl/promptscan/internal/validate"

// Post-match filters wired into the built-in catalog. Each receives the raw
// matched substring; returning false drops the candidate before scoring.

func validGitHubToken(m string) bool { return v.LooksLikeGitHubToken(m) }

func validAWSAccessKey(m string) bool { return v.LooksLikeAWSAccessKey(m) }

// Plain words and hex digests also fill 40 chars; require mixed classes.
func validAWSSecretKey(m string) bool {
	return v.LooksLikeAWSSecretKey(m) && v.HasMixedClasses(m)
}

func validStripeKey(m string) bool { return v.LooksLikeStripeKey(m) }

func validJWT(m string) bool { return v.IsJWTStructure(m) }

func validEmail(m string) bool { return v.ValidEmail(m) }

func validPhone(m string) bool { return v.ValidNANPPhone(m) }

func validSSN(m string) bool { return v.ValidSSN(m) }

func validCard(m string) bool { return v.Luhn(m) }

func validIBAN(m string) bool { return v.ValidIBAN(m) }

func validPrivateIP(m string) bool { return v.IsPrivateIPv4(m) }
