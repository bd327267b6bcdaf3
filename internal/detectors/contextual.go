package detectors

import "github.com/redactyl/promptscan/internal/types"

var (
	rePrivateIP   = mustCompile(`\b(?:10(?:\.\d{1,3}){3}|192\.168(?:\.\d{1,3}){2}|172\.(?:1[6-9]|2\d|3[01])(?:\.\d{1,3}){2})\b`)
	reExfilVerb   = mustCompile(`\b(?:export|download|dump|exfiltrate)\b`)
	exfilSubjects = []string{"database", "users", "passwords"}
)

var contextualSpecs = []Spec{
	{
		Name: "private_ip", Type: "private_ip_address", Description: "Private Network Address", Category: Contextual,
		Matcher: rePrivateIP, Confidence: 0.6, Severity: types.SevMed,
		Validator: validPrivateIP,
	},
	{
		Name: "data_exfiltration", Type: "potential_data_exfiltration", Description: "Potential data exfiltration attempt",
		Category: Contextual, Matcher: reExfilVerb, Confidence: 0.7, Severity: types.SevHigh,
		Context: exfilSubjects, RequireContext: true, RequiresMetadata: true,
	},
}
