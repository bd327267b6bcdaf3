package validate

import (
	"encoding/base64"
	"net/netip"
	"strings"
)

const base62 = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// LengthBetween returns true if n is within [min,max].
func LengthBetween(s string, min, max int) bool {
	n := len(s)
	return n >= min && n <= max
}

// IsAlphabet returns true if all characters in s are in allowed set.
func IsAlphabet(s, allowed string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !strings.ContainsRune(allowed, rune(s[i])) {
			return false
		}
	}
	return true
}

// HasMixedClasses reports whether s contains at least one upper-case letter,
// one lower-case letter and one digit.
func HasMixedClasses(s string) bool {
	var upper, lower, digit bool
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z':
			upper = true
		case c >= 'a' && c <= 'z':
			lower = true
		case c >= '0' && c <= '9':
			digit = true
		}
	}
	return upper && lower && digit
}

// Digits strips every non-digit byte from s.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// IsBase64URLNoPad reports whether s is valid base64url (no padding) for JWT segments.
func IsBase64URLNoPad(s string) bool {
	if s == "" {
		return false
	}
	_, err := base64.RawURLEncoding.DecodeString(s)
	return err == nil
}

// IsJWTStructure verifies 3 segments base64url-decodable for header and payload.
func IsJWTStructure(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return false
	}
	// signature can be empty or non-decodable; we do not require decoding
	return IsBase64URLNoPad(parts[0]) && IsBase64URLNoPad(parts[1])
}

// LooksLikeGitHubToken accepts ghp_, gho_, ghu_, ghs_, ghr_ followed by 36 base62 chars.
func LooksLikeGitHubToken(s string) bool {
	if len(s) != len("ghp_")+36 {
		return false
	}
	switch s[:4] {
	case "ghp_", "gho_", "ghu_", "ghs_", "ghr_":
	default:
		return false
	}
	return IsAlphabet(s[4:], base62)
}

// LooksLikeAWSAccessKey checks for AKIA/ASIA + 16 uppercase alnum.
func LooksLikeAWSAccessKey(s string) bool {
	if !(strings.HasPrefix(s, "AKIA") || strings.HasPrefix(s, "ASIA")) {
		return false
	}
	if len(s) != 20 {
		return false
	}
	const upperAlnum = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	return IsAlphabet(s[4:], upperAlnum)
}

// LooksLikeAWSSecretKey checks base64-like alphabet and exact length 40.
func LooksLikeAWSSecretKey(s string) bool {
	if len(s) != 40 {
		return false
	}
	const b64like = base62 + "+/="
	return IsAlphabet(s, b64like)
}

// LooksLikeStripeKey checks an sk_live_/rk_live_ prefix and a base62 tail of at least 24 chars.
func LooksLikeStripeKey(s string) bool {
	if !(strings.HasPrefix(s, "sk_live_") || strings.HasPrefix(s, "rk_live_")) {
		return false
	}
	tail := s[len("sk_live_"):]
	return len(tail) >= 24 && IsAlphabet(tail, base62)
}

// Luhn reports whether s is a plausible payment card number: 13 to 19 digits
// (spaces and dashes ignored) passing the Luhn checksum.
func Luhn(s string) bool {
	s = strings.NewReplacer(" ", "", "-", "").Replace(s)
	if !LengthBetween(s, 13, 19) || Digits(s) != s {
		return false
	}
	sum := 0
	for i := 0; i < len(s); i++ {
		n := int(s[len(s)-1-i] - '0')
		if i%2 == 1 {
			n *= 2
			if n > 9 {
				n -= 9
			}
		}
		sum += n
	}
	return sum%10 == 0
}

// ValidEmail performs a structural check on an address: one '@', a non-empty
// local part of at most 64 bytes and a dotted domain ending in an alphabetic TLD.
func ValidEmail(s string) bool {
	local, domain, ok := strings.Cut(s, "@")
	if !ok || strings.Contains(domain, "@") {
		return false
	}
	if !LengthBetween(local, 1, 64) || !LengthBetween(domain, 3, 253) {
		return false
	}
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") || strings.Contains(local, "..") {
		return false
	}
	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return false
	}
	for _, l := range labels {
		if l == "" || strings.HasPrefix(l, "-") || strings.HasSuffix(l, "-") {
			return false
		}
	}
	tld := labels[len(labels)-1]
	return len(tld) >= 2 && IsAlphabet(tld, base62[:52])
}

// ValidNANPPhone checks a North American number: ten digits (optionally
// prefixed by country code 1) whose area code and exchange start with 2-9 and
// whose area code is not an N11 service code.
func ValidNANPPhone(s string) bool {
	d := Digits(s)
	if len(d) == 11 && d[0] == '1' {
		d = d[1:]
	}
	if len(d) != 10 {
		return false
	}
	if d[0] < '2' || d[3] < '2' {
		return false
	}
	return !(d[1] == '1' && d[2] == '1')
}

// ValidSSN rejects US social security numbers the SSA never issues: area 000,
// 666 or 9xx, group 00, serial 0000.
func ValidSSN(s string) bool {
	d := Digits(s)
	if len(d) != 9 {
		return false
	}
	area, group, serial := d[:3], d[3:5], d[5:]
	if area == "000" || area == "666" || area[0] == '9' {
		return false
	}
	return group != "00" && serial != "0000"
}

// ValidIBAN verifies the ISO 13616 mod-97 checksum of an IBAN. Spaces are ignored.
func ValidIBAN(s string) bool {
	s = strings.ToUpper(strings.ReplaceAll(s, " ", ""))
	if !LengthBetween(s, 15, 34) {
		return false
	}
	if !IsAlphabet(s[:2], base62[26:52]) || Digits(s[2:4]) != s[2:4] {
		return false
	}
	rearranged := s[4:] + s[:4]
	rem := 0
	for i := 0; i < len(rearranged); i++ {
		c := rearranged[i]
		switch {
		case c >= '0' && c <= '9':
			rem = (rem*10 + int(c-'0')) % 97
		case c >= 'A' && c <= 'Z':
			rem = (rem*100 + int(c-'A') + 10) % 97
		default:
			return false
		}
	}
	return rem == 1
}

// IsPrivateIPv4 reports whether s parses as an RFC 1918 IPv4 address.
func IsPrivateIPv4(s string) bool {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return false
	}
	return addr.Is4() && addr.IsPrivate()
}
