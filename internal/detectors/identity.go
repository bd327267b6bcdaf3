package detectors

import "github.com/redactyl/promptscan/internal/types"

var (
	reEmail = mustCompile(`\b[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}\b`)
	rePhone = mustCompile(`(?:^|[^\w+])((?:\+?1[-.\s]?)?(?:\(\s*[2-9]\d{2}\s*\)|[2-9]\d{2})[-.\s]?[2-9]\d{2}[-.\s]?\d{4})\b`)
	reSSN   = mustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	reCard  = mustCompile(`\b(?:(?:\d{4}[-\s]?){3}\d{4}|3[47]\d{2}[-\s]?\d{6}[-\s]?\d{5})\b`)
	reIBAN  = mustCompile(`\b[a-z]{2}\d{2}(?:\s?[a-z0-9]{4}){2,7}(?:\s?[a-z0-9]{1,3})?\b`)
)

var identitySpecs = []Spec{
	{
		Name: "email_address", Description: "Email Address", Category: Identity,
		Matcher: reEmail, Confidence: 0.85, Severity: types.SevHigh,
		Validator: validEmail,
	},
	{
		Name: "phone_number", Description: "US Phone Number", Category: Identity,
		Matcher: rePhone, Confidence: 0.7, Severity: types.SevMed,
		Validator: validPhone,
	},
	{
		Name: "ssn", Description: "Social Security Number", Category: Identity,
		Matcher: reSSN, Confidence: 0.9, Severity: types.SevHigh,
		Validator: validSSN,
	},
	{
		Name: "credit_card", Description: "Credit Card Number", Category: Identity,
		Matcher: reCard, Confidence: 0.9, Severity: types.SevHigh,
		Validator: validCard,
	},
	{
		Name: "iban", Type: "iban_code", Description: "International Bank Account Number", Category: Identity,
		Matcher: reIBAN, Confidence: 0.85, Severity: types.SevHigh,
		Validator: validIBAN,
	},
}
