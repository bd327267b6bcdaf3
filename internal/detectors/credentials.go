package detectors

import "github.com/redactyl/promptscan/internal/types"

var (
	reOpenAIKey    = mustCompile(`\bsk-(?:proj-[a-z0-9_-]{40,}|[a-z0-9]{48}\b)`)
	reAnthropicKey = mustCompile(`\bsk-ant-[a-z0-9_-]{32,}`)
	reGitHubToken  = mustCompile(`\bgh[pousr]_[a-z0-9]{36}\b`)
	reAWSAccessKey = mustCompile(`\b(?:AKIA|ASIA)[0-9A-Z]{16}\b`)
	// Matches whole runs of the key alphabet; the validator keeps runs of exactly 40.
	reAWSSecretKey = mustCompile(`[a-z0-9/+=]{40,}`)
	reGoogleAPIKey = mustCompile(`\bAIza[0-9a-z_-]{35}`)
	reSlackToken   = mustCompile(`\bxox[baprs]-[a-z0-9-]{10,72}`)
	reStripeSecret = mustCompile(`\b[rs]k_live_[a-z0-9]{24,}`)
	rePrivateKey   = mustCompile(`-----BEGIN (?:[A-Z0-9]+ )*PRIVATE KEY-----`)
	reJWT          = mustCompile(`\beyJ[a-z0-9_-]+\.[a-z0-9_-]+\.[a-z0-9_-]+`)
	reBearer       = mustCompile(`\bbearer\s+([a-z0-9._~+/-]{20,}=*)`)
	reDatabaseURL  = mustCompile(`\b(?:postgres(?:ql)?|mysql|mariadb|mongodb(?:\+srv)?|rediss?|amqps?|mssql|sqlserver)://[^\s:@/]+:[^\s@/]+@[^\s/?#]+(?:/[^\s?#]*)?`)
	reGenericKey   = mustCompile(`(?:api[_-]?key|secret(?:[_-]?key)?|access[_-]?token|auth[_-]?token|token|password|passwd)["']?\s*[:=]\s*["']?([a-z0-9_!@#$%^&*+/=.-]{12,})`)
)

var credentialSpecs = []Spec{
	{
		Name: "openai_api_key", Description: "OpenAI API Key", Category: Credential,
		Matcher: reOpenAIKey, Confidence: 0.98, Severity: types.SevCritical,
	},
	{
		Name: "anthropic_api_key", Description: "Anthropic API Key", Category: Credential,
		Matcher: reAnthropicKey, Confidence: 0.98, Severity: types.SevCritical,
	},
	{
		Name: "github_token", Description: "GitHub Token", Category: Credential,
		Matcher: reGitHubToken, Confidence: 0.95, Severity: types.SevCritical,
		Validator: validGitHubToken,
	},
	{
		Name: "aws_access_key", Description: "AWS Access Key ID", Category: Credential,
		Matcher: reAWSAccessKey, Confidence: 0.95, Severity: types.SevCritical,
		Validator: validAWSAccessKey,
	},
	{
		Name: "aws_secret_key", Description: "AWS Secret Access Key", Category: Credential,
		Matcher: reAWSSecretKey, Confidence: 0.8,
		Validator: validAWSSecretKey, Context: []string{"aws", "secret"},
	},
	{
		Name: "google_api_key", Description: "Google API Key", Category: Credential,
		Matcher: reGoogleAPIKey, Confidence: 0.9, Severity: types.SevCritical,
	},
	{
		Name: "slack_token", Description: "Slack Token", Category: Credential,
		Matcher: reSlackToken, Confidence: 0.9, Severity: types.SevCritical,
	},
	{
		Name: "stripe_secret_key", Description: "Stripe Live Secret Key", Category: Credential,
		Matcher: reStripeSecret, Confidence: 0.95, Severity: types.SevCritical,
		Validator: validStripeKey,
	},
	{
		Name: "private_key", Description: "Private Key", Category: Credential,
		Matcher: rePrivateKey, Confidence: 0.99, Severity: types.SevCritical,
	},
	{
		Name: "jwt", Type: "jwt_token", Description: "JWT Token", Category: Credential,
		Matcher: reJWT, Confidence: 0.85, Severity: types.SevCritical,
		Validator: validJWT,
	},
	{
		Name: "bearer_token", Description: "Bearer Token", Category: Credential,
		Matcher: reBearer, Confidence: 0.9, Severity: types.SevCritical,
	},
	{
		Name: "database_url", Description: "Database Connection URL", Category: Credential,
		Matcher: reDatabaseURL, Confidence: 0.9, Severity: types.SevCritical,
	},
	{
		Name: "generic_secret_assignment", Type: "generic_secret", Description: "Secret Assigned to Key",
		Category: Credential, Matcher: reGenericKey, Confidence: 0.75,
	},
}
