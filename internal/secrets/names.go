package secrets

// Secret names used by the rest of the application. The namespace is flat,
// process-wide and case-sensitive.
const (
	SMTPPassword       = "smtp_password"
	SlackWebhookURL    = "slack_webhook_url"
	JiraAPIToken       = "jira_api_token"
	JiraEmail          = "jira_email"
	GoogleRefreshToken = "google_refresh_token"
	TogglAPIToken      = "toggl_api_token"

	// Written at the start of an OAuth flow, read once by the callback and
	// then deleted.
	OAuthCSRFToken    = "oauth_csrf_token"
	OAuthPKCEVerifier = "oauth_pkce_verifier"

	DeliveryEmailPassword = "delivery_email_password"
	DeliverySlackWebhook  = "delivery_slack_webhook"
)

// KnownNames lists every name above, for display in `secrets list`.
var KnownNames = []string{
	SMTPPassword,
	SlackWebhookURL,
	JiraAPIToken,
	JiraEmail,
	GoogleRefreshToken,
	TogglAPIToken,
	OAuthCSRFToken,
	OAuthPKCEVerifier,
	DeliveryEmailPassword,
	DeliverySlackWebhook,
}
