// Package redact scrubs sensitive information from strings before they are
// logged. Storage drivers and auth libraries tend to echo connection strings,
// credentials, tokens and query text in their error messages; everything that
// goes through String or Error has those replaced by fixed placeholders.
package redact

import "regexp"

// Placeholders substituted for redacted fragments.
const (
	CredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	TokenPlaceholder      = "[REDACTED_TOKEN]"
	JWTPlaceholder        = "[REDACTED_JWT]"
	EmailPlaceholder      = "[REDACTED_EMAIL]"
	SQLPlaceholder        = "[REDACTED_SQL]"
	PathPlaceholder       = "[REDACTED_PATH]"
)

type rule struct {
	pattern     *regexp.Regexp
	placeholder string
}

// rules are applied in order; JWTs must go before the generic token rule and
// connection strings before the email rule (user:pass@host looks like an address).
var rules = []rule{
	{
		regexp.MustCompile(`eyJ[A-Za-z0-9_-]+\.eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`),
		JWTPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)\b(postgres|postgresql|mongodb|mongodb\+srv)://[^@\s]+@`),
		CredentialPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)(password|passwd|pwd)(["']?\s*[=:]\s*["']?)[^"'&\s,}]+`),
		CredentialPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9_\-.~+/]+=*`),
		TokenPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)(secret|token|api[_-]?key)(["']?\s*[=:]\s*["']?)[A-Za-z0-9_\-.~+/]{8,}`),
		TokenPlaceholder,
	},
	{
		regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		EmailPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)\b(SELECT|INSERT INTO|UPDATE|DELETE FROM)\b[^;]*`),
		SQLPlaceholder,
	},
	{
		regexp.MustCompile(`(/[\w.-]+){3,}`),
		PathPlaceholder,
	},
}

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, r := range rules {
		result = r.pattern.ReplaceAllString(result, r.placeholder)
	}
	return result
}

// Error redacts sensitive information from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
