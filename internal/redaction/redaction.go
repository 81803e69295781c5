// Package redaction scrubs credentials from text before it reaches logs,
// error messages or terminal output.
package redaction

import (
	"regexp"
	"strings"
)

// sensitivePatterns are applied in order by Redact.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._~+/=-]+`),                  // Authorization header values
	regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+(?:\.[\w-]*)?`), // JWT tokens
	regexp.MustCompile(`(?i)password\s*[:=]\s*["']?[^\s"',}]+`),              // password = ...
	regexp.MustCompile(`(?i)token\s*=\s*[^\s&;]+`),                           // token=... in query strings and cookies
}

// jsonFieldPattern matches credential fields in JSON bodies.
var jsonFieldPattern = regexp.MustCompile(`(?i)"(token|password|accessToken)"\s*:\s*"[^"]*"`)

const replacement = "[REDACTED]"

// Redact replaces every credential-looking substring of text with [REDACTED].
// JSON credential fields keep their key so the payload stays readable.
func Redact(text string) string {
	text = jsonFieldPattern.ReplaceAllString(text, `"$1":"`+replacement+`"`)
	for _, re := range sensitivePatterns {
		text = re.ReplaceAllString(text, replacement)
	}
	return text
}

// MaskToken returns a short, non-reversible display form of a token: the
// first four characters followed by an ellipsis. Tokens shorter than eight
// characters are masked completely.
func MaskToken(token string) string {
	token = strings.TrimSpace(token)
	switch {
	case token == "":
		return ""
	case len(token) < 8:
		return replacement
	default:
		return token[:4] + "…"
	}
}
