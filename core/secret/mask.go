package secret

import "strings"

// Mask returns a masked representation of a secret string.
// - length <= 5: fully masked
// - length <= 20: first and last characters visible
// - length > 20: first 3 and last 1 characters visible
func Mask(s string) string {
	n := len(s)
	switch {
	case n == 0:
		return ""
	case n <= 5:
		return strings.Repeat("*", n)
	case n <= 20:
		return s[:1] + strings.Repeat("*", n-2) + s[n-1:]
	default:
		return s[:3] + strings.Repeat("*", n-4) + s[n-1:]
	}
}

var sensitiveHeaders = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"x-api-key":           true,
	"api-key":             true,
}

// MaskHeader masks the value of credential-bearing headers and returns other
// values unchanged. An auth scheme such as "Bearer" stays readable.
func MaskHeader(name, value string) string {
	lname := strings.ToLower(name)
	if !sensitiveHeaders[lname] && !strings.Contains(lname, "token") && !strings.Contains(lname, "secret") {
		return value
	}
	if scheme, cred, ok := strings.Cut(value, " "); ok && !strings.ContainsAny(scheme, "=:") {
		return scheme + " " + Mask(cred)
	}
	return Mask(value)
}
