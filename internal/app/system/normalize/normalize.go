// internal/app/system/normalize/normalize.go
package normalize

import "strings"

// QueryParam trims surrounding whitespace from a query parameter value.
func QueryParam(v string) string {
	return strings.TrimSpace(v)
}

// InviteCode canonicalizes an admin-chosen union invite code: trimmed,
// lowercased, internal whitespace collapsed to single dashes.
func InviteCode(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	return strings.Join(strings.Fields(v), "-")
}

// AuthError strips provider prefixes and trailing punctuation from an
// auth error string so it reads cleanly when surfaced inline.
func AuthError(msg string) string {
	msg = strings.TrimSpace(msg)
	for _, prefix := range []string{"auth:", "auth/"} {
		if strings.HasPrefix(strings.ToLower(msg), prefix) {
			msg = strings.TrimSpace(msg[len(prefix):])
		}
	}
	msg = strings.TrimRight(msg, ".")
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
