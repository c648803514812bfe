package email

import "strings"

// TemporaryError marks a failure worth another try on a different tier
// (network timeout, SMTP 4xx, provider 5xx or 429).
type TemporaryError struct{ msg string }

func (e TemporaryError) Error() string   { return e.msg }
func (e TemporaryError) Temporary() bool { return true }
func (e TemporaryError) Permanent() bool { return false }

// PermanentError marks a failure the same provider will repeat
// (bad credentials, rejected sender, malformed address).
type PermanentError struct{ msg string }

func (e PermanentError) Error() string   { return e.msg }
func (e PermanentError) Temporary() bool { return false }
func (e PermanentError) Permanent() bool { return true }

func containsAny(s string, subs ...string) bool {
	for _, x := range subs {
		if x != "" && strings.Contains(s, x) {
			return true
		}
	}
	return false
}

// classifyStatus maps an HTTP provider status to an error kind.
func classifyStatus(status int, msg string) error {
	if status == 429 || status >= 500 {
		return TemporaryError{msg: msg}
	}
	return PermanentError{msg: msg}
}
