// Package redact masks submitter contact data before it reaches the logs.
package redact

import (
	"strings"
	"unicode/utf8"
)

// Contact masks an email address or, for anything else (phone, messenger
// handle), keeps only the first two runes.
func Contact(contact string) string {
	contact = strings.TrimSpace(contact)
	if contact == "" {
		return ""
	}
	if strings.Count(contact, "@") == 1 && !strings.HasPrefix(contact, "@") {
		return Email(contact)
	}
	return keepPrefix(contact, 2)
}

// Email masks the local part and the first domain label.
func Email(email string) string {
	if email == "" {
		return ""
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return keepPrefix(email, 2)
	}

	localPart := parts[0]
	domainPart := parts[1]

	var maskedLocal string
	if utf8.RuneCountInString(localPart) > 2 {
		maskedLocal = keepPrefix(localPart, 2)
	} else {
		maskedLocal = "***"
	}

	domainParts := strings.Split(domainPart, ".")
	rest := strings.Join(domainParts[1:], ".")
	var maskedDomain string
	if utf8.RuneCountInString(domainParts[0]) > 2 {
		maskedDomain = keepPrefix(domainParts[0], 2)
	} else {
		maskedDomain = "***"
	}
	if rest != "" {
		maskedDomain += "." + rest
	}

	return maskedLocal + "@" + maskedDomain
}

func keepPrefix(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return "***"
	}
	runes := []rune(s)
	return string(runes[:n]) + "***"
}
