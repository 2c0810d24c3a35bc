package appointment

import (
	"fmt"
	"regexp"
	"strings"
)

// space matches the same characters as \s in a browser: ASCII whitespace
// including \v, every Unicode space separator and the BOM. RE2's \s is ASCII only.
const space = `\s\x0B\p{Z}\x{FEFF}`

var (
	attendeeSeparator = regexp.MustCompile(`[,;` + space + `]+`)
	emailShape        = regexp.MustCompile(`^[^` + space + `]+@[^` + space + `]+\.[^` + space + `]+$`)
)

// ValidationError reports attendee tokens that do not look like an email address.
type ValidationError struct {
	Invalid []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Invalid email(s): %s", strings.Join(e.Invalid, ", "))
}

// SplitAttendees splits a comma, semicolon or whitespace separated list.
// Empty tokens are dropped; the result is never nil.
func SplitAttendees(value string) []string {
	emails := make([]string, 0)
	for _, token := range attendeeSeparator.Split(value, -1) {
		if strings.TrimSpace(token) == "" {
			continue
		}
		emails = append(emails, token)
	}
	return emails
}

func InvalidEmails(emails []string) []string {
	var invalid []string
	for _, email := range emails {
		if !emailShape.MatchString(email) {
			invalid = append(invalid, email)
		}
	}
	return invalid
}
