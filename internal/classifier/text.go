package classifier

import (
	"regexp"
	"strings"
)

const (
	RedactedEmail = "[REDACTED_EMAIL]"
	RedactedPhone = "[REDACTED_PHONE]"
)

var (
	emailPattern = regexp.MustCompile(`(?i)[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\b\+?\d[\d\s().-]{7,}\b`)
	isoDate      = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}(?:T\d{2}:\d{2}(?::\d{2})?)?\b`)
	urlPattern   = regexp.MustCompile(`(?i)https?://\S+`)
)

// RedactPII masks email addresses and phone-number-shaped digit runs.
// ISO dates are left intact so due dates survive into the prompt.
func RedactPII(text string) string {
	if text == "" {
		return ""
	}
	text = emailPattern.ReplaceAllString(text, RedactedEmail)

	var b strings.Builder
	last := 0
	for _, loc := range isoDate.FindAllStringIndex(text, -1) {
		b.WriteString(redactPhones(text[last:loc[0]]))
		b.WriteString(text[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(redactPhones(text[last:]))
	return b.String()
}

// redactPhones replaces each phone run up to its last digit. Separators the
// match consumed after that digit are written back.
func redactPhones(text string) string {
	return phonePattern.ReplaceAllStringFunc(text, func(m string) string {
		end := strings.LastIndexAny(m, "0123456789") + 1
		return RedactedPhone + m[end:]
	})
}

// ExtractLinks returns the URLs in text with Slack markup removed:
// "<https://x.io|label>" yields "https://x.io".
func ExtractLinks(text string) []string {
	raw := urlPattern.FindAllString(text, -1)
	if len(raw) == 0 {
		return nil
	}

	links := make([]string, 0, len(raw))
	for _, u := range raw {
		u = trimLinkSuffix(u)
		u, _, _ = strings.Cut(u, "|")
		if u != "" {
			links = append(links, u)
		}
	}
	return links
}

func trimLinkSuffix(u string) string {
	for {
		switch {
		case strings.HasSuffix(u, "&gt;"):
			u = strings.TrimSuffix(u, "&gt;")
		case u != "" && strings.ContainsRune(">)],.", rune(u[len(u)-1])):
			u = u[:len(u)-1]
		default:
			return u
		}
	}
}
