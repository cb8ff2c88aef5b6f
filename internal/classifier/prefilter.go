package classifier

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	minMessageLength = 10
	minTextLength    = 5
)

var (
	emojiPattern    = regexp.MustCompile(`[\x{1F300}-\x{1F9FF}\x{2600}-\x{26FF}\x{2700}-\x{27BF}]`)
	reactionPattern = regexp.MustCompile(`^[\s\x{1F300}-\x{1F9FF}\x{2600}-\x{26FF}\x{2700}-\x{27BF}!.?]+$`)

	casualPatterns = []struct {
		pattern *regexp.Regexp
		reason  SkipReason
	}{
		{regexp.MustCompile(`(?i)^(hi|hey|hello|thanks|thank you|thx|ty|ok|okay|sure|sounds good|perfect|great|awesome|nice|cool|lol|haha|yes|no|yep|nope|\x{1F44D}|\x{1F44C})[\s!.]*$`), SkipCasualGreeting},
		{regexp.MustCompile(`(?i)^(good morning|good afternoon|good evening|gm|gn)[\s!.]*$`), SkipGreeting},
		{regexp.MustCompile(`(?i)^(congrats|congratulations|well done|good job)[\s!.]*$`), SkipAcknowledgment},
	}
)

// Prefilter reports whether text is obvious chatter that should never reach
// the model, and why.
func Prefilter(text string) (SkipReason, bool) {
	normalized := strings.ToLower(strings.TrimSpace(text))

	if utf8.RuneCountInString(normalized) < minMessageLength {
		return SkipTooShort, true
	}

	stripped := strings.TrimSpace(emojiPattern.ReplaceAllString(text, ""))
	if utf8.RuneCountInString(stripped) < minTextLength {
		return SkipEmojiOnly, true
	}

	for _, p := range casualPatterns {
		if p.pattern.MatchString(normalized) {
			return p.reason, true
		}
	}

	if reactionPattern.MatchString(text) {
		return SkipEmojiReaction, true
	}

	return "", false
}
