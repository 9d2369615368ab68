package prefilter

import (
	"regexp"
	"strings"
)

var profanityWords = []string{
	"damn", "crap", "bastard", "bitch", "shit", "fuck", "piss",
	"whore", "slut", "asshole", "douchebag", "twat", "wanker",
	"motherfucker", "bullshit", "jackass", "dipshit", "shithead",
	"fuckhead", "fuckwit", "asshat", "cunt",
}

var profanityWarnings = []string{
	"Let's keep this conversation professional. Please avoid offensive language.",
	"I'd prefer if we kept things respectful. Please mind your language.",
	"I'm here to help, but let's keep it professional.",
	"Let's communicate respectfully. Offensive language isn't welcome here.",
}

var profanityPattern = regexp.MustCompile(`(?i)\b(` + strings.Join(profanityWords, "|") + `)\b`)

// ContainsProfanity reports whether the message contains profanity.
func ContainsProfanity(message string) bool {
	return profanityPattern.MatchString(message)
}

// ProfanityWarning picks a canned warning response.
func ProfanityWarning() string {
	return pick(profanityWarnings)
}
