// Package prefilter screens inbound questions before they reach the query
// pipeline: small talk gets a canned reply, profanity gets a warning, and
// SQL injection attempts are flagged for the security audit log.
package prefilter

import (
	"math/rand"
	"regexp"
)

var greetingPatterns = compileAll(
	`\b(hi|hello|hey|hiya|howdy|hallo|greetings|welcome)\b`,
	`\bwhat'?s?\s?up\b`,
	`\bhow\s?(are\s?you|do\s?you\s?do|ya\s?doing)\b`,
	`\bgood\s?(morning|afternoon|evening|day|night)\b`,
)

var farewellPatterns = compileAll(
	`\b(bye|goodbye|farewell|see\s?ya|take\s?care|later|adios|ciao)\b`,
	`\bsee\s?you\b`,
	`\bbye\s?bye\b`,
)

var chatterPatterns = compileAll(
	`\b(thank|thanks|thankyou|appreciate)\b`,
	`^\s*(ok|okay|sure|yup|yeah|yes|nope|no)\s*$`,
	`\b(lol|haha|hehe)\b`,
	`^\s*(cool|awesome|nice|great|sweet)\s*$`,
)

var greetingReplies = []string{
	"Hey there! What can I help you with?",
	"Hello! Ready to find some data?",
	"Hi! What would you like to know?",
	"Hey! What's on your mind?",
}

var farewellReplies = []string{
	"Catch you later!",
	"Goodbye! Come back anytime.",
	"Take care!",
}

var chatterReplies = []string{
	"Thanks for the chat! Got any data questions for me?",
	"Appreciate it! Anything else I can help with?",
	"You got it! What's your question?",
}

// IsSmallTalk reports whether the message is a greeting, farewell, or
// pleasantry rather than a data question.
func IsSmallTalk(message string) bool {
	return matchAny(greetingPatterns, message) ||
		matchAny(farewellPatterns, message) ||
		matchAny(chatterPatterns, message)
}

// SmallTalkReply picks a canned response matching the kind of small talk.
func SmallTalkReply(message string) string {
	switch {
	case matchAny(greetingPatterns, message):
		return pick(greetingReplies)
	case matchAny(farewellPatterns, message):
		return pick(farewellReplies)
	default:
		return pick(chatterReplies)
	}
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

func matchAny(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

func pick(replies []string) string {
	return replies[rand.Intn(len(replies))]
}
