package services

import "math/rand"

// User-visible fallback responses. No internal SQL text, stack trace, or
// schema detail ever appears here, whatever went wrong underneath.

var negativeResponses = []string{
	"I can't help with that question. Either relevant information wasn't found or I'm not allowed to access it.",
	"Sorry, I don't have access to that data or the question is outside my scope.",
	"I couldn't find relevant information for that question.",
	"I don't have the data needed to answer that question.",
}

var errorResponses = []string{
	"Sorry, I couldn't process that right now. Please try again.",
	"Something went wrong. Please try again later.",
	"I ran into an issue. Please try again.",
}

var dbUnavailableResponses = []string{
	"The database is unavailable right now. Please try again later.",
	"I can't reach the database at the moment. Please try again soon.",
	"Connection to the database failed. Please try again.",
}

func randomNegative() string {
	return negativeResponses[rand.Intn(len(negativeResponses))]
}

func randomError() string {
	return errorResponses[rand.Intn(len(errorResponses))]
}

func randomDBUnavailable() string {
	return dbUnavailableResponses[rand.Intn(len(dbUnavailableResponses))]
}
