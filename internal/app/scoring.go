package app

import (
	"strconv"
	"strings"

	"livequiz-service/internal/domain"
)

// EvaluateAnswer scores a raw submission against a question snapshot.
// It is a pure function: full points when correct, zero otherwise.
func EvaluateAnswer(q domain.Question, raw string) (correct bool, points int) {
	switch q.Type {
	case domain.QuestionChoice:
		idx, err := strconv.Atoi(strings.TrimSpace(raw))
		correct = err == nil && idx >= 0 && idx < len(q.Choices) && idx == q.CorrectChoice
	case domain.QuestionTrueFalse, domain.QuestionText:
		correct = normalizeAnswer(raw) == normalizeAnswer(q.CorrectAnswer)
	default:
		correct = false
	}
	if correct {
		return true, questionPoints(q)
	}
	return false, 0
}

// CorrectAnswerText renders the correct answer for the results event.
func CorrectAnswerText(q domain.Question) string {
	if q.Type == domain.QuestionChoice {
		if q.CorrectChoice >= 0 && q.CorrectChoice < len(q.Choices) {
			return q.Choices[q.CorrectChoice]
		}
		return strconv.Itoa(q.CorrectChoice)
	}
	return q.CorrectAnswer
}

func normalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func questionPoints(q domain.Question) int {
	if q.Points > 0 {
		return q.Points
	}
	return 1
}
