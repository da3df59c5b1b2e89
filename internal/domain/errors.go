package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuizHasNoQuestions rejects starting a session over an empty quiz.
	ErrQuizHasNoQuestions = errors.New("quiz has no questions")
	// ErrSessionNotFound is returned when no active session matches the access code or id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionEnded is returned when an operation targets a session that already ended.
	ErrSessionEnded = errors.New("session has ended")
	// ErrParticipantNotFound is returned when a user tries to act before joining.
	ErrParticipantNotFound = errors.New("participant not found in session")
	// ErrNoMoreQuestions rejects advancing past the last question.
	ErrNoMoreQuestions = errors.New("no more questions")
	// ErrInvalidState rejects a transition not allowed from the current state.
	ErrInvalidState = errors.New("operation not valid in current session state")
	// ErrNotAcceptingAnswers rejects submissions outside a live question.
	ErrNotAcceptingAnswers = errors.New("session is not accepting answers")
	// ErrDuplicateAnswer rejects a second submission for the same question.
	ErrDuplicateAnswer = errors.New("answer already submitted for this question")
)
