package domain

// EventType names an outbound event on the session broadcast channel.
type EventType string

const (
	EventQuestion           EventType = "question"
	EventTimerUpdate        EventType = "timerUpdate"
	EventTimeUp             EventType = "timeUp"
	EventResults            EventType = "results"
	EventAnswerSubmitted    EventType = "answerSubmitted"
	EventSessionEnded       EventType = "sessionEnded"
	EventParticipantsUpdate EventType = "participantsUpdate"
	EventError              EventType = "error"
)

// Event is a single message fanned out to session subscribers.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

// QuestionView is a question as shown to participants: the correct
// answer is stripped before broadcast.
type QuestionView struct {
	Index        int          `json:"index"`
	ID           string       `json:"id"`
	Prompt       string       `json:"prompt"`
	Type         QuestionType `json:"type"`
	Choices      []string     `json:"choices,omitempty"`
	Points       int          `json:"points"`
	TimeLimitSec int          `json:"timeLimitSec,omitempty"`
}

// TimerUpdatePayload carries the countdown tick.
type TimerUpdatePayload struct {
	SecondsRemaining int `json:"secondsRemaining"`
}

// ResultsPayload is broadcast when a question is revealed.
type ResultsPayload struct {
	QuestionIndex int         `json:"questionIndex"`
	QuestionID    string      `json:"questionId"`
	CorrectAnswer string      `json:"correctAnswer"`
	NoAnswer      []string    `json:"noAnswer,omitempty"` // user ids that never submitted
	Leaderboard   Leaderboard `json:"leaderboard"`
}

// AnswerSubmittedPayload is the private acknowledgment to a submitter.
type AnswerSubmittedPayload struct {
	QuestionIndex int  `json:"questionIndex"`
	IsCorrect     bool `json:"isCorrect"`
	PointsEarned  int  `json:"pointsEarned"`
	TotalScore    int  `json:"totalScore"`
}

// SessionEndedPayload carries one participant's final report. Each
// participant receives their own; the public variant carries only the
// final leaderboard.
type SessionEndedPayload struct {
	Summary     *ParticipantSummary `json:"summary,omitempty"`
	FinalScore  int                 `json:"finalScore"`
	Leaderboard Leaderboard         `json:"leaderboard"`
}

// RosterEntry is one row of the participants update.
type RosterEntry struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

// ParticipantsUpdatePayload is broadcast whenever the roster changes.
type ParticipantsUpdatePayload struct {
	Roster []RosterEntry `json:"roster"`
}

// ErrorPayload reports a validation failure to the originating caller.
type ErrorPayload struct {
	Message string `json:"message"`
}
