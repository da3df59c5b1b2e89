package domain

import "time"

// QuestionType discriminates how an answer is evaluated.
type QuestionType string

const (
	QuestionChoice    QuestionType = "choice"
	QuestionTrueFalse QuestionType = "truefalse"
	QuestionText      QuestionType = "text"
)

// Question is a single quiz question. Sessions work on immutable copies
// taken at start time, so later edits to the source quiz never leak in.
type Question struct {
	ID            string       `json:"id"`
	Prompt        string       `json:"prompt"`
	Type          QuestionType `json:"type"`
	Choices       []string     `json:"choices,omitempty"`
	CorrectChoice int          `json:"correctChoice,omitempty"`
	CorrectAnswer string       `json:"correctAnswer,omitempty"`
	Points        int          `json:"points"` // defaults to 1 if zero
	TimeLimitSec  int          `json:"timeLimitSec,omitempty"` // 0 means untimed
}

// Quiz is a collection of questions.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title,omitempty"`
	Questions []Question `json:"questions"`
}

// SessionState is the lifecycle phase of a live session.
type SessionState string

const (
	StateLobby    SessionState = "lobby"
	StateQuestion SessionState = "question"
	StateResults  SessionState = "results"
	StateEnded    SessionState = "ended"
)

// Participant represents one joined identity and its running total.
// Participants are never removed while a session is live; standing
// survives disconnects and reconnects.
type Participant struct {
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	Score       int       `json:"score"`
	JoinedAt    time.Time `json:"joinedAt"`
	CompletedAt time.Time `json:"completedAt"`
}

// AnswerRecord is the single evaluated answer for one (participant,
// question index) pair. A second submission is rejected, not merged.
type AnswerRecord struct {
	ParticipantID string    `json:"participantId"`
	QuestionIndex int       `json:"questionIndex"`
	RawAnswer     string    `json:"rawAnswer"`
	IsCorrect     bool      `json:"isCorrect"`
	PointsAwarded int       `json:"pointsAwarded"`
	AnsweredAt    time.Time `json:"answeredAt"`
}

// LeaderboardEntry is one ranked row of the scoreboard.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
}

// Leaderboard captures the ordered scoreboard for a session.
type Leaderboard struct {
	SessionID string             `json:"sessionId"`
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// QuestionOutcome is one participant's result on one question.
type QuestionOutcome struct {
	QuestionIndex int    `json:"questionIndex"`
	Prompt        string `json:"prompt"`
	Answered      bool   `json:"answered"`
	IsCorrect     bool   `json:"isCorrect"`
	PointsAwarded int    `json:"pointsAwarded"`
}

// ParticipantSummary is the final per-participant report emitted when a
// session ends and persisted for post-hoc result queries.
type ParticipantSummary struct {
	UserID       string            `json:"userId"`
	DisplayName  string            `json:"displayName"`
	FinalScore   int               `json:"finalScore"`
	CorrectCount int               `json:"correctCount"`
	PerQuestion  []QuestionOutcome `json:"perQuestion"`
}

// SessionSummary is the read-only projection of an ended session.
type SessionSummary struct {
	SessionID     string               `json:"sessionId"`
	QuizID        string               `json:"quizId"`
	AccessCode    string               `json:"accessCode"`
	StartedAt     time.Time            `json:"startedAt"`
	EndedAt       time.Time            `json:"endedAt"`
	QuestionCount int                  `json:"questionCount"`
	Leaderboard   Leaderboard          `json:"leaderboard"`
	Participants  []ParticipantSummary `json:"participants"`
}
