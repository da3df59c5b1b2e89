package app

import (
	"log"
	"sync"
	"time"

	"livequiz-service/internal/domain"
)

// Session owns one live quiz session: its lifecycle state, the question
// cursor, the participant roster and all answer records. Every mutating
// operation (including clock callbacks) runs under the session mutex, so
// one session is always mutated by exactly one operation at a time while
// different sessions never block each other.
type Session struct {
	ID         string
	QuizID     string
	AccessCode string

	now          func() time.Time
	tickInterval time.Duration

	mu           sync.Mutex
	state        domain.SessionState
	questions    []domain.Question
	current      int // -1 before the first question
	startedAt    time.Time
	endedAt      time.Time
	participants map[string]*domain.Participant
	answers      map[int]map[string]domain.AnswerRecord
	clock        *countdown
	deadline     time.Time
	summary      domain.SessionSummary

	hub *hub
}

// StateSnapshot is what a (late) joiner needs to render the session,
// including the running countdown mid-question.
type StateSnapshot struct {
	SessionID        string               `json:"sessionId"`
	AccessCode       string               `json:"accessCode"`
	State            domain.SessionState  `json:"state"`
	QuestionIndex    int                  `json:"questionIndex"`
	Question         *domain.QuestionView `json:"question,omitempty"`
	SecondsRemaining int                  `json:"secondsRemaining,omitempty"`
	Leaderboard      domain.Leaderboard   `json:"leaderboard"`
	Roster           []domain.RosterEntry `json:"roster"`
}

// NewSession snapshots the quiz questions and starts in the lobby.
func NewSession(id, accessCode string, quiz domain.Quiz) *Session {
	return newSessionWithClock(id, accessCode, quiz, time.Now)
}

// newSessionWithClock allows deterministic timestamps and a faster tick
// cadence in tests.
func newSessionWithClock(id, accessCode string, quiz domain.Quiz, now func() time.Time) *Session {
	questions := make([]domain.Question, len(quiz.Questions))
	copy(questions, quiz.Questions)
	for i := range questions {
		questions[i].Choices = append([]string(nil), questions[i].Choices...)
	}
	return &Session{
		ID:           id,
		QuizID:       quiz.ID,
		AccessCode:   accessCode,
		now:          now,
		tickInterval: time.Second,
		state:        domain.StateLobby,
		questions:    questions,
		current:      -1,
		startedAt:    now(),
		participants: make(map[string]*domain.Participant),
		answers:      make(map[int]map[string]domain.AnswerRecord),
		hub:          newHub(),
	}
}

// Subscribe attaches a channel for the given user id to this session's
// broadcast. Detaching (the cancel func) never alters participant
// standing; it only stops delivery.
func (s *Session) Subscribe(userID string) (<-chan domain.Event, func()) {
	return s.hub.Subscribe(userID)
}

// Join registers a participant if the identity has not joined before and
// returns the current state snapshot. Rejoining refreshes the display
// name only; score and join time are kept.
func (s *Session) Join(userID, displayName string) (StateSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == domain.StateEnded {
		return StateSnapshot{}, domain.ErrSessionEnded
	}

	if p, ok := s.participants[userID]; ok {
		p.DisplayName = displayName
	} else {
		s.participants[userID] = &domain.Participant{
			UserID:      userID,
			DisplayName: displayName,
			JoinedAt:    s.now(),
		}
	}

	s.hub.Publish(domain.Event{
		Type:    domain.EventParticipantsUpdate,
		Payload: domain.ParticipantsUpdatePayload{Roster: s.rosterLocked()},
	})
	return s.snapshotLocked(), nil
}

// Snapshot returns the current view without mutating anything.
func (s *Session) Snapshot() StateSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Advance moves to the next question. Valid from the lobby or from a
// results screen; a live question must be revealed first.
func (s *Session) Advance() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case domain.StateLobby, domain.StateResults:
	case domain.StateEnded:
		return domain.ErrSessionEnded
	default:
		return domain.ErrInvalidState
	}

	next := s.current + 1
	if next >= len(s.questions) {
		return domain.ErrNoMoreQuestions
	}

	s.current = next
	s.state = domain.StateQuestion
	q := s.questions[next]

	s.hub.Publish(domain.Event{
		Type:    domain.EventQuestion,
		Payload: questionView(next, q),
	})

	// Start the clock after the question broadcast so the first tick can
	// never precede the question itself.
	if q.TimeLimitSec > 0 {
		s.deadline = s.now().Add(time.Duration(q.TimeLimitSec) * time.Second)
		index := next
		s.clock = startCountdownEvery(s.tickInterval, q.TimeLimitSec,
			func(remaining int) { s.publishTick(remaining) },
			func() { s.expireQuestion(index) },
		)
	} else {
		s.deadline = time.Time{}
		s.clock = nil
	}
	return nil
}

// SubmitAnswer evaluates and records one answer. Exactly one record per
// (participant, question index) is ever kept; a resubmission is rejected
// with ErrDuplicateAnswer and changes nothing.
func (s *Session) SubmitAnswer(userID, raw string) (domain.AnswerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateQuestion {
		return domain.AnswerRecord{}, domain.ErrNotAcceptingAnswers
	}
	p, ok := s.participants[userID]
	if !ok {
		return domain.AnswerRecord{}, domain.ErrParticipantNotFound
	}

	forQuestion := s.answers[s.current]
	if forQuestion == nil {
		forQuestion = make(map[string]domain.AnswerRecord)
		s.answers[s.current] = forQuestion
	}
	if _, dup := forQuestion[userID]; dup {
		return domain.AnswerRecord{}, domain.ErrDuplicateAnswer
	}

	correct, points := EvaluateAnswer(s.questions[s.current], raw)
	record := domain.AnswerRecord{
		ParticipantID: userID,
		QuestionIndex: s.current,
		RawAnswer:     raw,
		IsCorrect:     correct,
		PointsAwarded: points,
		AnsweredAt:    s.now(),
	}
	forQuestion[userID] = record
	p.Score += points

	if !s.scoresConsistentLocked() {
		log.Printf("session %s: score ledger inconsistent, force ending", s.ID)
		s.endLocked()
		return domain.AnswerRecord{}, domain.ErrSessionEnded
	}

	s.hub.PublishTo(userID, domain.Event{
		Type: domain.EventAnswerSubmitted,
		Payload: domain.AnswerSubmittedPayload{
			QuestionIndex: record.QuestionIndex,
			IsCorrect:     record.IsCorrect,
			PointsEarned:  record.PointsAwarded,
			TotalScore:    p.Score,
		},
	})
	return record, nil
}

// Reveal is the presenter path; clock expiry takes the other. Both funnel
// into the same guarded transition, so whichever runs first wins and the
// loser sees ErrInvalidState.
func (s *Session) Reveal() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revealLocked(s.current, false)
}

// expireQuestion is the clock's expiry callback. A reveal that already
// happened (or a later question) makes it a harmless no-op.
func (s *Session) expireQuestion(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.revealLocked(index, true)
}

func (s *Session) revealLocked(index int, timedOut bool) error {
	if s.state != domain.StateQuestion || s.current != index {
		return domain.ErrInvalidState
	}

	if s.clock != nil {
		s.clock.Stop()
		s.clock = nil
	}
	s.deadline = time.Time{}
	s.state = domain.StateResults

	if timedOut {
		s.hub.Publish(domain.Event{Type: domain.EventTimeUp, Payload: struct{}{}})
	}

	q := s.questions[index]
	var noAnswer []string
	for userID := range s.participants {
		if _, ok := s.answers[index][userID]; !ok {
			noAnswer = append(noAnswer, userID)
		}
	}

	s.hub.Publish(domain.Event{
		Type: domain.EventResults,
		Payload: domain.ResultsPayload{
			QuestionIndex: index,
			QuestionID:    q.ID,
			CorrectAnswer: CorrectAnswerText(q),
			NoAnswer:      noAnswer,
			Leaderboard:   s.leaderboardLocked(),
		},
	})
	return nil
}

// End transitions to the terminal state from anywhere. Calling it on an
// already ended session just returns the existing summary.
func (s *Session) End() (domain.SessionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == domain.StateEnded {
		return s.summary, nil
	}
	s.endLocked()
	return s.summary, nil
}

func (s *Session) endLocked() {
	if s.clock != nil {
		s.clock.Stop()
		s.clock = nil
	}
	s.deadline = time.Time{}
	s.state = domain.StateEnded
	s.endedAt = s.now()

	for _, p := range s.participants {
		p.CompletedAt = s.endedAt
	}

	lb := s.leaderboardLocked()
	summaries := make([]domain.ParticipantSummary, 0, len(s.participants))
	for _, entry := range lb.Entries {
		summaries = append(summaries, s.participantSummaryLocked(entry.UserID))
	}
	s.summary = domain.SessionSummary{
		SessionID:     s.ID,
		QuizID:        s.QuizID,
		AccessCode:    s.AccessCode,
		StartedAt:     s.startedAt,
		EndedAt:       s.endedAt,
		QuestionCount: len(s.questions),
		Leaderboard:   lb,
		Participants:  summaries,
	}

	// Public signal first, then each participant's private report.
	s.hub.Publish(domain.Event{
		Type:    domain.EventSessionEnded,
		Payload: domain.SessionEndedPayload{Leaderboard: lb},
	})
	for i := range summaries {
		summary := summaries[i]
		s.hub.PublishTo(summary.UserID, domain.Event{
			Type: domain.EventSessionEnded,
			Payload: domain.SessionEndedPayload{
				Summary:     &summary,
				FinalScore:  summary.FinalScore,
				Leaderboard: lb,
			},
		})
	}
}

// State reports the current lifecycle phase.
func (s *Session) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// QuestionCount reports the size of the question snapshot.
func (s *Session) QuestionCount() int {
	return len(s.questions)
}

// CurrentIndex reports the question cursor (-1 in the lobby).
func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Summary returns the final report; valid only once ended.
func (s *Session) Summary() (domain.SessionSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.StateEnded {
		return domain.SessionSummary{}, false
	}
	return s.summary, true
}

// Leaderboard builds the current standings.
func (s *Session) Leaderboard() domain.Leaderboard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leaderboardLocked()
}

// AnswerCount reports how many answers were recorded for a question
// index. Used by tests and the results projection.
func (s *Session) AnswerCount(index int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers[index])
}

func (s *Session) publishTick(remaining int) {
	s.hub.Publish(domain.Event{
		Type:    domain.EventTimerUpdate,
		Payload: domain.TimerUpdatePayload{SecondsRemaining: remaining},
	})
}

func (s *Session) leaderboardLocked() domain.Leaderboard {
	snapshot := make([]domain.Participant, 0, len(s.participants))
	for _, p := range s.participants {
		snapshot = append(snapshot, *p)
	}
	return BuildLeaderboard(s.ID, snapshot, s.now())
}

func (s *Session) rosterLocked() []domain.RosterEntry {
	lb := s.leaderboardLocked()
	roster := make([]domain.RosterEntry, len(lb.Entries))
	for i, e := range lb.Entries {
		roster[i] = domain.RosterEntry{UserID: e.UserID, DisplayName: e.DisplayName}
	}
	return roster
}

func (s *Session) snapshotLocked() StateSnapshot {
	snap := StateSnapshot{
		SessionID:     s.ID,
		AccessCode:    s.AccessCode,
		State:         s.state,
		QuestionIndex: s.current,
		Leaderboard:   s.leaderboardLocked(),
		Roster:        s.rosterLocked(),
	}
	if s.state == domain.StateQuestion && s.current >= 0 {
		view := questionView(s.current, s.questions[s.current])
		snap.Question = &view
		if !s.deadline.IsZero() {
			if remaining := int(s.deadline.Sub(s.now()).Round(time.Second) / time.Second); remaining > 0 {
				snap.SecondsRemaining = remaining
			}
		}
	}
	return snap
}

func (s *Session) participantSummaryLocked(userID string) domain.ParticipantSummary {
	p := s.participants[userID]
	summary := domain.ParticipantSummary{
		UserID:      p.UserID,
		DisplayName: p.DisplayName,
		FinalScore:  p.Score,
		PerQuestion: make([]domain.QuestionOutcome, 0, s.current+1),
	}
	for i := 0; i <= s.current && i < len(s.questions); i++ {
		outcome := domain.QuestionOutcome{
			QuestionIndex: i,
			Prompt:        s.questions[i].Prompt,
		}
		if record, ok := s.answers[i][userID]; ok {
			outcome.Answered = true
			outcome.IsCorrect = record.IsCorrect
			outcome.PointsAwarded = record.PointsAwarded
			if record.IsCorrect {
				summary.CorrectCount++
			}
		}
		summary.PerQuestion = append(summary.PerQuestion, outcome)
	}
	return summary
}

// scoresConsistentLocked checks that every score equals the sum of that
// participant's awarded points.
func (s *Session) scoresConsistentLocked() bool {
	totals := make(map[string]int, len(s.participants))
	for _, records := range s.answers {
		for userID, record := range records {
			totals[userID] += record.PointsAwarded
		}
	}
	for userID, p := range s.participants {
		if p.Score != totals[userID] {
			return false
		}
	}
	return true
}

func questionView(index int, q domain.Question) domain.QuestionView {
	return domain.QuestionView{
		Index:        index,
		ID:           q.ID,
		Prompt:       q.Prompt,
		Type:         q.Type,
		Choices:      q.Choices,
		Points:       questionPoints(q),
		TimeLimitSec: q.TimeLimitSec,
	}
}
