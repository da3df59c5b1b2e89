package app

import (
	"testing"
	"time"

	"livequiz-service/internal/domain"
)

func twoQuestionQuiz() domain.Quiz {
	return domain.Quiz{
		ID: "quiz-1",
		Questions: []domain.Question{
			{
				ID:            "q1",
				Prompt:        "Pick the second option",
				Type:          domain.QuestionChoice,
				Choices:       []string{"wrong", "right", "also wrong"},
				CorrectChoice: 1,
				Points:        10,
			},
			{
				ID:            "q2",
				Prompt:        "Pick the first option",
				Type:          domain.QuestionChoice,
				Choices:       []string{"right", "wrong"},
				CorrectChoice: 0,
				Points:        5,
			},
		},
	}
}

func newTestSession(t *testing.T, quiz domain.Quiz) *Session {
	t.Helper()
	return NewSession("sess-1", "CODE42", quiz)
}

func TestLifecycleEndToEnd(t *testing.T) {
	session := newTestSession(t, twoQuestionQuiz())

	if _, err := session.Join("a", "Alice"); err != nil {
		t.Fatalf("join a: %v", err)
	}
	if _, err := session.Join("b", "Bob"); err != nil {
		t.Fatalf("join b: %v", err)
	}

	if err := session.Advance(); err != nil {
		t.Fatalf("advance to q1: %v", err)
	}
	record, err := session.SubmitAnswer("a", "1")
	if err != nil {
		t.Fatalf("submit a: %v", err)
	}
	if !record.IsCorrect || record.PointsAwarded != 10 {
		t.Fatalf("expected correct +10, got %+v", record)
	}
	// Bob never answers q1.
	if err := session.Reveal(); err != nil {
		t.Fatalf("reveal q1: %v", err)
	}

	lb := session.Leaderboard()
	if lb.Entries[0].UserID != "a" || lb.Entries[0].Score != 10 {
		t.Fatalf("expected Alice leading with 10, got %+v", lb.Entries)
	}
	if lb.Entries[1].UserID != "b" || lb.Entries[1].Score != 0 {
		t.Fatalf("expected Bob at 0, got %+v", lb.Entries)
	}

	if err := session.Advance(); err != nil {
		t.Fatalf("advance to q2: %v", err)
	}
	if _, err := session.SubmitAnswer("a", "0"); err != nil {
		t.Fatalf("submit a q2: %v", err)
	}
	if _, err := session.SubmitAnswer("b", "0"); err != nil {
		t.Fatalf("submit b q2: %v", err)
	}
	if err := session.Reveal(); err != nil {
		t.Fatalf("reveal q2: %v", err)
	}

	summary, err := session.End()
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if summary.Leaderboard.Entries[0].Score != 15 || summary.Leaderboard.Entries[1].Score != 5 {
		t.Fatalf("expected final 15/5, got %+v", summary.Leaderboard.Entries)
	}
	for _, p := range summary.Participants {
		switch p.UserID {
		case "a":
			if p.CorrectCount != 2 || p.FinalScore != 15 {
				t.Fatalf("alice summary wrong: %+v", p)
			}
		case "b":
			if p.CorrectCount != 1 || p.FinalScore != 5 {
				t.Fatalf("bob summary wrong: %+v", p)
			}
			if len(p.PerQuestion) != 2 || p.PerQuestion[0].Answered {
				t.Fatalf("bob q1 should read as no answer: %+v", p.PerQuestion)
			}
		}
	}
}

func TestQuestionIndexNeverRewinds(t *testing.T) {
	session := newTestSession(t, twoQuestionQuiz())
	if _, err := session.Join("a", "Alice"); err != nil {
		t.Fatalf("join: %v", err)
	}

	last := session.CurrentIndex()
	steps := []func() error{
		session.Advance,
		session.Reveal,
		session.Advance,
		session.Reveal,
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if idx := session.CurrentIndex(); idx < last {
			t.Fatalf("question index went backwards: %d -> %d", last, idx)
		} else {
			last = idx
		}
	}

	if err := session.Advance(); err != domain.ErrNoMoreQuestions {
		t.Fatalf("expected no more questions, got %v", err)
	}
}

func TestAdvanceInvalidFromLiveQuestion(t *testing.T) {
	session := newTestSession(t, twoQuestionQuiz())
	if err := session.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if err := session.Advance(); err != domain.ErrInvalidState {
		t.Fatalf("expected invalid state, got %v", err)
	}
}

func TestDuplicateAnswerRejected(t *testing.T) {
	session := newTestSession(t, twoQuestionQuiz())
	if _, err := session.Join("a", "Alice"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := session.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}

	if _, err := session.SubmitAnswer("a", "1"); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := session.SubmitAnswer("a", "0"); err != domain.ErrDuplicateAnswer {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if n := session.AnswerCount(0); n != 1 {
		t.Fatalf("expected exactly one record, got %d", n)
	}
	if lb := session.Leaderboard(); lb.Entries[0].Score != 10 {
		t.Fatalf("second submit must not change the score: %+v", lb.Entries)
	}
}

func TestSubmitGuards(t *testing.T) {
	session := newTestSession(t, twoQuestionQuiz())
	if _, err := session.Join("a", "Alice"); err != nil {
		t.Fatalf("join: %v", err)
	}

	if _, err := session.SubmitAnswer("a", "1"); err != domain.ErrNotAcceptingAnswers {
		t.Fatalf("expected not accepting in lobby, got %v", err)
	}

	if err := session.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if _, err := session.SubmitAnswer("ghost", "1"); err != domain.ErrParticipantNotFound {
		t.Fatalf("expected participant error, got %v", err)
	}

	if err := session.Reveal(); err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if _, err := session.SubmitAnswer("a", "1"); err != domain.ErrNotAcceptingAnswers {
		t.Fatalf("expected not accepting after reveal, got %v", err)
	}
}

func TestJoinAfterEnd(t *testing.T) {
	session := newTestSession(t, twoQuestionQuiz())
	if _, err := session.End(); err != nil {
		t.Fatalf("end: %v", err)
	}
	if _, err := session.Join("late", "Latecomer"); err != domain.ErrSessionEnded {
		t.Fatalf("expected session ended, got %v", err)
	}
}

func TestEndIdempotent(t *testing.T) {
	session := newTestSession(t, twoQuestionQuiz())
	if _, err := session.Join("a", "Alice"); err != nil {
		t.Fatalf("join: %v", err)
	}

	first, err := session.End()
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	second, err := session.End()
	if err != nil {
		t.Fatalf("second end must be a no-op, got %v", err)
	}
	if !first.EndedAt.Equal(second.EndedAt) {
		t.Fatalf("second end changed the summary: %v vs %v", first.EndedAt, second.EndedAt)
	}
}

func TestRevealAndExpiryMutuallyExclusive(t *testing.T) {
	quiz := twoQuestionQuiz()
	quiz.Questions[0].TimeLimitSec = 1
	session := newTestSession(t, quiz)
	session.tickInterval = 2 * time.Millisecond

	if _, err := session.Join("a", "Alice"); err != nil {
		t.Fatalf("join: %v", err)
	}
	events, cancel := session.Subscribe("a")
	defer cancel()

	if err := session.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}

	// Race the presenter against the clock. Whichever loses must be
	// absorbed as ErrInvalidState, never a second results event.
	time.Sleep(3 * time.Millisecond)
	if err := session.Reveal(); err != nil && err != domain.ErrInvalidState {
		t.Fatalf("unexpected reveal error: %v", err)
	}

	deadline := time.After(200 * time.Millisecond)
	results := 0
	for done := false; !done; {
		select {
		case ev, ok := <-events:
			if !ok {
				done = true
				break
			}
			if ev.Type == domain.EventResults {
				results++
			}
		case <-deadline:
			done = true
		}
	}
	if results != 1 {
		t.Fatalf("expected exactly one results event, got %d", results)
	}
	if state := session.State(); state != domain.StateResults {
		t.Fatalf("expected results state, got %s", state)
	}
}

func TestClockExpiryRevealsOnItsOwn(t *testing.T) {
	quiz := twoQuestionQuiz()
	quiz.Questions[0].TimeLimitSec = 2
	session := newTestSession(t, quiz)
	session.tickInterval = 2 * time.Millisecond

	if _, err := session.Join("a", "Alice"); err != nil {
		t.Fatalf("join: %v", err)
	}
	events, cancel := session.Subscribe("a")
	defer cancel()

	if err := session.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}

	sawTimeUp := false
	sawResults := false
	deadline := time.After(500 * time.Millisecond)
	for !(sawTimeUp && sawResults) {
		select {
		case ev := <-events:
			switch ev.Type {
			case domain.EventTimeUp:
				sawTimeUp = true
			case domain.EventResults:
				sawResults = true
			}
		case <-deadline:
			t.Fatalf("timed out waiting for expiry: timeUp=%v results=%v", sawTimeUp, sawResults)
		}
	}
	if state := session.State(); state != domain.StateResults {
		t.Fatalf("expected results state, got %s", state)
	}
	if _, err := session.SubmitAnswer("a", "1"); err != domain.ErrNotAcceptingAnswers {
		t.Fatalf("answers must be locked after expiry, got %v", err)
	}
}

func TestLateJoinerSeesRunningQuestion(t *testing.T) {
	quiz := twoQuestionQuiz()
	quiz.Questions[0].TimeLimitSec = 60
	session := newTestSession(t, quiz)

	if _, err := session.Join("a", "Alice"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := session.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}

	snapshot, err := session.Join("late", "Latecomer")
	if err != nil {
		t.Fatalf("late join: %v", err)
	}
	if snapshot.State != domain.StateQuestion || snapshot.Question == nil {
		t.Fatalf("late joiner should see the live question: %+v", snapshot)
	}
	if snapshot.Question.Index != 0 {
		t.Fatalf("expected question 0, got %d", snapshot.Question.Index)
	}
	if snapshot.SecondsRemaining <= 0 || snapshot.SecondsRemaining > 60 {
		t.Fatalf("expected a running countdown, got %d", snapshot.SecondsRemaining)
	}

	// The late joiner can still answer and keeps standing afterwards.
	if _, err := session.SubmitAnswer("late", "1"); err != nil {
		t.Fatalf("late submit: %v", err)
	}
}

func TestPrivateAckReachesSubmitterOnly(t *testing.T) {
	session := newTestSession(t, twoQuestionQuiz())
	if _, err := session.Join("a", "Alice"); err != nil {
		t.Fatalf("join a: %v", err)
	}
	if _, err := session.Join("b", "Bob"); err != nil {
		t.Fatalf("join b: %v", err)
	}

	aliceEvents, cancelA := session.Subscribe("a")
	defer cancelA()
	bobEvents, cancelB := session.Subscribe("b")
	defer cancelB()

	if err := session.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if _, err := session.SubmitAnswer("a", "1"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if !sawEvent(t, aliceEvents, domain.EventAnswerSubmitted) {
		t.Fatalf("alice never received her acknowledgment")
	}
	if sawEvent(t, bobEvents, domain.EventAnswerSubmitted) {
		t.Fatalf("bob must not see alice's acknowledgment")
	}
}

// sawEvent drains buffered events looking for the given type.
func sawEvent(t *testing.T, events <-chan domain.Event, want domain.EventType) bool {
	t.Helper()
	for {
		select {
		case ev := <-events:
			if ev.Type == want {
				return true
			}
		default:
			return false
		}
	}
}

func TestScoreMatchesAnswerLedger(t *testing.T) {
	session := newTestSession(t, twoQuestionQuiz())
	if _, err := session.Join("a", "Alice"); err != nil {
		t.Fatalf("join: %v", err)
	}

	total := 0
	for i := 0; i < 2; i++ {
		if err := session.Advance(); err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
		record, err := session.SubmitAnswer("a", "1")
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		total += record.PointsAwarded
		if err := session.Reveal(); err != nil {
			t.Fatalf("reveal %d: %v", i, err)
		}
		if lb := session.Leaderboard(); lb.Entries[0].Score != total {
			t.Fatalf("score %d does not match awarded sum %d", lb.Entries[0].Score, total)
		}
	}
}
