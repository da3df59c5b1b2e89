package app

import (
	"context"
	"errors"
	"log"
	"time"

	"livequiz-service/internal/domain"
)

// QuizRepository loads quiz content (from cache/backing store). Sessions
// snapshot the result at start time.
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// ResultArchive retains ended-session summaries for post-hoc result
// queries, independently of the live registry.
type ResultArchive interface {
	SaveSummary(ctx context.Context, summary domain.SessionSummary) error
	GetSummary(ctx context.Context, sessionID string) (domain.SessionSummary, error)
}

// SessionService is the coordinator: it resolves inbound operations to
// their target session and owns session creation and teardown.
type SessionService struct {
	registry *Registry
	quizzes  QuizRepository
	results  ResultArchive
	now      func() time.Time
}

func NewSessionService(registry *Registry, quizzes QuizRepository, results ResultArchive) *SessionService {
	return &SessionService{
		registry: registry,
		quizzes:  quizzes,
		results:  results,
		now:      time.Now,
	}
}

// StartSession snapshots the quiz and registers a fresh session in the
// lobby under a newly generated access code.
func (s *SessionService) StartSession(ctx context.Context, quizID string) (*Session, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if len(quiz.Questions) == 0 {
		return nil, domain.ErrQuizHasNoQuestions
	}
	return s.registry.Add(func(id, accessCode string) *Session {
		return newSessionWithClock(id, accessCode, quiz, s.now)
	})
}

// Join resolves the access code and registers the identity with the
// session. Ended or unknown codes both read as not found.
func (s *SessionService) Join(code, userID, displayName string) (*Session, StateSnapshot, error) {
	session, ok := s.registry.ByCode(code)
	if !ok {
		return nil, StateSnapshot{}, domain.ErrSessionNotFound
	}
	snapshot, err := session.Join(userID, displayName)
	if errors.Is(err, domain.ErrSessionEnded) {
		return nil, StateSnapshot{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, StateSnapshot{}, err
	}
	return session, snapshot, nil
}

// SessionByCode resolves a live session by access code without joining.
func (s *SessionService) SessionByCode(code string) (*Session, error) {
	session, ok := s.registry.ByCode(code)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// Session resolves a live session by id.
func (s *SessionService) Session(id string) (*Session, error) {
	session, ok := s.registry.ByID(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// EndSession moves the session to its terminal state, releases the
// access code and archives the summary. Idempotent.
func (s *SessionService) EndSession(ctx context.Context, session *Session) (domain.SessionSummary, error) {
	alreadyEnded := session.State() == domain.StateEnded

	summary, err := session.End()
	if err != nil {
		return domain.SessionSummary{}, err
	}
	if alreadyEnded {
		return summary, nil
	}

	s.registry.Remove(session)
	if err := s.results.SaveSummary(ctx, summary); err != nil {
		// Archival is best effort; the summary stays readable on the
		// session object itself.
		log.Printf("session %s: archive summary: %v", session.ID, err)
	}
	return summary, nil
}

// Abort force-ends a session after an internal failure so one broken
// session can never take the registry down with it.
func (s *SessionService) Abort(ctx context.Context, session *Session, cause any) {
	log.Printf("session %s: aborting after internal error: %v", session.ID, cause)
	if _, err := s.EndSession(ctx, session); err != nil {
		log.Printf("session %s: abort: %v", session.ID, err)
	}
}

// Results returns the post-hoc projection for an ended session, from the
// live object if it is still around, otherwise from the archive.
func (s *SessionService) Results(ctx context.Context, sessionID string) (domain.SessionSummary, error) {
	if session, ok := s.registry.ByID(sessionID); ok {
		if summary, ended := session.Summary(); ended {
			return summary, nil
		}
		return domain.SessionSummary{}, domain.ErrInvalidState
	}
	return s.results.GetSummary(ctx, sessionID)
}
