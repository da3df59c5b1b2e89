package app

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
)

// codeAlphabet avoids look-alike characters so codes stay easy to type
// from a projector screen.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const defaultCodeLength = 6

// Registry is the process-wide table of live sessions, keyed by access
// code and by session id. Codes are unique among active sessions only;
// ending a session releases its code for reuse.
type Registry struct {
	codeLength int

	mu     sync.RWMutex
	byCode map[string]*Session
	byID   map[string]*Session
}

func NewRegistry(codeLength int) *Registry {
	if codeLength <= 0 {
		codeLength = defaultCodeLength
	}
	return &Registry{
		codeLength: codeLength,
		byCode:     make(map[string]*Session),
		byID:       make(map[string]*Session),
	}
}

// Add generates an unused access code, builds the session via create and
// registers it atomically, so two concurrent starts can never share a
// code.
func (r *Registry) Add(create func(id, accessCode string) *Session) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for attempt := 0; attempt < 100; attempt++ {
		code, err := randomCode(r.codeLength)
		if err != nil {
			return nil, err
		}
		if _, taken := r.byCode[code]; taken {
			continue
		}
		id, err := randomID()
		if err != nil {
			return nil, err
		}
		session := create(id, code)
		r.byCode[code] = session
		r.byID[id] = session
		return session, nil
	}
	return nil, fmt.Errorf("could not allocate an unused access code")
}

// ByCode resolves an access code to its live session.
func (r *Registry) ByCode(code string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.byCode[code]
	return session, ok
}

// ByID resolves a session id to its live session.
func (r *Registry) ByID(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.byID[id]
	return session, ok
}

// Remove drops a session from the live tables. Its access code becomes
// reusable; result data lives on in the archive.
func (r *Registry) Remove(session *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.byCode[session.AccessCode]; ok && current == session {
		delete(r.byCode, session.AccessCode)
	}
	delete(r.byID, session.ID)
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func randomCode(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}

func randomID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
