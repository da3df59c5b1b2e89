package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"livequiz-service/internal/app"
	"livequiz-service/internal/domain"
)

type WSHandler struct {
	service  *app.SessionService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.SessionService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type sessionCreatedPayload struct {
	SessionID     string `json:"sessionId"`
	AccessCode    string `json:"accessCode"`
	QuestionCount int    `json:"questionCount"`
}

type answerPayload struct {
	Answer string `json:"answer"`
}

// ServeHost upgrades the presenter connection, starts a fresh session
// and drives question progression from inbound messages.
func (h *WSHandler) ServeHost(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session, err := h.service.StartSession(r.Context(), quizID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage{Type: string(domain.EventError), Payload: domain.ErrorPayload{Message: err.Error()}})
		return
	}

	hostID := "host:" + session.ID
	events, cancelSub := session.Subscribe(hostID)
	defer cancelSub()

	h.pump(conn, events, func(inbound inboundMessage, send chan<- outboundMessage) {
		defer func() {
			if cause := recover(); cause != nil {
				h.service.Abort(r.Context(), session, cause)
			}
		}()
		switch inbound.Type {
		case "advance":
			if err := session.Advance(); err != nil {
				sendError(send, err)
			}
		case "reveal":
			// A reveal that lost the race against clock expiry is not a
			// failure the presenter needs to hear about.
			if err := session.Reveal(); err != nil && !errors.Is(err, domain.ErrInvalidState) {
				sendError(send, err)
			}
		case "end":
			if _, err := h.service.EndSession(r.Context(), session); err != nil {
				sendError(send, err)
			}
		default:
			sendError(send, errors.New("unsupported message type"))
		}
	}, func(send chan<- outboundMessage) {
		send <- outboundMessage{Type: "sessionCreated", Payload: sessionCreatedPayload{
			SessionID:     session.ID,
			AccessCode:    session.AccessCode,
			QuestionCount: session.QuestionCount(),
		}}
	})
}

// ServePlay upgrades a participant connection, joins the session behind
// the access code and accepts answers. Closing the connection only
// detaches the channel; the participant's standing survives a rejoin.
func (h *WSHandler) ServePlay(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	userID := r.URL.Query().Get("userId")
	displayName := r.URL.Query().Get("name")
	if code == "" || userID == "" || displayName == "" {
		http.Error(w, "missing code, userId, or name", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session, snapshot, err := h.service.Join(code, userID, displayName)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage{Type: string(domain.EventError), Payload: domain.ErrorPayload{Message: err.Error()}})
		return
	}

	events, cancelSub := session.Subscribe(userID)
	defer cancelSub()

	h.pump(conn, events, func(inbound inboundMessage, send chan<- outboundMessage) {
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				sendError(send, errors.New("invalid answer payload"))
				return
			}
			if _, err := session.SubmitAnswer(userID, payload.Answer); err != nil {
				sendError(send, err)
			}
			// The private answerSubmitted acknowledgment arrives via the
			// subscription, not as a direct reply.
		case "leave":
			cancelSub()
		default:
			sendError(send, errors.New("unsupported message type"))
		}
	}, func(send chan<- outboundMessage) {
		send <- outboundMessage{Type: "joined", Payload: snapshot}
	})
}

// pump owns the connection's read and write sides: a single writer
// goroutine serializes all outbound JSON, a forwarder turns session
// events into outbound messages, and the read loop dispatches inbound
// messages until the peer goes away.
func (h *WSHandler) pump(conn *websocket.Conn, events <-chan domain.Event, handle func(inboundMessage, chan<- outboundMessage), hello func(chan<- outboundMessage)) {
	send := make(chan outboundMessage, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(eventsDone)
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage{Type: string(ev.Type), Payload: ev.Payload}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	hello(send)

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		handle(inbound, send)
	}

	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}

func sendError(send chan<- outboundMessage, err error) {
	send <- outboundMessage{Type: string(domain.EventError), Payload: domain.ErrorPayload{Message: err.Error()}}
}
