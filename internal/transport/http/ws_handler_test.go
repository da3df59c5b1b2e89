package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"livequiz-service/internal/app"
	"livequiz-service/internal/domain"
	"livequiz-service/internal/infra/memory"
)

func newTestServer(t *testing.T) (*httptest.Server, *app.SessionService) {
	t.Helper()
	quizRepo := memory.NewQuizRepository(memory.NewStaticQuizLoader(sampleQuizzes()), time.Minute)
	service := app.NewSessionService(app.NewRegistry(6), quizRepo, memory.NewResultArchive())
	server := httptest.NewServer(NewRouter(service, ""))
	t.Cleanup(server.Close)
	return server, service
}

func TestWebSocketSessionFlow(t *testing.T) {
	server, _ := newTestServer(t)
	wsBase := "ws" + server.URL[len("http"):]

	host, _, err := websocket.DefaultDialer.Dial(wsBase+"/ws/host?quizId=quiz-1", nil)
	if err != nil {
		t.Fatalf("dial host: %v", err)
	}
	defer host.Close()

	created := readUntil(t, host, "sessionCreated")
	code, _ := created["accessCode"].(string)
	if code == "" {
		t.Fatalf("expected access code in %v", created)
	}

	player, _, err := websocket.DefaultDialer.Dial(wsBase+"/ws/play?code="+code+"&userId=u1&name=Alice", nil)
	if err != nil {
		t.Fatalf("dial player: %v", err)
	}
	defer player.Close()
	readUntil(t, player, "joined")

	if err := host.WriteJSON(map[string]any{"type": "advance"}); err != nil {
		t.Fatalf("advance: %v", err)
	}
	question := readUntil(t, player, "question")
	if question["prompt"] != "What is 2 + 2?" {
		t.Fatalf("unexpected question payload: %v", question)
	}
	if _, leaked := question["correctChoice"]; leaked {
		t.Fatalf("question broadcast leaks the correct answer: %v", question)
	}

	if err := player.WriteJSON(map[string]any{"type": "answer", "payload": map[string]any{"answer": "1"}}); err != nil {
		t.Fatalf("answer: %v", err)
	}
	ack := readUntil(t, player, "answerSubmitted")
	if ack["isCorrect"] != true {
		t.Fatalf("expected correct acknowledgment, got %v", ack)
	}

	if err := host.WriteJSON(map[string]any{"type": "reveal"}); err != nil {
		t.Fatalf("reveal: %v", err)
	}
	results := readUntil(t, host, "results")
	if results["correctAnswer"] != "4" {
		t.Fatalf("expected correct answer revealed, got %v", results)
	}

	if err := host.WriteJSON(map[string]any{"type": "end"}); err != nil {
		t.Fatalf("end: %v", err)
	}
	ended := readUntil(t, player, "sessionEnded")
	if _, ok := ended["leaderboard"]; !ok {
		t.Fatalf("expected leaderboard in session end, got %v", ended)
	}
}

func TestResultsEndpointAfterEnd(t *testing.T) {
	server, service := newTestServer(t)

	session, err := service.StartSession(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, _, err := service.Join(session.AccessCode, "u1", "Alice"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := service.EndSession(context.Background(), session); err != nil {
		t.Fatalf("end: %v", err)
	}

	resp, err := http.Get(server.URL + "/sessions/" + session.ID + "/results")
	if err != nil {
		t.Fatalf("get results: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp2, err := http.Get(server.URL + "/sessions/missing/results")
	if err != nil {
		t.Fatalf("get missing results: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown session, got %d", resp2.StatusCode)
	}
}

func TestJoinQREndpoint(t *testing.T) {
	server, service := newTestServer(t)

	session, err := service.StartSession(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	resp, err := http.Get(server.URL + "/join/" + session.AccessCode + "/qr")
	if err != nil {
		t.Fatalf("get qr: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("expected png, got %s", ct)
	}

	resp2, err := http.Get(server.URL + "/join/NOPE42/qr")
	if err != nil {
		t.Fatalf("get missing qr: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown code, got %d", resp2.StatusCode)
	}
}

// readUntil skips unrelated events (roster updates, leaderboards) until
// the wanted message type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, want string) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg struct {
			Type    string         `json:"type"`
			Payload map[string]any `json:"payload"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read waiting for %s: %v", want, err)
		}
		if msg.Type == want {
			return msg.Payload
		}
		if msg.Type == "error" {
			t.Fatalf("unexpected error event while waiting for %s: %v", want, msg.Payload)
		}
	}
}

func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID: "quiz-1",
			Questions: []domain.Question{
				{
					ID:            "q1",
					Prompt:        "What is 2 + 2?",
					Type:          domain.QuestionChoice,
					Choices:       []string{"3", "4", "5"},
					CorrectChoice: 1,
					Points:        1,
				},
			},
		},
	}
}
