package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	qrcode "github.com/skip2/go-qrcode"
	"livequiz-service/internal/app"
	"livequiz-service/internal/domain"
)

// NewRouter wires all HTTP routes: the two websocket endpoints, the
// post-hoc results projection and the QR join link.
func NewRouter(service *app.SessionService, publicURL string) http.Handler {
	ws := NewWSHandler(service)
	api := &apiHandler{service: service, publicURL: strings.TrimSuffix(publicURL, "/")}

	router := httprouter.New()
	router.HandlerFunc(http.MethodGet, "/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	router.HandlerFunc(http.MethodGet, "/ws/host", ws.ServeHost)
	router.HandlerFunc(http.MethodGet, "/ws/play", ws.ServePlay)
	router.GET("/sessions/:id/results", api.results)
	router.GET("/join/:code/qr", api.joinQR)
	return router
}

type apiHandler struct {
	service   *app.SessionService
	publicURL string
}

// results serves the read-only projection of an ended session.
func (h *apiHandler) results(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	summary, err := h.service.Results(r.Context(), params.ByName("id"))
	if errors.Is(err, domain.ErrSessionNotFound) {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	if errors.Is(err, domain.ErrInvalidState) {
		http.Error(w, "session still running", http.StatusConflict)
		return
	}
	if err != nil {
		log.Printf("results %s: %v", params.ByName("id"), err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(summary); err != nil {
		log.Printf("encode results: %v", err)
	}
}

// joinQR renders the join link for an active access code as a QR code,
// suitable for putting on the presenter's screen.
func (h *apiHandler) joinQR(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	code := params.ByName("code")
	if _, err := h.service.SessionByCode(code); err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	base := h.publicURL
	if base == "" {
		base = "http://" + r.Host
	}
	link := fmt.Sprintf("%s/play?code=%s", base, code)

	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		log.Printf("qr encode: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}
