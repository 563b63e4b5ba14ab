package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jaminalder/tictactoe-timeline/internal/app"
)

type handlers struct {
	svc       *app.Service
	tpl       *templates
	log       *zap.Logger
	heartbeat time.Duration
}

func (h *handlers) renderBoard(v app.GameView, errMsg string, desc bool) []byte {
	return renderTemplate(h.tpl.board, "", boardData{ID: v.ID, Game: v, Error: errMsg, Desc: desc})
}

func writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
	writeHTML(w, http.StatusOK, renderTemplate(h.tpl.index, "base", nil))
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
	gs, err := h.svc.CreateGame()
	if err != nil {
		h.log.Error("create game", zap.Error(err))
		http.Error(w, "failed to create", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/game/"+gs.ID, http.StatusSeeOther)
}

func (h *handlers) view(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	gs, ok := h.svc.Get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	data := boardData{ID: gs.ID, Game: *gs, Desc: descOrder(r)}
	writeHTML(w, http.StatusOK, renderTemplate(h.tpl.game, "base", data))
}

func (h *handlers) remove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(id); err != nil {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *handlers) play(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	desc := descOrder(r)
	cell, err := strconv.Atoi(r.FormValue("cell"))
	if err != nil {
		h.respondWithError(w, r, id, http.StatusBadRequest, "Invalid cell", desc)
		return
	}
	gs, err := h.svc.Play(id, cell)
	switch {
	case errors.Is(err, app.ErrNotFound):
		http.NotFound(w, r)
	case errors.Is(err, app.ErrIllegalMove):
		// Not a fault: the board is re-rendered with a hint.
		h.respondWithError(w, r, id, http.StatusOK, "Cell is taken or the game is over", desc)
	case err != nil:
		h.log.Error("play", zap.String("game_id", id), zap.Error(err))
		http.Error(w, "invalid move", http.StatusInternalServerError)
	default:
		writeHTML(w, http.StatusOK, h.renderBoard(*gs, "", desc))
	}
}

func (h *handlers) jump(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	desc := descOrder(r)
	pos, err := strconv.Atoi(r.FormValue("position"))
	if err != nil {
		h.respondWithError(w, r, id, http.StatusBadRequest, "Invalid history position", desc)
		return
	}
	gs, err := h.svc.JumpTo(id, pos)
	switch {
	case errors.Is(err, app.ErrNotFound):
		http.NotFound(w, r)
	case errors.Is(err, app.ErrPositionOutOfRange):
		h.respondWithError(w, r, id, http.StatusBadRequest, "Invalid history position", desc)
	case err != nil:
		h.log.Error("jump", zap.String("game_id", id), zap.Error(err))
		http.Error(w, "invalid jump", http.StatusInternalServerError)
	default:
		writeHTML(w, http.StatusOK, h.renderBoard(*gs, "", desc))
	}
}

func (h *handlers) respondWithError(w http.ResponseWriter, r *http.Request, id string, status int, msg string, desc bool) {
	gs, ok := h.svc.Get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeHTML(w, status, h.renderBoard(*gs, msg, desc))
}

func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	// In tests or non-EventSource requests, just acknowledge headers and return
	if r.Header.Get("Accept") != "text/event-stream" {
		w.WriteHeader(http.StatusOK)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}
	ctx := r.Context()
	ch, unsub, err := h.svc.Subscribe(ctx, id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer unsub()
	desc := descOrder(r)

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = io.WriteString(w, ": ping\n\n")
			flusher.Flush()
		case b, ok := <-ch:
			if !ok {
				return
			}
			// Broadcast payloads are rendered ascending.
			if desc {
				if gs, found := h.svc.Get(id); found {
					b = h.renderBoard(*gs, "", true)
				}
			}
			writeEvent(w, "board", b)
			flusher.Flush()
		}
	}
}

// writeEvent emits one SSE event, prefixing every payload line with data:.
func writeEvent(w io.Writer, name string, payload []byte) {
	_, _ = fmt.Fprintf(w, "event: %s\n", name)
	for _, line := range bytes.Split(payload, []byte("\n")) {
		_, _ = fmt.Fprintf(w, "data: %s\n", line)
	}
	_, _ = io.WriteString(w, "\n")
}
