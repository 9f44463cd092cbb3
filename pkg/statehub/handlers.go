package statehub

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vango-dev/reactor/internal/errors"
	"github.com/vango-dev/reactor/pkg/reactive"
)

// maxBodyBytes caps PUT bodies.
const maxBodyBytes = 1 << 20

type snapshotResponse struct {
	Version uint64         `json:"version"`
	State   map[string]any `json:"state"`
}

type statsResponse struct {
	Clients int            `json:"clients"`
	Version uint64         `json:"version"`
	Engine  reactive.Stats `json:"engine"`
}

func (h *Hub) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	state, version, err := h.Snapshot(r.Context())
	if err != nil {
		h.writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotResponse{Version: version, State: state})
}

func (h *Hub) handleGet(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var (
		value any
		found bool
	)
	err := h.loop.Do(r.Context(), func(*reactive.Engine) {
		if found = h.state.Has(key); found {
			value = plain(h.state.Get(key))
		}
	})
	if err != nil {
		h.writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	if !found {
		h.writeError(w, http.StatusNotFound, errors.New(errors.CodeNotFound).WithDetail("key "+key))
		return
	}
	writeJSON(w, http.StatusOK, value)
}

func (h *Hub) handlePut(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, errors.New(errors.CodeBadRequest).Wrap(err))
		return
	}
	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		h.writeError(w, http.StatusBadRequest, errors.New(errors.CodeBadRequest).
			WithDetail("Body is not valid JSON: "+err.Error()))
		return
	}

	if err := h.Set(r.Context(), key, value); err != nil {
		h.writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Hub) handleDelete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	found, err := h.Delete(r.Context(), key)
	if err != nil {
		h.writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	if !found {
		h.writeError(w, http.StatusNotFound, errors.New(errors.CodeNotFound).WithDetail("key "+key))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Hub) handleStats(w http.ResponseWriter, r *http.Request) {
	var resp statsResponse
	err := h.loop.Do(r.Context(), func(e *reactive.Engine) {
		resp.Engine = e.Stats()
		resp.Version = h.version
	})
	if err != nil {
		h.writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	resp.Clients = h.ClientCount()
	writeJSON(w, http.StatusOK, resp)
}

// handleWebSocket upgrades the request and streams change events until the
// client disconnects.
func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.Debug("websocket upgrade failed", "err", err)
		return
	}

	var (
		c  *subscriber
		ok bool
	)
	err = h.loop.Do(r.Context(), func(*reactive.Engine) {
		if c, ok = h.register(conn); ok {
			state, _ := plain(h.state).(map[string]any)
			c.send(Event{Type: EventSnapshot, Value: state, Version: h.version})
		}
	})
	if err != nil || !ok {
		conn.Close()
		return
	}
	h.logger.Debug("subscriber connected", "subscriber", c.id)

	// Reads only detect the close; the feed is one-way.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.unregister(c)
				return
			}
		}
	}()

	if err := c.writeLoop(DefaultWriteTimeout); err != nil {
		h.logger.Debug("subscriber write failed", "subscriber", c.id, "err", err)
	}
	h.unregister(c)
	h.logger.Debug("subscriber disconnected", "subscriber", c.id)
}

func (h *Hub) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, errors.FromError(err, errors.CodeBadRequest))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
