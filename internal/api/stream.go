package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const streamKeepAlive = 25 * time.Second

// StreamWords handles GET /api/words/stream. Each word snapshot is sent as a
// "snapshot" event; a store failure is sent as an "error" event and the
// stream stays open for the next snapshot.
func (h *Handler) StreamWords(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("cannot clear write deadline", "error", err)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		return
	}

	ownerID := owner(r)
	snapshots := h.Core.DB.Subscribe(r.Context(), ownerID)
	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			var err error
			if snap.Err != nil {
				h.logger.Warn("word snapshot failed", "owner_id", ownerID, "error", snap.Err)
				err = writeEvent(w, "error", ErrorResponse{Error: "Could not load your words. Please try again later."})
			} else {
				err = writeEvent(w, "snapshot", snap.Words)
			}
			if err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	return err
}
