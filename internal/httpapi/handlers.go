package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/chainreaction/client/internal/game"
	"github.com/chainreaction/client/internal/ws"
)

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func Status(c Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, c.Info())
	}
}

func Board(c Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, c.Snapshot())
	}
}

type moveRequest struct {
	Row *int `json:"row"`
	Col *int `json:"col"`
}

// Move places and confirms in one request.
func Move(c Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req moveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Row == nil || req.Col == nil {
			writeError(w, http.StatusBadRequest, errors.New("body must be {\"row\":n,\"col\":n}"))
			return
		}
		if err := c.Place(*req.Row, *req.Col); err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		if err := c.Confirm(); err != nil {
			c.Cancel()
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusAccepted, c.Snapshot())
	}
}

func CancelMove(c Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c.Cancel()
		w.WriteHeader(http.StatusNoContent)
	}
}

func statusFor(err error) int {
	var illegal *game.IllegalMoveError
	switch {
	case errors.As(err, &illegal), errors.Is(err, game.ErrTerminal):
		return http.StatusConflict
	case errors.Is(err, ws.ErrNotConnected):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
