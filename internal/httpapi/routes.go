// Package httpapi exposes a running client over HTTP for overlays and
// debugging.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chainreaction/client/internal/game"
	"github.com/chainreaction/client/internal/middleware"
	"github.com/chainreaction/client/internal/session"
)

// Client is the part of a session the API reads and drives.
type Client interface {
	Info() session.Info
	Snapshot() game.Snapshot
	Place(row, col int) error
	Confirm() error
	Cancel()
}

func SetupRoutes(c Client, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.CORS(allowedOrigins))

	r.Get("/healthz", Healthz)
	r.Get("/status", Status(c))
	r.Get("/board", Board(c))
	r.Post("/move", Move(c))
	r.Delete("/move", CancelMove(c))
	return r
}
