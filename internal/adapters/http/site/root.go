// Package site serves the embedded operator dashboard.
package site

import (
	"context"
	"errors"
	"net/http"
)

// Error constants
var (
	ErrServe = errors.New("dashboard serve failed")
)

// Register attaches the embedded dashboard routes to mux. The page is
// static; it reads live data from the /api endpoints in the browser.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	files := http.FileServer(FS())
	mux.Handle("/", files)
}
