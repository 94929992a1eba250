// Package site serves the embedded assessment form.
package site

import (
	"context"
	"net/http"
)

// Register attaches the embedded form page and its assets to mux at /.
// More specific routes registered on the same mux take precedence.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("/", http.FileServer(FS()))
}
