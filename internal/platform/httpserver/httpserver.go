package httpserver

import (
	"net/http"
	"time"
)

// New builds the API server. Release requests block on ledger confirmation,
// so the write timeout has to outlast the longest confirm wait; the router's
// per-request timeout middleware fires first and returns a proper error body.
func New(addr string, handler http.Handler, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       2 * time.Minute,
	}
}
