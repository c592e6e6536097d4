// Package testutil holds shared helpers for package tests.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"subvene/internal/platform/middleware"
)

// Logger returns a logger that discards all output. Tests assert on behavior,
// not log lines.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// WithAuth adds an authenticated subject and role to the request context,
// simulating what the auth middleware does for valid bearer tokens.
func WithAuth(req *http.Request, subjectID, role string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.ContextKeySubjectID, subjectID)
	ctx = context.WithValue(ctx, middleware.ContextKeyRole, role)
	return req.WithContext(ctx)
}

// WithRequestID adds a correlation ID to the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.ContextKeyRequestID, requestID)
	return req.WithContext(ctx)
}
