package gphoto

import (
	"log/slog"

	"github.com/fly-io/camctl/pkg/native"
)

// Session is one holder of a reference to a native context. Every call
// that talks to a camera takes a Session; several holders, including the
// ones kept by open cameras, may share the same native context.
//
// A Session is not safe for concurrent use.
type Session struct {
	drv    native.Driver
	ctx    native.Handle
	closed bool
}

// NewSession allocates a native context. The returned holder owns its
// only reference.
func NewSession(drv native.Driver) (*Session, error) {
	ctx, code := drv.ContextNew()
	if code == native.OK && ctx == 0 {
		code = native.ErrorNoMemory
	}
	if err := checkResult(drv, code); err != nil {
		slog.Error("session_create_failed", "error", err)
		return nil, err
	}
	slog.Debug("session_created", "context", ctx)
	return &Session{drv: drv, ctx: ctx}, nil
}

// Retain returns a new holder of the same native context.
func (s *Session) Retain() (*Session, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	s.drv.ContextRef(s.ctx)
	slog.Debug("session_retained", "context", s.ctx)
	return &Session{drv: s.drv, ctx: s.ctx}, nil
}

// Close releases this holder's reference. The native context is freed
// once every holder has closed. Closing twice is a no-op.
func (s *Session) Close() error {
	if s == nil || s.closed {
		return nil
	}
	s.closed = true
	s.drv.ContextUnref(s.ctx)
	slog.Debug("session_released", "context", s.ctx)
	return nil
}

// Driver returns the driver the session was created with.
func (s *Session) Driver() native.Driver { return s.drv }

func (s *Session) check() error {
	if s == nil || s.closed {
		return &Error{code: native.ErrorBadParameters, msg: "session is closed"}
	}
	return nil
}
