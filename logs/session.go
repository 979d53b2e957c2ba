package logs

import (
	"context"
)

// Session is the donation session id carried through contexts so every
// record of one flow can be correlated.
type Session int64

type sessionKeyType struct{}

var SessionKey sessionKeyType

func WithSession(ctx context.Context, session Session) context.Context {
	return context.WithValue(ctx, SessionKey, session)
}

type NewSession func(ctx context.Context, session Session) context.Context

func (Module) NewSession(
	logger Logger,
) NewSession {
	return func(ctx context.Context, session Session) context.Context {
		ctx = WithSession(ctx, session)
		logger.InfoContext(ctx, "new session")
		return ctx
	}
}
