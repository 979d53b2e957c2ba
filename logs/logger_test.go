package logs

import (
	"context"
	"testing"

	"github.com/reusee/dscope"
)

func TestHandler(t *testing.T) {
	dscope.New(new(Module)).Call(func(
		logger Logger,
		newSession NewSession,
	) {
		logger.Info("test", "hello", "world!")
		ctx := newSession(context.Background(), 42)
		logger.InfoContext(ctx, "in session")
	})
}

func TestWrapSession(t *testing.T) {
	ctx := context.WithValue(context.Background(), SessionKey, Session(7))
	err := WrapSession(ctx, context.Canceled)
	if err == nil {
		t.Fatal()
	}
}
