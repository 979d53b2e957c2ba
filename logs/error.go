package logs

import (
	"context"
	"errors"
	"fmt"
)

func WrapSession(ctx context.Context, err error) error {
	v := ctx.Value(SessionKey)
	if v == nil {
		return err
	}
	return errors.Join(err, fmt.Errorf("session: %d", v.(Session)))
}
