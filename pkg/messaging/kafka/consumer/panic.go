package consumer

import (
	"context"
	"fmt"
	"runtime/debug"
)

// PanicError is returned in place of a panicking MessageHandler.
type PanicError struct {
	Panic any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Panic)
}

func callHandler(ctx context.Context, h MessageHandler, record map[string]any) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &PanicError{Panic: rec, Stack: debug.Stack()}
		}
	}()

	return h(ctx, record)
}
