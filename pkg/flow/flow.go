// Package flow hands values from one goroutine to another.
//
// A flow is a closable, buffered pipe: producers Send, a consumer Recv,
// and closing the flow unblocks both sides.
package flow

import (
	"context"
	"errors"
)

var (
	ErrFlowClosed = errors.New("flow closed")
)

// Sender is the producing half of a flow.
type Sender[T any] interface {
	Send(ctx context.Context, msg T) error
	Close() error
}

// Receiver is the consuming half of a flow.
type Receiver[T any] interface {
	Recv(ctx context.Context) (T, error)
}
