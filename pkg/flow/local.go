package flow

import (
	"context"
	"sync"
)

// Local is an in-process flow.
//
// Values sent after Close are rejected with ErrFlowClosed. Values already
// buffered when Close is called can still be received.
type Local[T any] struct {
	data    chan T
	lk      sync.Mutex
	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

var (
	_ Sender[any]   = (*Local[any])(nil)
	_ Receiver[any] = (*Local[any])(nil)
)

func NewLocal[T any](bufferSize uint) *Local[T] {
	return &Local[T]{
		data:    make(chan T, bufferSize),
		closeCh: make(chan struct{}),
	}
}

func (fl *Local[T]) Recv(ctx context.Context) (T, error) {
	select {
	case elem, ok := <-fl.data:
		if !ok {
			var zero T
			return zero, ErrFlowClosed
		}
		return elem, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (fl *Local[T]) Send(ctx context.Context, msg T) error {
	fl.lk.Lock()
	if fl.closed {
		fl.lk.Unlock()
		return ErrFlowClosed
	}
	fl.wg.Add(1)
	defer fl.wg.Done()
	fl.lk.Unlock()

	select {
	case fl.data <- msg:
		return nil
	case <-fl.closeCh:
		return ErrFlowClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the flow. It waits for in-flight Send calls to give up.
func (fl *Local[T]) Close() error {
	fl.lk.Lock()
	defer fl.lk.Unlock()
	if fl.closed {
		return nil
	}
	fl.closed = true
	close(fl.closeCh)
	fl.wg.Wait()
	close(fl.data)
	return nil
}
