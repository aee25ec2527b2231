package fetcher

import (
	"io"
	"sync/atomic"
	"time"
)

// idleReader calls onIdle when no Read completes within timeout.
// It bounds the gap between chunks, not the whole transfer.
type idleReader struct {
	r       io.Reader
	timeout time.Duration
	timer   *time.Timer
	fired   atomic.Bool
}

func newIdleReader(r io.Reader, timeout time.Duration, onIdle func()) *idleReader {
	ir := &idleReader{r: r, timeout: timeout}
	ir.timer = time.AfterFunc(timeout, func() {
		ir.fired.Store(true)
		onIdle()
	})

	return ir
}

func (ir *idleReader) Read(p []byte) (int, error) {
	n, err := ir.r.Read(p)
	if n > 0 {
		ir.timer.Reset(ir.timeout)
	}

	return n, err
}

// TimedOut reports whether the idle timeout fired.
func (ir *idleReader) TimedOut() bool {
	return ir.fired.Load()
}

func (ir *idleReader) Stop() {
	ir.timer.Stop()
}
