package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"hotsoonripper/internal/errs"
)

func TestJoinEmptyReturnsImmediately(t *testing.T) {
	q := New[int]()

	ctx, cancel := context.WithTimeout(t.Context(), time.Second)
	defer cancel()

	if err := q.Join(ctx); err != nil {
		t.Fatalf("Join() on empty queue: %v", err)
	}
}

func TestFIFO(t *testing.T) {
	q := New[int]()

	if err := q.Put(1, 2, 3); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	for want := 1; want <= 3; want++ {
		got, err := q.Get(t.Context())
		if err != nil {
			t.Fatalf("Get() error: %v", err)
		}

		if got != want {
			t.Errorf("Get() = %d, want %d", got, want)
		}
	}

	if q.Len() != 0 || q.Pending() != 3 {
		t.Errorf("expected len 0 pending 3, got len %d pending %d", q.Len(), q.Pending())
	}
}

func TestJoinWaitsForDone(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		q := New[int]()
		_ = q.Put(1, 2)

		var joined atomic.Bool

		go func() {
			_ = q.Join(t.Context())
			joined.Store(true)
		}()

		// taking every item is not enough, completion must be signalled
		_, _ = q.Get(t.Context())
		_, _ = q.Get(t.Context())
		synctest.Wait()

		if joined.Load() {
			t.Fatal("Join returned before items were marked done")
		}

		q.Done()
		synctest.Wait()

		if joined.Load() {
			t.Fatal("Join returned with one item outstanding")
		}

		q.Done()
		synctest.Wait()

		if !joined.Load() {
			t.Fatal("Join did not return after all items were done")
		}
	})
}

func TestJoinCoversEveryPut(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		const n = 50

		q := New[int]()

		var handled atomic.Int64

		for range 5 {
			go func() {
				for {
					_, err := q.Get(t.Context())
					if err != nil {
						return
					}

					time.Sleep(10 * time.Millisecond)
					handled.Add(1)
					q.Done()
				}
			}()
		}

		for i := range n {
			_ = q.Put(i)
		}

		if err := q.Join(t.Context()); err != nil {
			t.Fatalf("Join() error: %v", err)
		}

		if got := handled.Load(); got != n {
			t.Fatalf("Join returned after %d of %d items", got, n)
		}

		q.Close()
	})
}

func TestGetBlocksUntilPut(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		q := New[string]()

		got := make(chan string, 1)

		go func() {
			v, err := q.Get(t.Context())
			if err == nil {
				got <- v
			}
		}()

		synctest.Wait()

		select {
		case v := <-got:
			t.Fatalf("Get returned %q from an empty queue", v)
		default:
		}

		_ = q.Put("x")
		synctest.Wait()

		if v := <-got; v != "x" {
			t.Errorf("Get() = %q, want x", v)
		}
	})
}

func TestGetUnblocksOnCloseAndCancel(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		q := New[int]()

		ctx, cancel := context.WithCancel(t.Context())

		var wg sync.WaitGroup

		results := make(chan error, 2)

		wg.Add(2)

		go func() {
			defer wg.Done()

			_, err := q.Get(ctx)
			results <- err
		}()

		go func() {
			defer wg.Done()

			_, err := q.Get(t.Context())
			if errors.Is(err, errs.ErrQueueClosed) {
				results <- nil

				return
			}

			results <- err
		}()

		synctest.Wait()
		cancel()
		synctest.Wait()

		if err := <-results; !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}

		q.Close()
		wg.Wait()

		if err := <-results; err != nil {
			t.Errorf("expected ErrQueueClosed, got %v", err)
		}

		if err := q.Put(1); !errors.Is(err, errs.ErrQueueClosed) {
			t.Errorf("Put after Close: expected ErrQueueClosed, got %v", err)
		}
	})
}

func TestDoneWithoutPutPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()

	New[int]().Done()
}

func TestCompactKeepsOrder(t *testing.T) {
	q := New[int]()

	for i := range 200 {
		_ = q.Put(i)
	}

	for want := range 150 {
		got, _ := q.Get(t.Context())
		if got != want {
			t.Fatalf("Get() = %d, want %d", got, want)
		}
	}

	_ = q.Put(200)

	for want := 150; want <= 200; want++ {
		got, _ := q.Get(t.Context())
		if got != want {
			t.Fatalf("after compaction Get() = %d, want %d", got, want)
		}
	}
}
