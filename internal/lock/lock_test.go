package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"

	"hearth/internal/testutil"
)

func TestLocalLocker(t *testing.T) {
	t.Run("serializes_same_key", func(t *testing.T) {
		l := NewLocalLocker()
		ctx := context.Background()

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			inside  int
			maxSeen int
		)
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock, err := l.Lock(ctx, BudgetKey("b1"))
				if err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				mu.Lock()
				inside++
				maxSeen = max(maxSeen, inside)
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				inside--
				mu.Unlock()
				unlock()
			}()
		}
		wg.Wait()

		if maxSeen != 1 {
			t.Errorf("expected at most one holder, saw %d", maxSeen)
		}
		if len(l.slots) != 0 {
			t.Errorf("expected slots to be cleaned up, got %d", len(l.slots))
		}
	})

	t.Run("different_keys_do_not_block", func(t *testing.T) {
		l := NewLocalLocker()
		unlockA, err := l.Lock(context.Background(), BudgetKey("a"))
		testutil.AssertNoError(t, err)
		defer unlockA()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		unlockB, err := l.Lock(ctx, BudgetKey("b"))
		testutil.AssertNoError(t, err)
		unlockB()
	})

	t.Run("cancelled_wait_is_busy", func(t *testing.T) {
		l := NewLocalLocker()
		unlock, err := l.Lock(context.Background(), BudgetKey("b1"))
		testutil.AssertNoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err = l.Lock(ctx, BudgetKey("b1"))
		testutil.AssertAppError(t, err, "BUDGET_BUSY")

		unlock()
		unlock()
		if len(l.slots) != 0 {
			t.Errorf("expected slots to be cleaned up, got %d", len(l.slots))
		}
	})
}

func newTestRedisLocker(t *testing.T) (*RedisLocker, redismock.ClientMock) {
	t.Helper()
	client, mock := redismock.NewClientMock()
	l := NewRedisLocker(client, 5*time.Second)
	l.newToken = func() string { return "token-1" }
	l.retry = time.Millisecond
	return l, mock
}

func TestRedisLocker(t *testing.T) {
	key := BudgetKey("b1")

	t.Run("acquire_and_release", func(t *testing.T) {
		l, mock := newTestRedisLocker(t)
		mock.ExpectSetNX(key, "token-1", 5*time.Second).SetVal(true)
		mock.ExpectEval(releaseScript, []string{key}, "token-1").SetVal(int64(1))

		unlock, err := l.Lock(context.Background(), key)
		testutil.AssertNoError(t, err)
		unlock()
		unlock()

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("redis expectations not met: %v", err)
		}
	})

	t.Run("retries_until_free", func(t *testing.T) {
		l, mock := newTestRedisLocker(t)
		mock.ExpectSetNX(key, "token-1", 5*time.Second).SetVal(false)
		mock.ExpectSetNX(key, "token-1", 5*time.Second).SetVal(true)
		mock.ExpectEval(releaseScript, []string{key}, "token-1").SetVal(int64(1))

		unlock, err := l.Lock(context.Background(), key)
		testutil.AssertNoError(t, err)
		unlock()

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("redis expectations not met: %v", err)
		}
	})

	t.Run("held_until_deadline_is_busy", func(t *testing.T) {
		l, mock := newTestRedisLocker(t)
		l.retry = time.Hour
		mock.ExpectSetNX(key, "token-1", 5*time.Second).SetVal(false)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err := l.Lock(ctx, key)
		testutil.AssertAppError(t, err, "BUDGET_BUSY")
	})

	t.Run("deadline_during_setnx_is_busy", func(t *testing.T) {
		l, mock := newTestRedisLocker(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		mock.ExpectSetNX(key, "token-1", 5*time.Second).SetErr(context.Canceled)

		_, err := l.Lock(ctx, key)
		testutil.AssertAppError(t, err, "BUDGET_BUSY")
	})

	t.Run("redis_error_is_internal", func(t *testing.T) {
		l, mock := newTestRedisLocker(t)
		mock.ExpectSetNX(key, "token-1", 5*time.Second).SetErr(errors.New("connection refused"))

		_, err := l.Lock(context.Background(), key)
		testutil.AssertAppError(t, err, "INTERNAL_ERROR")
	})
}
