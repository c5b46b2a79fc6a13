package exdyn

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandleReclaimOnce(t *testing.T) {
	reclaims := 0
	ep := NewEntrypointOf(func(ctx context.Context, dctx *ContextDyn) error { return nil })
	h := NewHandle(ep, func() { reclaims++ })

	require.False(t, h.Consumed())
	got, err := h.Reclaim()
	require.NoError(t, err)
	require.NotNil(t, got)
	require.True(t, h.Consumed())
	require.Equal(t, 1, reclaims, "reclaim hook fires exactly once")

	got, err = h.Reclaim()
	require.ErrorIs(t, err, ErrHandleConsumed)
	require.Nil(t, got)
	require.Equal(t, 1, reclaims)
}

func TestHandleReclaimConcurrent(t *testing.T) {
	var reclaims int
	var mu sync.Mutex
	h := NewHandle(NewEntrypointOf(func(ctx context.Context, dctx *ContextDyn) error { return nil }),
		func() { mu.Lock(); reclaims++; mu.Unlock() })

	var wg sync.WaitGroup
	wins := make(chan struct{}, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := h.Reclaim(); err == nil {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)
	n := 0
	for range wins {
		n++
	}
	require.Equal(t, 1, n, "exactly one goroutine wins the reclaim")
	require.Equal(t, 1, reclaims)
}

func TestTaskStaging(t *testing.T) {
	startErr := errors.New("startup failed")
	runErr := errors.New("run loop failed")

	t.Run("start failure surfaces at the first stage", func(t *testing.T) {
		ep := NewEntrypoint(func(ctx context.Context, dctx *ContextDyn) (RunFunc, error) {
			return nil, startErr
		})
		task := newTask("x", ep(&ContextDyn{}), nil)
		_, err := task.Start(context.Background())
		require.ErrorIs(t, err, startErr)
	})

	t.Run("run failure surfaces at the second stage", func(t *testing.T) {
		ep := NewEntrypoint(func(ctx context.Context, dctx *ContextDyn) (RunFunc, error) {
			return func(ctx context.Context) error { return runErr }, nil
		})
		task := newTask("x", ep(&ContextDyn{}), nil)
		run, err := task.Start(context.Background())
		require.NoError(t, err)
		require.ErrorIs(t, run(context.Background()), runErr)
	})

	t.Run("a task starts once", func(t *testing.T) {
		ep := NewEntrypointOf(func(ctx context.Context, dctx *ContextDyn) error { return nil })
		task := newTask("x", ep(&ContextDyn{}), nil)
		_, err := task.Start(context.Background())
		require.NoError(t, err)
		_, err = task.Start(context.Background())
		require.ErrorIs(t, err, ErrTaskStarted)
	})
}

func TestTaskRunDrivesBothStages(t *testing.T) {
	var order []string
	ep := NewEntrypoint(func(ctx context.Context, dctx *ContextDyn) (RunFunc, error) {
		order = append(order, "start")
		return func(ctx context.Context) error {
			order = append(order, "run")
			return nil
		}, nil
	})
	task := newTask("x", ep(&ContextDyn{}), nil)
	require.NoError(t, task.Run(context.Background()))
	require.Equal(t, []string{"start", "run"}, order)
	require.NotEqual(t, task.ID().String(), newTask("x", ep(&ContextDyn{}), nil).ID().String())
	require.Equal(t, "x", task.Name())
}

func TestEntrypointReturnsPromptly(t *testing.T) {
	// the erased export must not run the author's setup; that happens
	// when the scheduler starts the task
	ran := false
	ep := NewEntrypoint(func(ctx context.Context, dctx *ContextDyn) (RunFunc, error) {
		ran = true
		return nil, nil
	})
	start := ep(&ContextDyn{})
	require.False(t, ran)
	_, _ = start(context.Background())
	require.True(t, ran)
}
