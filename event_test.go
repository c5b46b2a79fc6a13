package exdyn

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEventChannelFIFO(t *testing.T) {
	tx, rx := NewEventChannel()
	for i := uint64(0); i < 1000; i++ {
		require.NoError(t, tx.Send(FinishedHeight{Number: i}))
	}
	for i := uint64(0); i < 1000; i++ {
		e, ok := rx.TryRecv()
		require.True(t, ok)
		require.Equal(t, FinishedHeight{Number: i}, e)
	}
	_, ok := rx.TryRecv()
	require.False(t, ok)
}

func TestEventChannelNeverBlocksSender(t *testing.T) {
	tx, rx := NewEventChannel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100000; i++ {
			_ = tx.Send(FinishedHeight{Number: uint64(i)})
		}
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("sender blocked without a receiver")
	}
	require.Equal(t, 100000, rx.Len())
}

func TestEventChannelClose(t *testing.T) {
	tx, rx := NewEventChannel()
	require.NoError(t, tx.Send(FinishedHeight{Number: 7}))
	require.NoError(t, tx.Close())

	require.ErrorIs(t, tx.Send(FinishedHeight{}), ErrSenderClosed)
	require.ErrorIs(t, tx.Close(), ErrSenderClosed)

	// buffered events drain before the close is observed
	e, err := rx.Recv(context.Background())
	require.NoError(t, err)
	require.Equal(t, FinishedHeight{Number: 7}, e)
	_, err = rx.Recv(context.Background())
	require.ErrorIs(t, err, ErrChannelClosed)
}

func TestEventChannelClones(t *testing.T) {
	tx, rx := NewEventChannel()
	tx2 := tx.Clone()
	require.NoError(t, tx.Close())

	// one live clone keeps the channel open
	require.NoError(t, tx2.Send(FinishedHeight{Number: 1}))
	e, err := rx.Recv(context.Background())
	require.NoError(t, err)
	require.Equal(t, FinishedHeight{Number: 1}, e)

	require.NoError(t, tx2.Close())
	_, err = rx.Recv(context.Background())
	require.ErrorIs(t, err, ErrChannelClosed)

	// a clone of a closed endpoint is itself closed
	require.ErrorIs(t, tx.Clone().Send(FinishedHeight{}), ErrSenderClosed)
}

func TestEventChannelRecvBlocksAndWakes(t *testing.T) {
	tx, rx := NewEventChannel()
	got := make(chan Event, 1)
	go func() {
		e, err := rx.Recv(context.Background())
		if err == nil {
			got <- e
		}
	}()
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, tx.Send(FinishedHeight{Number: 3}))
	select {
	case e := <-got:
		require.Equal(t, FinishedHeight{Number: 3}, e)
	case <-time.After(5 * time.Second):
		t.Fatal("receiver never woke")
	}
}

func TestEventChannelRecvCancel(t *testing.T) {
	_, rx := NewEventChannel()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := rx.Recv(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func BenchmarkEventSend(b *testing.B) {
	tx, _ := NewEventChannel()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = tx.Send(FinishedHeight{Number: uint64(i)})
	}
}
