package relay

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taoyao-code/crsdk-bridge/internal/event"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type countingObserver struct {
	mu      sync.Mutex
	pushed  int
	dropped int
	pulled  int
	depth   int
}

func (o *countingObserver) Pushed(event.Kind)  { o.mu.Lock(); o.pushed++; o.mu.Unlock() }
func (o *countingObserver) Dropped(event.Kind) { o.mu.Lock(); o.dropped++; o.mu.Unlock() }
func (o *countingObserver) Pulled(event.Kind)  { o.mu.Lock(); o.pulled++; o.mu.Unlock() }
func (o *countingObserver) Depth(n int)        { o.mu.Lock(); o.depth = n; o.mu.Unlock() }

func pullTimeout(t *testing.T, r *Receiver) (event.Event, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return r.Pull(ctx)
}

func TestPull_FIFOSingleProducer(t *testing.T) {
	tx, rx := New()
	const n = 500
	for i := 0; i < n; i++ {
		require.True(t, tx.Push(event.Warning{Code: uint32(i)}))
	}
	for i := 0; i < n; i++ {
		ev, err := pullTimeout(t, rx)
		require.NoError(t, err)
		assert.Equal(t, event.Warning{Code: uint32(i)}, ev)
	}
	assert.Equal(t, 0, rx.Len())
}

func TestPush_AfterReceiverClosed(t *testing.T) {
	obs := &countingObserver{}
	tx, rx := New(WithObserver(obs))
	rx.Close()

	done := make(chan bool)
	go func() {
		done <- tx.Push(event.Connected{Version: 1})
	}()

	select {
	case ok := <-done:
		assert.False(t, ok, "push after close must be a no-op")
	case <-time.After(time.Second):
		t.Fatal("push blocked after receiver closed")
	}
	assert.Equal(t, 0, rx.Len())
	assert.Equal(t, 1, obs.dropped)

	_, err := pullTimeout(t, rx)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestPull_SuspendsUntilPush(t *testing.T) {
	tx, rx := New()

	got := make(chan event.Event, 1)
	go func() {
		ev, err := pullTimeout(t, rx)
		if err == nil {
			got <- ev
		}
	}()

	select {
	case <-got:
		t.Fatal("pull returned before any push")
	case <-time.After(50 * time.Millisecond):
	}

	tx.Push(event.Error{Code: 0x8201})

	select {
	case ev := <-got:
		assert.Equal(t, event.Error{Code: 0x8201}, ev)
	case <-time.After(time.Second):
		t.Fatal("pull did not resume after push")
	}
}

func TestClose_DrainsBufferedBeforeClosed(t *testing.T) {
	tx, rx := New()
	for i := 1; i <= 5; i++ {
		tx.Push(event.ContentsListChanged{Notify: 1, Slot: 1, Added: uint32(i)})
	}
	rx.Close()
	assert.False(t, tx.Push(event.Warning{Code: 1}))

	for i := 1; i <= 5; i++ {
		ev, err := pullTimeout(t, rx)
		require.NoError(t, err)
		assert.Equal(t, uint32(i), ev.(event.ContentsListChanged).Added)
	}
	_, err := pullTimeout(t, rx)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRelease_AllSendersClosesAfterDrain(t *testing.T) {
	tx, rx := New()
	tx2 := tx.Clone()

	tx.Push(event.Connected{Version: 3})
	tx.Release()
	tx.Release() // 重复释放无副作用

	tx2.Push(event.Disconnected{})
	assert.False(t, tx.Push(event.Warning{}), "released sender must not enqueue")

	select {
	case <-rx.Done():
		t.Fatal("channel closed while a sender is still alive")
	default:
	}
	tx2.Release()

	ev, err := pullTimeout(t, rx)
	require.NoError(t, err)
	assert.Equal(t, event.Connected{Version: 3}, ev)
	ev, err = pullTimeout(t, rx)
	require.NoError(t, err)
	assert.Equal(t, event.Disconnected{}, ev)

	_, err = pullTimeout(t, rx)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestClone_FromReleasedSender(t *testing.T) {
	tx, rx := New()
	tx.Release()
	clone := tx.Clone()
	assert.False(t, clone.Push(event.Warning{}))

	_, err := pullTimeout(t, rx)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestPull_ContextCancelled(t *testing.T) {
	_, rx := New()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := rx.Pull(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestTryPull(t *testing.T) {
	tx, rx := New()
	_, ok := rx.TryPull()
	assert.False(t, ok)

	tx.Push(event.FirmwareUpdateResult{Notify: 2})
	ev, ok := rx.TryPull()
	require.True(t, ok)
	assert.Equal(t, event.FirmwareUpdateResult{Notify: 2}, ev)
}

func TestPush_MultipleProducersKeepPerProducerOrder(t *testing.T) {
	tx, rx := New()
	const producers = 8
	const perProducer = 1000

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		sender := tx.Clone()
		wg.Add(1)
		go func(id int32, s *Sender) {
			defer wg.Done()
			defer s.Release()
			for i := int32(0); i < perProducer; i++ {
				s.Push(event.WarningExt{Code: 1, Param1: id, Param2: i})
			}
		}(int32(p), sender)
	}
	tx.Release()

	last := make(map[int32]int32)
	for p := int32(0); p < producers; p++ {
		last[p] = -1
	}
	total := 0
	for {
		ev, err := pullTimeout(t, rx)
		if errors.Is(err, ErrClosed) {
			break
		}
		require.NoError(t, err)
		w := ev.(event.WarningExt)
		require.Greater(t, w.Param2, last[w.Param1], "producer %d out of order", w.Param1)
		last[w.Param1] = w.Param2
		total++
	}
	wg.Wait()
	assert.Equal(t, producers*perProducer, total)
}

func TestEvents_ChannelAdapter(t *testing.T) {
	tx, rx := New()
	go func() {
		for i := 0; i < 3; i++ {
			tx.Push(event.Warning{Code: uint32(i)})
		}
		tx.Release()
	}()

	var got []uint32
	for ev := range rx.Events(context.Background()) {
		got = append(got, ev.(event.Warning).Code)
	}
	assert.Equal(t, []uint32{0, 1, 2}, got)
}

func TestEvents_CancelKeepsUndeliveredEvent(t *testing.T) {
	tx, rx := New()
	tx.Push(event.Warning{Code: 7})

	ctx, cancel := context.WithCancel(context.Background())
	ch := rx.Events(ctx)
	// 给转发 goroutine 时间取出事件并阻塞在发送上
	time.Sleep(20 * time.Millisecond)
	cancel()
	for range ch {
		// 可能已交付，也可能已放回队头
		return
	}

	ev, ok := rx.TryPull()
	require.True(t, ok, "undelivered event must be put back")
	assert.Equal(t, event.Warning{Code: 7}, ev)
}

func TestEvents_CancelDoesNotDoubleCountPulled(t *testing.T) {
	obs := &countingObserver{}
	tx, rx := New(WithObserver(obs))
	tx.Push(event.Warning{Code: 1})

	ctx, cancel := context.WithCancel(context.Background())
	ch := rx.Events(ctx)
	time.Sleep(20 * time.Millisecond)
	cancel()
	delivered := 0
	for range ch {
		delivered++
	}
	if delivered == 0 {
		ev, err := pullTimeout(t, rx)
		require.NoError(t, err)
		assert.Equal(t, event.Warning{Code: 1}, ev)
	}

	obs.mu.Lock()
	defer obs.mu.Unlock()
	assert.Equal(t, 1, obs.pushed)
	assert.Equal(t, obs.pushed, obs.pulled, "every pushed event is counted as pulled exactly once")
}

func TestHighWater_RateLimitedWarning(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	tx, rx := New(
		WithLogger(zap.New(core)),
		WithHighWater(3, time.Hour),
		WithName("session-1"),
	)
	for i := 0; i < 10; i++ {
		tx.Push(event.LvPropertyChanged{Codes: []uint32{uint32(i)}})
	}
	assert.Equal(t, 10, rx.Len(), "high water never drops events")
	require.Equal(t, 1, logs.Len(), "warning must be rate limited")
	entry := logs.All()[0]
	assert.Equal(t, "relay backlog above high water", entry.Message)
	assert.Equal(t, "session-1", entry.ContextMap()["relay"])
}

func TestObserver_Counts(t *testing.T) {
	obs := &countingObserver{}
	tx, rx := New(WithObserver(obs))
	tx.Push(event.Warning{})
	tx.Push(event.Warning{})
	_, _ = rx.TryPull()

	obs.mu.Lock()
	defer obs.mu.Unlock()
	assert.Equal(t, 2, obs.pushed)
	assert.Equal(t, 1, obs.pulled)
	assert.Equal(t, 1, obs.depth)
}

func TestQueue_CompactsLongBacklog(t *testing.T) {
	tx, rx := New()
	const n = 5000
	for i := 0; i < n; i++ {
		tx.Push(event.Warning{Code: uint32(i)})
	}
	for i := 0; i < n/2+10; i++ {
		ev, ok := rx.TryPull()
		require.True(t, ok)
		require.Equal(t, uint32(i), ev.(event.Warning).Code)
	}
	tx.Push(event.Warning{Code: n})
	for i := n/2 + 10; i <= n; i++ {
		ev, ok := rx.TryPull()
		require.True(t, ok)
		require.Equal(t, uint32(i), ev.(event.Warning).Code)
	}
}
