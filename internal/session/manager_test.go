package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taoyao-code/crsdk-bridge/internal/callback"
	"github.com/taoyao-code/crsdk-bridge/internal/event"
	"github.com/taoyao-code/crsdk-bridge/internal/relay"
	"github.com/taoyao-code/crsdk-bridge/internal/sdk"
	"github.com/taoyao-code/crsdk-bridge/internal/sdk/simulator"
)

var testCamera = sdk.Camera{Model: "ILME-FX3", ConnectionType: sdk.ConnectionNetwork}

// recordingDriver 记录驱动调用顺序
type recordingDriver struct {
	*simulator.Driver

	mu     sync.Mutex
	calls  []string
	tokens []callback.Token
}

func (d *recordingDriver) record(call string) {
	d.mu.Lock()
	d.calls = append(d.calls, call)
	d.mu.Unlock()
}

func (d *recordingDriver) Connect(cam sdk.Camera, tok callback.Token) (sdk.DeviceHandle, error) {
	d.record("connect")
	d.mu.Lock()
	d.tokens = append(d.tokens, tok)
	d.mu.Unlock()
	return d.Driver.Connect(cam, tok)
}

func (d *recordingDriver) Disconnect(h sdk.DeviceHandle) error {
	d.record("disconnect")
	return d.Driver.Disconnect(h)
}

func (d *recordingDriver) ReleaseDevice(h sdk.DeviceHandle) error {
	d.record("release_device")
	return d.Driver.ReleaseDevice(h)
}

func newTestDriver(t *testing.T) *recordingDriver {
	t.Helper()
	sim := simulator.New(simulator.Options{Cameras: 1})
	require.NoError(t, sim.Init())
	return &recordingDriver{Driver: sim}
}

func pullAll(t *testing.T, rx *relay.Receiver) []event.Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var out []event.Event
	for {
		ev, err := rx.Pull(ctx)
		if errors.Is(err, relay.ErrClosed) {
			return out
		}
		require.NoError(t, err)
		out = append(out, ev)
	}
}

func TestManager_EndToEndOrdering(t *testing.T) {
	drv := newTestDriver(t)
	m := NewManager(drv, Options{})

	s, err := m.Open(context.Background(), testCamera, true)
	require.NoError(t, err)
	require.NotNil(t, s.Events())

	// 等待 OnConnected 到达，保证后续注入在其之后
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	first, err := s.Events().Pull(ctx)
	require.NoError(t, err)
	assert.Equal(t, event.Connected{Version: simulator.ProtocolVersion}, first)

	require.NoError(t, drv.Emit(s.Handle(), func(cb callback.DeviceCallback) {
		cb.OnPropertyChanged()
		cb.OnPropertyChangedCodes([]uint32{0x0016, 0x0017})
		cb.OnWarning(0x00020003)
	}))
	require.NoError(t, m.Close(s.ID))

	assert.Equal(t, []event.Event{
		event.PropertyChanged{Codes: []uint32{0x0016, 0x0017}},
		event.Warning{Code: 0x00020003},
		event.Disconnected{Error: 0},
	}, pullAll(t, s.Events()))
}

func TestManager_TeardownOrder(t *testing.T) {
	drv := newTestDriver(t)
	m := NewManager(drv, Options{})

	s, err := m.Open(context.Background(), testCamera, true)
	require.NoError(t, err)
	tok := drv.tokens[0]
	require.False(t, tok.IsZero())
	_, ok := tok.Lookup()
	require.True(t, ok)

	require.NoError(t, m.Close(s.ID))
	assert.Equal(t, []string{"connect", "disconnect", "release_device"}, drv.calls)

	_, ok = tok.Lookup()
	assert.False(t, ok, "token must be released after close")
	assert.Equal(t, 0, drv.Devices())

	// 接收端在会话关闭后仍可取完缓冲事件，随后报告关闭
	events := pullAll(t, s.Events())
	require.NotEmpty(t, events)
	assert.Equal(t, event.KindDisconnected, events[len(events)-1].Kind())
	_, err = s.Events().Pull(context.Background())
	assert.ErrorIs(t, err, relay.ErrClosed)
}

func TestManager_OpenWithoutEvents(t *testing.T) {
	drv := newTestDriver(t)
	m := NewManager(drv, Options{})

	s, err := m.Open(context.Background(), testCamera, false)
	require.NoError(t, err)
	assert.Nil(t, s.Events())
	assert.Equal(t, callback.Discard, s.Adapter())
	assert.True(t, drv.tokens[0].IsZero())
	assert.Equal(t, 0, s.Backlog())
	assert.False(t, s.Info().Events)

	require.NoError(t, m.Close(s.ID))
}

func TestManager_OpenFailure(t *testing.T) {
	drv := newTestDriver(t)
	m := NewManager(drv, Options{})

	_, err := m.Open(context.Background(), sdk.Camera{}, true)
	require.Error(t, err)
	assert.True(t, sdk.IsConnectionFailed(err))
	assert.Equal(t, 0, m.Count())

	_, ok := drv.tokens[0].Lookup()
	assert.False(t, ok, "token must be released when connect fails")
}

func TestManager_OpenCancelledContext(t *testing.T) {
	m := NewManager(newTestDriver(t), Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.Open(ctx, testCamera, true)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestManager_CloseUnknown(t *testing.T) {
	drv := newTestDriver(t)
	m := NewManager(drv, Options{})
	assert.ErrorIs(t, m.Close("missing"), ErrNotFound)

	s, err := m.Open(context.Background(), testCamera, true)
	require.NoError(t, err)
	require.NoError(t, m.Close(s.ID))
	assert.ErrorIs(t, m.Close(s.ID), ErrNotFound)
}

func TestManager_ConsumerGoneBeforeClose(t *testing.T) {
	drv := newTestDriver(t)
	m := NewManager(drv, Options{})

	s, err := m.Open(context.Background(), testCamera, true)
	require.NoError(t, err)
	s.Events().Close()

	require.NoError(t, drv.Emit(s.Handle(), func(cb callback.DeviceCallback) {
		cb.OnNotifyRemoteTransferResultData(1, 100, make([]byte, 1024), 1024)
		cb.OnError(0x8201)
	}))
	require.NoError(t, m.Close(s.ID))
}

func TestManager_ListAndCloseAll(t *testing.T) {
	drv := newTestDriver(t)
	dir := NewMemoryDirectory("node-1")
	m := NewManager(drv, Options{Directory: dir})

	a, err := m.Open(context.Background(), testCamera, true)
	require.NoError(t, err)
	b, err := m.Open(context.Background(), testCamera, false)
	require.NoError(t, err)

	infos := m.List()
	require.Len(t, infos, 2)
	assert.Equal(t, a.ID, infos[0].ID)
	assert.Equal(t, b.ID, infos[1].ID)

	listed, err := dir.List(context.Background())
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "node-1", listed[0].ServerID)

	got, ok := m.Get(a.ID)
	require.True(t, ok)
	assert.Same(t, a, got)

	require.NoError(t, m.CloseAll())
	assert.Equal(t, 0, m.Count())
	listed, err = dir.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestManager_MaxBacklog(t *testing.T) {
	drv := newTestDriver(t)
	m := NewManager(drv, Options{})

	s, err := m.Open(context.Background(), testCamera, true)
	require.NoError(t, err)
	require.NoError(t, drv.Emit(s.Handle(), func(cb callback.DeviceCallback) {
		for i := 0; i < 10; i++ {
			cb.OnWarning(uint32(i))
		}
	}))
	// 10个告警 + OnConnected（可能尚未到达）
	assert.GreaterOrEqual(t, m.MaxBacklog(), 10)
	require.NoError(t, m.Close(s.ID))
}

type fakeMetrics struct {
	mu     sync.Mutex
	opened int
	closed []string
	panics []string
	pushed int
	pulled int
}

func (f *fakeMetrics) Observer(string) relay.Observer { return f }
func (f *fakeMetrics) CallbackPanic(method string) {
	f.mu.Lock()
	f.panics = append(f.panics, method)
	f.mu.Unlock()
}
func (f *fakeMetrics) SessionOpened() {
	f.mu.Lock()
	f.opened++
	f.mu.Unlock()
}
func (f *fakeMetrics) SessionClosed(id string) {
	f.mu.Lock()
	f.closed = append(f.closed, id)
	f.mu.Unlock()
}
func (f *fakeMetrics) Pushed(event.Kind) {
	f.mu.Lock()
	f.pushed++
	f.mu.Unlock()
}
func (f *fakeMetrics) Dropped(event.Kind) {}
func (f *fakeMetrics) Pulled(event.Kind) {
	f.mu.Lock()
	f.pulled++
	f.mu.Unlock()
}
func (f *fakeMetrics) Depth(int) {}

func TestManager_Metrics(t *testing.T) {
	drv := newTestDriver(t)
	fm := &fakeMetrics{}
	m := NewManager(drv, Options{Metrics: fm})

	s, err := m.Open(context.Background(), testCamera, true)
	require.NoError(t, err)
	require.NoError(t, m.Close(s.ID))
	events := pullAll(t, s.Events())

	fm.mu.Lock()
	defer fm.mu.Unlock()
	assert.Equal(t, 1, fm.opened)
	assert.Equal(t, []string{s.ID}, fm.closed)
	assert.Equal(t, len(events), fm.pushed)
	assert.Equal(t, len(events), fm.pulled)
}

func TestManager_DirectoryRefresh(t *testing.T) {
	drv := newTestDriver(t)
	dir := NewMemoryDirectory("node-1")
	m := NewManager(drv, Options{Directory: dir})

	s, err := m.Open(context.Background(), testCamera, true)
	require.NoError(t, err)
	require.NoError(t, dir.Remove(context.Background(), s.ID))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.RunDirectoryRefresh(ctx, 5*time.Millisecond)
	}()

	require.Eventually(t, func() bool {
		infos, _ := dir.List(context.Background())
		return len(infos) == 1
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done
	require.NoError(t, m.Close(s.ID))
}
