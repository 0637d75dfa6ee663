package callback

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taoyao-code/crsdk-bridge/internal/event"
	"github.com/taoyao-code/crsdk-bridge/internal/relay"
)

func TestRegistry_RegisterLookupRelease(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, Token(0), r.Register(nil))

	tok := r.Register(Discard)
	require.False(t, tok.IsZero())

	cb, ok := r.Lookup(tok)
	require.True(t, ok)
	assert.Equal(t, Discard, cb)

	r.Release(tok)
	r.Release(tok)
	_, ok = r.Lookup(tok)
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_TokensAreNotReused(t *testing.T) {
	r := NewRegistry()
	a := r.Register(Discard)
	r.Release(a)
	b := r.Register(Discard)
	assert.NotEqual(t, a, b)
}

func TestRegistry_DispatchZeroTokenIsNoop(t *testing.T) {
	r := NewRegistry()
	called := false
	r.Dispatch(0, func(DeviceCallback) { called = true })
	assert.False(t, called)
}

func TestRegistry_DispatchRoutesToForwarder(t *testing.T) {
	r := NewRegistry()
	txA, rxA := relay.New()
	txB, rxB := relay.New()
	tokA := r.Register(NewForwarder(txA, nil))
	tokB := r.Register(NewForwarder(txB, nil))

	r.Dispatch(tokA, func(cb DeviceCallback) { cb.OnConnected(1) })
	r.Dispatch(tokB, func(cb DeviceCallback) { cb.OnConnected(2) })

	evA, _ := rxA.TryPull()
	evB, _ := rxB.TryPull()
	assert.Equal(t, event.Connected{Version: 1}, evA)
	assert.Equal(t, event.Connected{Version: 2}, evB)

	// 释放后的令牌不再投递
	r.Release(tokA)
	r.Dispatch(tokA, func(cb DeviceCallback) { cb.OnConnected(3) })
	assert.Equal(t, 0, rxA.Len())
}

type panicCallback struct{ Null }

func (panicCallback) OnError(uint32) { panic("boom") }

func TestRegistry_DispatchRecoversPanic(t *testing.T) {
	r := NewRegistry()
	tok := r.Register(panicCallback{})
	assert.NotPanics(t, func() {
		r.Dispatch(tok, func(cb DeviceCallback) { cb.OnError(1) })
	})
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	tx, rx := relay.New()
	tok := r.Register(NewForwarder(tx, nil))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Dispatch(tok, func(cb DeviceCallback) { cb.OnWarning(uint32(j)) })
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				other := r.Register(Discard)
				r.Release(other)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 400, rx.Len())
	assert.Equal(t, 1, r.Len())
}

func TestToken_GlobalRegistry(t *testing.T) {
	tx, rx := relay.New()
	tok := Register(NewForwarder(tx, nil))
	defer tok.Release()

	tok.Dispatch(func(cb DeviceCallback) { cb.OnWarning(42) })
	ev, ok := rx.TryPull()
	require.True(t, ok)
	assert.Equal(t, event.Warning{Code: 42}, ev)

	_, ok = Token(0).Lookup()
	assert.False(t, ok)
}
