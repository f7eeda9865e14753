package concurrency

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientLockSerializesSameClient(t *testing.T) {
	m := NewClientLockManager()

	var inCritical int32
	var overlapped int32
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Lock("client-1")
			defer m.Unlock("client-1")

			if atomic.AddInt32(&inCritical, 1) > 1 {
				atomic.StoreInt32(&overlapped, 1)
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inCritical, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(0), atomic.LoadInt32(&overlapped))
}

func TestClientLockAllowsDifferentClients(t *testing.T) {
	m := NewClientLockManager()
	m.Lock("client-1")
	defer m.Unlock("client-1")

	done := make(chan struct{})
	go func() {
		m.Lock("client-2")
		m.Unlock("client-2")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("client-2 blocked behind client-1's lock")
	}
}

func TestSafeGoRecoversPanic(t *testing.T) {
	recovered := make(chan interface{}, 1)
	SafeGo(func() {
		panic("boom")
	}, func(r interface{}) {
		recovered <- r
	})

	select {
	case r := <-recovered:
		require.Equal(t, "boom", r)
	case <-time.After(time.Second):
		t.Fatal("panic handler never ran")
	}
}

func TestSafeGoRunsFunction(t *testing.T) {
	done := make(chan struct{})
	SafeGo(func() { close(done) }, nil)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("function never ran")
	}
}
