package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryPutReplaces(t *testing.T) {
	r := NewRegistry()

	first := New("client-1")
	r.Put(first)
	second := New("client-1")
	r.Put(second)

	got := r.Get("client-1")
	require.NotNil(t, got)
	assert.Equal(t, second.ID, got.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryGetMissing(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Get("nobody"))
}

func TestRegistryDelete(t *testing.T) {
	r := NewRegistry()
	r.Put(New("client-1"))
	r.Delete("client-1")
	assert.Nil(t, r.Get("client-1"))
	assert.Equal(t, 0, r.Len())
}

func TestRegistryEvictIdle(t *testing.T) {
	r := NewRegistry()

	stale := New("stale-client")
	stale.updatedAt.Store(time.Now().Add(-time.Hour).UnixNano())
	r.Put(stale)

	active := New("active-client")
	r.Put(active)

	evicted := r.EvictIdle(30 * time.Minute)
	assert.Equal(t, 1, evicted)
	assert.Nil(t, r.Get("stale-client"))
	assert.NotNil(t, r.Get("active-client"))
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		i := i
		go func() {
			defer wg.Done()
			clientID := fmt.Sprintf("client-%d", i)
			r.Put(New(clientID))
			r.Get(clientID)
			r.Len()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, r.Len())
}

func TestSessionNewStartsAtDayChoice(t *testing.T) {
	s := New("client-1")
	assert.Equal(t, StateAwaitingDay, s.State)
	assert.NotEmpty(t, s.ID)
	assert.False(t, s.Completed)
}

func TestSessionTouchResetsIdle(t *testing.T) {
	s := New("client-1")
	s.updatedAt.Store(time.Now().Add(-time.Hour).UnixNano())
	require.GreaterOrEqual(t, s.IdleFor(time.Now()), time.Hour)

	s.Touch()
	assert.Less(t, s.IdleFor(time.Now()), time.Minute)
}

func TestEvictIdleConcurrentWithTouch(t *testing.T) {
	r := NewRegistry()
	s := New("client-1")
	r.Put(s)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				s.Touch()
			}
		}
	}()
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				r.EvictIdle(time.Hour)
			}
		}
	}()

	time.Sleep(50 * time.Millisecond)
	close(done)
	wg.Wait()

	assert.NotNil(t, r.Get("client-1"))
}

func TestHasClientTag(t *testing.T) {
	description := "Ім'я: Olena\nТелефон: +380501234567\n" + ClientTag("55")

	assert.True(t, HasClientTag(description, "55"))
	assert.False(t, HasClientTag(description, "5"))
	assert.False(t, HasClientTag(description, "555"))
	assert.False(t, HasClientTag("", "55"))

	// Tag position and surrounding whitespace don't matter.
	assert.True(t, HasClientTag("  "+ClientTag("5")+"  \nпримітка", "5"))
}
