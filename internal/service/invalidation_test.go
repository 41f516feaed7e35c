package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvalidationRegistryEpoch(t *testing.T) {
	r := NewInvalidationRegistry()
	assert.Equal(t, int64(0), r.Epoch())

	assert.Equal(t, int64(1), r.Invalidate("class-1"))
	assert.Equal(t, int64(2), r.Invalidate(""))
	assert.Equal(t, int64(2), r.Epoch())
}

func TestInvalidationRegistryNotifiesSubscribers(t *testing.T) {
	r := NewInvalidationRegistry()

	var got []string
	r.Subscribe(func(classID string) { got = append(got, classID) })
	r.Subscribe(nil) // ignored

	r.Invalidate("class-1")
	r.Invalidate("")
	require.Equal(t, []string{"class-1", ""}, got)
}

func TestInvalidationRegistryConcurrentBumps(t *testing.T) {
	r := NewInvalidationRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Invalidate("class-1")
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(50), r.Epoch())
}
