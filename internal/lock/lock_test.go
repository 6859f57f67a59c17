package lock

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateSerializesCriticalSections(t *testing.T) {
	g := NewGate()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Acquire()
			defer g.Release()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}

func TestGateDo(t *testing.T) {
	g := NewGate()

	ran := false
	err := g.Do(func() error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)

	wantErr := errors.New("boom")
	err = g.Do(func() error { return wantErr })
	assert.Equal(t, wantErr, err)
}

func TestGateDoReleasesOnPanic(t *testing.T) {
	g := NewGate()

	assert.Panics(t, func() {
		_ = g.Do(func() error { panic("inside") })
	})

	// the gate must be free again
	done := g.Do(func() error { return nil })
	assert.NoError(t, done)
}
