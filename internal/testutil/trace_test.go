package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedTraceID_ReturnsSameID(t *testing.T) {
	gen := NewFixedTraceID("trace-123")

	assert.Equal(t, "trace-123", gen.Generate())
	assert.Equal(t, "trace-123", gen.Generate())
}

func TestFixedTraceID_EmptyDefault(t *testing.T) {
	gen := NewFixedTraceID("")
	assert.Equal(t, "test-trace-default", gen.Generate())
}

func TestFixedTraceID_ThreadSafe(t *testing.T) {
	gen := NewFixedTraceID("thread-safe")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.Equal(t, "thread-safe", gen.Generate())
			}
		}()
	}
	wg.Wait()
}
