package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnapshot(t *testing.T) {
	var empty Snapshot[*int]
	_, ok := empty.Load()
	assert.False(t, ok)

	one, two := 1, 2
	s := NewSnapshot(&one)
	v, ok := s.Load()
	assert.True(t, ok)
	assert.Equal(t, 1, *v)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if v, ok := s.Load(); ok {
				_ = *v
			}
		}()
	}
	s.Store(&two)
	wg.Wait()

	v, _ = s.Load()
	assert.Equal(t, 2, *v)
}
