package station

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_FIFOPerProducer(t *testing.T) {
	q := newQueue()
	const producers, perProducer = 8, 500

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.push([2]int{p, i})
			}
		}(p)
	}

	var got [][2]int
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for len(got) < producers*perProducer {
		select {
		case <-q.ready:
		case <-done:
		}
		for _, v := range q.drain() {
			got = append(got, v.([2]int))
		}
	}

	require.Len(t, got, producers*perProducer)
	next := make([]int, producers)
	for _, v := range got {
		assert.Equal(t, next[v[0]], v[1], "producer %d out of order", v[0])
		next[v[0]] = v[1] + 1
	}
}

func TestQueue_PushNeverBlocks(t *testing.T) {
	q := newQueue()
	for i := 0; i < 10000; i++ {
		q.push(i)
	}
	assert.Len(t, q.ready, 1)
	items := q.drain()
	require.Len(t, items, 10000)
	assert.Equal(t, 0, items[0])
	assert.Equal(t, 9999, items[9999])
	assert.Empty(t, q.drain())
}
