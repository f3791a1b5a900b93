package render

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResourcesReleaseNewestFirst(t *testing.T) {
	var order []string
	held := &resources{}
	held.add("stop driver", func() error { order = append(order, "driver"); return nil })
	held.add("close browser", func() error { order = append(order, "browser"); return errors.New("already closed") })

	held.release()
	assert.Equal(t, []string{"browser", "driver"}, order)
}

func TestResourcesReleaseConcurrently(t *testing.T) {
	var driver, browser atomic.Int32
	held := &resources{}
	held.add("stop driver", func() error { driver.Add(1); return nil })
	held.add("close browser", func() error { browser.Add(1); return nil })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			held.release()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), driver.Load())
	assert.Equal(t, int32(1), browser.Load())
}

func TestResourcesAddAfterRelease(t *testing.T) {
	held := &resources{}
	held.release()

	called := false
	assert.False(t, held.add("close browser", func() error { called = true; return nil }))
	held.release()
	assert.False(t, called)
}
