package system

import (
	"image"
	"sync"
)

// FramePool recycles *image.NRGBA buffers per frame size so that compositing
// a long video does not allocate a new background copy on every tick.
type FramePool struct {
	pools map[image.Point]*sync.Pool
	mu    sync.RWMutex
}

var globalPool = NewFramePool()

func NewFramePool() *FramePool {
	return &FramePool{pools: make(map[image.Point]*sync.Pool)}
}

// GetFrame returns a w×h frame from the shared pool. Its contents are undefined.
func GetFrame(w, h int) *image.NRGBA {
	return globalPool.Get(w, h)
}

// PutFrame hands a frame back to the shared pool.
func PutFrame(img *image.NRGBA) {
	globalPool.Put(img)
}

func (p *FramePool) Get(w, h int) *image.NRGBA {
	key := image.Pt(w, h)
	p.mu.RLock()
	pool, exists := p.pools[key]
	p.mu.RUnlock()

	if !exists {
		p.mu.Lock()
		// Double check
		pool, exists = p.pools[key]
		if !exists {
			pool = &sync.Pool{
				New: func() interface{} {
					return image.NewNRGBA(image.Rect(0, 0, key.X, key.Y))
				},
			}
			p.pools[key] = pool
		}
		p.mu.Unlock()
	}

	return pool.Get().(*image.NRGBA)
}

func (p *FramePool) Put(img *image.NRGBA) {
	if img == nil || img.Rect.Min != (image.Point{}) {
		return
	}
	key := img.Rect.Size()
	p.mu.RLock()
	pool, exists := p.pools[key]
	p.mu.RUnlock()

	if exists {
		pool.Put(img)
	}
}
