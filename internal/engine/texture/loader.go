package texture

import (
	"errors"
	"fmt"
	"image"
	"sync"
)

// ErrQueueFull is returned by Submit when the decode queue is full.
var ErrQueueFull = errors.New("texture queue full")

// ErrLoaderClosed is returned by Submit after Close.
var ErrLoaderClosed = errors.New("texture loader closed")

// Result is a finished decode. Exactly one of Image and Err is set.
type Result[K any] struct {
	Key   K
	Image *image.RGBA
	Err   error
}

// LoaderConfig holds loader settings.
type LoaderConfig struct {
	Workers   int
	QueueSize int
	MaxSize   int
}

// DefaultLoaderConfig returns the default loader settings.
func DefaultLoaderConfig() LoaderConfig {
	return LoaderConfig{
		Workers:   2,
		QueueSize: 16,
		MaxSize:   DefaultMaxSize,
	}
}

type request[K any] struct {
	key  K
	data []byte
}

// Loader decodes images on worker goroutines and delivers results through a
// completion channel that the owner drains from its own thread. Nothing the
// workers do touches caller state.
type Loader[K any] struct {
	cfg     LoaderConfig
	jobs    chan request[K]
	results chan Result[K]
	done    chan struct{}

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
	workers  sync.WaitGroup
}

// NewLoader starts cfg.Workers decode workers.
func NewLoader[K any](cfg LoaderConfig) *Loader[K] {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}
	l := &Loader[K]{
		cfg:     cfg,
		jobs:    make(chan request[K], cfg.QueueSize),
		results: make(chan Result[K], cfg.QueueSize+cfg.Workers),
		done:    make(chan struct{}),
	}
	for i := 0; i < cfg.Workers; i++ {
		l.workers.Add(1)
		go l.work()
	}
	return l
}

func (l *Loader[K]) work() {
	defer l.workers.Done()
	for req := range l.jobs {
		img, err := safeDecode(req.data, l.cfg.MaxSize)
		select {
		case l.results <- Result[K]{Key: req.key, Image: img, Err: err}:
		case <-l.done:
		}
		l.inflight.Done()
	}
}

// safeDecode turns a decoder panic into ErrTextureDecodeFailed.
func safeDecode(data []byte, maxSize int) (img *image.RGBA, err error) {
	defer func() {
		if r := recover(); r != nil {
			img, err = nil, fmt.Errorf("%w: decoder panic: %v", ErrTextureDecodeFailed, r)
		}
	}()
	return Decode(data, maxSize)
}

// Submit queues data for decoding under key. It never blocks.
func (l *Loader[K]) Submit(key K, data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrLoaderClosed
	}
	l.inflight.Add(1)
	select {
	case l.jobs <- request[K]{key: key, data: data}:
		return nil
	default:
		l.inflight.Done()
		return ErrQueueFull
	}
}

// Drain hands every finished result to apply without blocking and returns
// how many were delivered.
func (l *Loader[K]) Drain(apply func(Result[K])) int {
	n := 0
	for {
		select {
		case r := <-l.results:
			apply(r)
			n++
		default:
			return n
		}
	}
}

// Wait blocks until every submitted request has a result ready to drain.
func (l *Loader[K]) Wait() {
	l.inflight.Wait()
}

// Close stops accepting work and waits for the workers to exit. Results that
// no longer fit the completion buffer are dropped; buffered ones can still be
// drained.
func (l *Loader[K]) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	close(l.jobs)
	close(l.done)
	l.mu.Unlock()
	l.workers.Wait()
}
