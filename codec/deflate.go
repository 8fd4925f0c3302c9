package codec

import (
	"io"
	"sync"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// flateLevels maps MinLevel..MaxLevel onto DEFLATE compression levels.
var flateLevels = [MaxLevel + 1]int{
	flate.BestSpeed,
	3,
	6,
	flate.BestCompression,
}

// streamWriter is the common surface of the flate, gzip and zlib writers.
type streamWriter interface {
	io.WriteCloser
	Flush() error
	Reset(w io.Writer)
}

type poolKey struct {
	level      int
	windowBits int
}

// writerEngine compresses through a pooled io.Writer based compressor.
type writerEngine struct {
	name      string
	newWriter func(level, windowBits int) (streamWriter, error)

	mu    sync.Mutex
	pools map[poolKey]*sync.Pool
}

// Deflate produces raw DEFLATE blocks. A window below 2^15 selects the
// custom-window compressor, which has a single speed setting.
var Deflate Engine = &writerEngine{
	name: "deflate",
	newWriter: func(level, windowBits int) (streamWriter, error) {
		if windowBits < MaxWindowBits {
			return flate.NewWriterWindow(nil, 1<<windowBits)
		}
		return flate.NewWriter(nil, flateLevels[level])
	},
}

// Gzip wraps DEFLATE in a gzip member. The window is fixed at 2^15.
var Gzip Engine = &writerEngine{
	name: "gzip",
	newWriter: func(level, _ int) (streamWriter, error) {
		return gzip.NewWriterLevel(nil, flateLevels[level])
	},
}

// Zlib wraps DEFLATE in a zlib stream. The window is fixed at 2^15.
var Zlib Engine = &writerEngine{
	name: "zlib",
	newWriter: func(level, _ int) (streamWriter, error) {
		return zlib.NewWriterLevel(nil, flateLevels[level])
	},
}

func (e *writerEngine) Name() string { return e.name }

func (e *writerEngine) pool(key poolKey) *sync.Pool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pools == nil {
		e.pools = make(map[poolKey]*sync.Pool)
	}
	p, ok := e.pools[key]
	if !ok {
		p = &sync.Pool{
			New: func() interface{} {
				w, err := e.newWriter(key.level, key.windowBits)
				if err != nil {
					return err
				}
				return w
			},
		}
		e.pools[key] = p
	}
	return p
}

func (e *writerEngine) Compress(dst, src []byte, p Params) (int, error) {
	pool := e.pool(poolKey{level: p.Level, windowBits: p.WindowBits})

	raw := pool.Get()
	if err, ok := raw.(error); ok {
		return 0, err
	}
	w, ok := raw.(streamWriter)
	if !ok {
		return 0, errPoolType
	}

	out := &fixedWriter{buf: dst}
	w.Reset(out)

	if _, err := w.Write(src); err != nil {
		// The writer is left mid-stream; drop it instead of pooling it.
		return 0, err
	}

	var err error
	if p.Final {
		err = w.Close()
	} else {
		err = w.Flush()
	}
	if err != nil {
		return 0, err
	}

	// Detach the caller's buffer before the writer goes back to the pool.
	w.Reset(io.Discard)
	pool.Put(w)

	return out.n, nil
}
