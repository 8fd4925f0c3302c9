package codec

import (
	"errors"
	"io"
	"sort"
	"sync"
)

// ErrShortBuffer is returned by an Engine when the output buffer cannot hold
// the compressed data.
var ErrShortBuffer = io.ErrShortBuffer

// Params carries the per-call settings handed to an Engine.
type Params struct {
	Level      int
	WindowBits int
	Flush      FlushMode
	Final      bool // terminate the compressed stream
}

// Engine compresses a whole buffer in one call.
type Engine interface {
	// Name returns the registry name of the engine.
	Name() string

	// Compress writes the compressed form of src into dst and returns the
	// number of bytes written. It returns ErrShortBuffer when dst is too
	// small and never writes past len(dst).
	Compress(dst, src []byte, p Params) (int, error)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Engine{}
)

// Register makes an engine available by name. Registering the same name twice
// replaces the earlier engine.
func Register(e Engine) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[e.Name()] = e
}

// Lookup returns the engine registered under name.
func Lookup(name string) (Engine, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	e, ok := registry[name]
	return e, ok
}

// Engines returns the sorted names of all registered engines.
func Engines() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register(Deflate)
	Register(Gzip)
	Register(Zlib)
	Register(Zstd)
	Register(S2)
}

// fixedWriter writes into a preallocated slice and refuses to grow it.
type fixedWriter struct {
	buf []byte
	n   int
}

func (w *fixedWriter) Write(p []byte) (int, error) {
	free := len(w.buf) - w.n
	if len(p) > free {
		w.n += copy(w.buf[w.n:], p[:free])
		return free, ErrShortBuffer
	}
	w.n += copy(w.buf[w.n:], p)
	return len(p), nil
}

// appendInto copies an encoder's appended result into dst when the encoder
// had to reallocate, and reports overflow if it did not fit.
func appendInto(dst, out []byte) (int, error) {
	if len(out) > len(dst) {
		return 0, ErrShortBuffer
	}
	if len(out) > 0 && &out[0] != &dst[0] {
		copy(dst, out)
	}
	return len(out), nil
}

var errPoolType = errors.New("codec: unexpected pooled value")
