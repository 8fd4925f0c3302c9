package codec

import (
	"sync"

	"github.com/klauspost/compress/zstd"
)

var zstdLevels = [MaxLevel + 1]zstd.EncoderLevel{
	zstd.SpeedFastest,
	zstd.SpeedDefault,
	zstd.SpeedBetterCompression,
	zstd.SpeedBestCompression,
}

// ZstdEngine produces single zstd frames. Windows below zstd's minimum are
// raised to zstd.MinWindowSize.
type ZstdEngine struct {
	mu    sync.Mutex
	pools map[poolKey]*sync.Pool
}

// Zstd is the registered zstd engine.
var Zstd Engine = &ZstdEngine{}

func (e *ZstdEngine) Name() string { return "zstd" }

func (e *ZstdEngine) encoderPool(key poolKey) *sync.Pool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pools == nil {
		e.pools = make(map[poolKey]*sync.Pool)
	}
	pool, ok := e.pools[key]
	if !ok {
		window := 1 << key.windowBits
		if window < zstd.MinWindowSize {
			window = zstd.MinWindowSize
		}
		pool = &sync.Pool{
			New: func() interface{} {
				enc, err := zstd.NewWriter(nil,
					zstd.WithEncoderLevel(zstdLevels[key.level]),
					zstd.WithWindowSize(window),
					zstd.WithEncoderConcurrency(1),
				)
				if err != nil {
					return err
				}
				return enc
			},
		}
		e.pools[key] = pool
	}
	return pool
}

func (e *ZstdEngine) Compress(dst, src []byte, p Params) (int, error) {
	pool := e.encoderPool(poolKey{level: p.Level, windowBits: p.WindowBits})

	raw := pool.Get()
	if err, ok := raw.(error); ok {
		return 0, err
	}
	encoder, ok := raw.(*zstd.Encoder)
	if !ok {
		return 0, errPoolType
	}
	defer pool.Put(encoder)

	return appendInto(dst, encoder.EncodeAll(src, dst[:0]))
}
