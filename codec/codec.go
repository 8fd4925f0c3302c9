// Package codec exposes a stateless, single-call compression interface in the
// shape of a block codec library: callers fill a Stream with input, output and
// scratch buffers plus level and window parameters, then invoke
// CompressStateless once and inspect the returned Status.
//
// The actual compression is delegated to an Engine backed by
// github.com/klauspost/compress.
package codec

import (
	"errors"
	"fmt"
)

const (
	// MinLevel is the fastest supported compression level.
	MinLevel = 0
	// MaxLevel is the highest supported compression level.
	MaxLevel = 3

	// MinWindowBits and MaxWindowBits bound log2 of the history window.
	MinWindowBits = 9
	MaxWindowBits = 15

	// MaxHeaderSize is the worst-case number of framing bytes a stateless
	// call adds on top of the input length.
	MaxHeaderSize = 328
)

// Status is the result code of a compression call. Zero means success.
type Status int

const (
	StatusOK               Status = 0
	StatusOverflow         Status = -1
	StatusInvalidState     Status = -3
	StatusInvalidLevel     Status = -4
	StatusInvalidLevelBuf  Status = -5
	StatusInvalidFlush     Status = -7
	StatusInvalidParam     Status = -8
	StatusInvalidOperation Status = -9
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "COMP_OK"
	case StatusOverflow:
		return "STATELESS_OVERFLOW"
	case StatusInvalidState:
		return "INVALID_STATE"
	case StatusInvalidLevel:
		return "INVALID_LEVEL"
	case StatusInvalidLevelBuf:
		return "INVALID_LEVEL_BUF"
	case StatusInvalidFlush:
		return "INVALID_FLUSH"
	case StatusInvalidParam:
		return "INVALID_PARAM"
	case StatusInvalidOperation:
		return "INVALID_OPERATION"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// FlushMode controls how a call terminates its output.
type FlushMode int

const (
	NoFlush FlushMode = iota
	SyncFlush
	FullFlush
)

func (f FlushMode) String() string {
	switch f {
	case NoFlush:
		return "NO_FLUSH"
	case SyncFlush:
		return "SYNC_FLUSH"
	case FullFlush:
		return "FULL_FLUSH"
	default:
		return fmt.Sprintf("FlushMode(%d)", int(f))
	}
}

// Stream holds the parameters and buffers of one compression call.
type Stream struct {
	Input    []byte // data to compress
	Output   []byte // destination; its length is the available space
	TotalOut int    // bytes written to Output by the last call

	Level       int    // MinLevel..MaxLevel
	LevelBuf    []byte // scratch memory, at least LevelBufSize(Level) bytes
	WindowBits  int    // log2 of the history window
	Flush       FlushMode
	EndOfStream bool

	// Engine performs the compression. Init leaves it untouched; a nil
	// engine selects Deflate.
	Engine Engine

	// Err records the backend error behind the last non-OK status, if any.
	Err error
}

// Init resets the stream to its initial state. Buffers and the engine are
// kept; everything else returns to defaults.
func (s *Stream) Init() {
	s.TotalOut = 0
	s.Level = MinLevel
	s.WindowBits = MaxWindowBits
	s.Flush = NoFlush
	s.EndOfStream = false
	s.Err = nil
}

// CompressStateless compresses the whole of s.Input into s.Output in a single
// call. On success s.TotalOut holds the compressed length.
func CompressStateless(s *Stream) Status {
	s.TotalOut = 0
	s.Err = nil

	if s.Level < MinLevel || s.Level > MaxLevel {
		return StatusInvalidLevel
	}
	need, err := LevelBufSize(s.Level)
	if err != nil {
		return StatusInvalidLevel
	}
	if len(s.LevelBuf) < need {
		return StatusInvalidLevelBuf
	}
	if s.WindowBits < MinWindowBits || s.WindowBits > MaxWindowBits {
		return StatusInvalidParam
	}
	if s.Flush < NoFlush || s.Flush > FullFlush {
		return StatusInvalidFlush
	}

	engine := s.Engine
	if engine == nil {
		engine = Deflate
	}

	n, err := engine.Compress(s.Output, s.Input, Params{
		Level:      s.Level,
		WindowBits: s.WindowBits,
		Flush:      s.Flush,
		Final:      s.EndOfStream,
	})
	if err != nil {
		s.Err = err
		if errors.Is(err, ErrShortBuffer) {
			return StatusOverflow
		}
		return StatusInvalidOperation
	}

	s.TotalOut = n
	return StatusOK
}
