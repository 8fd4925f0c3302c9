package bench

import (
	berrors "github.com/wzqhbustb/igzbench/errors"
)

// bufferSet owns the three buffers of one iteration. release must run on
// every exit path; callers defer it right after a successful acquire.
type bufferSet struct {
	input   []byte
	output  []byte
	scratch []byte

	live *int
}

// acquireBuffers allocates the input, output and scratch buffers. Any buffer
// above limit fails the whole acquisition with ErrAllocationFailed and
// nothing stays allocated.
func acquireBuffers(inputSize, outputSize, scratchSize, limit int, live *int) (*bufferSet, error) {
	sizes := []struct {
		name string
		size int
	}{
		{"input", inputSize},
		{"output", outputSize},
		{"scratch", scratchSize},
	}
	for _, s := range sizes {
		if s.size < 0 || s.size > limit {
			return nil, berrors.AllocationFailed(s.name, s.size, limit)
		}
	}

	b := &bufferSet{
		input:   make([]byte, inputSize),
		output:  make([]byte, outputSize),
		scratch: make([]byte, scratchSize),
		live:    live,
	}
	if live != nil {
		*live += len(sizes)
	}
	return b, nil
}

func (b *bufferSet) release() {
	if b == nil || b.input == nil && b.output == nil && b.scratch == nil {
		return
	}
	b.input, b.output, b.scratch = nil, nil, nil
	if b.live != nil {
		*b.live -= 3
	}
}
