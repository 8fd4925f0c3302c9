package codec

import (
	berrors "github.com/wzqhbustb/igzbench/errors"
)

const kib = 1024

// Minimum scratch sizes per level. Each level needs a hash table plus a
// token area sized for 64 KiB of input.
const (
	level0BufSize = 0
	level1BufSize = 4*kib + 2*8*kib + 4*64*kib
	level2BufSize = 4*kib + 2*32*kib + 4*64*kib
	level3BufSize = 4*kib + 4*4*kib + 2*64*kib + 4*64*kib
)

var scratchSizeTable = [...]int{
	level0BufSize,
	level1BufSize,
	level2BufSize,
	level3BufSize,
}

// LevelBufSize returns the minimum scratch buffer size for level. Levels
// outside the table fail with ErrUnsupportedLevelForScratchTable.
func LevelBufSize(level int) (int, error) {
	if level < 0 || level >= len(scratchSizeTable) {
		return 0, berrors.UnsupportedLevelForScratchTable(level, len(scratchSizeTable)-1)
	}
	return scratchSizeTable[level], nil
}

// OutputBufSize returns the output capacity a stateless call needs for an
// input of n bytes.
func OutputBufSize(n int) int {
	return MaxHeaderSize + n
}
