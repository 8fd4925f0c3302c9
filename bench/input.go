package bench

import (
	"io"
	"math/rand"

	berrors "github.com/wzqhbustb/igzbench/errors"
	"github.com/wzqhbustb/igzbench/fileio"
)

// maxEmptyReads bounds consecutive (0, nil) reads before a reader is treated
// as stuck.
const maxEmptyReads = 100

// FillRandom fills buf with pseudo-random bytes from rng.
func FillRandom(rng *rand.Rand, buf []byte) {
	rng.Read(buf)
}

// FillFromFile fills buf from the start of r, repeating r's contents
// cyclically when buf is larger than r. An r with no content fails with
// ErrEmptyInput instead of looping forever.
func FillFromFile(r io.ReadSeeker, buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return err
	}

	filled := 0
	sinceSeek := 0
	emptyReads := 0
	for filled < len(buf) {
		n, err := r.Read(buf[filled:])
		filled += n
		sinceSeek += n

		switch {
		case err == io.EOF:
			if sinceSeek == 0 {
				return berrors.EmptyInput("")
			}
			if _, err := r.Seek(0, io.SeekStart); err != nil {
				return err
			}
			sinceSeek = 0
			emptyReads = 0
		case err != nil:
			return err
		case n == 0:
			emptyReads++
			if emptyReads >= maxEmptyReads {
				return io.ErrNoProgress
			}
		default:
			emptyReads = 0
		}
	}
	return nil
}

// inputSource populates the input buffer of each iteration.
type inputSource interface {
	fill(buf []byte) error
	close() error
}

type randomSource struct {
	rng *rand.Rand
}

func (s *randomSource) fill(buf []byte) error {
	FillRandom(s.rng, buf)
	return nil
}

func (s *randomSource) close() error { return nil }

// fileSource reads through a pooled handle so each iteration reuses the same
// open file.
type fileSource struct {
	pool  *fileio.Pool
	id    string
	path  string
	owned bool // pool was created by the runner and is closed with the source
}

func (s *fileSource) fill(buf []byte) error {
	f, err := s.pool.Get(s.id)
	if err != nil {
		return err
	}
	defer s.pool.Put(s.id)

	if err := FillFromFile(f, buf); err != nil {
		if berrors.Is(err, berrors.ErrEmptyInput) {
			return berrors.EmptyInput(s.path)
		}
		return berrors.IO("fill_from_file", s.path, err)
	}
	return nil
}

func (s *fileSource) close() error {
	if s.owned {
		return s.pool.Close()
	}
	return nil
}
