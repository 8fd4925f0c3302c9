package codec

import (
	"github.com/klauspost/compress/s2"
)

// S2Engine produces s2 blocks. s2 has no window setting; levels 0 and 1 use
// the default encoder, 2 the better encoder and 3 the best.
type S2Engine struct{}

// S2 is the registered s2 engine.
var S2 Engine = S2Engine{}

func (S2Engine) Name() string { return "s2" }

func (S2Engine) Compress(dst, src []byte, p Params) (int, error) {
	if s2.MaxEncodedLen(len(src)) < 0 {
		return 0, ErrShortBuffer
	}

	var out []byte
	switch {
	case p.Level <= 1:
		out = s2.Encode(dst, src)
	case p.Level == 2:
		out = s2.EncodeBetter(dst, src)
	default:
		out = s2.EncodeBest(dst, src)
	}
	return appendInto(dst, out)
}
