// Package audio implements G.711 mu-law companding and the fixed framing
// used by telephony media streams (8 kHz, 8-bit mu-law, 160-byte frames).
package audio

const (
	// SampleRate is the telephony wire sample rate in Hz.
	SampleRate = 8000

	// FrameSize is the number of mu-law bytes in one 20 ms frame.
	FrameSize = 160

	// FrameMillis is the duration of one frame.
	FrameMillis = 20
)

const (
	mulawBias = 33
	mulawMax  = 0x1FFF
)

// EncodeSample converts one 16-bit linear PCM sample to its mu-law byte.
// This is the canonical G.711 encoding: biased magnitude, 7-level exponent
// ladder, 4-bit mantissa, complemented on output.
func EncodeSample(pcm int16) byte {
	var sign byte
	mag := int32(pcm)
	if mag < 0 {
		mag = -mag
		sign = 0x80
	}

	mag += mulawBias
	if mag > mulawMax {
		mag = mulawMax
	}

	// Locate the highest set bit between positions 12 and 5.
	position := int32(12)
	for mask := int32(0x1000); (mag&mask) != mask && position > 5; mask >>= 1 {
		position--
	}

	lsb := byte((mag >> (position - 4)) & 0x0F)
	return ^(sign | byte(position-5)<<4 | lsb)
}

// DecodeSample converts one mu-law byte back to 16-bit linear PCM.
func DecodeSample(b byte) int16 {
	b = ^b

	var sign int32 = 1
	if b&0x80 != 0 {
		sign = -1
		b &^= 0x80
	}

	position := int32((b&0xF0)>>4) + 5
	mag := (int32(1) << position) |
		(int32(b&0x0F) << (position - 4)) |
		(int32(1) << (position - 5))
	mag -= mulawBias

	return int16(sign * mag)
}

// Encode converts a slice of linear PCM samples to mu-law bytes.
func Encode(pcm []int16) []byte {
	out := make([]byte, len(pcm))
	for i, s := range pcm {
		out[i] = EncodeSample(s)
	}
	return out
}

// Decode converts a mu-law byte buffer to linear PCM samples.
func Decode(mulaw []byte) []int16 {
	out := make([]int16, len(mulaw))
	for i, b := range mulaw {
		out[i] = DecodeSample(b)
	}
	return out
}
