package audio

import "errors"

// Downsampler reduces mono float PCM captured at an arbitrary source rate
// to 8 kHz mu-law by nearest-sample selection. The fractional counter
// carries over between calls, so feeding audio in arbitrary chunk sizes
// never drifts. One instance per session; not safe for concurrent use.
type Downsampler struct {
	ratio float64
	acc   float64
}

var ErrSampleRate = errors.New("source sample rate must be at least 8000 Hz")

func NewDownsampler(sourceRate int) (*Downsampler, error) {
	if sourceRate < SampleRate {
		return nil, ErrSampleRate
	}
	return &Downsampler{ratio: float64(sourceRate) / float64(SampleRate)}, nil
}

// Process consumes float samples in [-1, 1] and returns the mu-law bytes
// due at the target rate. Output is at most one sample per ratio-sized
// stride of input.
func (d *Downsampler) Process(samples []float32) []byte {
	out := make([]byte, 0, int(float64(len(samples))/d.ratio)+1)
	for _, s := range samples {
		d.acc++
		if d.acc < d.ratio {
			continue
		}
		d.acc -= d.ratio

		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		out = append(out, EncodeSample(int16(s*32767)))
	}
	return out
}
