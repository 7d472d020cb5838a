package audio

import "testing"

func TestNewDownsamplerRejectsLowRate(t *testing.T) {
	if _, err := NewDownsampler(4000); err == nil {
		t.Fatalf("expected error for sub-8kHz source rate")
	}
}

func TestDownsamplerRatio(t *testing.T) {
	d, err := NewDownsampler(48000)
	if err != nil {
		t.Fatalf("NewDownsampler: %v", err)
	}

	out := d.Process(make([]float32, 48000))
	if len(out) != 8000 {
		t.Fatalf("48k->8k over one second: %d samples, want 8000", len(out))
	}
}

func TestDownsamplerNoDriftAcrossCalls(t *testing.T) {
	// 44.1 kHz has a non-integer ratio; feeding in awkward chunk sizes must
	// produce the same total as one contiguous buffer.
	whole, _ := NewDownsampler(44100)
	chunked, _ := NewDownsampler(44100)

	input := make([]float32, 44100)
	wantTotal := len(whole.Process(input))

	var got int
	for off := 0; off < len(input); {
		n := 317
		if off+n > len(input) {
			n = len(input) - off
		}
		got += len(chunked.Process(input[off : off+n]))
		off += n
	}

	if got != wantTotal {
		t.Fatalf("chunked total %d != contiguous total %d", got, wantTotal)
	}
	if wantTotal != 8000 {
		t.Fatalf("44.1k->8k over one second: %d samples, want 8000", wantTotal)
	}
}

func TestDownsamplerClamps(t *testing.T) {
	d, _ := NewDownsampler(8000)
	out := d.Process([]float32{2.0, -2.0})
	if len(out) != 2 {
		t.Fatalf("unit ratio should keep every sample, got %d", len(out))
	}
	if out[0] != EncodeSample(32767) {
		t.Fatalf("over-range sample not clamped to full scale")
	}
}
