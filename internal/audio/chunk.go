package audio

import "encoding/base64"

// Frames splits a mu-law buffer into exact 160-byte frames. A partial
// trailing frame is held back and returned as rest so the caller can
// prepend it to the next buffer; emitted frames are always full 20 ms.
func Frames(buf []byte) (frames [][]byte, rest []byte) {
	for len(buf) >= FrameSize {
		f := make([]byte, FrameSize)
		copy(f, buf[:FrameSize])
		frames = append(frames, f)
		buf = buf[FrameSize:]
	}
	if len(buf) > 0 {
		rest = make([]byte, len(buf))
		copy(rest, buf)
	}
	return frames, rest
}

// ChunkForTransport splits a mu-law buffer into base64 payloads of at most
// 160 raw bytes each, ready for a JSON-framed media stream. Decoding and
// concatenating the chunks reconstructs the input exactly.
func ChunkForTransport(buf []byte) []string {
	if len(buf) == 0 {
		return nil
	}

	chunks := make([]string, 0, (len(buf)+FrameSize-1)/FrameSize)
	for len(buf) > 0 {
		n := FrameSize
		if len(buf) < n {
			n = len(buf)
		}
		chunks = append(chunks, base64.StdEncoding.EncodeToString(buf[:n]))
		buf = buf[n:]
	}
	return chunks
}
