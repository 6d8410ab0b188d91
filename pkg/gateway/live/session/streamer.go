package session

// audioStreamer slices synthesized audio into fixed-size chunks numbered by a
// strictly increasing sequence index. One streamer spans a whole utterance,
// so indices keep climbing across sentence segments and the client can
// reassemble by ordering alone.
type audioStreamer struct {
	chunkBytes int
	seq        int
	pending    []byte
	send       func(chunk []byte, seqIndex, totalCount int) error
}

func newAudioStreamer(chunkBytes int, send func(chunk []byte, seqIndex, totalCount int) error) *audioStreamer {
	if chunkBytes <= 0 {
		chunkBytes = 32 * 1024
	}
	return &audioStreamer{chunkBytes: chunkBytes, send: send}
}

// sendUnit delivers one complete audio unit whose size is known up front, so
// every chunk carries the exact total count. Empty units produce no chunks.
func (a *audioStreamer) sendUnit(audio []byte) error {
	total := (len(audio) + a.chunkBytes - 1) / a.chunkBytes
	for off := 0; off < len(audio); off += a.chunkBytes {
		end := min(off+a.chunkBytes, len(audio))
		if err := a.send(audio[off:end], a.seq, total); err != nil {
			return err
		}
		a.seq++
	}
	return nil
}

// write accumulates streamed audio and emits a chunk each time one fills.
// Totals are not known while streaming, so chunks go out with totalCount 0.
func (a *audioStreamer) write(p []byte) error {
	a.pending = append(a.pending, p...)
	for len(a.pending) >= a.chunkBytes {
		if err := a.send(a.pending[:a.chunkBytes], a.seq, 0); err != nil {
			return err
		}
		a.seq++
		a.pending = a.pending[a.chunkBytes:]
	}
	return nil
}

// flush emits any buffered remainder as a final short chunk.
func (a *audioStreamer) flush() error {
	if len(a.pending) == 0 {
		return nil
	}
	chunk := a.pending
	a.pending = nil
	if err := a.send(chunk, a.seq, 0); err != nil {
		return err
	}
	a.seq++
	return nil
}

// sent reports how many chunks have gone out so far.
func (a *audioStreamer) sent() int {
	return a.seq
}
