package tokenizer

// Stream is a push-style encoder: input arrives in arbitrary pieces and
// ids are emitted as soon as the chunk they belong to can no longer change.
// The concatenation of every Feed result and the final Flush equals Encode
// of the concatenated input. A Stream is not safe for concurrent use.
type Stream struct {
	enc *Encoder
	buf []byte
	out []uint32
}

func (e *Encoder) NewStream() *Stream {
	return &Stream{enc: e}
}

// Feed consumes the next piece of input and returns the ids it completed,
// or nil. The returned slice is owned by the caller.
func (st *Stream) Feed(piece []byte) []uint32 {
	st.buf = append(st.buf, piece...)
	return st.emit(false)
}

// Flush encodes whatever is still buffered and resets the stream for reuse.
func (st *Stream) Flush() []uint32 {
	return st.emit(true)
}

// Buffered is the number of input bytes held back awaiting more input.
func (st *Stream) Buffered() int {
	return len(st.buf)
}

func (st *Stream) emit(atEOF bool) []uint32 {
	sc := st.enc.acquireScratch()
	defer st.enc.releaseScratch(sc)

	st.out = st.out[:0]
	consumed := 0
	for consumed < len(st.buf) {
		advance, chunk, err := st.enc.splitter.Split(st.buf[consumed:], atEOF)
		if err != nil || advance == 0 {
			break
		}
		st.out = st.enc.mergeChunk(st.out, chunk, sc)
		consumed += advance
	}

	if consumed > 0 {
		st.buf = append(st.buf[:0], st.buf[consumed:]...)
	}

	if len(st.out) == 0 {
		return nil
	}
	return append([]uint32(nil), st.out...)
}
