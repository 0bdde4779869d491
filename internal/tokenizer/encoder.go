package tokenizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/fastbpe/internal/logutil"
	"github.com/fastbpe/internal/pretokenize"
)

// readBlockSize is how much EncodeReader asks r for at a time. Chunks may
// span any number of blocks.
const readBlockSize = 64 * 1024

// Encoder turns bytes into token ids. It is safe for concurrent use; all
// mutable state is per call.
type Encoder struct {
	vocab          *Vocabulary
	splitter       pretokenize.Splitter
	queueKind      QueueKind
	queueThreshold int
	cache          *lru.Cache[string, []uint32]
	logger         *slog.Logger

	scratchPool sync.Pool
}

func NewEncoder(v *Vocabulary, opts ...Option) (*Encoder, error) {
	if v == nil {
		return nil, errors.New("nil vocabulary")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.queueThreshold < 0 {
		return nil, fmt.Errorf("queue threshold must not be negative, got %d", o.queueThreshold)
	}
	if o.queue != QueueHeap && o.queue != QueueBucket {
		return nil, fmt.Errorf("unknown queue kind %v", o.queue)
	}

	splitter := o.splitter
	if splitter == nil {
		var err error
		splitter, err = pretokenize.Lookup(o.pattern)
		if err != nil {
			return nil, fmt.Errorf("pretokenizer: %w", err)
		}
	}

	e := &Encoder{
		vocab:          v,
		splitter:       splitter,
		queueKind:      o.queue,
		queueThreshold: o.queueThreshold,
		logger:         o.logger,
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.scratchPool.New = func() any { return &scratch{} }

	if o.cacheSize > 0 {
		cache, err := lru.New[string, []uint32](o.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("chunk cache: %w", err)
		}
		e.cache = cache
	}

	return e, nil
}

func (e *Encoder) Vocabulary() *Vocabulary {
	return e.vocab
}

// Encode returns the ids for text, in order. The result is never nil.
func (e *Encoder) Encode(text []byte) []uint32 {
	return e.AppendEncode(make([]uint32, 0, len(text)/3+1), text)
}

func (e *Encoder) EncodeString(s string) []uint32 {
	return e.Encode([]byte(s))
}

// AppendEncode appends the ids for text to dst.
func (e *Encoder) AppendEncode(dst []uint32, text []byte) []uint32 {
	sc := e.acquireScratch()
	defer e.releaseScratch(sc)

	start := len(dst)
	dst = e.appendEncode(dst, text, sc)
	if e.logger.Enabled(context.Background(), logutil.LevelTrace) {
		logutil.Trace(e.logger, "encoded", "bytes", len(text), "tokens", len(dst)-start)
	}
	return dst
}

func (e *Encoder) appendEncode(dst []uint32, text []byte, sc *scratch) []uint32 {
	for chunk := range e.splitter.Chunks(text) {
		dst = e.mergeChunk(dst, chunk, sc)
	}
	return dst
}

// Count returns len(Encode(text)) without keeping the ids.
func (e *Encoder) Count(text []byte) int {
	sc := e.acquireScratch()
	defer e.releaseScratch(sc)

	sc.out = e.appendEncode(sc.out[:0], text, sc)
	return len(sc.out)
}

// EncodeReader encodes r block by block, calling fn with the ids of every
// chunk completed so far, in order. ids is only valid during the call. The
// concatenation of all ids equals Encode of the whole input, whatever the
// length of a single chunk. An error from fn stops reading and is returned
// as is.
func (e *Encoder) EncodeReader(r io.Reader, fn func(ids []uint32) error) error {
	st := e.NewStream()
	buf := make([]byte, readBlockSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if ids := st.Feed(buf[:n]); len(ids) > 0 {
				if ferr := fn(ids); ferr != nil {
					return ferr
				}
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
	}

	if ids := st.Flush(); len(ids) > 0 {
		return fn(ids)
	}
	return nil
}
