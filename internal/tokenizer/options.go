package tokenizer

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/fastbpe/internal/pretokenize"
)

// DefaultQueueThreshold is the chunk length from which the queued merge is
// used instead of the linear scan.
const DefaultQueueThreshold = 32

// QueueKind selects the priority queue behind the queued merge.
type QueueKind int

const (
	QueueHeap QueueKind = iota
	QueueBucket
)

func (k QueueKind) String() string {
	switch k {
	case QueueHeap:
		return "heap"
	case QueueBucket:
		return "bucket"
	default:
		return fmt.Sprintf("QueueKind(%d)", int(k))
	}
}

func ParseQueueKind(s string) (QueueKind, error) {
	switch strings.ToLower(s) {
	case "", "heap":
		return QueueHeap, nil
	case "bucket":
		return QueueBucket, nil
	default:
		return 0, fmt.Errorf("unknown queue %q, want heap or bucket", s)
	}
}

type options struct {
	splitter       pretokenize.Splitter
	pattern        string
	queue          QueueKind
	queueThreshold int
	cacheSize      int
	logger         *slog.Logger
}

// Option configures an Encoder.
type Option func(*options)

// WithSplitter sets the pretokenizer. It takes precedence over WithPattern.
func WithSplitter(s pretokenize.Splitter) Option {
	return func(o *options) { o.splitter = s }
}

// WithPattern selects a pretokenizer by encoding name (for example
// "cl100k_base") or as "regex:<pattern>".
func WithPattern(name string) Option {
	return func(o *options) { o.pattern = name }
}

func WithQueue(k QueueKind) Option {
	return func(o *options) { o.queue = k }
}

// WithQueueThreshold sets the minimum chunk length handled by the queued
// merge. Zero sends every chunk through the queue.
func WithQueueThreshold(n int) Option {
	return func(o *options) { o.queueThreshold = n }
}

// WithCache enables a shared LRU of chunk encodings holding up to size
// chunks. Output is unaffected.
func WithCache(size int) Option {
	return func(o *options) { o.cacheSize = size }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func defaultOptions() options {
	return options{
		pattern:        pretokenize.CL100kBase,
		queue:          QueueHeap,
		queueThreshold: DefaultQueueThreshold,
	}
}
