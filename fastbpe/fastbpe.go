// Package fastbpe encodes raw bytes into byte-level BPE token ids that match
// the cl100k_base reference tokenizer.
//
//	enc, err := fastbpe.Open("cl100k_base.tiktoken")
//	if err != nil {
//		return err
//	}
//	ids := enc.EncodeString("hello world") // [15339 1917]
//
// Vocabularies and encoders are immutable and safe for concurrent use. A
// Stream encodes input that arrives in pieces and belongs to one goroutine.
package fastbpe

import (
	"fmt"
	"log/slog"

	"github.com/fastbpe/internal/pretokenize"
	"github.com/fastbpe/internal/tokenizer"
)

type (
	Vocabulary  = tokenizer.Vocabulary
	Entry       = tokenizer.Entry
	Encoder     = tokenizer.Encoder
	Stream      = tokenizer.Stream
	Option      = tokenizer.Option
	QueueKind   = tokenizer.QueueKind
	FormatError = tokenizer.FormatError
	Splitter    = pretokenize.Splitter
)

const (
	QueueHeap   = tokenizer.QueueHeap
	QueueBucket = tokenizer.QueueBucket
)

// Encoding names accepted by WithPattern and Pretokenizer.
const (
	CL100kBase = pretokenize.CL100kBase
	R50kBase   = pretokenize.R50kBase
	P50kBase   = pretokenize.P50kBase
	O200kBase  = pretokenize.O200kBase
)

var (
	ErrIO                 = tokenizer.ErrIO
	ErrConfiguration      = tokenizer.ErrConfiguration
	ErrEncodingImpossible = tokenizer.ErrEncodingImpossible
)

// LoadVocabulary reads a `<base64 token> <rank>` file.
func LoadVocabulary(path string) (*Vocabulary, error) {
	return tokenizer.LoadVocabulary(path)
}

func NewVocabulary(entries []Entry) (*Vocabulary, error) {
	return tokenizer.NewVocabulary(entries)
}

func NewEncoder(v *Vocabulary, opts ...Option) (*Encoder, error) {
	return tokenizer.NewEncoder(v, opts...)
}

// Open loads the vocabulary at path and returns an encoder over it.
func Open(path string, opts ...Option) (*Encoder, error) {
	v, err := tokenizer.LoadVocabulary(path)
	if err != nil {
		return nil, err
	}

	enc, err := tokenizer.NewEncoder(v, opts...)
	if err != nil {
		return nil, fmt.Errorf("new encoder: %w", err)
	}
	return enc, nil
}

// Pretokenizer returns the splitter for an encoding name or a
// "regex:<pattern>" string.
func Pretokenizer(name string) (Splitter, error) {
	return pretokenize.Lookup(name)
}

func WithSplitter(s Splitter) Option             { return tokenizer.WithSplitter(s) }
func WithPattern(name string) Option             { return tokenizer.WithPattern(name) }
func WithQueue(k QueueKind) Option               { return tokenizer.WithQueue(k) }
func WithQueueThreshold(n int) Option            { return tokenizer.WithQueueThreshold(n) }
func WithCache(size int) Option                  { return tokenizer.WithCache(size) }
func WithLogger(l *slog.Logger) Option           { return tokenizer.WithLogger(l) }
func ParseQueueKind(s string) (QueueKind, error) { return tokenizer.ParseQueueKind(s) }
