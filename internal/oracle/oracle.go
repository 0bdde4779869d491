// Package oracle wraps the tiktoken-go port of the reference tokenizer so
// fastbpe output can be checked against it.
package oracle

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

const (
	Encoding  = "cl100k_base"
	CL100kURL = "https://openaipublic.blob.core.windows.net/encodings/cl100k_base.tiktoken"
)

// FileLoader is a tiktoken BpeLoader that serves ranks from one local
// .tiktoken file whatever URL is asked for.
type FileLoader struct {
	Path string
}

func (l *FileLoader) LoadTiktokenBpe(string) (map[string]int, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ranks := make(map[string]int)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		parts := strings.Fields(text)
		if len(parts) != 2 {
			return nil, fmt.Errorf("%s:%d: expected 2 fields", l.Path, line)
		}
		token, err := base64.StdEncoding.DecodeString(parts[0])
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", l.Path, line, err)
		}
		rank, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", l.Path, line, err)
		}
		ranks[string(token)] = rank
	}
	return ranks, sc.Err()
}

// EmbeddedRanks returns the cl100k_base ranks compiled into
// tiktoken-go-loader.
func EmbeddedRanks() (map[string]int, error) {
	return tiktoken_loader.NewOfflineLoader().LoadTiktokenBpe(CL100kURL)
}

// WriteRanks writes ranks in .tiktoken format, ordered by rank.
func WriteRanks(w io.Writer, ranks map[string]int) error {
	tokens := make([]string, 0, len(ranks))
	for tok := range ranks {
		tokens = append(tokens, tok)
	}
	slices.SortFunc(tokens, func(a, b string) int { return ranks[a] - ranks[b] })

	bw := bufio.NewWriter(w)
	for _, tok := range tokens {
		fmt.Fprintf(bw, "%s %d\n", base64.StdEncoding.EncodeToString([]byte(tok)), ranks[tok])
	}
	return bw.Flush()
}

// Reference is the reference cl100k_base encoder.
type Reference struct {
	enc *tiktoken.Tiktoken
}

var (
	refOnce sync.Once
	ref     *Reference
	refErr  error
)

// CL100k returns the process-wide reference encoder. tiktoken-go caches
// encodings by name, so the first call decides the rank source: the file at
// vocabPath, or the embedded ranks when vocabPath is empty.
func CL100k(vocabPath string) (*Reference, error) {
	refOnce.Do(func() {
		if vocabPath == "" {
			tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
		} else {
			tiktoken.SetBpeLoader(&FileLoader{Path: vocabPath})
		}

		enc, err := tiktoken.GetEncoding(Encoding)
		if err != nil {
			refErr = fmt.Errorf("failed to load tiktoken encoding %q: %w", Encoding, err)
			return
		}
		ref = &Reference{enc: enc}
	})
	return ref, refErr
}

// Encode encodes text as ordinary text; special-token strings get no
// special treatment.
func (r *Reference) Encode(text string) []uint32 {
	ids := r.enc.Encode(text, nil, nil)

	out := make([]uint32, len(ids))
	for i, id := range ids {
		out[i] = uint32(id)
	}
	return out
}

func (r *Reference) Decode(ids []uint32) string {
	in := make([]int, len(ids))
	for i, id := range ids {
		in[i] = int(id)
	}
	return r.enc.Decode(in)
}
