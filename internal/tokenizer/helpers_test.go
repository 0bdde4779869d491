package tokenizer

import (
	"bufio"
	"bytes"
	"math/rand"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fastbpe/internal/oracle"
)

const byteRankBase = 1000

// byteEntries returns the 256 single-byte entries, id == byte value.
func byteEntries() []Entry {
	entries := make([]Entry, 0, 256)
	for b := 0; b < 256; b++ {
		entries = append(entries, Entry{Bytes: []byte{byte(b)}, Rank: byteRankBase + uint32(b)})
	}
	return entries
}

type merge struct {
	s    string
	rank uint32
}

// newToyVocabulary builds byte entries followed by merges; the i-th merge
// gets id 256+i.
func newToyVocabulary(t testing.TB, merges ...merge) *Vocabulary {
	t.Helper()
	entries := byteEntries()
	for _, m := range merges {
		entries = append(entries, Entry{Bytes: []byte(m.s), Rank: m.rank})
	}
	v, err := NewVocabulary(entries)
	require.NoError(t, err)
	return v
}

func newTestEncoder(t testing.TB, v *Vocabulary, opts ...Option) *Encoder {
	t.Helper()
	e, err := NewEncoder(v, opts...)
	require.NoError(t, err)
	return e
}

// randomVocabulary grows a valid vocabulary by concatenating random pairs
// of existing entries over a small alphabet, so merges chain deeply.
func randomVocabulary(t testing.TB, rng *rand.Rand, alphabet string, n int) *Vocabulary {
	t.Helper()
	entries := byteEntries()
	seen := make(map[string]bool)
	pool := make([]string, 0, len(alphabet)+n)
	for i := 0; i < len(alphabet); i++ {
		pool = append(pool, alphabet[i:i+1])
		seen[alphabet[i:i+1]] = true
	}

	ranks := rng.Perm(n)
	for added := 0; added < n; {
		s := pool[rng.Intn(len(pool))] + pool[rng.Intn(len(pool))]
		if seen[s] || len(s) > 12 {
			continue
		}
		seen[s] = true
		pool = append(pool, s)
		entries = append(entries, Entry{Bytes: []byte(s), Rank: uint32(ranks[added])})
		added++
	}

	v, err := NewVocabulary(entries)
	require.NoError(t, err)
	return v
}

func randomString(rng *rand.Rand, alphabet []rune, n int) string {
	out := make([]rune, n)
	for i := range out {
		out[i] = alphabet[rng.Intn(len(alphabet))]
	}
	return string(out)
}

var cl100k struct {
	once sync.Once
	v    *Vocabulary
	err  error
}

// loadCL100k reads the cl100k_base ranks embedded in tiktoken-go-loader
// through ReadVocabulary. Ranks are contiguous from 0, so ids equal ranks.
func loadCL100k(t testing.TB) *Vocabulary {
	t.Helper()
	cl100k.once.Do(func() {
		ranks, err := oracle.EmbeddedRanks()
		if err != nil {
			cl100k.err = err
			return
		}
		var buf bytes.Buffer
		if err := oracle.WriteRanks(&buf, ranks); err != nil {
			cl100k.err = err
			return
		}
		cl100k.v, cl100k.err = ReadVocabulary(&buf)
	})
	require.NoError(t, cl100k.err)
	return cl100k.v
}

func loadReference(t testing.TB) *oracle.Reference {
	t.Helper()
	ref, err := oracle.CL100k("")
	require.NoError(t, err)
	return ref
}

func corpusLines(t testing.TB) []string {
	t.Helper()
	f, err := os.Open("testdata/corpus.txt")
	require.NoError(t, err)
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.NoError(t, sc.Err())
	return lines
}

func corpus(t testing.TB) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/corpus.txt")
	require.NoError(t, err)
	return data
}

func decode(t testing.TB, v *Vocabulary, ids []uint32) []byte {
	t.Helper()
	var out []byte
	for _, id := range ids {
		b, ok := v.Token(id)
		require.True(t, ok, "token id out of range: %d", id)
		out = append(out, b...)
	}
	return out
}
