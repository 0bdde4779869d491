package fastbpe_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastbpe/fastbpe"
)

func writeToyVocabulary(t *testing.T) string {
	t.Helper()
	entries := make([]fastbpe.Entry, 0, 260)
	for b := 0; b < 256; b++ {
		entries = append(entries, fastbpe.Entry{Bytes: []byte{byte(b)}, Rank: 100 + uint32(b)})
	}
	entries = append(entries,
		fastbpe.Entry{Bytes: []byte("er"), Rank: 3},
		fastbpe.Entry{Bytes: []byte("lo"), Rank: 5},
		fastbpe.Entry{Bytes: []byte("low"), Rank: 9},
	)

	v, err := fastbpe.NewVocabulary(entries)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "toy.tiktoken")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	_, err = v.WriteTo(f)
	require.NoError(t, err)
	return path
}

func TestOpen(t *testing.T) {
	path := writeToyVocabulary(t)

	enc, err := fastbpe.Open(path, fastbpe.WithQueue(fastbpe.QueueBucket), fastbpe.WithQueueThreshold(0))
	require.NoError(t, err)

	assert.Equal(t, []uint32{258, 256}, enc.EncodeString("lower"))
	assert.Equal(t, 259, enc.Vocabulary().Len())
}

func TestOpen_Errors(t *testing.T) {
	_, err := fastbpe.Open(filepath.Join(t.TempDir(), "nope.tiktoken"))
	assert.ErrorIs(t, err, fastbpe.ErrIO)

	_, err = fastbpe.Open(writeToyVocabulary(t), fastbpe.WithPattern("unknown"))
	assert.ErrorContains(t, err, "new encoder")

	bad := filepath.Join(t.TempDir(), "bad.tiktoken")
	require.NoError(t, os.WriteFile(bad, []byte("not-base64!! 1\n"), 0o644))
	_, err = fastbpe.Open(bad)
	var fe *fastbpe.FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 1, fe.Line)
}

func TestStreamThroughPublicAPI(t *testing.T) {
	v, err := fastbpe.LoadVocabulary(writeToyVocabulary(t))
	require.NoError(t, err)

	splitter, err := fastbpe.Pretokenizer(fastbpe.CL100kBase)
	require.NoError(t, err)

	enc, err := fastbpe.NewEncoder(v, fastbpe.WithSplitter(splitter), fastbpe.WithCache(8))
	require.NoError(t, err)

	st := enc.NewStream()
	var got []uint32
	for _, piece := range []string{"lo", "wer lo", "wer"} {
		got = append(got, st.Feed([]byte(piece))...)
	}
	got = append(got, st.Flush()...)
	assert.Equal(t, enc.EncodeString("lower lower"), got)
}
