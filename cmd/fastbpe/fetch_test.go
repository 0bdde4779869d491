package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastbpe/internal/tokenizer"
)

func toyRankFile(t *testing.T) []byte {
	t.Helper()
	entries := make([]tokenizer.Entry, 0, 257)
	for b := 0; b < 256; b++ {
		entries = append(entries, tokenizer.Entry{Bytes: []byte{byte(b)}, Rank: uint32(b)})
	}
	entries = append(entries, tokenizer.Entry{Bytes: []byte("ab"), Rank: 256})

	v, err := tokenizer.NewVocabulary(entries)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = v.WriteTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestFetchCmd_Download(t *testing.T) {
	content := toyRankFile(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cl100k_base.tiktoken" {
			http.NotFound(w, r)
			return
		}
		w.Write(content)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "nested", "vocab.tiktoken")
	out, err := runCLI(t, "", "fetch", "--vocab-path", dest, "--vocab-url", srv.URL+"/cl100k_base.tiktoken")
	require.NoError(t, err)
	assert.Contains(t, out, "(257 tokens)")

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, content, got)
	assert.NoFileExists(t, dest+".part")
}

func TestFetchCmd_Failures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/garbage":
			w.Write([]byte("this is not a rank file\n"))
		case "/empty":
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cases := []struct {
		path string
		want string
	}{
		{"/missing", "unexpected status 404"},
		{"/empty", "got 0 bytes"},
		{"/garbage", "downloaded vocabulary is invalid"},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			dest := filepath.Join(t.TempDir(), "vocab.tiktoken")
			_, err := runCLI(t, "", "fetch", "--vocab-path", dest, "--vocab-url", srv.URL+tc.path)
			assert.ErrorContains(t, err, tc.want)
			assert.NoFileExists(t, dest)
			assert.NoFileExists(t, dest+".part")
		})
	}
}

func TestFetchCmd_Offline(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "cl100k_base.tiktoken")

	out, err := runCLI(t, "", "fetch", "--offline", "--vocab-path", dest)
	require.NoError(t, err)
	assert.Contains(t, out, "(100256 tokens)")

	want, err := os.ReadFile(cl100kPath)
	require.NoError(t, err)
	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
