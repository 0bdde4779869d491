package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastbpe/internal/tokenizer"
)

func TestInspectCmd(t *testing.T) {
	dump := filepath.Join(t.TempDir(), "dump.tiktoken")

	out, err := runCLI(t, "", "inspect", "--vocab-path", cl100kPath, "--dump", dump)
	require.NoError(t, err)
	assert.Contains(t, out, "100256")
	assert.Contains(t, out, "merge pairs")

	want, err := os.ReadFile(cl100kPath)
	require.NoError(t, err)
	got, err := os.ReadFile(dump)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestInspectCmd_InvalidVocabulary(t *testing.T) {
	path := writeFile(t, "bad.tiktoken", "YQ== 0\n\nYg== 1\n")

	_, err := runCLI(t, "", "inspect", "--vocab-path", path)
	var fe *tokenizer.FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 2, fe.Line)
}
