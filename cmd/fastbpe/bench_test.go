package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBenchCmd(t *testing.T) {
	corpus := writeFile(t, "corpus.txt", verifyCorpus)

	out, err := runCLI(t, "", "bench", "--vocab-path", cl100kPath, "--runs", "1", "--repeat", "4", corpus)
	require.NoError(t, err)

	for _, name := range []string{"TOKENIZER", "fastbpe queue=heap", "fastbpe queue=bucket", "fastbpe scan", "tiktoken-go"} {
		assert.Contains(t, out, name)
	}
	assert.NotContains(t, out, "false")
}

func TestBenchCmd_WithoutReference(t *testing.T) {
	out, err := runCLI(t, "some text to encode", "bench", "--vocab-path", cl100kPath, "--runs", "2", "--reference=false")
	require.NoError(t, err)
	assert.NotContains(t, out, "tiktoken-go")
}

func TestBenchCmd_Errors(t *testing.T) {
	_, err := runCLI(t, "x", "bench", "--vocab-path", cl100kPath, "--runs", "0")
	assert.ErrorContains(t, err, "--runs")

	_, err = runCLI(t, "x", "bench", "--vocab-path", cl100kPath, "--repeat", "0")
	assert.ErrorContains(t, err, "--repeat")
}
