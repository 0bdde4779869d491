package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/fastbpe/internal/oracle"
	"github.com/fastbpe/internal/tokenizer"
)

type mismatch struct {
	Line int
	Text string
	Got  []uint32
	Want []uint32
}

type verifyReport struct {
	Lines      int
	Skipped    int
	Mismatches []mismatch
}

func newVerifyCmd() *cobra.Command {
	var (
		embedded bool
		show     int
	)

	cmd := &cobra.Command{
		Use:   "verify [corpus]",
		Short: "Compare encodings line by line against the reference tokenizer",
		Long: "Encode every line of the corpus (or stdin) with fastbpe and with tiktoken-go\n" +
			"and report lines whose ids differ or do not decode back to the input.\n" +
			"Lines that are not valid UTF-8 are skipped.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			enc, err := openEncoder(cfg)
			if err != nil {
				return err
			}

			refPath := cfg.Vocab.Path
			if embedded {
				refPath = ""
			}
			ref, err := oracle.CL100k(refPath)
			if err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			lines, err := readLines(in)
			if err != nil {
				return err
			}

			start := time.Now()
			report, err := verifyLines(cmd, enc, ref, lines, cfg.Verify.Workers)
			if err != nil {
				return err
			}
			slog.Debug("verify finished", "lines", report.Lines, "skipped", report.Skipped,
				"mismatches", len(report.Mismatches), "elapsed", time.Since(start))

			out := cmd.OutOrStdout()
			for i, m := range report.Mismatches {
				if i == show {
					fmt.Fprintf(out, "... %d more\n", len(report.Mismatches)-show)
					break
				}
				fmt.Fprintf(out, "line %d: %q\n  got  %v\n  want %v\n", m.Line, m.Text, m.Got, m.Want)
			}
			fmt.Fprintf(out, "%d lines checked, %d skipped, %d mismatches\n",
				report.Lines-report.Skipped, report.Skipped, len(report.Mismatches))

			if len(report.Mismatches) > 0 {
				return fmt.Errorf("verify: %d of %d lines differ from the reference", len(report.Mismatches), report.Lines)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&embedded, "embedded", false, "Use the cl100k_base ranks bundled with tiktoken-go-loader for the reference")
	cmd.Flags().IntVar(&show, "show", 10, "Maximum mismatches to print")

	return cmd
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}

func verifyLines(cmd *cobra.Command, enc *tokenizer.Encoder, ref *oracle.Reference, lines []string, workers int) (verifyReport, error) {
	var (
		mu     sync.Mutex
		report = verifyReport{Lines: len(lines)}
	)

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(workers)

	for i, line := range lines {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			if !utf8.ValidString(line) {
				slog.Warn("skipping line that is not valid UTF-8", "line", i+1)
				mu.Lock()
				report.Skipped++
				mu.Unlock()
				return nil
			}

			got := enc.EncodeString(line)
			want := ref.Encode(line)
			if slices.Equal(got, want) && ref.Decode(got) == line {
				return nil
			}

			mu.Lock()
			report.Mismatches = append(report.Mismatches, mismatch{Line: i + 1, Text: line, Got: got, Want: want})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	slices.SortFunc(report.Mismatches, func(a, b mismatch) int { return a.Line - b.Line })
	return report, nil
}
