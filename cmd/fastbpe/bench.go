package main

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fastbpe/internal/oracle"
	"github.com/fastbpe/internal/tokenizer"
)

type benchResult struct {
	Name     string
	Tokens   int
	Best     time.Duration
	Bytes    int
	Matching bool
}

func (r benchResult) throughput() float64 {
	if r.Best <= 0 {
		return math.Inf(1)
	}
	return float64(r.Bytes) / r.Best.Seconds()
}

func newBenchCmd() *cobra.Command {
	var (
		runs      int
		repeat    int
		reference bool
	)

	cmd := &cobra.Command{
		Use:   "bench [corpus]",
		Short: "Measure encoding throughput against the reference tokenizer",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if runs < 1 {
				return fmt.Errorf("--runs must be at least 1")
			}
			if repeat < 1 {
				return fmt.Errorf("--repeat must be at least 1")
			}

			cfg, err := requireConfig()
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
			data, err := io.ReadAll(in)
			if err != nil {
				return err
			}
			data = bytes.Repeat(data, repeat)

			variants := []struct {
				name string
				opts []tokenizer.Option
			}{
				{"fastbpe", nil},
				{"fastbpe queue=heap", []tokenizer.Option{tokenizer.WithQueueThreshold(0), tokenizer.WithQueue(tokenizer.QueueHeap)}},
				{"fastbpe queue=bucket", []tokenizer.Option{tokenizer.WithQueueThreshold(0), tokenizer.WithQueue(tokenizer.QueueBucket)}},
				{"fastbpe scan", []tokenizer.Option{tokenizer.WithQueueThreshold(math.MaxInt)}},
			}

			var (
				results  []benchResult
				baseline []uint32
			)
			for _, variant := range variants {
				enc, err := openEncoder(cfg, variant.opts...)
				if err != nil {
					return err
				}
				var ids []uint32
				best := timeBest(runs, func() { ids = enc.Encode(data) })
				if baseline == nil {
					baseline = ids
				}
				results = append(results, benchResult{
					Name: variant.name, Tokens: len(ids), Best: best, Bytes: len(data),
					Matching: slices.Equal(ids, baseline),
				})
			}

			if reference {
				ref, err := oracle.CL100k(cfg.Vocab.Path)
				if err != nil {
					return err
				}
				text := string(data)
				var ids []uint32
				best := timeBest(runs, func() { ids = ref.Encode(text) })
				results = append(results, benchResult{
					Name: "tiktoken-go", Tokens: len(ids), Best: best, Bytes: len(data),
					Matching: slices.Equal(ids, baseline),
				})
			}

			renderBench(cmd.OutOrStdout(), results)
			return nil
		},
	}

	cmd.Flags().IntVar(&runs, "runs", 3, "Timed runs per tokenizer; the fastest is reported")
	cmd.Flags().IntVar(&repeat, "repeat", 1, "Repeat the corpus this many times")
	cmd.Flags().BoolVar(&reference, "reference", true, "Also time tiktoken-go")

	return cmd
}

func timeBest(runs int, fn func()) time.Duration {
	best := time.Duration(math.MaxInt64)
	for range runs {
		start := time.Now()
		fn()
		best = min(best, time.Since(start))
	}
	return best
}

func renderBench(w io.Writer, results []benchResult) {
	data := make([][]string, 0, len(results))
	for _, r := range results {
		tp := r.throughput()
		data = append(data, []string{
			r.Name,
			fmt.Sprint(r.Tokens),
			r.Best.Round(time.Microsecond).String(),
			fmt.Sprintf("%.1f", tp/1e6),
			fmt.Sprintf("%.3f", tp/1e9),
			fmt.Sprint(r.Matching),
		})
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"TOKENIZER", "TOKENS", "BEST", "MB/S", "GB/S", "MATCH"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()
}
