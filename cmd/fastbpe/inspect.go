package main

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fastbpe/internal/tokenizer"
)

func newInspectCmd() *cobra.Command {
	var dump string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Load and validate the vocabulary and print its statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			start := time.Now()
			v, err := tokenizer.LoadVocabulary(cfg.Vocab.Path)
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			lengths := make(map[int]int)
			for _, e := range v.Entries() {
				lengths[len(e.Bytes)]++
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"PROPERTY", "VALUE"})
			table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			table.SetHeaderLine(false)
			table.SetBorder(false)
			table.SetNoWhiteSpace(true)
			table.SetTablePadding("    ")
			table.AppendBulk([][]string{
				{"path", cfg.Vocab.Path},
				{"tokens", fmt.Sprint(v.Len())},
				{"single-byte tokens", fmt.Sprint(lengths[1])},
				{"merge pairs", fmt.Sprint(v.Pairs())},
				{"max token bytes", fmt.Sprint(v.MaxTokenLen())},
				{"max rank", fmt.Sprint(v.MaxRank())},
				{"load time", elapsed.Round(time.Millisecond).String()},
			})
			table.Render()

			if dump == "" {
				return nil
			}
			return dumpVocabulary(v, dump)
		},
	}

	cmd.Flags().StringVar(&dump, "dump", "", "Write the vocabulary back out in rank file format to this path (\"-\" for stdout)")

	return cmd
}

func dumpVocabulary(v *tokenizer.Vocabulary, path string) error {
	if path == "-" {
		w := bufio.NewWriter(os.Stdout)
		if _, err := v.WriteTo(w); err != nil {
			return err
		}
		return w.Flush()
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := v.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
