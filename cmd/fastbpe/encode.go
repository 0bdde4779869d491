package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/fastbpe/internal/tokenizer"
)

func newEncodeCmd() *cobra.Command {
	var (
		lines  bool
		format string
	)

	cmd := &cobra.Command{
		Use:   "encode [file]",
		Short: "Encode a file or stdin into token ids",
		Long: "Encode a file (or stdin when omitted or \"-\") into token ids.\n" +
			"With --lines every input line is encoded on its own, without its newline,\n" +
			"and written as one output line.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "json" {
				return fmt.Errorf("--format must be 'text' or 'json'")
			}

			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			enc, err := openEncoder(cfg)
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

			out := bufio.NewWriter(cmd.OutOrStdout())
			if lines {
				err = encodeLines(enc, in, out, format)
			} else {
				err = encodeAll(enc, in, out, format)
			}
			if err != nil {
				return err
			}
			return out.Flush()
		},
	}

	cmd.Flags().BoolVar(&lines, "lines", false, "Encode each line separately")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")

	return cmd
}

func encodeAll(enc *tokenizer.Encoder, in io.Reader, out *bufio.Writer, format string) error {
	if format == "json" {
		data, err := io.ReadAll(in)
		if err != nil {
			return err
		}
		return writeJSON(out, enc.Encode(data))
	}

	first := true
	err := enc.EncodeReader(in, func(ids []uint32) error {
		writeText(out, ids, first)
		first = first && len(ids) == 0
		return nil
	})
	if err != nil {
		return err
	}
	return out.WriteByte('\n')
}

func encodeLines(enc *tokenizer.Encoder, in io.Reader, out *bufio.Writer, format string) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var ids []uint32
	for sc.Scan() {
		ids = enc.AppendEncode(ids[:0], sc.Bytes())
		if format == "json" {
			if err := writeJSON(out, ids); err != nil {
				return err
			}
			continue
		}
		writeText(out, ids, true)
		if err := out.WriteByte('\n'); err != nil {
			return err
		}
	}
	return sc.Err()
}

// writeText writes ids space separated; first reports whether nothing was
// written on the current line yet.
func writeText(out *bufio.Writer, ids []uint32, first bool) {
	var buf [10]byte
	for _, id := range ids {
		if !first {
			out.WriteByte(' ')
		}
		first = false
		out.Write(strconv.AppendUint(buf[:0], uint64(id), 10))
	}
}

func writeJSON(out *bufio.Writer, ids []uint32) error {
	if ids == nil {
		ids = []uint32{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	out.Write(data)
	return out.WriteByte('\n')
}
