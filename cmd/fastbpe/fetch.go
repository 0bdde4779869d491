package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fastbpe/internal/oracle"
	"github.com/fastbpe/internal/tokenizer"
)

func newFetchCmd() *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the cl100k_base rank file to the configured vocabulary path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			dest := cfg.Vocab.Path

			if dir := filepath.Dir(dest); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("mkdir %s: %w", dir, err)
				}
			}

			// write next to dest and rename once the file loads cleanly
			tmp := dest + ".part"
			if offline {
				err = writeEmbedded(tmp)
			} else {
				slog.Info("downloading vocabulary", "url", cfg.Vocab.URL, "dest", dest)
				err = download(cmd.Context(), cfg.Vocab.URL, tmp)
			}
			if err != nil {
				os.Remove(tmp)
				return err
			}

			v, err := tokenizer.LoadVocabulary(tmp)
			if err != nil {
				os.Remove(tmp)
				return fmt.Errorf("downloaded vocabulary is invalid: %w", err)
			}
			if err := os.Rename(tmp, dest); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d tokens)\n", dest, v.Len())
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Write the ranks bundled with tiktoken-go-loader instead of downloading")

	return cmd
}

func download(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("GET %s: %w", url, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %s", url, resp.Status)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}
	defer out.Close()

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		return fmt.Errorf("write %s: %w", destPath, err)
	}
	if n == 0 {
		return fmt.Errorf("download %s: got 0 bytes", url)
	}

	return out.Close()
}

func writeEmbedded(destPath string) error {
	ranks, err := oracle.EmbeddedRanks()
	if err != nil {
		return err
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}
	defer out.Close()

	if err := oracle.WriteRanks(out, ranks); err != nil {
		return fmt.Errorf("write %s: %w", destPath, err)
	}
	return out.Close()
}
