package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/fastbpe/internal/config"
	"github.com/fastbpe/internal/logutil"
	"github.com/fastbpe/internal/tokenizer"
)

var (
	cfgFile   string
	activeCfg *config.Config
)

func NewRootCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:           "fastbpe",
		Short:         "Byte-pair encoding compatible with cl100k_base",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(config.LoadOptions{
				Cmd:        cmd,
				ConfigFile: cfgFile,
				Defaults:   defaults,
			})
			if err != nil {
				return err
			}
			activeCfg = &loaded
			return setupLogger(cmd.ErrOrStderr(), loaded.Log)
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Optional config file (yaml|toml|json)")
	config.RegisterFlags(cmd.PersistentFlags(), defaults)

	cmd.AddCommand(newEncodeCmd())
	cmd.AddCommand(newVerifyCmd())
	cmd.AddCommand(newBenchCmd())
	cmd.AddCommand(newInspectCmd())
	cmd.AddCommand(newFetchCmd())

	return cmd
}

// setupLogger configures the process-wide slog default logger.
func setupLogger(w io.Writer, c config.LogConfig) error {
	lvl, err := logutil.ParseLevel(c.Level)
	if err != nil {
		return err
	}
	slog.SetDefault(logutil.NewLogger(w, lvl, c.Format))
	return nil
}

func requireConfig() (config.Config, error) {
	if activeCfg == nil {
		return config.Config{}, fmt.Errorf("configuration not loaded")
	}
	return *activeCfg, nil
}

func encoderOptions(c config.EncoderConfig) ([]tokenizer.Option, error) {
	queue, err := tokenizer.ParseQueueKind(c.Queue)
	if err != nil {
		return nil, err
	}

	return []tokenizer.Option{
		tokenizer.WithPattern(c.Pattern),
		tokenizer.WithQueue(queue),
		tokenizer.WithQueueThreshold(c.QueueThreshold),
		tokenizer.WithCache(c.CacheSize),
		tokenizer.WithLogger(slog.Default()),
	}, nil
}

// openEncoder loads the configured vocabulary and builds an encoder;
// extra options are applied after the configured ones.
func openEncoder(cfg config.Config, extra ...tokenizer.Option) (*tokenizer.Encoder, error) {
	v, err := tokenizer.LoadVocabulary(cfg.Vocab.Path)
	if err != nil {
		return nil, err
	}

	opts, err := encoderOptions(cfg.Encoder)
	if err != nil {
		return nil, err
	}
	return tokenizer.NewEncoder(v, append(opts, extra...)...)
}
