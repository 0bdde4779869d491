package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/fastbpe/internal/oracle"
	"github.com/fastbpe/internal/pretokenize"
	"github.com/fastbpe/internal/tokenizer"
)

type Config struct {
	Vocab   VocabConfig   `mapstructure:"vocab"`
	Encoder EncoderConfig `mapstructure:"encoder"`
	Log     LogConfig     `mapstructure:"log"`
	Verify  VerifyConfig  `mapstructure:"verify"`
}

type VocabConfig struct {
	Path string `mapstructure:"path"`
	URL  string `mapstructure:"url"`
}

type EncoderConfig struct {
	Pattern        string `mapstructure:"pattern"`
	Queue          string `mapstructure:"queue"`
	QueueThreshold int    `mapstructure:"queue_threshold"`
	CacheSize      int    `mapstructure:"cache_size"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type VerifyConfig struct {
	Workers int `mapstructure:"workers"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Vocab: VocabConfig{
			Path: pretokenize.CL100kBase + ".tiktoken",
			URL:  oracle.CL100kURL,
		},
		Encoder: EncoderConfig{
			Pattern:        pretokenize.CL100kBase,
			Queue:          tokenizer.QueueHeap.String(),
			QueueThreshold: tokenizer.DefaultQueueThreshold,
			CacheSize:      0,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Verify: VerifyConfig{
			Workers: 4,
		},
	}
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("vocab-path", defaults.Vocab.Path, "Path to the .tiktoken rank file")
	fs.String("vocab-url", defaults.Vocab.URL, "Download location used by fetch")
	fs.String("encoder-pattern", defaults.Encoder.Pattern, "Pretokenizer: cl100k_base, r50k_base, p50k_base, o200k_base or regex:<pattern>")
	fs.String("encoder-queue", defaults.Encoder.Queue, "Merge queue for long chunks: heap or bucket")
	fs.Int("encoder-queue-threshold", defaults.Encoder.QueueThreshold, "Chunk length from which the queued merge is used")
	fs.Int("encoder-cache-size", defaults.Encoder.CacheSize, "Chunk cache entries, 0 disables")
	fs.String("log-level", defaults.Log.Level, "Log level: trace, debug, info, warn, error")
	fs.String("log-format", defaults.Log.Format, "Log format: text or json")
	fs.Int("verify-workers", defaults.Verify.Workers, "Concurrent workers for verify")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	v.SetEnvPrefix("FASTBPE")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("fastbpe")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values the encoder would otherwise reject late.
func (c Config) Validate() error {
	if c.Encoder.QueueThreshold < 0 {
		return fmt.Errorf("encoder.queue_threshold must not be negative, got %d", c.Encoder.QueueThreshold)
	}
	if c.Encoder.CacheSize < 0 {
		return fmt.Errorf("encoder.cache_size must not be negative, got %d", c.Encoder.CacheSize)
	}
	if c.Verify.Workers < 1 {
		return fmt.Errorf("verify.workers must be at least 1, got %d", c.Verify.Workers)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("vocab.path", c.Vocab.Path)
	v.SetDefault("vocab.url", c.Vocab.URL)
	v.SetDefault("encoder.pattern", c.Encoder.Pattern)
	v.SetDefault("encoder.queue", c.Encoder.Queue)
	v.SetDefault("encoder.queue_threshold", c.Encoder.QueueThreshold)
	v.SetDefault("encoder.cache_size", c.Encoder.CacheSize)
	v.SetDefault("log.level", c.Log.Level)
	v.SetDefault("log.format", c.Log.Format)
	v.SetDefault("verify.workers", c.Verify.Workers)
}

// flagKeys maps config keys to their command line flags. Binding by key
// keeps config file and environment lookups on the nested key.
var flagKeys = map[string]string{
	"vocab.path":              "vocab-path",
	"vocab.url":               "vocab-url",
	"encoder.pattern":         "encoder-pattern",
	"encoder.queue":           "encoder-queue",
	"encoder.queue_threshold": "encoder-queue-threshold",
	"encoder.cache_size":      "encoder-cache-size",
	"log.level":               "log-level",
	"log.format":              "log-format",
	"verify.workers":          "verify-workers",
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for key, name := range flagKeys {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
