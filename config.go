package main

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config carries every tunable. Flags and NOMDUELO_* environment variables
// are bound one-to-one; the API key is usually supplied via the environment
// (or a .env file, loaded before the command runs).
type Config struct {
	Bind           string
	Port           int
	Provider       string
	APIKey         string
	Category       string
	MaxQuestions   int
	CorpusPath     string
	RateLimitRPS   int
	RateLimitBurst int
}

// validate rejects settings the game cannot run with. An empty API key is
// allowed at startup; starting a game without one fails with ErrNoAPIKey.
func (cfg *Config) validate() error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", cfg.Port)
	}
	if cfg.Provider != ProviderZhipu && cfg.Provider != ProviderGemini {
		return fmt.Errorf("unknown ai provider (must be %q or %q): %q", ProviderZhipu, ProviderGemini, cfg.Provider)
	}
	if cfg.MaxQuestions < MinMaxQuestions || cfg.MaxQuestions > MaxMaxQuestions {
		return fmt.Errorf("max-questions must be between %d and %d: %d", MinMaxQuestions, MaxMaxQuestions, cfg.MaxQuestions)
	}
	if cfg.Category != CategoryAny && !lo.Contains(knownCategories, cfg.Category) {
		return fmt.Errorf("unknown category: %q", cfg.Category)
	}
	if cfg.RateLimitRPS < 1 || cfg.RateLimitBurst < 1 {
		return fmt.Errorf("rate limit values must be positive: rps=%d burst=%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	return nil
}

// newCmd builds the root command with flag/env binding.
func newCmd(cfg *Config, run func(*Config) error) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("NOMDUELO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "nomduelo",
		Short:         "A two-player, AI-judged famous-person guessing duel.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return run(cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: NOMDUELO_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", 8080, "port to listen on (env: NOMDUELO_PORT)")
	fs.StringVar(&cfg.Provider, "provider", ProviderZhipu, "ai provider, zhipu or gemini (env: NOMDUELO_PROVIDER)")
	fs.StringVar(&cfg.APIKey, "api-key", "", "provider api key (env: NOMDUELO_API_KEY)")
	fs.StringVar(&cfg.Category, "category", CategoryAny, "secret name category (env: NOMDUELO_CATEGORY)")
	fs.IntVar(&cfg.MaxQuestions, "max-questions", DefaultMaxQuestions, "question budget per player, 5-30 (env: NOMDUELO_MAX_QUESTIONS)")
	fs.StringVar(&cfg.CorpusPath, "corpus", "data/names.json", "path to the local name corpus (env: NOMDUELO_CORPUS)")
	fs.IntVar(&cfg.RateLimitRPS, "rate-limit-rps", 5, "per-client requests per second (env: NOMDUELO_RATE_LIMIT_RPS)")
	fs.IntVar(&cfg.RateLimitBurst, "rate-limit-burst", 10, "per-client burst allowance (env: NOMDUELO_RATE_LIMIT_BURST)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	return cmd
}
