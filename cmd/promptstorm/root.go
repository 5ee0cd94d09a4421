package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teilomillet/promptstorm/config"
	"github.com/teilomillet/promptstorm/llm"
	"github.com/teilomillet/promptstorm/optimizer"
	"github.com/teilomillet/promptstorm/providers"
	"github.com/teilomillet/promptstorm/utils"
)

// app holds the state shared by all subcommands.
type app struct {
	registry *providers.ProviderRegistry

	configPath  string
	provider    string
	model       string
	temperature float64
	maxTokens   int
	language    string
	logLevel    string
	logFormat   string

	cfg    *config.Config
	logger utils.Logger
}

func newRootCmd(registry *providers.ProviderRegistry) *cobra.Command {
	a := &app{registry: registry}

	root := &cobra.Command{
		Use:   "promptstorm",
		Short: "Optimize prompts and convert them into validated YAML documents",
		Long: `promptstorm improves free-text prompts for LLM use and turns them into
structured YAML documents, one at a time or in batch from a CSV file.

Configuration is read from ~/.promptstorm/config.yaml (or --config), then
PROMPTSTORM_* environment variables, then flags. API keys come from
<PROVIDER>_API_KEY variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Path to a YAML config file (default ~/.promptstorm/config.yaml)")
	flags.StringVar(&a.provider, "provider", "", "LLM provider ("+strings.Join(registry.Names(), ", ")+")")
	flags.StringVar(&a.model, "model", "", "Model to use")
	flags.Float64Var(&a.temperature, "temperature", config.DefaultTemperature, "Sampling temperature (0-1)")
	flags.IntVar(&a.maxTokens, "max-tokens", config.DefaultMaxTokens, "Maximum tokens in the response")
	flags.StringVar(&a.language, "language", config.DefaultLanguage, "Language of generated documents")
	flags.StringVar(&a.logLevel, "log-level", "warn", "Log level: off, error, warn, info, debug")
	flags.StringVar(&a.logFormat, "log-format", "text", "Log format: text, json")

	root.AddCommand(
		newOptimizeCmd(a),
		newFormatCmd(a),
		newBatchCmd(a),
		newSchemaCmd(),
	)
	return root
}

// setup loads the configuration and applies the flags that were set.
func (a *app) setup(cmd *cobra.Command) error {
	path := a.configPath
	if path == "" {
		path = config.ExistingDefaultConfigPath()
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	var opts []config.ConfigOption
	if flags.Changed("provider") {
		opts = append(opts, config.SetProvider(a.provider))
	}
	if flags.Changed("model") {
		opts = append(opts, config.SetModel(a.model))
	}
	if flags.Changed("temperature") {
		opts = append(opts, config.SetTemperature(a.temperature))
	}
	if flags.Changed("max-tokens") {
		opts = append(opts, config.SetMaxTokens(a.maxTokens))
	}
	if flags.Changed("language") {
		opts = append(opts, config.SetLanguage(a.language))
	}
	if flags.Changed("log-level") {
		level, err := utils.ParseLogLevel(a.logLevel)
		if err != nil {
			return err
		}
		opts = append(opts, config.SetLogLevel(level))
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = strings.ToLower(a.logFormat)
	}
	config.ApplyOptions(cfg, opts...)

	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	a.logger, err = newLogger(cmd.ErrOrStderr(), cfg)
	return err
}

func newLogger(w io.Writer, cfg *config.Config) (utils.Logger, error) {
	if cfg.LogFormat == "json" {
		zl, err := utils.NewZapLogger(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
		return zl, nil
	}
	return utils.NewLoggerTo(w, cfg.LogLevel), nil
}

func (a *app) client() (*llm.Client, error) {
	return llm.NewClientFromConfig(a.cfg, a.logger, a.registry)
}

func (a *app) newOptimizer(client llm.Completer) (*optimizer.Optimizer, error) {
	return optimizer.NewOptimizer(client, a.cfg.Optimization(), a.logger)
}

func (a *app) newFormatter(client llm.Completer) (*optimizer.Formatter, error) {
	return optimizer.NewFormatter(client, a.cfg.Optimization(), a.logger,
		optimizer.WithRequiredFields(a.cfg.RequiredFields...))
}

// readPrompt returns the prompt from args or from file.
func readPrompt(args []string, file string) (string, error) {
	if file != "" {
		if len(args) > 0 {
			return "", fmt.Errorf("give either a prompt argument or --input-file, not both")
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read input file: %w", err)
		}
		args = []string{string(data)}
	}
	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt == "" {
		return "", fmt.Errorf("no prompt given")
	}
	return prompt, nil
}

// writeOutput prints text, or writes it to file when file is set.
func writeOutput(cmd *cobra.Command, text, file, what string) error {
	if file == "" {
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	}
	if err := os.WriteFile(file, []byte(text+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	printSuccess(cmd.OutOrStdout(), fmt.Sprintf("%s saved to %s", what, file))
	return nil
}
