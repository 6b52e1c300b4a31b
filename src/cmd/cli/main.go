package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gpttrans/src/clipboard"
	"gpttrans/src/config"
	"gpttrans/src/llm"
	"gpttrans/src/logutil"
	"gpttrans/src/singleinstance"
)

const (
	maxFileSizeMB = 10
	maxFileSize   = maxFileSizeMB * 1024 * 1024
)

type cliOptions struct {
	configPath string
	provider   string
	model      string
	baseURL    string
	jsonOutput bool
	verbose    bool
}

type translateOptions struct {
	text      string
	filePath  string
	clipboard bool
	lang      string
	copyBack  bool
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return runWithArgs(ctx, normalizeLegacyArgs(os.Args), os.Stdin, os.Stdout, os.Stderr)
}

func runWithArgs(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		args = []string{"gpttrans"}
	}

	opts := &cliOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(ctx)
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "gpttrans",
		Short:         "Translate text or images with a chat completion provider",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to config.json (default: next to the executable or $"+config.PathEnvVar+")")
	flags.StringVar(&opts.provider, "provider", "", "Provider: openai-compatible, ollama-native or stub-free-provider")
	flags.StringVar(&opts.model, "model", "", "Model name")
	flags.StringVar(&opts.baseURL, "base-url", "", "Provider base URL")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")

	cmd.AddCommand(
		newTranslateCmd(opts),
		newModelsCmd(opts),
		newResidentCmd("show", "Bring the running GPTTrans window to the front", singleinstance.CmdShow, opts),
		newResidentCmd("trigger", "Make the running GPTTrans translate the clipboard", singleinstance.CmdTrigger, opts),
	)
	return cmd
}

func newTranslateCmd(opts *cliOptions) *cobra.Command {
	topts := &translateOptions{}
	cmd := &cobra.Command{
		Use:   "translate [text]",
		Short: "Translate text, a file or the clipboard and stream the result to stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && topts.text == "" {
				topts.text = args[0]
			}
			return runTranslate(cmd, *opts, *topts)
		},
	}
	cmd.Flags().StringVar(&topts.text, "text", "", "Text to translate")
	cmd.Flags().StringVar(&topts.filePath, "file", "", "Text or image file to translate (use '-' for stdin)")
	cmd.Flags().BoolVar(&topts.clipboard, "clipboard", false, "Translate the current clipboard content")
	cmd.Flags().StringVar(&topts.lang, "lang", "", "Target language")
	cmd.Flags().BoolVar(&topts.copyBack, "copy", false, "Write the translation back to the clipboard")
	cmd.MarkFlagsMutuallyExclusive("text", "file", "clipboard")
	return cmd
}

func newModelsCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models the configured provider serves",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModels(cmd, *opts)
		},
	}
}

func newResidentCmd(use, short string, command singleinstance.Command, opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResident(cmd, *opts, command)
		},
	}
}

func newLogger(verbose bool) *zap.SugaredLogger {
	if !verbose {
		return zap.NewNop().Sugar()
	}
	return logutil.New(logutil.Options{Level: "debug"})
}

// loadConfig applies command-line overrides on top of the usual load order.
func loadConfig(opts cliOptions, lang string, logger *zap.SugaredLogger) (config.Config, config.Runtime, error) {
	rt, err := config.LoadRuntime()
	if err != nil {
		logger.Warnw("invalid runtime settings, using defaults", "error", err)
	}
	cfg, err := config.LoadWithOptions(config.LoadOptions{Path: opts.configPath, Logger: logger})
	if err != nil {
		return config.Config{}, rt, fmt.Errorf("failed to load configuration: %w", err)
	}

	if opts.provider != "" {
		p, err := config.ParseProvider(opts.provider)
		if err != nil {
			return config.Config{}, rt, err
		}
		cfg.Provider = p
	}
	if v := strings.TrimSpace(opts.model); v != "" {
		cfg.Model = v
	}
	if v := strings.TrimSpace(opts.baseURL); v != "" {
		cfg.BaseURL = v
	}
	if v := strings.TrimSpace(lang); v != "" {
		cfg.TargetLang = v
	}
	return *cfg, rt, nil
}

type input struct {
	source string
	text   string
	image  []byte
	mime   string
}

func readInput(topts translateOptions, stdin io.Reader, logger *zap.SugaredLogger) (input, *clipboard.Gateway, error) {
	switch {
	case topts.clipboard:
		gw, err := systemClipboard(logger)
		if err != nil {
			return input{}, nil, err
		}
		p := gw.Capture()
		switch p.Kind {
		case clipboard.Text:
			return input{source: "clipboard", text: p.Text}, gw, nil
		case clipboard.Image:
			return input{source: "clipboard", image: p.Image, mime: p.MIME}, gw, nil
		}
		return input{}, nil, errors.New("clipboard is empty")
	case topts.filePath != "":
		data, err := readFile(topts.filePath, stdin)
		if err != nil {
			return input{}, nil, err
		}
		in := input{source: topts.filePath}
		if mime := http.DetectContentType(data); strings.HasPrefix(mime, "image/") {
			in.image, in.mime = data, mime
		} else {
			in.text = string(data)
		}
		return in, nil, nil
	case strings.TrimSpace(topts.text) != "":
		return input{source: "argument", text: topts.text}, nil, nil
	}
	return input{}, nil, errors.New("nothing to translate: pass text, --text, --file or --clipboard")
}

func readFile(path string, stdin io.Reader) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(io.LimitReader(stdin, maxFileSize+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", path, err)
		}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("input file is empty")
	}
	if len(data) > maxFileSize {
		return nil, fmt.Errorf("input file exceeds maximum size of %d MB", maxFileSizeMB)
	}
	return data, nil
}

var systemClipboard = func(logger *zap.SugaredLogger) (*clipboard.Gateway, error) {
	src, err := clipboard.NewSystemSource()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize clipboard: %w", err)
	}
	return clipboard.New(src, logger), nil
}

func runTranslate(cmd *cobra.Command, opts cliOptions, topts translateOptions) error {
	logger := newLogger(opts.verbose)
	defer func() { _ = logger.Sync() }()

	cfg, rt, err := loadConfig(opts, topts.lang, logger)
	if err != nil {
		return err
	}
	if cfg.MissingAPIKey() {
		return fmt.Errorf("%w: set OPENAI_API_KEY, api_key in %s, or use --provider stub", llm.ErrMissingAPIKey, config.FileName)
	}

	in, gw, err := readInput(topts, cmd.InOrStdin(), logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), rt.RequestTimeout())
	defer cancel()

	out := cmd.OutOrStdout()
	req := llm.NewRequest(cfg, in.text, in.image, in.mime)
	start := time.Now()
	text, err := llm.New(logger, rt.RequestTimeout()).Stream(ctx, req, func(fragment string) {
		if !opts.jsonOutput {
			fmt.Fprint(out, fragment)
		}
	})
	elapsed := time.Since(start)
	if err != nil {
		if !opts.jsonOutput && text != "" {
			fmt.Fprintln(out)
		}
		return fmt.Errorf("translation failed: %w", err)
	}

	if topts.copyBack {
		if gw == nil {
			if gw, err = systemClipboard(logger); err != nil {
				return err
			}
		}
		if !gw.WriteText(text) {
			fmt.Fprintln(cmd.ErrOrStderr(), "warning: failed to write clipboard")
		}
	}

	if !opts.jsonOutput {
		fmt.Fprintln(out)
		return nil
	}
	return writeJSON(out, TranslationResult{
		Text:       text,
		Source:     in.source,
		Provider:   cfg.Provider.String(),
		Model:      cfg.Model,
		TargetLang: cfg.TargetLang,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Duration:   elapsed.Seconds(),
		CharCount:  len([]rune(text)),
	})
}

type TranslationResult struct {
	Text       string  `json:"text"`
	Source     string  `json:"source"`
	Provider   string  `json:"provider"`
	Model      string  `json:"model"`
	TargetLang string  `json:"target_lang"`
	Timestamp  string  `json:"timestamp"`
	Duration   float64 `json:"duration_seconds"`
	CharCount  int     `json:"character_count"`
}

func runModels(cmd *cobra.Command, opts cliOptions) error {
	logger := newLogger(opts.verbose)
	defer func() { _ = logger.Sync() }()

	cfg, rt, err := loadConfig(opts, "", logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), rt.RequestTimeout())
	defer cancel()
	models, err := llm.New(logger, rt.RequestTimeout()).ListModels(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	out := cmd.OutOrStdout()
	if opts.jsonOutput {
		type model struct {
			Name    string `json:"name"`
			OwnedBy string `json:"owned_by,omitempty"`
		}
		list := make([]model, 0, len(models))
		for _, m := range models {
			list = append(list, model{Name: m.Name, OwnedBy: m.OwnedBy})
		}
		return writeJSON(out, list)
	}
	for _, m := range models {
		fmt.Fprintln(out, m.Name)
	}
	return nil
}

// residentPort is a var so tests can point the CLI at their own server.
var residentPort = func() int {
	rt, _ := config.LoadRuntime()
	return rt.InstancePort
}

func runResident(cmd *cobra.Command, opts cliOptions, command singleinstance.Command) error {
	logger := newLogger(opts.verbose)
	defer func() { _ = logger.Sync() }()

	port := residentPort()
	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()
	logger.Debugw("sending command to resident instance", "command", string(command), "port", port)
	if err := singleinstance.NewClient(port).Send(ctx, command); err != nil {
		if errors.Is(err, singleinstance.ErrNoResident) {
			return fmt.Errorf("GPTTrans is not running: %w", err)
		}
		return fmt.Errorf("%s failed: %w", strings.ToLower(string(command)), err)
	}
	if opts.jsonOutput {
		return writeJSON(cmd.OutOrStdout(), map[string]string{"command": string(command), "status": "ok"})
	}
	fmt.Fprintln(cmd.OutOrStdout(), "ok")
	return nil
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}

// normalizeLegacyArgs maps single-dash long flags (-text, -json=true) to
// the double-dash form cobra expects.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	legacy := []string{"text", "file", "clipboard", "lang", "copy", "provider", "model", "base-url", "config", "json", "verbose"}
	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range legacy {
			if arg == "-"+name || strings.HasPrefix(arg, "-"+name+"=") {
				normalized[i] = "-" + arg
				break
			}
		}
	}

	return normalized
}
