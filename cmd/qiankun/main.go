// qiankun turns birth data into a deterministic life-trend series and a
// generative-model fortune reading, served over HTTP or from the CLI.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"qiankun/internal/config"
	"qiankun/internal/logging"
	"qiankun/internal/oracle"
	"qiankun/internal/server"
	"qiankun/internal/store"
	"qiankun/internal/trend"
	"qiankun/internal/types"
)

var (
	configPath string
	verbose    bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "qiankun",
	Short: "qiankun - life K-line synthesis and fortune readings",
	Long: `qiankun converts birth data into a deterministic 81-year life trend
(the "life K-line") and consults a generative model for a stylized,
always-well-formed fortune reading.

The trend is fully reproducible: the same birth data always yields the
same series. The reading degrades gracefully: malformed model output is
repaired, never surfaced as an error.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.Init(verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE:  runServe,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run one synthesis + reading from the command line",
	Long: `Synthesizes the trend for the given birth data and, when an API key
is configured, consults the candidate models for the narrative reading.
The combined result is printed as JSON.`,
	RunE: runAnalyze,
}

var codesCmd = &cobra.Command{
	Use:   "codes",
	Short: "Manage activation codes in the entitlement store",
}

var codesGenerateCmd = &cobra.Command{
	Use:   "generate [amount]",
	Short: "Mint activation codes directly into the entitlement store",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCodesGenerate,
}

var codesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all codes with their used status",
	RunE:  runCodesList,
}

var (
	flagName   string
	flagGender string
	flagDate   string
	flagTime   string
	flagPlace  string
	flagLang   string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "qiankun.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	analyzeCmd.Flags().StringVar(&flagName, "name", "", "name (optional)")
	analyzeCmd.Flags().StringVar(&flagGender, "gender", string(types.GenderMale), "MALE or FEMALE")
	analyzeCmd.Flags().StringVar(&flagDate, "date", "", "birth date, YYYY-MM-DD (required)")
	analyzeCmd.Flags().StringVar(&flagTime, "time", "00:00", "birth time, HH:mm")
	analyzeCmd.Flags().StringVar(&flagPlace, "place", "", "birth place (optional)")
	analyzeCmd.Flags().StringVar(&flagLang, "lang", string(types.LangSimplified), "output language tag (zh-CN or zh-TW)")
	_ = analyzeCmd.MarkFlagRequired("date")

	codesCmd.AddCommand(codesGenerateCmd, codesListCmd)
	rootCmd.AddCommand(serveCmd, analyzeCmd, codesCmd)
}

// buildAnalyzer wires the configured transport behind the analyzer.
func buildAnalyzer(ctx context.Context, cfg config.OracleConfig) (*oracle.Analyzer, error) {
	oracleCfg := oracle.Config{
		APIKey:          cfg.APIKey,
		BaseURL:         cfg.BaseURL,
		Models:          cfg.Models,
		Temperature:     cfg.Temperature,
		MaxOutputTokens: cfg.MaxOutputTokens,
		Timeout:         cfg.TimeoutDuration(),
	}

	var attempter oracle.Attempter
	switch cfg.Provider {
	case "genai":
		client, err := oracle.NewGenAIClient(ctx, oracleCfg)
		if err != nil {
			return nil, err
		}
		attempter = client
	case "rest", "":
		attempter = oracle.NewGeminiClient(oracleCfg)
	default:
		return nil, fmt.Errorf("unknown oracle provider %q", cfg.Provider)
	}

	return oracle.NewAnalyzer(attempter, oracleCfg.Models), nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Oracle.APIKey == "" {
		return fmt.Errorf("no API key configured (set GEMINI_API_KEY or oracle.api_key)")
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	analyzer, err := buildAnalyzer(cmd.Context(), cfg.Oracle)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.New(cfg.Server, analyzer, st).Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	in := types.Identity{
		Name:       flagName,
		Gender:     types.Gender(flagGender),
		BirthDate:  flagDate,
		BirthTime:  flagTime,
		BirthPlace: flagPlace,
	}

	series, err := trend.Synthesize(in)
	if err != nil {
		return err
	}

	out := map[string]any{"series": series}

	if cfg.Oracle.APIKey != "" {
		analyzer, err := buildAnalyzer(cmd.Context(), cfg.Oracle)
		if err != nil {
			return err
		}
		reading, err := analyzer.Analyze(cmd.Context(), in, series, types.Language(flagLang))
		if err != nil {
			return err
		}
		out["reading"] = reading
	} else {
		logger.Warn("no API key configured, printing series only")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func runCodesGenerate(cmd *cobra.Command, args []string) error {
	amount := 1
	if len(args) == 1 {
		if _, err := fmt.Sscanf(args[0], "%d", &amount); err != nil || amount < 1 || amount > 100 {
			return fmt.Errorf("amount must be 1-100")
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	codes, err := st.GenerateCodes(amount)
	if err != nil {
		return err
	}
	for _, c := range codes {
		fmt.Println(c.Code)
	}
	return nil
}

func runCodesList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	codes, err := st.ListCodes()
	if err != nil {
		return err
	}
	for _, c := range codes {
		status := "unused"
		if c.Used {
			status = "used"
		}
		fmt.Printf("%s\t%s\n", c.Code, status)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
