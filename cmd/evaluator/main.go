package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"panos-policy-evaluator/internal/config"
	"panos-policy-evaluator/internal/engine"
	"panos-policy-evaluator/internal/export"
	"panos-policy-evaluator/internal/model"
	"panos-policy-evaluator/internal/parser"
	"panos-policy-evaluator/internal/report"
	"panos-policy-evaluator/internal/store"
)

var (
	cfgFile      string
	rulesFile    string
	rulesDB      string
	ruleProvider string
	outDir       string
	formats      []string
	workers      int
	timeout      time.Duration
	maxRows      int
	logLevel     string
	logFile      string
	historyLimit int
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "policy-evaluator",
		Short: "A read-only firewall security-policy rule evaluator",
		Long: `policy-evaluator reads an ordered security-policy rulebase (exported CSV
	or MariaDB policy export) and reports shadowed rules, safe merge candidates
	and usage tiers. It never writes to a firewall.`,
		SilenceUsage: true,
		RunE:         run,
	}

	rootCmd.Flags().StringVar(&ruleProvider, "provider", "csv", "Rule provider type: 'csv' or 'mariadb'")
	rootCmd.Flags().StringVar(&rulesFile, "rules", "", "Exported policy CSV file (for 'csv' provider)")
	rootCmd.Flags().StringVar(&rulesDB, "db", "", "Database connection string (for 'mariadb' provider)")
	rootCmd.Flags().StringVar(&outDir, "out", "", "Output directory for exports (default from config)")
	rootCmd.Flags().StringSliceVar(&formats, "format", nil, "Export formats: csv, xlsx (default from config)")
	rootCmd.Flags().IntVarP(&workers, "workers", "w", 0, "Number of concurrent analysis workers (default: NumCPU)")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 0, "Abort analysis after this duration (0 = no limit)")
	rootCmd.Flags().IntVar(&maxRows, "max-rows", 25, "Maximum finding rows to print (0 = all)")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file path (default: ~/.config/policy-evaluator/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Log file path (default: stderr)")

	rootCmd.AddCommand(newHistoryCmd())

	return rootCmd
}

func newHistoryCmd() *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List summary statistics of previous analysis runs",
		RunE:  runHistory,
	}
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum runs to list")
	return historyCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logger := setupLogger(logLevel, logFile)
	slog.SetDefault(logger)

	slog.Info("Starting policy evaluator", "provider", ruleProvider)
	startTime := time.Now()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return err
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if outDir != "" {
		cfg.Output.Directory = outDir
	}
	if len(formats) > 0 {
		cfg.Output.Formats = formats
	}

	raw, source, err := loadRawRules(ruleProvider, rulesFile, rulesDB)
	if err != nil {
		slog.Error("Failed to load rules", "error", err)
		return err
	}
	slog.Info("Raw rules loaded", "count", len(raw), "source", source)

	rules, warnings, err := engine.Normalize(raw)
	if err != nil {
		slog.Error("Normalization failed", "error", err)
		return err
	}
	for _, w := range warnings {
		slog.Warn("Normalization warning", "rule", w.Rule, "field", w.Field, "message", w.Message)
	}

	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	rep, err := engine.Analyze(ctx, rules, cfg.EngineConfig(time.Now()))
	if err != nil {
		slog.Error("Analysis failed", "error", err)
		return err
	}
	slog.Info("Analysis complete",
		"rules", rep.Summary.TotalRules,
		"shadowed", rep.Summary.ShadowedRules,
		"merge_groups", rep.Summary.MergeGroups,
		"unused", rep.Summary.UnusedRules,
		"duration", time.Since(startTime))

	fmt.Println(report.Summary(rep))
	fmt.Println(report.Findings(rep, maxRows))

	if err := exportReport(cfg, rules, rep); err != nil {
		return err
	}

	if db, err := store.Open(cfg.HistoryDB); err != nil {
		slog.Warn("Could not open history database", "path", cfg.HistoryDB, "error", err)
	} else {
		defer db.Close()
		if _, err := db.SaveRun(startTime, source, rep.Summary); err != nil {
			slog.Warn("Could not record run history", "error", err)
		}
	}

	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	logger := setupLogger(logLevel, logFile)
	slog.SetDefault(logger)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	db, err := store.Open(cfg.HistoryDB)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.ListRuns(historyLimit)
	if err != nil {
		return err
	}

	tbl := report.NewTable("Run", "Date", "Source", "Rules", "Shadowed", "Merge Groups", "Unused")
	for _, r := range runs {
		tbl.AddRow(
			fmt.Sprintf("%d", r.ID),
			r.RanAt.Local().Format("2006-01-02 15:04"),
			r.Source,
			fmt.Sprintf("%d", r.TotalRules),
			fmt.Sprintf("%d", r.Shadowed),
			fmt.Sprintf("%d", r.MergeGroups),
			fmt.Sprintf("%d", r.Unused),
		)
	}
	fmt.Println(tbl.Render())
	return nil
}

func loadRawRules(provider, rulesPath, dbConnStr string) ([]model.RawRule, string, error) {
	switch provider {
	case "csv":
		if rulesPath == "" {
			return nil, "", fmt.Errorf("rules file path must be provided for csv provider")
		}
		file, err := os.Open(rulesPath)
		if err != nil {
			return nil, "", err
		}
		defer file.Close()
		raw, err := parser.ReadPolicyCSV(file)
		if err != nil {
			return nil, "", err
		}
		return raw, filepath.Base(rulesPath), nil
	case "mariadb":
		if dbConnStr == "" {
			return nil, "", fmt.Errorf("database connection string must be provided for mariadb provider")
		}
		p, err := parser.NewMariaDBProvider(dbConnStr)
		if err != nil {
			return nil, "", err
		}
		defer p.Close()
		raw, err := p.FetchRules()
		if err != nil {
			return nil, "", err
		}
		return raw, "mariadb", nil
	default:
		return nil, "", fmt.Errorf("unknown rule provider: %s", provider)
	}
}

func exportReport(cfg *config.Config, rules []model.RuleRecord, rep *engine.Report) error {
	if err := os.MkdirAll(cfg.Output.Directory, 0o755); err != nil {
		return err
	}
	base := filepath.Join(cfg.Output.Directory,
		"policy_eval_"+time.Now().Format("20060102_150405"))

	for _, format := range cfg.Output.Formats {
		switch strings.ToLower(format) {
		case "csv":
			f, err := os.Create(base + ".csv")
			if err != nil {
				return err
			}
			if err := export.WriteCSV(f, rules, rep); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			slog.Info("Exported CSV report", "path", base+".csv")
		case "xlsx":
			if err := export.WriteXLSX(base+".xlsx", rules, rep); err != nil {
				return err
			}
			slog.Info("Exported XLSX report", "path", base+".xlsx")
		default:
			slog.Warn("Unknown export format skipped", "format", format)
		}
	}
	return nil
}

func setupLogger(level, logFilePath string) *slog.Logger {
	var logWriter io.Writer = os.Stderr
	if logFilePath != "" {
		f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err == nil {
			logWriter = f
		}
		// The logger isn't set up yet, so a failure here just falls back
		// to stderr.
	}

	var lvl slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		lvl = slog.LevelDebug
	case "INFO":
		lvl = slog.LevelInfo
	case "WARN":
		lvl = slog.LevelWarn
	case "ERROR":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(logWriter, &slog.HandlerOptions{Level: lvl}))
}
