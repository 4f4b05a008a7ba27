// eiapipe — EIA PADD 3 distillate fuel oil ETL pipeline.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/petrostat/eiapipe/internal/bronze"
	"github.com/petrostat/eiapipe/internal/catalog"
	"github.com/petrostat/eiapipe/internal/config"
	"github.com/petrostat/eiapipe/internal/eia"
	"github.com/petrostat/eiapipe/internal/gold"
	"github.com/petrostat/eiapipe/internal/pipeline"
	"github.com/petrostat/eiapipe/internal/silver"
	"github.com/petrostat/eiapipe/pkg/models"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger, initialized in PersistentPreRunE.
var (
	cfg *config.Config
	log *logrus.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "eiapipe",
	Short: "eiapipe — EIA distillate fuel oil ETL pipeline",
	Long: `eiapipe ingests monthly PADD 3 distillate fuel oil statistics from the
EIA API and refines them through three file-checkpointed layers:

  bronze  raw API responses          (fetch)
  silver  clean monthly long format  (normalize)
  gold    annual wide format with a supply/disposition balance check (aggregate)

Each layer reads its predecessor's artifact, so layers can be re-run
independently.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; real environments set variables directly.
		_ = godotenv.Load()

		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		log = newLogger(cfg.Logging)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(normalizeCmd)
	rootCmd.AddCommand(aggregateCmd)
	rootCmd.AddCommand(runCmd)
}

// newLogger builds the process logger from config.
func newLogger(lc config.LoggingConfig) *logrus.Logger {
	l := logrus.New()
	if lc.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(lc.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)
	return l
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("eiapipe %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Stage constructors ---

func newIngestion() (*bronze.Ingestion, error) {
	client, err := eia.NewClient(eia.Options{
		BaseURL:      cfg.API.BaseURL,
		APIKey:       cfg.API.Key,
		PageLength:   cfg.API.PageLength,
		Timeout:      cfg.API.Timeout(),
		RequestDelay: cfg.API.RequestDelay(),
	}, log)
	if err != nil {
		return nil, err
	}
	return bronze.New(client, catalog.Default(), cfg.API.StartPeriod, cfg.Data.BronzePath(), log), nil
}

func newTransformer() *silver.Transformer {
	return silver.New(cfg.Data.BronzePath(), cfg.Data.SilverPath(), catalog.Default(), log)
}

func newAggregation() *gold.Aggregation {
	return gold.New(cfg.Data.SilverPath(), cfg.Data.GoldPath(), catalog.Default(), log)
}

// --- Fetch Command ---

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Run the bronze layer: fetch raw series data from the EIA API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.API.Key == "" {
			return pipeline.ErrCredentialMissing
		}
		ingestion, err := newIngestion()
		if err != nil {
			return err
		}
		return ingestion.Run(cmd.Context())
	},
}

// --- Normalize Command ---

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Run the silver layer: clean and normalize bronze data",
	RunE: func(cmd *cobra.Command, args []string) error {
		return newTransformer().Run(cmd.Context())
	},
}

// --- Aggregate Command ---

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Run the gold layer: annual averages and balance check",
	RunE: func(cmd *cobra.Command, args []string) error {
		agg := newAggregation()
		if err := agg.Run(cmd.Context()); err != nil {
			return err
		}
		printSummary(agg.Table())
		return nil
	},
}

// --- Run Command (full pipeline) ---

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: fetch, normalize, aggregate",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Fail fast before any network I/O.
		if cfg.API.Key == "" {
			return pipeline.ErrCredentialMissing
		}

		ingestion, err := newIngestion()
		if err != nil {
			return err
		}
		if err := ingestion.Preflight(cmd.Context()); err != nil {
			return err
		}
		agg := newAggregation()

		runner := pipeline.NewRunner(log, ingestion, newTransformer(), agg)
		if err := runner.Run(cmd.Context()); err != nil {
			return err
		}

		printSummary(agg.Table())
		return nil
	},
}

// printSummary reports the gold table: coverage and a sample of rows.
func printSummary(table *models.AnnualTable) {
	if table == nil || len(table.Rows) == 0 {
		return
	}
	first := table.Rows[0].Year
	last := table.Rows[len(table.Rows)-1].Year

	fmt.Printf("\nAnnual data generated for %d years (%d-%d), %d components\n",
		len(table.Rows), first, last, len(table.Metrics))

	fmt.Printf("\n%-6s %18s %18s %18s\n", "year", "Total_Supply", "Total_Disposition", "Balance_Pct_Diff")
	fmt.Println(strings.Repeat("-", 64))
	for i, row := range table.Rows {
		if i == 5 {
			fmt.Printf("... %d more rows\n", len(table.Rows)-i)
			break
		}
		fmt.Printf("%-6d %18s %18s %18s\n",
			row.Year, cell(row.TotalSupply), cell(row.TotalDisposition), cell(row.BalancePctDiff))
	}
}

func cell(v models.NullFloat64) string {
	if !v.Valid {
		return "-"
	}
	return v.String()
}
