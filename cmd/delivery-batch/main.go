package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/claud0698/boulder-delivery-receipts/internal/category"
	"github.com/claud0698/boulder-delivery-receipts/internal/common"
	"github.com/claud0698/boulder-delivery-receipts/internal/export"
	"github.com/claud0698/boulder-delivery-receipts/internal/imgprep"
	"github.com/claud0698/boulder-delivery-receipts/internal/ledger"
	ledgermem "github.com/claud0698/boulder-delivery-receipts/internal/ledger/memory"
	ledgersheets "github.com/claud0698/boulder-delivery-receipts/internal/ledger/sheets"
	ledgersqlite "github.com/claud0698/boulder-delivery-receipts/internal/ledger/sqlite"
	"github.com/claud0698/boulder-delivery-receipts/internal/llm/gemini"
	"github.com/claud0698/boulder-delivery-receipts/internal/pipeline"
	"github.com/claud0698/boulder-delivery-receipts/internal/storage"
	"github.com/claud0698/boulder-delivery-receipts/internal/telemetry"
	telemetrypg "github.com/claud0698/boulder-delivery-receipts/internal/telemetry/postgres"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir     = flag.String("dir", "", "directory of receipt photos to process (required)")
		out     = flag.String("out", "", "output XLSX path (defaults next to --dir)")
		backend = flag.String("backend", "", "ledger backend: sheets, sqlite or memory (overrides LEDGER_BACKEND)")
		date    = flag.String("date", "", "export only this date YYYY-MM-DD (defaults to the full latest window)")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), "pengiriman.xlsx")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// .env is optional, real deployments use the environment directly
	_ = godotenv.Load()

	cfg := common.LoadConfig()
	if *backend != "" {
		cfg.Ledger.Backend = *backend
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Token usage goes to Postgres when DB_URL is set, otherwise nowhere.
	var usage telemetry.Recorder = telemetry.Nop{}
	if cfg.Telemetry.DSN != "" {
		pg, err := telemetrypg.Open(ctx, cfg.Telemetry, logger)
		if err != nil {
			logger.Warn("telemetry db unavailable, token usage will not be recorded", "error", err)
		} else {
			defer pg.Close()
			usage = pg
		}
	}

	extractor, err := gemini.NewClient(ctx, gemini.Config{
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
	}, usage, logger)
	if err != nil {
		logger.Error("failed to create gemini client", "error", err)
		os.Exit(1)
	}
	defer extractor.Close()

	categorizer, err := category.New(extractor, cfg.Pipeline.CategoryCacheSize, gemini.IsTransient, logger)
	if err != nil {
		logger.Error("failed to create categorizer", "error", err)
		os.Exit(1)
	}

	store, cleanup, err := openLedger(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open ledger", "backend", cfg.Ledger.Backend, "error", err)
		os.Exit(1)
	}
	defer cleanup()

	var images storage.ImageStore = storage.Nop{}
	if cfg.Storage.BucketName != "" {
		gcsStore, err := storage.NewGCSStore(ctx, cfg.Storage.BucketName, logger)
		if err != nil {
			logger.Warn("image bucket unavailable, rows will have no proof link", "error", err)
		} else {
			defer gcsStore.Close()
			images = gcsStore
		}
	}

	normalizer := imgprep.NewNormalizer(cfg.Pipeline.MaxImageDimension, logger)
	processor := pipeline.NewProcessor(normalizer, extractor, categorizer, store, images, cfg.Pipeline.MinConfidence, logger)
	coordinator := pipeline.NewBatchCoordinator(processor, cfg.Pipeline.BatchWorkers, logger)

	inputs, err := readImages(*dir)
	if err != nil {
		logger.Error("failed to read image directory", "dir", *dir, "error", err)
		os.Exit(1)
	}
	if len(inputs) == 0 {
		printError("Error: no images found in %s\n", *dir)
		os.Exit(1)
	}

	logger.Info("starting batch", "dir", *dir, "images", len(inputs), "backend", cfg.Ledger.Backend)
	summary, err := coordinator.Process(ctx, inputs)
	if err != nil {
		logger.Error("batch failed", "error", err)
		os.Exit(1)
	}

	exportService := export.NewService(store, logger)
	var xlsxBytes []byte
	if *date != "" {
		xlsxBytes, err = exportService.ExportDayXLSX(ctx, *date)
	} else {
		xlsxBytes, err = exportService.ExportLatestXLSX(ctx, summary.Saved)
	}
	if err != nil {
		logger.Error("failed to export ledger", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsxBytes, 0644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	logger.Info("batch complete",
		"submitted", summary.Submitted,
		"saved", summary.Saved,
		"rejected", summary.Rejected,
		"failed", summary.Failed,
		"total_net_weight", summary.TotalNetWeight,
		"output_file", *out)

	fmt.Printf("Batch complete!\n")
	fmt.Printf("- Photos submitted: %d\n", summary.Submitted)
	fmt.Printf("- Rows saved: %d\n", summary.Saved)
	fmt.Printf("- Rejected (low confidence): %d\n", summary.Rejected)
	fmt.Printf("- Failed: %d\n", summary.Failed)
	fmt.Printf("- Total net weight (ton): %.3f\n", summary.TotalNetWeight)
	fmt.Printf("- Output: %s\n", *out)
}

func openLedger(ctx context.Context, cfg *common.Config, logger *slog.Logger) (ledger.Store, func(), error) {
	switch cfg.Ledger.Backend {
	case "sheets":
		store, err := ledgersheets.NewStore(ctx, ledgersheets.Config{
			SpreadsheetID:   cfg.Ledger.SpreadsheetID,
			SheetName:       cfg.Ledger.SheetName,
			CredentialsFile: cfg.Ledger.CredentialsFile,
			TailWindow:      cfg.Ledger.TailWindow,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := store.Verify(ctx); err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	case "sqlite":
		store, err := ledgersqlite.NewStore(ctx, cfg.Ledger.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	case "memory":
		return ledgermem.NewStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown ledger backend %q", cfg.Ledger.Backend)
	}
}

func readImages(dir string) ([]pipeline.BatchInput, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var inputs []pipeline.BatchInput
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".jpg", ".jpeg", ".png", ".webp", ".bmp", ".tif", ".tiff":
		default:
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		inputs = append(inputs, pipeline.BatchInput{Name: entry.Name(), Data: data})
	}
	return inputs, nil
}
