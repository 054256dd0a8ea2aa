package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dvloznov/missing-receipts/internal/app"
	"github.com/dvloznov/missing-receipts/internal/config"
	"github.com/dvloznov/missing-receipts/internal/domain"
	"github.com/dvloznov/missing-receipts/internal/gcsuploader"
	"github.com/dvloznov/missing-receipts/internal/ledger"
	"github.com/dvloznov/missing-receipts/internal/ledger/mock"
	"github.com/dvloznov/missing-receipts/internal/logger"
	"github.com/dvloznov/missing-receipts/internal/pipeline"
	"github.com/rs/zerolog"
)

const defaultMockObject = "mock/transactions.json"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "analyze":
		runAnalyze()
	case "guide":
		runGuide()
	case "email":
		runEmail()
	case "upload-mock":
		runUploadMock()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Missing Receipts CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  analyze      Classify a customer's transactions into subscriptions and physical purchases")
	fmt.Println("  guide        Generate receipt guides for a customer's subscriptions")
	fmt.Println("  email        Compose the missing-receipts email")
	fmt.Println("  upload-mock  Upload a mock transaction dataset to GCS")
	fmt.Println("  help         Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// runFlags are shared by the commands that run the pipeline.
type runFlags struct {
	configPath *string
	token      *string
	from       *string
	to         *string
}

func addRunFlags(fs *flag.FlagSet) runFlags {
	return runFlags{
		configPath: fs.String("config", "", "Path to config file"),
		token:      fs.String("token", os.Getenv("RECEIPTS_TOKEN"), "Customer ledger token (or set RECEIPTS_TOKEN)"),
		from:       fs.String("from", "", "First booking date, YYYY-MM-DD"),
		to:         fs.String("to", "", "Last booking date, YYYY-MM-DD"),
	}
}

func (f runFlags) request() ledger.FetchRequest {
	return ledger.FetchRequest{Token: *f.token, From: *f.from, To: *f.to}
}

// setup loads configuration and builds the pipeline service.
func setup(ctx context.Context, configPath string) (*pipeline.Service, zerolog.Logger, func() error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		fatal := logger.New()
		fatal.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.NewWithOptions(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})

	svc, closeSource, err := app.NewService(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create pipeline service")
	}
	return svc, log, closeSource
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "encode output: %v\n", err)
		os.Exit(1)
	}
}

func runAnalyze() {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	flags := addRunFlags(fs)
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	svc, log, closeSource := setup(ctx, *flags.configPath)
	defer closeSource()

	res, err := svc.Analyze(ctx, flags.request())
	if err != nil {
		log.Fatal().Err(err).Msg("Analysis failed")
	}

	fmt.Printf("Run %s: %d transactions\n\n", res.RunID, res.TransactionCount)
	fmt.Printf("Subscription ids: %v\n", res.Classification.Subscriptions)
	fmt.Printf("Physical ids:     %v\n\n", res.Classification.Physical)
	printJSON(res.Enriched)
}

func runGuide() {
	fs := flag.NewFlagSet("guide", flag.ExitOnError)
	flags := addRunFlags(fs)
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	svc, log, closeSource := setup(ctx, *flags.configPath)
	defer closeSource()

	res, err := svc.Guides(ctx, flags.request())
	if err != nil {
		log.Fatal().Err(err).Msg("Guide generation failed")
	}

	fmt.Printf("Run %s: %d subscriptions\n\n", res.RunID, len(res.Enriched.Subscriptions))
	printJSON(res.Guide)
}

func runEmail() {
	fs := flag.NewFlagSet("email", flag.ExitOnError)
	flags := addRunFlags(fs)
	input := fs.String("input", "", "JSON file with a transaction array to use instead of the ledger")
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	svc, log, closeSource := setup(ctx, *flags.configPath)
	defer closeSource()

	var (
		res *pipeline.Result
		err error
	)
	if *input != "" {
		txs, readErr := readTransactions(*input)
		if readErr != nil {
			log.Fatal().Err(readErr).Str("file", *input).Msg("Failed to read transactions")
		}
		res, err = svc.RunBatch(ctx, *flags.token, txs)
	} else {
		res, err = svc.Run(ctx, flags.request())
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Email generation failed")
	}

	fmt.Println("=== Subject ===")
	fmt.Println(res.Draft.Subject)
	fmt.Println("\n=== Body ===")
	fmt.Println(res.Draft.Body)
}

func readTransactions(path string) ([]domain.Transaction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var txs []domain.Transaction
	if err := json.Unmarshal(data, &txs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return txs, nil
}

func runUploadMock() {
	fs := flag.NewFlagSet("upload-mock", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	bucketName := fs.String("bucket", "", "GCS bucket name (defaults to storage.bucket)")
	objectName := fs.String("object", defaultMockObject, "GCS object name")
	filePath := fs.String("file", "", "Local dataset to upload (defaults to the built-in dataset)")
	fs.Parse(os.Args[2:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal := logger.New()
		fatal.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.NewWithOptions(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})

	if *bucketName == "" {
		*bucketName = cfg.Storage.Bucket
	}
	if *bucketName == "" {
		log.Fatal().Msg("Usage: cli upload-mock -bucket NAME [-file PATH] [-object NAME]")
	}

	ctx := logger.WithContext(context.Background(), log)

	log.Info().
		Str("bucket", *bucketName).
		Str("object", *objectName).
		Str("file", *filePath).
		Msg("Uploading mock dataset to GCS")

	if *filePath != "" {
		txs, err := readTransactions(*filePath)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid dataset")
		}
		log.Info().Int("transactions", len(txs)).Msg("Dataset validated")

		if err := gcsuploader.UploadFile(ctx, *bucketName, *objectName, *filePath); err != nil {
			log.Fatal().Err(err).Msg("Upload failed")
		}
	} else {
		storage := gcsuploader.NewGCSStorageService()
		if err := storage.UploadBytes(ctx, *bucketName, *objectName, mock.DefaultDataset(), "application/json"); err != nil {
			log.Fatal().Err(err).Msg("Upload failed")
		}
	}

	fmt.Printf("Uploaded mock dataset to %s\n", gcsuploader.ObjectURI(*bucketName, *objectName))
	fmt.Printf("Set RECEIPTS_LEDGER_MOCK_PATH=%s to use it.\n", gcsuploader.ObjectURI(*bucketName, *objectName))
}
