package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"wordbuilder/internal/config"
	"wordbuilder/internal/database"
	"wordbuilder/internal/logging"
	"wordbuilder/internal/service"
)

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)

	exportOutput := exportCmd.String("output", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")

	importInput := importCmd.String("input", "", "Input file path (required)")
	importClear := importCmd.Bool("clear", false, "Clear existing data before import (WARNING: destructive)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()

	logger, err := logging.Init(cfg.LogDir)
	if err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logger.Sync()

	db, err := database.Initialize(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	if err := db.RunMigrations(cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	backupService := service.NewBackupService(db, logger)

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		handleExport(backupService, *exportOutput, logger)

	case "import":
		importCmd.Parse(os.Args[2:])
		if *importInput == "" {
			fmt.Println("Error: -input flag is required")
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		handleImport(backupService, db, *importInput, *importClear, logger)

	default:
		printUsage()
		os.Exit(1)
	}
}

func handleExport(backupService *service.BackupService, outputPath string, logger *zap.Logger) {
	if outputPath == "" {
		timestamp := time.Now().Format("20060102_150405")
		outputPath = fmt.Sprintf("backup_%s.json", timestamp)
	}

	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Fatal("Failed to create output directory", zap.Error(err))
		}
	}

	logger.Info("Exporting database", zap.String("output", outputPath))
	if err := backupService.Export(outputPath); err != nil {
		logger.Fatal("Export failed", zap.Error(err))
	}

	fileInfo, _ := os.Stat(outputPath)
	logger.Info("Export complete", zap.Int64("bytes", fileInfo.Size()))
}

func handleImport(backupService *service.BackupService, db *database.DB, inputPath string, clearData bool, logger *zap.Logger) {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		logger.Fatal("Input file does not exist", zap.String("input", inputPath))
	}

	if clearData {
		fmt.Print("WARNING: This will delete all existing data. Type 'yes' to confirm: ")
		var confirmation string
		fmt.Scanln(&confirmation)
		if confirmation != "yes" {
			logger.Info("Import cancelled")
			return
		}

		logger.Info("Clearing existing data")
		if err := clearDatabase(db, logger); err != nil {
			logger.Fatal("Failed to clear database", zap.Error(err))
		}
	}

	logger.Info("Importing database", zap.String("input", inputPath))
	if err := backupService.Import(inputPath); err != nil {
		logger.Fatal("Import failed", zap.Error(err))
	}

	logger.Info("Import complete")
}

func clearDatabase(db *database.DB, logger *zap.Logger) error {
	// Delete in reverse order of dependencies
	tables := []string{
		"word_attempts",
		"progress_records",
		"sessions",
	}

	for _, table := range tables {
		query := fmt.Sprintf("DELETE FROM %s", table)
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to clear table %s: %w", table, err)
		}
		logger.Info("Cleared table", zap.String("table", table))
	}

	return nil
}

func printUsage() {
	fmt.Println("WordBuilder Database Backup Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  backup export [options]    Export database to JSON file")
	fmt.Println("  backup import [options]    Import database from JSON file")
	fmt.Println()
	fmt.Println("Export Options:")
	fmt.Println("  -output <file>    Output file path (default: backup_YYYYMMDD_HHMMSS.json)")
	fmt.Println()
	fmt.Println("Import Options:")
	fmt.Println("  -input <file>     Input file path (required)")
	fmt.Println("  -clear            Clear existing data before import (WARNING: destructive)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  backup export")
	fmt.Println("  backup export -output mybackup.json")
	fmt.Println("  backup import -input backup.json -clear")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DB_TYPE          Database type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  DB_PATH          SQLite database path (default: ./wordbuilder.db)")
	fmt.Println("  DATABASE_URL     PostgreSQL or MySQL connection URL")
}
