package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/dmaynor/bandicoot/internal/adapter/access"
	"github.com/dmaynor/bandicoot/internal/adapter/extractor"
	"github.com/dmaynor/bandicoot/internal/adapter/repository/sqlite"
	"github.com/dmaynor/bandicoot/internal/pkg/config"
	"github.com/dmaynor/bandicoot/internal/pkg/logger"
	"github.com/dmaynor/bandicoot/internal/usecase"
)

var version = "0.0.0-dev"

func main() {
	os.Exit(run())
}

func run() int {
	dbPath := pflag.String("db", "", "Path to the crash log store (default ~/.bandicoot/crash_logs.db).")
	rulesPath := pflag.String("rules", "", "Path to a YAML extraction-rule file overriding the built-in rules.")
	wipe := pflag.Bool("wipe", false, "Destroy the existing store before ingesting. The only way records are deleted.")
	noBackup := pflag.Bool("no-backup", false, "Skip the gzip backup normally written before a wipe.")
	assumeYes := pflag.BoolP("yes", "y", false, "Answer yes to all confirmation prompts.")
	verbose := pflag.BoolP("verbose", "v", false, "Echo every scanned report line for diagnostics.")
	showVersion := pflag.Bool("version", false, "Print the version and exit.")
	pflag.Parse()

	if *showVersion {
		fmt.Println("bandicoot " + version)
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}
	if *dbPath != "" {
		cfg.StorePath = *dbPath
		cfg.StorePathExplicit = true
	}
	if *rulesPath != "" {
		cfg.RulesPath = *rulesPath
	}
	cfg.Verbose = *verbose
	cfg.Wipe = *wipe
	cfg.AssumeYes = *assumeYes
	cfg.NoBackup = *noBackup

	level := cfg.LogLevel
	if cfg.Verbose {
		level = "debug"
	}
	log := logger.New(level)
	slog.SetDefault(log)

	ctrl := access.New(cfg.SystemReportDir, cfg.ReportExtensions, cfg.AssumeYes, os.Stdin, os.Stdout, log)

	decision, err := ctrl.CheckSystemAccess()
	if err != nil {
		log.Error("system report access check failed", "error", err)
		return 1
	}
	if decision == access.EscalationRequired {
		log.Info("system reports are protected, re-executing with elevated privileges")
		if err := reexecPrivileged(); err != nil {
			log.Error("privilege escalation failed", "error", err)
			return 1
		}
		// reexecPrivileged only returns on failure; the success path has
		// replaced this process entirely.
	}

	if err := ctrl.GuardStoreLocation(cfg.StorePath, cfg.StorePathExplicit); err != nil {
		log.Error("refusing store location", "error", err)
		return 1
	}

	if cfg.Wipe {
		if err := usecase.WipeStore(cfg.StorePath, !cfg.NoBackup, log); err != nil {
			log.Error("wipe failed", "error", err)
			return 1
		}
		// Re-run the setup sequence the wipe just undid.
		if err := ctrl.GuardStoreLocation(cfg.StorePath, cfg.StorePathExplicit); err != nil {
			log.Error("refusing store location", "error", err)
			return 1
		}
	}

	ctx := context.Background()

	repo, err := sqlite.Open(cfg.StorePath, log)
	if err != nil {
		log.Error("failed to open store", "error", err)
		return 1
	}
	defer repo.Close()

	if err := repo.EnsureSchema(ctx); err != nil {
		log.Error("schema migration failed", "error", err)
		return 1
	}

	rules := extractor.DefaultRules()
	if cfg.RulesPath != "" {
		if rules, err = extractor.LoadRules(cfg.RulesPath); err != nil {
			log.Error("failed to load extraction rules", "error", err)
			return 1
		}
	}
	ex, err := extractor.New(rules, cfg.Verbose, log)
	if err != nil {
		log.Error("failed to build extractor", "error", err)
		return 1
	}

	uc := usecase.NewIngestReportsUseCase(repo, ex, cfg.UserReportDir, cfg.SystemReportDir, cfg.ReportExtensions, log)
	summary, err := uc.Run(ctx)
	if err != nil {
		log.Error("ingestion run failed", "error", err)
		return 1
	}

	fmt.Printf("Total crash logs in database: %d\n", summary.TotalRecords)
	if len(summary.Added) > 0 {
		fmt.Printf("New crash logs added (%d):\n", len(summary.Added))
		for _, line := range summary.DigestLines() {
			fmt.Println(line)
		}
	}
	return 0
}

// reexecPrivileged replaces this process with a sudo re-execution of the
// same command line, marked so the escalated child never escalates again.
// It returns only when the replacement itself fails.
func reexecPrivileged() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	sudo, err := exec.LookPath("sudo")
	if err != nil {
		return fmt.Errorf("locate sudo: %w", err)
	}

	// The marker rides the sudo command line; sudo's env_reset would strip
	// it from the inherited environment.
	argv := append([]string{"sudo", access.EscalatedEnv + "=1", exe}, os.Args[1:]...)
	return syscall.Exec(sudo, argv, os.Environ())
}
