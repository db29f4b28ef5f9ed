package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/sheetql/internal/config"
	"github.com/nao1215/sheetql/internal/server"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("sheetql: %v", err)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("sheetql", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to a YAML or JSON config file")
	addr := fs.String("addr", "", "Listen address, e.g. :8001")
	driver := fs.String("driver", "", "Store driver: sqlite, libsql or mysql")
	dsn := fs.String("dsn", "", "Store data source; empty for a private in-memory store per session")
	table := fs.String("table", "", "Name of the persisted table")
	allowRaw := fs.Bool("allow-raw-sql", false, "Enable the free-text SQL endpoint")
	inferTypes := fs.Bool("infer-types", false, "Store numeric columns as INTEGER or REAL")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error, off")
	preload := fs.String("preload", "", "Spreadsheet to persist into the store before serving")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.LoadFromFile(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if err := config.LoadFromEnv(cfg); err != nil {
		return err
	}

	// flags given on the command line win over file and environment
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.HTTP.Addr = *addr
		case "driver":
			cfg.Store.Driver = *driver
		case "dsn":
			cfg.Store.DSN = *dsn
		case "table":
			cfg.Store.Table = *table
		case "allow-raw-sql":
			cfg.Query.AllowRawSQL = *allowRaw
		case "infer-types":
			cfg.Store.InferTypes = *inferTypes
		case "log-level":
			cfg.Log.Level = *logLevel
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	if *preload != "" {
		if _, err := srv.Preload(ctx, *preload); err != nil {
			return fmt.Errorf("failed to preload %s: %w", *preload, err)
		}
	}
	if cfg.Query.AllowRawSQL {
		srv.Logger().Warn("raw SQL endpoint is enabled; every session can modify or drop the table")
	}

	return srv.Start(ctx)
}
