// Command markdexctl indexes bookmark exports and searches them from the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"

	"github.com/kailas-cloud/markdex/internal/app"
	"github.com/kailas-cloud/markdex/internal/config"
	logpkg "github.com/kailas-cloud/markdex/internal/logger"
	"github.com/kailas-cloud/markdex/internal/version"
)

const usage = `Usage: markdexctl [-config file] <command> [args]

Commands:
  import [-format chrome|netscape|json] <file>   index a bookmark export
  search [-k N] [-min S] <query>                 search indexed bookmarks
  remove <url>                                   delete one bookmark
  stats                                          show index state
  demo                                           search a sample set interactively
  version                                        print version
`

func main() {
	configPath := flag.String("config", "", "path to config file (default: config/$ENV.yaml)")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*configPath, flag.Arg(0), flag.Args()[1:]); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, command string, args []string) error {
	if command == "version" {
		fmt.Println(version.String())
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if command == "demo" {
		// Sample data never touches configured storage.
		cfg.Storage.Driver = config.StorageMemory
	}

	logger, err := logpkg.NewLogger("cli", cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := app.New(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	defer engine.Close()

	cli := newCLI(engine, cfg.Index, os.Stdout, os.Stderr)
	switch command {
	case "import":
		return cli.importFile(ctx, args)
	case "search":
		return cli.search(ctx, args)
	case "remove":
		return cli.remove(ctx, args)
	case "stats":
		return cli.stats()
	case "demo":
		return cli.demo(ctx, os.Stdin)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

// loadConfig reads an explicit file, else config/$ENV.yaml, else built-in defaults.
func loadConfig(path string) (config.Config, error) {
	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return config.Config{}, fmt.Errorf("read config: %w", err)
		}
		return config.Parse(data)
	}

	cfg, err := config.Load(config.GetEnv())
	if errors.Is(err, fs.ErrNotExist) {
		return config.Parse(nil)
	}
	return cfg, err
}
