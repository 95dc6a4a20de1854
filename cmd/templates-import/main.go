package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
	"github.com/joseph-ayodele/invoice-extractor/internal/templates"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dsn    = flag.String("dsn", "", "template store DSN (default TEMPLATES_DSN)")
		dir    = flag.String("dir", "", "directory of *.json definitions to import (default TEMPLATES_DIR)")
		list   = flag.Bool("list", false, "list stored templates and exit")
		remove = flag.String("delete", "", "delete the named template and exit")
	)
	flag.Parse()

	cfg, err := common.LoadConfig()
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}
	logger := common.NewLogger(os.Stderr, cfg.Log)
	if *dsn == "" {
		*dsn = cfg.Templates.DSN
	}
	if *dir == "" {
		*dir = cfg.Templates.Dir
	}
	if *dsn == "" {
		printError("Error: --dsn or TEMPLATES_DSN is required\n")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := repository.Open(ctx, repository.Config{DSN: *dsn, DialTimeout: 5 * time.Second}, logger)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	defer db.Close(logger)

	repo := repository.NewTemplateRepository(db, logger)
	if err := repo.Migrate(ctx); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	switch {
	case *list:
		defs, err := repo.List(ctx)
		for _, d := range defs {
			fmt.Printf("%s\t%d required\t%d fields\n", d.Name, len(d.RequiredKeywords), len(d.Fields))
		}
		if err != nil {
			printError("Error: %v\n", err)
			os.Exit(1)
		}
	case *remove != "":
		ok, err := repo.Delete(ctx, *remove)
		if err != nil {
			printError("Error: %v\n", err)
			os.Exit(1)
		}
		if !ok {
			printError("template %q not found\n", *remove)
			os.Exit(1)
		}
		logger.Info("templates.delete.ok", "name", *remove)
	default:
		defs, err := templates.LoadDir(os.DirFS(*dir))
		if err != nil {
			printError("Error: %v\n", err)
			os.Exit(1)
		}
		// Reject the whole batch when any definition would not compile.
		if _, err := templates.Compile(defs); err != nil {
			printError("Error: %v\n", err)
			os.Exit(1)
		}
		for _, d := range defs {
			if err := repo.Upsert(ctx, d); err != nil {
				printError("Error: %v\n", err)
				os.Exit(1)
			}
		}
		logger.Info("templates.import.ok", "dir", *dir, "count", len(defs))
	}
}
