package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samirrijal/agrosight/internal/pkg/config"
	"github.com/samirrijal/agrosight/internal/pkg/logging"
	"github.com/samirrijal/agrosight/migrations"
)

func main() {
	logging.Setup(os.Getenv("LOG_LEVEL"), "text")

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: migrate <up|down>")
		os.Exit(2)
	}

	cfg, err := config.Load("agrosight-migrate")
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		slog.Error("db", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	var files []string
	switch os.Args[1] {
	case "up":
		files, err = scripts(migrations.FS, ".up.sql")
	case "down":
		files, err = scripts(migrations.FS, ".down.sql")
		sort.Sort(sort.Reverse(sort.StringSlice(files)))
	default:
		slog.Error("unknown command", "command", os.Args[1])
		os.Exit(2)
	}
	if err != nil {
		slog.Error("list migrations", "error", err)
		os.Exit(1)
	}

	if err := apply(ctx, pool, migrations.FS, files); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
	slog.Info("all migrations applied", "direction", os.Args[1], "count", len(files))
}

// scripts lists the embedded files with the given suffix in name order.
func scripts(fsys fs.FS, suffix string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func apply(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS, files []string) error {
	for _, f := range files {
		data, err := fs.ReadFile(fsys, f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}
		if _, err := pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("exec %s: %w", f, err)
		}
		slog.Info("applied", "file", f)
	}
	return nil
}
