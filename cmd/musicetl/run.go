package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"musicetl/internal/config"
	"musicetl/internal/loader"
	"musicetl/internal/metrics"
	"musicetl/internal/schema"
	"musicetl/internal/storage"
	"musicetl/internal/transform"
)

// Exit codes for run.
const (
	exitOK      = 0
	exitFatal   = 1
	exitPartial = 2
)

type runOptions struct {
	reset   bool
	verbose bool
}

// Function variable used to introduce a test seam.
// In production it points to the real factory; tests can override it.
var newRepositoryFn = func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	return storage.New(ctx, cfg)
}

// run executes the full batch: schema bootstrap, then the songs tree, then
// the logs tree. The order is load-bearing: the log phase resolves song and
// artist keys against whatever the song phase has written.
//
// A per-file failure does not abort the batch; it surfaces as exitPartial so
// schedulers can tell a clean run from a lossy one.
func run(ctx context.Context, p config.Pipeline, opts runOptions) (int, error) {
	repo, err := newRepositoryFn(ctx, storage.Config{
		Kind: p.Storage.Kind,
		DSN:  p.Storage.DB.DSN,
	})
	if err != nil {
		return exitFatal, fmt.Errorf("storage: %w", err)
	}
	defer repo.Close()

	dialect, err := storage.DialectFor(p.Storage.Kind)
	if err != nil {
		return exitFatal, err
	}
	queries, err := schema.New(dialect)
	if err != nil {
		return exitFatal, err
	}

	if opts.reset {
		log.Printf("schema: dropping and recreating all tables")
		if err := storage.ResetSchema(ctx, repo, queries); err != nil {
			return exitFatal, fmt.Errorf("reset schema: %w", err)
		}
	} else if err := storage.EnsureSchema(ctx, repo, queries); err != nil {
		return exitFatal, fmt.Errorf("ensure schema: %w", err)
	}

	logs := transform.NewLogFiles(queries)
	logs.Verbose = opts.verbose

	phases := []struct {
		tr   transform.Transformer
		root string
	}{
		{transform.NewSongFiles(queries), p.Data.SongDir},
		{logs, p.Data.LogDir},
	}

	failed := 0
	for _, ph := range phases {
		r := &loader.Runner{
			Job:       p.Job,
			Repo:      repo,
			Transform: ph.tr,
			ReadAhead: p.Runtime.ReadAhead,
			Progress:  p.Runtime.Progress,
		}

		start := time.Now()
		sum, err := r.Run(ctx, ph.root)
		metrics.RecordStep(p.Job, ph.tr.Name(), err, time.Since(start))
		if err != nil {
			return exitFatal, err
		}
		failed += sum.Failed
	}

	if failed > 0 {
		return exitPartial, fmt.Errorf("batch finished with %d failed files", failed)
	}
	return exitOK, nil
}
