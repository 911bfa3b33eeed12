// Package loader contains the batch execution logic.
//
// It wires together file discovery, JSON parsing, and transactional loading
// into the configured storage backend. One Runner handles one input tree and
// one transformer; a full run is two Runners executed back to back (songs,
// then logs).
package loader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"musicetl/internal/datasource/file"
	"musicetl/internal/metrics"
	"musicetl/internal/storage"
	"musicetl/internal/transform"
	"musicetl/pkg/records"
)

// Summary holds the per-batch file accounting.
//
// Invariant: Found == Processed + Failed once Run returns without error.
type Summary struct {
	Found     int
	Processed int
	Failed    int
}

// Runner executes one batch over a directory tree.
//
// Failure granularity is the file: a file that fails to parse or load is
// logged and skipped, and the batch continues. Only a context cancellation
// or an unreadable root aborts the run.
type Runner struct {
	Job       string
	Repo      storage.Repository
	Transform transform.Transformer

	// ReadAhead is the number of files parsed ahead of the database
	// writer. Zero parses inline on the writer goroutine.
	ReadAhead int

	// Progress replaces per-file log lines with a console progress bar.
	Progress bool
}

// parsedFile is one file after the parse stage, ready for the writer.
type parsedFile struct {
	path string
	sum  uint64 // xxh3 of the raw bytes, for log correlation
	recs []records.Record
	err  error
}

// Run discovers every .json file under root and pushes each through
// parse → transactional load. Database writes stay on a single goroutine,
// so rows arrive in file order regardless of ReadAhead.
func (r *Runner) Run(ctx context.Context, root string) (Summary, error) {
	name := r.Transform.Name()

	paths, err := file.List(root, file.DataExt)
	if err != nil {
		return Summary{}, fmt.Errorf("%s: list %s: %w", name, root, err)
	}
	sum := Summary{Found: len(paths)}
	log.Printf("%s: %d files found in %s", name, len(paths), root)
	if len(paths) == 0 {
		return sum, nil
	}

	var bar *progressbar.ProgressBar
	if r.Progress {
		bar = progressbar.NewOptions(len(paths),
			progressbar.OptionSetDescription(name),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}

	parsedCh := make(chan parsedFile, r.ReadAhead)

	g, ctx := errgroup.WithContext(ctx)

	// Parse stage. With ReadAhead == 0 the unbuffered channel degrades
	// this to lock-step parsing, one file ahead of the writer at most.
	g.Go(func() error {
		defer close(parsedCh)
		for _, path := range paths {
			p := r.parseOne(ctx, path)
			select {
			case parsedCh <- p:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	// Writer stage: single consumer, one transaction per file.
	g.Go(func() error {
		i := 0
		for p := range parsedCh {
			i++
			if p.err == nil {
				p.err = r.loadOne(ctx, p)
			}
			if p.err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				sum.Failed++
				log.Printf("%s: file %s (xxh3=%016x): %v", name, p.path, p.sum, p.err)
				continue
			}
			sum.Processed++
			metrics.RecordRows(r.Job, name, int64(len(p.recs)))
			if bar != nil {
				bar.Add(1)
				continue
			}
			log.Printf("%s: %d/%d files processed", name, i, len(paths))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return sum, fmt.Errorf("%s: %w", name, err)
	}
	if bar != nil {
		bar.Finish()
	}

	metrics.RecordFiles(r.Job, "processed", int64(sum.Processed))
	metrics.RecordFiles(r.Job, "failed", int64(sum.Failed))
	log.Printf("%s: summary: found=%d processed=%d failed=%d", name, sum.Found, sum.Processed, sum.Failed)
	return sum, nil
}

// parseOne reads and parses a single file. Errors land in the returned
// struct so the writer owns all failure accounting.
func (r *Runner) parseOne(ctx context.Context, path string) parsedFile {
	p := parsedFile{path: path}

	f, err := file.Open(ctx, path)
	if err != nil {
		p.err = err
		return p
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		p.err = fmt.Errorf("read %s: %w", path, err)
		return p
	}
	p.sum = xxh3.Hash(data)

	p.recs, p.err = r.Transform.Parse(bytes.NewReader(data))
	return p
}

// loadOne writes one parsed file inside a single transaction. A failure
// rolls the whole file back; nothing partial is left behind.
func (r *Runner) loadOne(ctx context.Context, p parsedFile) error {
	return r.Repo.Tx(ctx, func(sess storage.Session) error {
		return r.Transform.Load(ctx, sess, p.recs)
	})
}
