// Package transform derives dimension and fact rows from semi-structured
// song-metadata and activity-log records and issues them against a
// storage.Session.
//
// Each transformer splits its work in two phases so the loader can overlap
// parsing with database writes: Parse turns a file's bytes into records
// (all shape/coercion problems surface here or in Load as
// ErrMalformedRecord), and Load issues the resulting upserts and inserts
// inside the caller's unit of work.
package transform

import (
	"context"
	"errors"
	"fmt"
	"io"

	"musicetl/internal/storage"
	"musicetl/pkg/records"
)

// ErrMalformedRecord marks a file that cannot be parsed as its expected
// format or carries an absent/non-coercible required field. The loader
// recovers at file granularity: skip, log, continue.
var ErrMalformedRecord = errors.New("malformed record")

// Transformer processes one discovered file.
type Transformer interface {
	// Name identifies the transformer in logs and metrics ("songs", "logs").
	Name() string
	// Parse decodes one file into records.
	Parse(r io.Reader) ([]records.Record, error)
	// Load issues the rows derived from recs against sess. The caller
	// scopes sess to a single transaction per file.
	Load(ctx context.Context, sess storage.Session, recs []records.Record) error
}

func malformed(err error) error {
	return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
}
