// Package config defines the canonical, JSON-serializable configuration model
// for the music ETL application. It is intentionally small, explicit, and
// dependency-free so that pipelines can be loaded from disk and passed through
// the program without additional glue code.
//
// Field names in Go mirror the JSON structure used in pipeline files under
// configs/*.json.
//
// Example:
//
//	{
//	  "job":     "sparkify-etl",
//	  "data":    { "song_dir": "data/song_data", "log_dir": "data/log_data" },
//	  "storage": { "kind": "sqlite", "db": { "dsn": "file:sparkify.db" } },
//	  "runtime": { "read_ahead": 2, "progress": true }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Pipeline describes one full batch run in JSON. It is the top-level object
// decoded from a pipeline file.
type Pipeline struct {
	// Job names the run. It is used for metrics labeling and log output.
	Job string `json:"job"`

	// Data locates the two input directory trees.
	Data Data `json:"data"`

	// Storage describes where dimension and fact rows are written.
	Storage Storage `json:"storage"`

	Runtime RuntimeConfig `json:"runtime"`
}

// Data holds the input roots. Both trees are walked recursively for .json
// files.
type Data struct {
	// SongDir is the root of the song metadata tree.
	SongDir string `json:"song_dir"`

	// LogDir is the root of the activity log tree.
	LogDir string `json:"log_dir"`
}

// Storage selects the sink used to persist the star schema.
type Storage struct {
	// Kind selects the storage backend. Current values: "postgres",
	// "sqlite", "mysql".
	Kind string `json:"kind"`

	// DB carries options shared across backends.
	DB DBConfig `json:"db"`
}

// DBConfig configures the database sink.
type DBConfig struct {
	// DSN is the connection string in the form the selected driver
	// expects (e.g., postgresql://... for pgx, a file path for sqlite).
	DSN string `json:"dsn"`
}

// RuntimeConfig controls read-ahead parsing and console output.
type RuntimeConfig struct {
	// ReadAhead is the number of files parsed ahead of the database
	// writer. Zero disables the read-ahead stage and parsing happens
	// inline.
	ReadAhead int `json:"read_ahead"`

	// Progress enables the console progress bar for each batch.
	Progress bool `json:"progress"`
}

// Load reads and decodes a pipeline file. It performs no validation; callers
// run ValidatePipeline on the result.
func Load(path string) (Pipeline, error) {
	var p Pipeline
	f, err := os.Open(path)
	if err != nil {
		return p, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&p); err != nil {
		return p, fmt.Errorf("decode config %s: %w", path, err)
	}
	return p, nil
}
