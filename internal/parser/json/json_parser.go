// Package json turns song-metadata and activity-log files into
// records.Record maps.
//
// It is deliberately simple and conservative:
//
//   - Supports newline-delimited JSON objects (activity logs):
//     {"page":"NextSong","ts":1541121934796,...}
//     {"page":"Home","ts":1541122073796,...}
//   - Supports a single JSON object per file (song metadata). The song
//     corpus is nominally "one object per file" but some exports carry a
//     trailing newline-delimited sibling, so both shapes decode the same way.
//   - Rejects non-object top-level values (arrays, primitives).
//   - Strips a UTF-8 byte-order mark before decoding.
//
// Numbers decode as json.Number so the records accessors decide how to map
// numeric values; see pkg/records.
package json

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"musicetl/pkg/records"
)

const utf8BOM = "\xef\xbb\xbf"

// Decoder wraps encoding/json.Decoder to provide a record-oriented API over
// a stream of JSON objects.
type Decoder struct {
	dec *json.Decoder
}

// NewDecoder constructs a Decoder over r. A leading UTF-8 BOM is skipped.
func NewDecoder(r io.Reader) *Decoder {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && string(head) == utf8BOM {
		_, _ = br.Discard(len(utf8BOM))
	}
	dec := json.NewDecoder(br)
	dec.UseNumber()
	return &Decoder{dec: dec}
}

// Next reads the next JSON object from the stream and returns it as a
// records.Record. io.EOF is returned when the stream is exhausted. A
// non-object top-level value is an error: a log file where a line is not an
// event object is malformed, not junk to be skipped.
func (d *Decoder) Next() (records.Record, error) {
	var raw any
	if err := d.dec.Decode(&raw); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("json parser: decode: %w", err)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("json parser: want object, got %T", raw)
	}
	return records.Record(obj), nil
}

// DecodeAll reads every object from r and returns them in input order.
// An empty input yields a nil slice and no error.
func DecodeAll(r io.Reader) ([]records.Record, error) {
	d := NewDecoder(r)
	var out []records.Record
	for {
		rec, err := d.Next()
		if err != nil {
			if err == io.EOF {
				return out, nil
			}
			return nil, err
		}
		out = append(out, rec)
	}
}

// DecodeOne reads exactly one object from r, tolerating trailing
// newline-delimited siblings (which are ignored). It is the reader for
// one-record-per-file sources.
func DecodeOne(r io.Reader) (records.Record, error) {
	d := NewDecoder(r)
	rec, err := d.Next()
	if err == io.EOF {
		return nil, fmt.Errorf("json parser: empty input")
	}
	return rec, err
}
