package transform

import (
	"context"
	"fmt"
	"io"

	jsonparser "musicetl/internal/parser/json"
	"musicetl/internal/schema"
	"musicetl/internal/storage"
	"musicetl/pkg/records"
)

// SongFiles transforms song-metadata files: each file carries exactly one
// record and yields one song upsert and one artist upsert.
type SongFiles struct {
	Queries *schema.Queries
}

func NewSongFiles(q *schema.Queries) *SongFiles { return &SongFiles{Queries: q} }

func (s *SongFiles) Name() string { return "songs" }

// Parse reads the single song record. The source format is one JSON object
// per file, but the reader tolerates a newline-delimited variant.
func (s *SongFiles) Parse(r io.Reader) ([]records.Record, error) {
	rec, err := jsonparser.DecodeOne(r)
	if err != nil {
		return nil, malformed(err)
	}
	return []records.Record{rec}, nil
}

// Load upserts the song row and then the artist row derived from the
// record. Coercion failures on year or duration fail the file; a zero a
// caller never asked for must not reach the dimension table.
func (s *SongFiles) Load(ctx context.Context, sess storage.Session, recs []records.Record) error {
	for _, rec := range recs {
		song, artist, err := songRows(rec)
		if err != nil {
			return err
		}
		if err := sess.Exec(ctx, s.Queries.SongUpsert,
			song.SongID, song.Title, song.ArtistID, song.ArtistName, song.Year, song.Duration,
		); err != nil {
			return fmt.Errorf("upsert song %s: %w", song.SongID, err)
		}
		if err := sess.Exec(ctx, s.Queries.ArtistUpsert,
			artist.ArtistID, artist.Name, artist.Location, artist.Latitude, artist.Longitude,
		); err != nil {
			return fmt.Errorf("upsert artist %s: %w", artist.ArtistID, err)
		}
	}
	return nil
}

// songRows shapes one metadata record into its song and artist dimension
// rows. Location and coordinates are legitimately absent for many artists
// and map to null, never to a default numeric value.
func songRows(rec records.Record) (schema.Song, schema.Artist, error) {
	var song schema.Song
	var artist schema.Artist

	songID, err := rec.String("song_id")
	if err != nil {
		return song, artist, malformed(err)
	}
	title, err := rec.String("title")
	if err != nil {
		return song, artist, malformed(err)
	}
	artistID, err := rec.String("artist_id")
	if err != nil {
		return song, artist, malformed(err)
	}
	artistName, err := rec.String("artist_name")
	if err != nil {
		return song, artist, malformed(err)
	}
	year, err := rec.Int("year")
	if err != nil {
		return song, artist, malformed(err)
	}
	duration, err := rec.Float("duration")
	if err != nil {
		return song, artist, malformed(err)
	}
	latitude, err := rec.NullFloat("artist_latitude")
	if err != nil {
		return song, artist, malformed(err)
	}
	longitude, err := rec.NullFloat("artist_longitude")
	if err != nil {
		return song, artist, malformed(err)
	}

	song = schema.Song{
		SongID:     songID,
		Title:      normText(title),
		ArtistID:   artistID,
		ArtistName: normText(artistName),
		Year:       year,
		Duration:   duration,
	}
	artist = schema.Artist{
		ArtistID:  artistID,
		Name:      normText(artistName),
		Location:  rec.NullString("artist_location"),
		Latitude:  latitude,
		Longitude: longitude,
	}
	return song, artist, nil
}
