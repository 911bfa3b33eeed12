package transform

import (
	"context"
	"fmt"
	"io"
	"log"

	jsonparser "musicetl/internal/parser/json"
	"musicetl/internal/schema"
	"musicetl/internal/storage"
	"musicetl/pkg/records"
)

// NextSongPage marks a completed song-play event; every other page value is
// discarded without side effects.
const NextSongPage = "NextSong"

// LogFiles transforms newline-delimited activity-log files into time and
// user dimension rows plus one songplay fact row per retained event.
type LogFiles struct {
	Queries *schema.Queries

	// Verbose enables per-event lookup-miss logging. Misses are an
	// expected outcome, so they stay out of the default output.
	Verbose bool
}

func NewLogFiles(q *schema.Queries) *LogFiles { return &LogFiles{Queries: q} }

func (l *LogFiles) Name() string { return "logs" }

// Parse decodes every event line. A single undecodable line fails the
// whole file; recovery granularity is the file, not the line.
func (l *LogFiles) Parse(r io.Reader) ([]records.Record, error) {
	recs, err := jsonparser.DecodeAll(r)
	if err != nil {
		return nil, malformed(err)
	}
	return recs, nil
}

// Load walks the retained events in input order. Per event it inserts the
// time row (deduplicated within the file; the statement tolerates
// redundant writes anyway), upserts the user (so the file's last event
// wins on level), resolves the song/artist pair, and inserts the songplay.
// The per-event lookup runs before its own fact insert, never batched, so
// each row's foreign keys reflect that event's resolution.
func (l *LogFiles) Load(ctx context.Context, sess storage.Session, recs []records.Record) error {
	seenTimes := make(map[int64]struct{})

	for i, rec := range recs {
		if rec.StringOrEmpty("page") != NextSongPage {
			continue
		}
		ev, err := parseEvent(rec)
		if err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}

		if _, ok := seenTimes[ev.ts]; !ok {
			seenTimes[ev.ts] = struct{}{}
			tr := TimeParts(ev.ts)
			if err := sess.Exec(ctx, l.Queries.TimeInsert,
				tr.StartTime, tr.Hour, tr.Day, tr.Week, tr.Month, tr.Year, tr.Weekday,
			); err != nil {
				return fmt.Errorf("event %d: insert time %d: %w", i, ev.ts, err)
			}
		}

		if err := sess.Exec(ctx, l.Queries.UserUpsert,
			ev.user.UserID, ev.user.FirstName, ev.user.LastName, ev.user.Gender, ev.user.Level,
		); err != nil {
			return fmt.Errorf("event %d: upsert user %d: %w", i, ev.user.UserID, err)
		}

		songID, artistID, err := l.lookupSong(ctx, sess, ev.song, ev.artist, ev.length)
		if err != nil {
			return fmt.Errorf("event %d: lookup: %w", i, err)
		}

		if err := sess.Exec(ctx, l.Queries.SongplayInsert,
			ev.ts, ev.sessionID, ev.user.UserID, songID, artistID,
			ev.user.Level, ev.location, ev.userAgent,
		); err != nil {
			return fmt.Errorf("event %d: insert songplay: %w", i, err)
		}
	}
	return nil
}

// lookupSong resolves a played (song, artist, length) triple against the
// songs dimension. Duration equality is exact. Zero rows or more than one
// row both resolve to null keys: an ambiguous match identifies nothing.
func (l *LogFiles) lookupSong(ctx context.Context, sess storage.Session, song, artist string, length float64) (*string, *string, error) {
	rows, err := sess.Query(ctx, l.Queries.SongSelect, normText(song), normText(artist), length)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var songID, artistID string
	n := 0
	for rows.Next() {
		n++
		if n > 1 {
			break
		}
		if err := rows.Scan(&songID, &artistID); err != nil {
			return nil, nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	if n != 1 {
		if l.Verbose {
			log.Printf("lookup: song=%q artist=%q length=%v matches=%d", song, artist, length, n)
		}
		return nil, nil, nil
	}
	return &songID, &artistID, nil
}

// playEvent is one retained play event with all fields coerced.
type playEvent struct {
	ts        int64
	sessionID int
	user      schema.User
	song      string
	artist    string
	length    float64
	location  *string
	userAgent *string
}

func parseEvent(rec records.Record) (playEvent, error) {
	var ev playEvent

	ts, err := rec.Int64("ts")
	if err != nil {
		return ev, malformed(err)
	}
	sessionID, err := rec.Int("sessionId")
	if err != nil {
		return ev, malformed(err)
	}
	userID, err := rec.Int("userId")
	if err != nil {
		return ev, malformed(err)
	}
	firstName, err := rec.String("firstName")
	if err != nil {
		return ev, malformed(err)
	}
	lastName, err := rec.String("lastName")
	if err != nil {
		return ev, malformed(err)
	}
	level, err := rec.String("level")
	if err != nil {
		return ev, malformed(err)
	}
	song, err := rec.String("song")
	if err != nil {
		return ev, malformed(err)
	}
	artist, err := rec.String("artist")
	if err != nil {
		return ev, malformed(err)
	}
	length, err := rec.Float("length")
	if err != nil {
		return ev, malformed(err)
	}

	ev = playEvent{
		ts:        ts,
		sessionID: sessionID,
		user: schema.User{
			UserID:    userID,
			FirstName: firstName,
			LastName:  lastName,
			Gender:    gender(rec.StringOrEmpty("gender")),
			Level:     level,
		},
		song:      song,
		artist:    artist,
		length:    length,
		location:  rec.NullString("location"),
		userAgent: rec.NullString("userAgent"),
	}
	return ev, nil
}

// gender maps the source's free-form gender string onto the single-char
// nullable column: first character, or null when absent.
func gender(s string) *string {
	if s == "" {
		return nil
	}
	g := string([]rune(s)[0])
	return &g
}
