package transform

import (
	"context"
	"errors"
	"strings"
	"testing"

	"musicetl/internal/schema"
)

const songRecord = `{
	"num_songs": 1,
	"artist_id": "ARD7TVE1187B99BFB1",
	"artist_latitude": null,
	"artist_longitude": null,
	"artist_location": "California - LA",
	"artist_name": "Casual",
	"song_id": "SOMZWCG12A8C13C480",
	"title": "I Didn't Mean To",
	"duration": 218.93179,
	"year": 0
}`

func queries(t *testing.T) *schema.Queries {
	t.Helper()
	q, err := schema.New(schema.DialectSQLite)
	if err != nil {
		t.Fatalf("schema.New: %v", err)
	}
	return q
}

func TestSongFiles_Load(t *testing.T) {
	t.Parallel()

	tr := NewSongFiles(queries(t))
	recs, err := tr.Parse(strings.NewReader(songRecord))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	sess := &fakeSession{}
	if err := tr.Load(context.Background(), sess, recs); err != nil {
		t.Fatalf("Load: %v", err)
	}

	songs := sess.execsMatching("songs")
	if len(songs) != 1 {
		t.Fatalf("got %d song upserts, want 1", len(songs))
	}
	wantSong := []any{"SOMZWCG12A8C13C480", "I Didn't Mean To", "ARD7TVE1187B99BFB1", "Casual", 0, 218.93179}
	for i, w := range wantSong {
		if songs[0].args[i] != w {
			t.Fatalf("song arg %d = %#v, want %#v", i, songs[0].args[i], w)
		}
	}

	artists := sess.execsMatching("artists")
	if len(artists) != 1 {
		t.Fatalf("got %d artist upserts, want 1", len(artists))
	}
	args := artists[0].args
	if args[0] != "ARD7TVE1187B99BFB1" || args[1] != "Casual" {
		t.Fatalf("artist identity args = %#v", args[:2])
	}
	loc, ok := args[2].(*string)
	if !ok || loc == nil || *loc != "California - LA" {
		t.Fatalf("artist location = %#v", args[2])
	}
	// Null coordinates stay null; they never become 0.0.
	if lat := args[3].(*float64); lat != nil {
		t.Fatalf("latitude = %v, want nil", *lat)
	}
	if lng := args[4].(*float64); lng != nil {
		t.Fatalf("longitude = %v, want nil", *lng)
	}
}

func TestSongFiles_StringEncodedNumerics(t *testing.T) {
	t.Parallel()

	rec := `{"song_id":"S1","title":"T","artist_id":"A1","artist_name":"N","year":"1982","duration":"210.5"}`
	tr := NewSongFiles(queries(t))
	recs, err := tr.Parse(strings.NewReader(rec))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	sess := &fakeSession{}
	if err := tr.Load(context.Background(), sess, recs); err != nil {
		t.Fatalf("Load: %v", err)
	}
	args := sess.execsMatching("songs")[0].args
	if args[4] != 1982 || args[5] != 210.5 {
		t.Fatalf("coerced year/duration = %#v / %#v", args[4], args[5])
	}
}

func TestSongFiles_MalformedNumeric(t *testing.T) {
	t.Parallel()

	rec := `{"song_id":"S1","title":"T","artist_id":"A1","artist_name":"N","year":"MCMXXII","duration":210.5}`
	tr := NewSongFiles(queries(t))
	recs, err := tr.Parse(strings.NewReader(rec))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	sess := &fakeSession{}
	err = tr.Load(context.Background(), sess, recs)
	if !errors.Is(err, ErrMalformedRecord) {
		t.Fatalf("Load = %v, want ErrMalformedRecord", err)
	}
	if len(sess.execs) != 0 {
		t.Fatalf("malformed file still executed %d statements", len(sess.execs))
	}
}

func TestSongFiles_MissingRequiredField(t *testing.T) {
	t.Parallel()

	rec := `{"title":"T","artist_id":"A1","artist_name":"N","year":0,"duration":210.5}`
	tr := NewSongFiles(queries(t))
	recs, err := tr.Parse(strings.NewReader(rec))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	err = tr.Load(context.Background(), &fakeSession{}, recs)
	if !errors.Is(err, ErrMalformedRecord) {
		t.Fatalf("Load = %v, want ErrMalformedRecord", err)
	}
}

func TestSongFiles_ParseEmpty(t *testing.T) {
	t.Parallel()

	tr := NewSongFiles(queries(t))
	if _, err := tr.Parse(strings.NewReader("")); !errors.Is(err, ErrMalformedRecord) {
		t.Fatalf("Parse = %v, want ErrMalformedRecord", err)
	}
}
