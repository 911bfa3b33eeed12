package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"musicetl/internal/schema"
	"musicetl/internal/storage"
)

// newTestRepo opens a fresh database with the full schema applied.
func newTestRepo(t *testing.T) (*Repository, *schema.Queries) {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "repo_test.db")
	repo, err := NewRepository(context.Background(), storage.Config{Kind: "sqlite", DSN: dsn})
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(repo.Close)

	q, err := schema.New(schema.DialectSQLite)
	if err != nil {
		t.Fatalf("schema.New: %v", err)
	}
	if err := storage.EnsureSchema(context.Background(), repo, q); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	return repo, q
}

func queryOne(t *testing.T, repo *Repository, sql string, dest ...any) {
	t.Helper()
	rows, err := repo.Query(context.Background(), sql)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()
	if !rows.Next() {
		t.Fatalf("query returned no rows: %s", sql)
	}
	if err := rows.Scan(dest...); err != nil {
		t.Fatalf("scan: %v", err)
	}
}

func TestNewRepository_EmptyDSN(t *testing.T) {
	t.Parallel()

	if _, err := NewRepository(context.Background(), storage.Config{Kind: "sqlite"}); err == nil {
		t.Fatal("expected error for empty DSN")
	}
}

// TestSongUpsert_RefreshesDuration exercises the real conflict clause: a
// second write with the same song_id must leave one row carrying the new
// duration.
func TestSongUpsert_RefreshesDuration(t *testing.T) {
	t.Parallel()

	repo, q := newTestRepo(t)
	ctx := context.Background()

	args := []any{"SOAAA", "Title", "ARAAA", "Artist", 1999, 200.1}
	if err := repo.Exec(ctx, q.SongUpsert, args...); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	args[5] = 200.2
	if err := repo.Exec(ctx, q.SongUpsert, args...); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	var n int
	var duration float64
	queryOne(t, repo, `SELECT COUNT(*) FROM songs`, &n)
	if n != 1 {
		t.Fatalf("songs = %d, want 1", n)
	}
	queryOne(t, repo, `SELECT duration FROM songs WHERE song_id = 'SOAAA'`, &duration)
	if duration != 200.2 {
		t.Fatalf("duration = %v, want 200.2", duration)
	}
}

func TestUserUpsert_LevelLastWriteWins(t *testing.T) {
	t.Parallel()

	repo, q := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Exec(ctx, q.UserUpsert, 15, "Lily", "Koch", "F", "free"); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := repo.Exec(ctx, q.UserUpsert, 15, "Lily", "Koch", "F", "paid"); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	var n int
	var level string
	queryOne(t, repo, `SELECT COUNT(*) FROM users`, &n)
	if n != 1 {
		t.Fatalf("users = %d, want 1", n)
	}
	queryOne(t, repo, `SELECT level FROM users WHERE user_id = 15`, &level)
	if level != "paid" {
		t.Fatalf("level = %q, want paid", level)
	}
}

func TestTimeInsert_IgnoresDuplicates(t *testing.T) {
	t.Parallel()

	repo, q := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := repo.Exec(ctx, q.TimeInsert, int64(1541121934796), 1, 2, 44, 11, 2018, 4); err != nil {
			t.Fatalf("insert #%d: %v", i+1, err)
		}
	}

	var n int
	queryOne(t, repo, `SELECT COUNT(*) FROM "time"`, &n)
	if n != 1 {
		t.Fatalf("time rows = %d, want 1", n)
	}
}

// TestSongSelect_ExactDurationMatch verifies the lookup joins on exact
// duration equality: 210.5 finds the row, 210.6 does not.
func TestSongSelect_ExactDurationMatch(t *testing.T) {
	t.Parallel()

	repo, q := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Exec(ctx, q.SongUpsert, "SOBBB", "Setanta matins", "ARBBB", "Elena", 0, 210.5); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	rows, err := repo.Query(ctx, q.SongSelect, "Setanta matins", "Elena", 210.5)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	defer rows.Close()
	if !rows.Next() {
		t.Fatal("expected a match at duration 210.5")
	}
	var songID, artistID string
	if err := rows.Scan(&songID, &artistID); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if songID != "SOBBB" || artistID != "ARBBB" {
		t.Fatalf("match = (%s, %s)", songID, artistID)
	}

	miss, err := repo.Query(ctx, q.SongSelect, "Setanta matins", "Elena", 210.6)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	defer miss.Close()
	if miss.Next() {
		t.Fatal("expected no match at duration 210.6")
	}
}

func TestTx_RollsBackOnError(t *testing.T) {
	t.Parallel()

	repo, q := newTestRepo(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := repo.Tx(ctx, func(sess storage.Session) error {
		if err := sess.Exec(ctx, q.UserUpsert, 15, "Lily", "Koch", "F", "paid"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Tx err = %v, want boom", err)
	}

	var n int
	queryOne(t, repo, `SELECT COUNT(*) FROM users`, &n)
	if n != 0 {
		t.Fatalf("users = %d after rollback, want 0", n)
	}
}

func TestTx_CommitsOnNil(t *testing.T) {
	t.Parallel()

	repo, q := newTestRepo(t)
	ctx := context.Background()

	err := repo.Tx(ctx, func(sess storage.Session) error {
		return sess.Exec(ctx, q.UserUpsert, 15, "Lily", "Koch", "F", "paid")
	})
	if err != nil {
		t.Fatalf("Tx: %v", err)
	}

	var n int
	queryOne(t, repo, `SELECT COUNT(*) FROM users`, &n)
	if n != 1 {
		t.Fatalf("users = %d, want 1", n)
	}
}

func TestResetSchema_DropsRows(t *testing.T) {
	t.Parallel()

	repo, q := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Exec(ctx, q.UserUpsert, 15, "Lily", "Koch", "F", "paid"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := storage.ResetSchema(ctx, repo, q); err != nil {
		t.Fatalf("ResetSchema: %v", err)
	}

	var n int
	queryOne(t, repo, `SELECT COUNT(*) FROM users`, &n)
	if n != 0 {
		t.Fatalf("users = %d after reset, want 0", n)
	}
}
