// Package schema is the single source of truth for the star-schema layout:
// row models, DDL, and the DML statement texts used by the transformers.
//
// Queries is an immutable registry constructed once at process start and
// passed by reference to every component that talks to the store. Statement
// texts are rendered per SQL dialect, so the same transformers run against
// Postgres, SQLite, and MySQL backends unchanged.
package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect selects the SQL flavor statements are rendered in.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
	DialectMySQL    Dialect = "mysql"
)

// Tables in dependency order: dimensions first, the fact table last.
// Drops run in reverse so foreign keys never dangle.
var tableOrder = []string{"users", "songs", "artists", "time", "songplays"}

// Queries holds every statement the loader and transformers execute.
// Construct with New; the value is never mutated afterwards.
type Queries struct {
	Dialect Dialect

	CreateTables []string // dependency order
	DropTables   []string // reverse dependency order

	SongUpsert     string // songs: refresh duration on song_id conflict
	ArtistUpsert   string // artists: refresh name on artist_id conflict
	UserUpsert     string // users: refresh level on user_id conflict
	TimeInsert     string // time: insert-or-ignore on start_time
	SongplayInsert string // songplays: plain insert, identity key

	// SongSelect resolves (title, artist_name, duration) to
	// (song_id, artist_id). Exact duration equality is the designed join
	// condition; callers treat zero or multiple result rows as "not found".
	SongSelect string
}

// New renders the statement registry for the given dialect.
func New(d Dialect) (*Queries, error) {
	switch d {
	case DialectPostgres, DialectSQLite, DialectMySQL:
	default:
		return nil, fmt.Errorf("schema: unsupported dialect %q", d)
	}

	q := &Queries{Dialect: d}

	q.CreateTables = []string{
		q.bind(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	user_id %s PRIMARY KEY,
	first_name %s NOT NULL,
	last_name %s NOT NULL,
	gender %s,
	level %s NOT NULL
)`, q.ident("users"), q.typeInt(), q.typeText(), q.typeText(), q.typeChar(), q.typeText())),

		q.bind(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	song_id %s PRIMARY KEY,
	title %s NOT NULL,
	artist_id %s NOT NULL,
	artist_name %s NOT NULL,
	year %s NOT NULL,
	duration %s NOT NULL
)`, q.ident("songs"), q.typeKey(), q.typeText(), q.typeKey(), q.typeText(), q.typeInt(), q.typeFloat())),

		q.bind(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	artist_id %s PRIMARY KEY,
	name %s NOT NULL,
	location %s,
	latitude %s,
	longitude %s
)`, q.ident("artists"), q.typeKey(), q.typeText(), q.typeText(), q.typeFloat(), q.typeFloat())),

		q.bind(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	start_time %s PRIMARY KEY,
	hour %s NOT NULL,
	day %s NOT NULL,
	week %s NOT NULL,
	month %s NOT NULL,
	year %s NOT NULL,
	weekday %s NOT NULL
)`, q.ident("time"), q.typeBigInt(), q.typeInt(), q.typeInt(), q.typeInt(), q.typeInt(), q.typeInt(), q.typeInt())),

		q.bind(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	songplay_id %s,
	start_time %s NOT NULL,
	session_id %s NOT NULL,
	user_id %s NOT NULL,
	song_id %s,
	artist_id %s,
	level %s NOT NULL,
	location %s,
	user_agent %s,
	FOREIGN KEY (start_time) REFERENCES %s (start_time),
	FOREIGN KEY (user_id) REFERENCES %s (user_id),
	FOREIGN KEY (song_id) REFERENCES %s (song_id),
	FOREIGN KEY (artist_id) REFERENCES %s (artist_id)
)`, q.ident("songplays"), q.typeIdentity(), q.typeBigInt(), q.typeInt(), q.typeInt(),
			q.typeKey(), q.typeKey(), q.typeText(), q.typeText(), q.typeText(),
			q.ident("time"), q.ident("users"), q.ident("songs"), q.ident("artists"))),
	}

	for i := len(tableOrder) - 1; i >= 0; i-- {
		q.DropTables = append(q.DropTables,
			fmt.Sprintf("DROP TABLE IF EXISTS %s", q.ident(tableOrder[i])))
	}

	q.SongUpsert = q.bind(fmt.Sprintf(
		`INSERT INTO %s (song_id, title, artist_id, artist_name, year, duration)
VALUES (?, ?, ?, ?, ?, ?)
%s`, q.ident("songs"), q.conflict("song_id", "duration")))

	q.ArtistUpsert = q.bind(fmt.Sprintf(
		`INSERT INTO %s (artist_id, name, location, latitude, longitude)
VALUES (?, ?, ?, ?, ?)
%s`, q.ident("artists"), q.conflict("artist_id", "name")))

	q.UserUpsert = q.bind(fmt.Sprintf(
		`INSERT INTO %s (user_id, first_name, last_name, gender, level)
VALUES (?, ?, ?, ?, ?)
%s`, q.ident("users"), q.conflict("user_id", "level")))

	q.TimeInsert = q.bind(q.timeInsert())

	q.SongplayInsert = q.bind(fmt.Sprintf(
		`INSERT INTO %s (start_time, session_id, user_id, song_id, artist_id, level, location, user_agent)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, q.ident("songplays")))

	q.SongSelect = q.bind(fmt.Sprintf(
		`SELECT song_id, artist_id FROM %s
WHERE title = ? AND artist_name = ? AND duration = ?`, q.ident("songs")))

	return q, nil
}

// conflict renders the insert-or-update clause: refresh exactly one column
// when the key column collides.
func (q *Queries) conflict(key, update string) string {
	if q.Dialect == DialectMySQL {
		return fmt.Sprintf("ON DUPLICATE KEY UPDATE %s = VALUES(%s)", update, update)
	}
	return fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET %s = excluded.%s", key, update, update)
}

func (q *Queries) timeInsert() string {
	cols := "(start_time, hour, day, week, month, year, weekday)\nVALUES (?, ?, ?, ?, ?, ?, ?)"
	if q.Dialect == DialectMySQL {
		return fmt.Sprintf("INSERT IGNORE INTO %s %s", q.ident("time"), cols)
	}
	return fmt.Sprintf("INSERT INTO %s %s\nON CONFLICT (start_time) DO NOTHING", q.ident("time"), cols)
}

// ident quotes a table name for the dialect. "time" collides with a type
// keyword on two of the three backends, so every table name gets quoted.
func (q *Queries) ident(name string) string {
	if q.Dialect == DialectMySQL {
		return "`" + name + "`"
	}
	return `"` + name + `"`
}

// bind rewrites canonical '?' placeholders into the dialect's form.
// Postgres wants $1..$n; SQLite and MySQL take '?' as written.
func (q *Queries) bind(sql string) string {
	if q.Dialect != DialectPostgres {
		return sql
	}
	var b strings.Builder
	b.Grow(len(sql) + 8)
	n := 0
	for _, r := range sql {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (q *Queries) typeText() string {
	switch q.Dialect {
	case DialectPostgres:
		return "VARCHAR"
	case DialectMySQL:
		return "VARCHAR(512)"
	default:
		return "TEXT"
	}
}

// typeKey is the type for natural-key columns (song_id, artist_id). MySQL
// needs a bounded VARCHAR for indexed columns.
func (q *Queries) typeKey() string {
	switch q.Dialect {
	case DialectPostgres:
		return "VARCHAR"
	case DialectMySQL:
		return "VARCHAR(64)"
	default:
		return "TEXT"
	}
}

func (q *Queries) typeChar() string {
	if q.Dialect == DialectSQLite {
		return "TEXT"
	}
	return "CHAR(1)"
}

func (q *Queries) typeInt() string {
	if q.Dialect == DialectSQLite {
		return "INTEGER"
	}
	return "INT"
}

func (q *Queries) typeBigInt() string {
	if q.Dialect == DialectSQLite {
		return "INTEGER"
	}
	return "BIGINT"
}

func (q *Queries) typeFloat() string {
	switch q.Dialect {
	case DialectPostgres:
		return "FLOAT8"
	case DialectMySQL:
		return "DOUBLE"
	default:
		return "REAL"
	}
}

func (q *Queries) typeIdentity() string {
	switch q.Dialect {
	case DialectPostgres:
		return "SERIAL PRIMARY KEY"
	case DialectMySQL:
		return "BIGINT AUTO_INCREMENT PRIMARY KEY"
	default:
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
}
