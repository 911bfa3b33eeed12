package schema

// Song is one row of the songs dimension. Duration is refreshed when the
// same song_id is ingested again.
type Song struct {
	SongID     string  `db:"song_id"`
	Title      string  `db:"title"`
	ArtistID   string  `db:"artist_id"`
	ArtistName string  `db:"artist_name"`
	Year       int     `db:"year"` // 0 when unknown
	Duration   float64 `db:"duration"`
}

// Artist is one row of the artists dimension. Name is refreshed on
// conflict; location and coordinates stay nullable.
type Artist struct {
	ArtistID  string   `db:"artist_id"`
	Name      string   `db:"name"`
	Location  *string  `db:"location"`
	Latitude  *float64 `db:"latitude"`
	Longitude *float64 `db:"longitude"`
}

// User is one row of the users dimension. Level is refreshed on conflict:
// a user's subscription tier changes between log events, and the last
// processed event wins.
type User struct {
	UserID    int     `db:"user_id"`
	FirstName string  `db:"first_name"`
	LastName  string  `db:"last_name"`
	Gender    *string `db:"gender"` // single character or null
	Level     string  `db:"level"`
}

// TimeRow is one row of the time dimension, keyed by the event's epoch
// milliseconds. The derived parts are deterministic functions of StartTime,
// so conflicting inserts are simply ignored.
type TimeRow struct {
	StartTime int64 `db:"start_time"` // epoch milliseconds
	Hour      int   `db:"hour"`
	Day       int   `db:"day"`
	Week      int   `db:"week"` // ISO week number
	Month     int   `db:"month"`
	Year      int   `db:"year"`
	Weekday   int   `db:"weekday"` // Monday=0 .. Sunday=6
}

// Songplay is one row of the songplays fact table. SongID and ArtistID are
// null when the dimension lookup found no unambiguous match; that is an
// expected outcome, not an error.
type Songplay struct {
	StartTime int64   `db:"start_time"`
	SessionID int     `db:"session_id"`
	UserID    int     `db:"user_id"`
	SongID    *string `db:"song_id"`
	ArtistID  *string `db:"artist_id"`
	Level     string  `db:"level"`
	Location  *string `db:"location"`
	UserAgent *string `db:"user_agent"`
}
