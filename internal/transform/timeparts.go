package transform

import (
	"time"

	"musicetl/internal/schema"
)

// TimeParts decomposes an epoch-millisecond timestamp into the time
// dimension row. All parts are derived in UTC: week is the ISO 8601 week
// number and weekday counts Monday=0 through Sunday=6. The key keeps the
// original millisecond value bit for bit, so time rows join songplays
// without any round-tripping through a date type.
func TimeParts(ms int64) schema.TimeRow {
	t := time.UnixMilli(ms).UTC()
	_, week := t.ISOWeek()
	return schema.TimeRow{
		StartTime: ms,
		Hour:      t.Hour(),
		Day:       t.Day(),
		Week:      week,
		Month:     int(t.Month()),
		Year:      t.Year(),
		Weekday:   (int(t.Weekday()) + 6) % 7,
	}
}
