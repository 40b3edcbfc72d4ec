package db

import (
	"fmt"
	"time"
)

// timeLayout is fixed width so that SQLite TEXT columns sort chronologically.
// PostgreSQL parses the same literal into TIMESTAMPTZ.
const timeLayout = "2006-01-02 15:04:05.000000-07:00"

// Timestamp formats t for storage
func Timestamp(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// NullTimestamp formats an optional time, mapping nil to SQL NULL
func NullTimestamp(t *time.Time) any {
	if t == nil {
		return nil
	}
	return Timestamp(*t)
}

// Time scans timestamp columns from either driver. PostgreSQL yields
// time.Time values; SQLite yields the stored text.
type Time struct {
	Time  time.Time
	Valid bool
}

// Scan implements sql.Scanner
func (t *Time) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time, t.Valid = time.Time{}, false
		return nil
	case time.Time:
		t.Time, t.Valid = v.UTC(), true
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	}
	return fmt.Errorf("cannot scan %T into db.Time", src)
}

func (t *Time) parse(s string) error {
	for _, layout := range []string{timeLayout, time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time, t.Valid = parsed.UTC(), true
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}

// Ptr returns nil for NULL, otherwise a pointer to the time
func (t Time) Ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
