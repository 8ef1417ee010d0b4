package repository

import (
	"fmt"
	"time"
)

const ymdLayout = "2006-01-02"

// Postgres hands back DATE/TIMESTAMPTZ as time.Time while SQLite may hand back
// text; these scanners accept both.

type dateValue struct{ t time.Time }

func (d *dateValue) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		d.t = time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC)
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	case nil:
		d.t = time.Time{}
		return nil
	}
	return fmt.Errorf("scan date: unsupported type %T", src)
}

func (d *dateValue) parse(s string) error {
	if len(s) > len(ymdLayout) {
		s = s[:len(ymdLayout)]
	}
	t, err := time.ParseInLocation(ymdLayout, s, time.UTC)
	if err != nil {
		return fmt.Errorf("scan date: %w", err)
	}
	d.t = t
	return nil
}

type timeValue struct{ t time.Time }

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func (tv *timeValue) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		tv.t = v.UTC()
		return nil
	case string:
		return tv.parse(v)
	case []byte:
		return tv.parse(string(v))
	case nil:
		tv.t = time.Time{}
		return nil
	}
	return fmt.Errorf("scan time: unsupported type %T", src)
}

func (tv *timeValue) parse(s string) error {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			tv.t = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("scan time: unrecognized format %q", s)
}

// FormatDate renders a date column value.
func FormatDate(t time.Time) string {
	return t.UTC().Format(ymdLayout)
}
