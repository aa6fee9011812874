package chat

import (
	"fmt"
	"time"
)

const DefaultTimestampLayout = "January 02, 2006, 3:04 PM"

// TimestampFormatter renders a persisted instant for broadcast events.
// It is called once per message so every recipient gets the same string.
type TimestampFormatter struct {
	location *time.Location
	layout   string
}

func NewTimestampFormatter(timeZone, layout string) (TimestampFormatter, error) {
	location, err := time.LoadLocation(timeZone)
	if err != nil {
		return TimestampFormatter{}, fmt.Errorf("invalid time zone %q: %w", timeZone, err)
	}
	if layout == "" {
		layout = DefaultTimestampLayout
	}
	return TimestampFormatter{location: location, layout: layout}, nil
}

func (f TimestampFormatter) Format(at time.Time) string {
	location := f.location
	if location == nil {
		location = time.UTC
	}
	layout := f.layout
	if layout == "" {
		layout = DefaultTimestampLayout
	}
	return at.In(location).Format(layout)
}
