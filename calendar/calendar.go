package calendar

import (
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/dmfcosta/isep-ics-server/schedule"
)

const (
	prodID    = "-//ISEP ICS Bridge//EN"
	uidSuffix = "isep-ics"

	// Compact basic format for UTC timestamps.
	utcLayout = "20060102T150405Z"
)

// Serializer renders event lists as an iCalendar document. Only the
// subset needed for single-occurrence timed events is produced; there
// is no recurrence, no alarms, no attendees.
type Serializer struct {
	// Timezone is the IANA name advertised in the calendar header.
	// Event timestamps themselves are rendered in UTC.
	Timezone string

	Name        string
	Description string

	// Now supplies the DTSTAMP clock; tests override it.
	Now func() time.Time
}

// Serialize renders the full VCALENDAR document. Line terminators are
// CRLF throughout, as the format requires.
func (s *Serializer) Serialize(events []schedule.Event) string {
	var b strings.Builder
	line := func(parts ...string) {
		for _, p := range parts {
			b.WriteString(p)
		}
		b.WriteString("\r\n")
	}

	line("BEGIN:VCALENDAR")
	line("VERSION:2.0")
	line("PRODID:", prodID)
	line("METHOD:PUBLISH")
	line("CALSCALE:GREGORIAN")
	line("X-WR-CALNAME:", escapeText(s.name()))
	line("X-WR-CALDESC:", escapeText(s.description()))
	line("X-WR-TIMEZONE:", s.Timezone)

	stamp := s.now().UTC().Format(utcLayout)
	for _, ev := range events {
		line("BEGIN:VEVENT")
		line("UID:", UID(ev))
		line("DTSTAMP:", stamp)
		line("DTSTART:", ev.Start.UTC().Format(utcLayout))
		line("DTEND:", ev.End.UTC().Format(utcLayout))
		line("SUMMARY:", escapeText(ev.Summary))
		if ev.Location != "" {
			line("LOCATION:", escapeText(ev.Location))
		}
		if ev.Description != "" {
			line("DESCRIPTION:", escapeText(ev.Description))
		}
		line("END:VEVENT")
	}
	line("END:VCALENDAR")
	return b.String()
}

// UID derives the stable identifier for an event from its start instant
// and a checksum of the summary, so re-fetching the same occurrence
// always produces the same UID and calendar clients do not duplicate it.
func UID(ev schedule.Event) string {
	h := fnv.New32a()
	h.Write([]byte(ev.Summary))
	return fmt.Sprintf("%d-%d@%s", ev.Start.Unix(), h.Sum32(), uidSuffix)
}

var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	",", `\,`,
	";", `\;`,
)

// escapeText escapes the characters the format reserves in text values.
func escapeText(s string) string { return textEscaper.Replace(s) }

func (s *Serializer) name() string {
	if s.Name != "" {
		return s.Name
	}
	return "ISEP Timetable"
}

func (s *Serializer) description() string {
	if s.Description != "" {
		return s.Description
	}
	return "Class schedule from the ISEP portal"
}

func (s *Serializer) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
