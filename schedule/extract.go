package schedule

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	summaryLimit     = 200
	descriptionLimit = 2000

	// Fragments without a usable title still become events; the portal
	// emits genuinely title-less blocks for reserved slots.
	defaultSummary = "Class"
)

var (
	// One object literal carrying both date fields. The payload is
	// generated markup of known shape, never arbitrarily nested script,
	// so a non-recursive match is sufficient.
	eventBlockRE = regexp.MustCompile(`\{[^{}]*?['"]?start['"]?\s*:\s*new Date\([^)]*\)[\s\S]*?['"]?end['"]?\s*:\s*new Date\([^)]*\)[\s\S]*?\}`)

	// new Date(year, month, day, hour, minute[, second]); month is zero-based.
	jsDateRE = regexp.MustCompile(`new Date\(\s*(\d{4})\s*,\s*(\d{1,2})\s*,\s*(\d{1,2})\s*,\s*(\d{1,2})\s*,\s*(\d{1,2})\s*(?:,\s*(\d{1,2})\s*)?\)`)

	markupTagRE = regexp.MustCompile(`<[^>]*>`)

	roomCodeRE = regexp.MustCompile(`[A-Z]-\d{2,3}`)
	roomSalaRE = regexp.MustCompile(`Sala\s+[A-Za-z0-9\-]+`)
)

// Extractor turns one raw week payload into structured events. The
// payload is not well-formed data: it is a fragment of script source
// embedding an array of event object literals, with start/end written
// as date-constructor calls and title/body as escaped HTML strings.
type Extractor struct {
	Location *time.Location
	Logger   *zap.Logger
}

// Extract parses every event fragment found in blob. Malformed
// fragments are logged and skipped; one bad fragment never aborts the
// payload. An empty or unrecognizable blob yields an empty list.
func (x *Extractor) Extract(blob string) []Event {
	var events []Event
	if blob == "" {
		return events
	}
	for _, block := range eventBlockRE.FindAllString(blob, -1) {
		ev, ok := x.parseBlock(block)
		if !ok {
			continue
		}
		events = append(events, ev)
	}
	return events
}

func (x *Extractor) parseBlock(block string) (Event, bool) {
	dates := jsDateRE.FindAllStringSubmatch(block, -1)
	if len(dates) < 2 {
		x.Logger.Warn("skipping event fragment without start/end dates",
			zap.Int("dates_found", len(dates)))
		return Event{}, false
	}
	start := x.constructorTime(dates[0])
	end := x.constructorTime(dates[1])
	if !start.Before(end) {
		x.Logger.Warn("skipping event fragment with non-positive duration",
			zap.Time("start", start), zap.Time("end", end))
		return Event{}, false
	}

	title := stripMarkup(unescapeScript(quotedField(block, "title")))
	body := stripMarkup(unescapeScript(quotedField(block, "body")))

	summary := truncate(title, summaryLimit)
	if summary == "" {
		summary = defaultSummary
	}

	return Event{
		Start:       start,
		End:         end,
		Summary:     summary,
		Location:    roomLocation(title),
		Description: truncate(body, descriptionLimit),
	}, true
}

// constructorTime converts captured date-constructor arguments into a
// local time. Constructor months are zero-based: month 0 is January.
func (x *Extractor) constructorTime(m []string) time.Time {
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])
	second := 0
	if m[6] != "" {
		second, _ = strconv.Atoi(m[6])
	}
	return time.Date(year, time.Month(month+1), day, hour, minute, second, 0, x.Location)
}

// quotedField returns the string literal assigned to the named field
// inside block: the field name, a colon, an opening ' or ", then
// everything up to the nearest unescaped closing quote of the same
// kind, newlines included. Returns "" when the field is absent or holds
// no string literal. Escape sequences are kept raw for unescapeScript.
func quotedField(block, name string) string {
	for from := 0; ; {
		i := strings.Index(block[from:], name)
		if i < 0 {
			return ""
		}
		j := from + i + len(name)
		from = j

		// A quote closing the field name itself, then the colon.
		if j < len(block) && (block[j] == '\'' || block[j] == '"') {
			j++
		}
		for j < len(block) && (block[j] == ' ' || block[j] == '\t') {
			j++
		}
		if j >= len(block) || block[j] != ':' {
			continue
		}
		j++
		for j < len(block) && (block[j] == ' ' || block[j] == '\t' || block[j] == '\n' || block[j] == '\r') {
			j++
		}
		if j >= len(block) || (block[j] != '\'' && block[j] != '"') {
			continue
		}
		quote := block[j]
		j++

		var sb strings.Builder
		for k := j; k < len(block); k++ {
			ch := block[k]
			switch {
			case ch == '\\' && k+1 < len(block):
				sb.WriteByte(ch)
				k++
				sb.WriteByte(block[k])
			case ch == quote:
				return sb.String()
			default:
				sb.WriteByte(ch)
			}
		}
		return "" // unterminated literal
	}
}

var scriptUnescaper = strings.NewReplacer(
	`\'`, "'",
	`\"`, `"`,
	`\n`, " ",
	`\r`, " ",
	`\t`, " ",
)

func unescapeScript(s string) string { return scriptUnescaper.Replace(s) }

// stripMarkup drops tags and collapses whitespace runs to single spaces.
func stripMarkup(s string) string {
	return strings.Join(strings.Fields(markupTagRE.ReplaceAllString(s, " ")), " ")
}

// roomLocation pulls a room token out of the stripped title. Compact
// codes like "B-203" win over the longer "Sala ..." form so that
// "Sala B-203" yields just the code.
func roomLocation(title string) string {
	if code := roomCodeRE.FindString(title); code != "" {
		return code
	}
	return roomSalaRE.FindString(title)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
