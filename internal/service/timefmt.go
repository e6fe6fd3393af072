package service

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cleberrangel/delivery-board/internal/model"
)

const (
	// NoStartTime texto quando não há início planejado
	NoStartTime = "No start time"
	// InvalidDate texto quando o início não é uma data válida
	InvalidDate = "Invalid date"
	// NoDeadline texto quando falta início ou entrega
	NoDeadline = "No deadline"
	// InvalidDeadline texto quando início ou entrega são inválidos
	InvalidDeadline = "Invalid deadline"

	// DefaultDateLayout equivale ao toLocaleString en-US
	DefaultDateLayout = "1/2/2006, 3:04:05 PM"

	msPerDay  = int64(24 * time.Hour / time.Millisecond)
	msPerHour = int64(time.Hour / time.Millisecond)

	// maxEpochMs limite de instantes representáveis (±100.000.000 dias)
	maxEpochMs = 8.64e15
)

// Formatter formata timestamps do feed e calcula prazos
type Formatter struct {
	loc    *time.Location
	layout string
}

// NewFormatter cria um formatter; loc nil usa time.Local e layout vazio usa DefaultDateLayout
func NewFormatter(loc *time.Location, layout string) *Formatter {
	if loc == nil {
		loc = time.Local
	}
	if layout == "" {
		layout = DefaultDateLayout
	}
	return &Formatter{loc: loc, layout: layout}
}

// FormatTimestamp formata o início planejado
func (f *Formatter) FormatTimestamp(ts model.Timestamp) string {
	if !ts.Present() {
		return NoStartTime
	}
	ms, ok := f.Instant(ts.Unwrap())
	if !ok {
		return InvalidDate
	}
	return time.UnixMilli(ms).In(f.loc).Format(f.layout)
}

// CalculateDeadline devolve "<dias> days <horas> hrs left" entre o início e a entrega planejados
func (f *Formatter) CalculateDeadline(delivery, start model.Timestamp) string {
	if !delivery.Present() || !start.Present() {
		return NoDeadline
	}

	deliveryMs, okDelivery := f.Instant(delivery.Unwrap())
	startMs, okStart := f.Instant(start.Unwrap())
	if !okDelivery || !okStart {
		return InvalidDeadline
	}

	diff := deliveryMs - startMs
	days := floorDiv(diff, msPerDay)
	// resto com o sinal do dividendo, depois piso
	hours := floorDiv(diff%msPerDay, msPerHour)

	return fmt.Sprintf("%d days %d hrs left", days, hours)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Instant converte um valor JSON em milissegundos desde a época
func (f *Formatter) Instant(raw json.RawMessage) (int64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}

	switch val := v.(type) {
	case nil:
		return 0, true
	case float64:
		return clipTime(val)
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	case map[string]interface{}:
		return 0, false
	default:
		return f.parseString(model.Text(raw))
	}
}

func clipTime(ms float64) (int64, bool) {
	if math.IsNaN(ms) || math.IsInf(ms, 0) || math.Abs(ms) > maxEpochMs {
		return 0, false
	}
	return int64(math.Trunc(ms)), true
}

var (
	isoDate = regexp.MustCompile(`(?i)^([+-]\d{6}|\d{4})(?:-(\d{2})(?:-(\d{2}))?)?(?:\s+(?:UTC|GMT))?$`)
	isoDateTime = regexp.MustCompile(
		`(?i)^([+-]\d{6}|\d{4})-(\d{2})-(\d{2})[T ](\d{2}):(\d{2})(?::(\d{2})(?:[.,](\d+))?)?\s*(Z|UTC|GMT|[+-]\d{2}:?\d{2})?$`)
	parenthetical = regexp.MustCompile(`\s*\([^)]*\)\s*$`)
	utcSuffix     = regexp.MustCompile(`(?i)\s+(?:UTC|GMT)$`)
)

// layouts sem fuso explícito são interpretados no fuso configurado
var localLayouts = []string{
	"1/2/2006, 3:04:05 PM",
	"1/2/2006, 3:04 PM",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	"Jan 2, 2006 15:04:05",
	"Jan 2, 2006",
	"January 2, 2006 15:04:05",
	"January 2, 2006",
	"Mon Jan 2 2006 15:04:05",
	"Mon Jan 2 2006",
	"Jan 2 2006 15:04:05",
	"Jan 2 2006 15:04",
	"Jan 2 2006",
	"January 2 2006",
	"2 Jan 2006 15:04:05",
	"2 Jan 2006",
	"2 January 2006",
	"2006/1/2 15:04:05",
	"2006/1/2 15:04",
	"2006/1/2",
	"2006-1-2 15:04:05",
	"2006-1-2 15:04",
	"2006-1-2",
}

var zonedLayouts = []string{
	time.RFC1123,
	time.RFC1123Z,
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon Jan 2 2006 15:04:05 GMT-0700",
	"Mon Jan 2 2006 15:04:05 MST",
	time.RFC3339Nano,
}

func (f *Formatter) parseString(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	if ms, ok, matched := f.parseISO(s); matched {
		return ms, ok
	}

	s = parenthetical.ReplaceAllString(s, "")

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return clipTime(float64(t.UnixMilli()))
		}
	}
	// sufixo UTC/GMT fixa o fuso dos layouts locais
	loc := f.loc
	if trimmed := utcSuffix.ReplaceAllString(s, ""); trimmed != s {
		s, loc = trimmed, time.UTC
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return clipTime(float64(t.UnixMilli()))
		}
	}
	return 0, false
}

// parseISO trata o formato de data ISO. matched indica se a string tem a forma ISO,
// mesmo que os campos estejam fora do intervalo.
func (f *Formatter) parseISO(s string) (ms int64, ok bool, matched bool) {
	if m := isoDate.FindStringSubmatch(s); m != nil {
		year, ok := parseYear(m[1])
		if !ok {
			return 0, false, true
		}
		month, day := 1, 1
		if m[2] != "" {
			month, _ = strconv.Atoi(m[2])
		}
		if m[3] != "" {
			day, _ = strconv.Atoi(m[3])
		}
		if month < 1 || month > 12 || day < 1 || day > 31 {
			return 0, false, true
		}
		t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		ms, ok := clipTime(float64(t.UnixMilli()))
		return ms, ok, true
	}

	m := isoDateTime.FindStringSubmatch(s)
	if m == nil {
		return 0, false, false
	}

	year, ok := parseYear(m[1])
	if !ok {
		return 0, false, true
	}
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])
	second := 0
	if m[6] != "" {
		second, _ = strconv.Atoi(m[6])
	}
	millis := 0
	if m[7] != "" {
		frac := (m[7] + "00")[:3]
		millis, _ = strconv.Atoi(frac)
	}

	if month < 1 || month > 12 || day < 1 || day > 31 || minute > 59 || second > 59 {
		return 0, false, true
	}
	if hour > 24 || (hour == 24 && (minute != 0 || second != 0 || millis != 0)) {
		return 0, false, true
	}

	loc := f.loc
	if zone := m[8]; zone != "" {
		offset, ok := parseOffset(zone)
		if !ok {
			return 0, false, true
		}
		loc = time.FixedZone("", offset)
	}

	t := time.Date(year, time.Month(month), day, hour, minute, second, millis*int(time.Millisecond), loc)
	ms, ok = clipTime(float64(t.UnixMilli()))
	return ms, ok, true
}

func parseYear(s string) (int, bool) {
	year, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	// -000000 não é um ano válido
	if s == "-000000" {
		return 0, false
	}
	return year, true
}

func parseOffset(zone string) (int, bool) {
	switch strings.ToUpper(zone) {
	case "Z", "UTC", "GMT":
		return 0, true
	}
	sign := 1
	if zone[0] == '-' {
		sign = -1
	}
	digits := strings.ReplaceAll(zone[1:], ":", "")
	if len(digits) != 4 {
		return 0, false
	}
	hh, _ := strconv.Atoi(digits[:2])
	mm, _ := strconv.Atoi(digits[2:])
	if hh > 23 || mm > 59 {
		return 0, false
	}
	return sign * (hh*3600 + mm*60), true
}
