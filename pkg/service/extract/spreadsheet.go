package extract

import (
	"bytes"
	"context"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/studyhall/pkg/domain/model"
	"github.com/secmon-lab/studyhall/pkg/utils/safe"
	"github.com/xuri/excelize/v2"
)

type column int

const (
	colFirstName column = iota
	colLastName
	colEmail
	colDuration
	colTimeJoined
	colTimeExited
	numColumns
)

// headerAliases lists accepted header spellings per column, compared after normalizeHeader
var headerAliases = [numColumns][]string{
	colFirstName:  {"firstname", "first", "givenname"},
	colLastName:   {"lastname", "last", "surname", "familyname"},
	colEmail:      {"email", "emailaddress", "mail"},
	colDuration:   {"duration", "totalduration", "timeinsession"},
	colTimeJoined: {"timejoined", "joined", "jointime", "firstjoined"},
	colTimeExited: {"timeexited", "exited", "exittime", "timeleft", "leavetime", "lastleft"},
}

// normalizeHeader folds case and drops separators so "First name", "FirstName"
// and "first_name" compare equal
func normalizeHeader(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// headerIndex maps each column to its cell index, -1 when absent
type headerIndex [numColumns]int

func resolveHeader(row []string) (headerIndex, bool) {
	var idx headerIndex
	for c := range idx {
		idx[c] = -1
	}

	normalized := make(map[string]int, len(row))
	for i, cell := range row {
		key := normalizeHeader(cell)
		if _, dup := normalized[key]; key != "" && !dup {
			normalized[key] = i
		}
	}

	for c, aliases := range headerAliases {
		for _, alias := range aliases {
			if i, ok := normalized[alias]; ok {
				idx[c] = i
				break
			}
		}
	}

	return idx, idx[colFirstName] >= 0 && idx[colDuration] >= 0
}

func (h headerIndex) cell(row []string, c column) string {
	i := h[c]
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Spreadsheet extracts entries from the first sheet of an xlsx workbook
func Spreadsheet(ctx context.Context, data []byte, ref time.Time) ([]model.AttendanceEntry, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, goerr.Wrap(ErrParseFailed, "failed to open spreadsheet", goerr.V("cause", err.Error()))
	}
	defer safe.Close(ctx, f)

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, goerr.Wrap(ErrParseFailed, "spreadsheet has no sheets")
	}

	// time-typed cells come back as serial numbers instead of display strings
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, goerr.Wrap(ErrParseFailed, "failed to read rows",
			goerr.V("sheet", sheets[0]),
			goerr.V("cause", err.Error()),
		)
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	return extractRows(rows, ref, date1904), nil
}

// ExtractRows converts a header-row table into entries. The header is the first row
// naming both a first-name and a duration column, so preamble rows are skipped.
// A data row is dropped when the first name or duration is missing, the duration is
// not positive, or either time cell does not parse.
func ExtractRows(rows [][]string, ref time.Time) []model.AttendanceEntry {
	return extractRows(rows, ref, false)
}

func extractRows(rows [][]string, ref time.Time, date1904 bool) []model.AttendanceEntry {
	start := -1
	var header headerIndex
	for i, row := range rows {
		if h, ok := resolveHeader(row); ok {
			header, start = h, i
			break
		}
	}
	if start < 0 {
		return nil
	}

	entries := make([]model.AttendanceEntry, 0, len(rows)-start-1)
	for _, row := range rows[start+1:] {
		if e, ok := rowToEntry(header, row, ref, date1904); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

func rowToEntry(h headerIndex, row []string, ref time.Time, date1904 bool) (model.AttendanceEntry, bool) {
	firstName := h.cell(row, colFirstName)
	durationText := h.cell(row, colDuration)
	if firstName == "" || durationText == "" {
		return model.AttendanceEntry{}, false
	}

	duration := model.ParseDuration(durationText)
	if duration <= 0 {
		return model.AttendanceEntry{}, false
	}

	joined, ok := parseTimeCell(h.cell(row, colTimeJoined), ref, date1904)
	if !ok {
		return model.AttendanceEntry{}, false
	}
	exited, ok := parseTimeCell(h.cell(row, colTimeExited), ref, date1904)
	if !ok {
		return model.AttendanceEntry{}, false
	}

	return model.AttendanceEntry{
		FirstName:  firstName,
		LastName:   h.cell(row, colLastName),
		Email:      strings.ToLower(h.cell(row, colEmail)),
		Duration:   duration,
		TimeJoined: joined,
		TimeExited: exited,
	}, true
}

// parseTimeCell reads a time cell that is either an Excel serial number or text.
// A serial below 1 carries only a time of day and is placed on the day of ref.
func parseTimeCell(text string, ref time.Time, date1904 bool) (time.Time, bool) {
	serial, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return model.ParseTimestamp(text, ref)
	}
	if serial < 0 || math.IsNaN(serial) || math.IsInf(serial, 0) {
		return time.Time{}, false
	}

	t, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return time.Time{}, false
	}
	t = t.Round(time.Second)

	if serial < 1 {
		y, mo, d := ref.Date()
		return time.Date(y, mo, d, t.Hour(), t.Minute(), t.Second(), 0, ref.Location()), true
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, ref.Location()), true
}
