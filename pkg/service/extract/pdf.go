package extract

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/studyhall/pkg/domain/model"
	"github.com/secmon-lab/studyhall/pkg/utils/logging"
)

var (
	durationNumberPattern = regexp.MustCompile(`^\d+$`)
	durationUnitPattern   = regexp.MustCompile(`(?i)^(hr|min|sec)$`)
	meridiemPattern       = regexp.MustCompile(`(?i)^[ap]m$`)
)

// maxDurationTokens bounds the duration phrase, e.g. "1 hr 30 min"
const maxDurationTokens = 4

// PDF extracts entries from a PDF attendance report. Text runs of each visual row
// are joined with spaces and the resulting lines go through ParseTextLines.
func PDF(ctx context.Context, data []byte, ref time.Time) (entries []model.AttendanceEntry, err error) {
	// the reader panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			entries = nil
			err = goerr.Wrap(ErrParseFailed, "pdf reader panicked", goerr.V("panic", fmt.Sprint(r)))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, goerr.Wrap(ErrParseFailed, "failed to open pdf", goerr.V("cause", err.Error()))
	}

	var lines []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, goerr.Wrap(ErrParseFailed, "failed to read pdf text",
				goerr.V("page", i),
				goerr.V("cause", err.Error()),
			)
		}

		for _, row := range rows {
			parts := make([]string, 0, len(row.Content))
			for _, text := range row.Content {
				parts = append(parts, text.S)
			}
			lines = append(lines, strings.Join(parts, " "))
		}
	}

	logging.From(ctx).Debug("read pdf text", "pages", reader.NumPage(), "lines", len(lines))
	return ParseTextLines(lines, ref), nil
}

// ParseTextLines extracts entries from flattened report lines of the form
//
//	<first name...> <last name> <email> <duration...> <joined> <exited>
//
// Lines without an email after at least two name tokens, or without a positive
// duration, are skipped. Unparseable times fall back to ref and a missing exit
// time reuses the join time.
func ParseTextLines(lines []string, ref time.Time) []model.AttendanceEntry {
	var entries []model.AttendanceEntry
	for _, line := range lines {
		if e, ok := parseTextLine(line, ref); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

func parseTextLine(line string, ref time.Time) (model.AttendanceEntry, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.Contains(line, "First name") || strings.Contains(line, "Email") {
		return model.AttendanceEntry{}, false
	}

	tokens := strings.Fields(line)
	if len(tokens) < 4 {
		return model.AttendanceEntry{}, false
	}

	emailIdx := -1
	for i, tok := range tokens {
		if strings.Contains(tok, "@") {
			emailIdx = i
			break
		}
	}
	if emailIdx < 2 {
		return model.AttendanceEntry{}, false
	}

	pos := emailIdx + 1
	var phrase []string
	for pos < len(tokens) && len(phrase) < maxDurationTokens {
		tok := tokens[pos]
		if !durationNumberPattern.MatchString(tok) && !durationUnitPattern.MatchString(tok) {
			break
		}
		phrase = append(phrase, tok)
		pos++
	}

	duration := model.ParseDuration(strings.Join(phrase, " "))
	if duration <= 0 {
		return model.AttendanceEntry{}, false
	}

	joinedText, pos := clockAt(tokens, pos)
	exitedText, _ := clockAt(tokens, pos)

	joined := model.ParseClockTime(joinedText, ref)
	exited := joined
	if exitedText != "" {
		exited = model.ParseClockTime(exitedText, ref)
	}

	return model.AttendanceEntry{
		FirstName:  strings.Join(tokens[:emailIdx-1], " "),
		LastName:   tokens[emailIdx-1],
		Email:      strings.ToLower(strings.TrimSpace(tokens[emailIdx])),
		Duration:   duration,
		TimeJoined: joined,
		TimeExited: exited,
	}, true
}

// clockAt returns the time text starting at pos and the position after it. A time is
// a token followed by its AM/PM marker, or a single token in 24-hour form.
func clockAt(tokens []string, pos int) (string, int) {
	if pos >= len(tokens) {
		return "", pos
	}
	if pos+1 < len(tokens) && meridiemPattern.MatchString(tokens[pos+1]) {
		return tokens[pos] + " " + tokens[pos+1], pos + 2
	}
	return tokens[pos], pos + 1
}
