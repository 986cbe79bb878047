package report

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf/v2"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/studyhall/pkg/domain/model"
)

const (
	pageMargin = 15.0
	tableWidth = 180.0
	rowHeight  = 7.0
)

var (
	colorBlue  = [3]int{0, 102, 204}
	colorDark  = [3]int{33, 37, 41}
	colorGray  = [3]int{108, 117, 125}
	colorZebra = [3]int{248, 249, 250}
)

// column widths: rank, name, email, sessions, duration
var columns = []struct {
	title string
	width float64
	align string
}{
	{"#", 12, "C"},
	{"Name", 58, "L"},
	{"Email", 58, "L"},
	{"Sessions", 20, "C"},
	{"Duration", 32, "R"},
}

// RenderRanking renders a day's ranking view as an A4 PDF document
func RenderRanking(view model.RankingView) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, 20, pageMargin)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AliasNbPages("{nb}")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "", 9)
		setTextColor(pdf, colorGray)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	addTitle(pdf, view)
	addSummary(pdf, view.Statistics)

	if len(view.Rankings) == 0 {
		pdf.SetFont("Arial", "I", 11)
		setTextColor(pdf, colorGray)
		pdf.CellFormat(0, 10, "No attendance recorded.", "", 1, "L", false, 0, "")
	} else {
		addTableHeader(pdf)
		for i, r := range view.Rankings {
			// repeat the header on every new page
			if pdf.GetY()+rowHeight > 297-20 {
				pdf.AddPage()
				addTableHeader(pdf)
			}
			addRow(pdf, tr, i, r)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, goerr.Wrap(err, "failed to generate PDF", goerr.V("date", view.Date))
	}
	return buf.Bytes(), nil
}

func addTitle(pdf *gofpdf.Fpdf, view model.RankingView) {
	pdf.SetFont("Arial", "B", 20)
	setTextColor(pdf, colorBlue)
	pdf.CellFormat(0, 12, "Study Hall Ranking", "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 12)
	setTextColor(pdf, colorDark)
	pdf.CellFormat(0, 8, view.Date, "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	setTextColor(pdf, colorGray)
	computed := "-"
	if !view.ComputedAt.IsZero() {
		computed = view.ComputedAt.UTC().Format(time.RFC3339)
	}
	pdf.CellFormat(0, 6, "Computed at "+computed, "", 1, "L", false, 0, "")

	pdf.SetLineWidth(0.5)
	setDrawColor(pdf, colorBlue)
	pdf.Line(pageMargin, pdf.GetY()+2, pageMargin+tableWidth, pdf.GetY()+2)
	pdf.Ln(6)
}

func addSummary(pdf *gofpdf.Fpdf, s model.Statistics) {
	items := []struct{ label, value string }{
		{"Participants", strconv.Itoa(s.TotalParticipants)},
		{"Total", model.FormatDuration(s.TotalDuration)},
		{"Average", model.FormatDuration(s.AverageDuration)},
		{"Median", model.FormatDuration(s.MedianDuration)},
		{"Top", model.FormatDuration(s.TopDuration)},
	}

	width := tableWidth / float64(len(items))
	setFillColor(pdf, colorZebra)
	pdf.SetFont("Arial", "", 8)
	setTextColor(pdf, colorGray)
	for _, it := range items {
		pdf.CellFormat(width, 6, it.label, "", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "B", 11)
	setTextColor(pdf, colorDark)
	for _, it := range items {
		pdf.CellFormat(width, 8, it.value, "", 0, "C", true, 0, "")
	}
	pdf.Ln(12)
}

func addTableHeader(pdf *gofpdf.Fpdf) {
	setFillColor(pdf, colorBlue)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 9)
	for _, c := range columns {
		pdf.CellFormat(c.width, 8, c.title, "", 0, c.align, true, 0, "")
	}
	pdf.Ln(-1)
}

func addRow(pdf *gofpdf.Fpdf, tr func(string) string, i int, r model.RankingEntry) {
	setFillColor(pdf, colorZebra)
	fill := i%2 == 1
	setTextColor(pdf, colorDark)

	if r.Rank <= 3 {
		pdf.SetFont("Arial", "B", 9)
	} else {
		pdf.SetFont("Arial", "", 9)
	}

	values := []string{
		strconv.Itoa(r.Rank),
		tr(fit(pdf, r.FullName, columns[1].width)),
		tr(fit(pdf, r.Email, columns[2].width)),
		strconv.Itoa(r.SessionCount),
		r.TotalDurationFormatted,
	}
	for j, c := range columns {
		pdf.CellFormat(c.width, rowHeight, values[j], "", 0, c.align, fill, 0, "")
	}
	pdf.Ln(-1)
}

// fit shortens s with an ellipsis until it fits width
func fit(pdf *gofpdf.Fpdf, s string, width float64) string {
	limit := width - 2
	if pdf.GetStringWidth(s) <= limit {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > limit {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

func setTextColor(pdf *gofpdf.Fpdf, c [3]int) { pdf.SetTextColor(c[0], c[1], c[2]) }
func setDrawColor(pdf *gofpdf.Fpdf, c [3]int) { pdf.SetDrawColor(c[0], c[1], c[2]) }
func setFillColor(pdf *gofpdf.Fpdf, c [3]int) { pdf.SetFillColor(c[0], c[1], c[2]) }
