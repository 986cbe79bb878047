package cli

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/studyhall/pkg/cli/config"
	"github.com/secmon-lab/studyhall/pkg/domain/model"
	domainConfig "github.com/secmon-lab/studyhall/pkg/domain/model/config"
	"github.com/secmon-lab/studyhall/pkg/service/extract"
	"github.com/secmon-lab/studyhall/pkg/service/report"
	"github.com/secmon-lab/studyhall/pkg/usecase"
	"github.com/secmon-lab/studyhall/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdRank() *cli.Command {
	var filePath string
	var dateStr string
	var top int
	var public bool
	var pdfPath string
	var rankingCfg config.Ranking

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "file",
			Aliases:     []string{"f"},
			Usage:       "Attendance export to rank (xlsx or pdf)",
			Required:    true,
			Destination: &filePath,
		},
		&cli.StringFlag{
			Name:        "date",
			Aliases:     []string{"d"},
			Usage:       "Date of the export (YYYY-MM-DD), defaults to today",
			Destination: &dateStr,
		},
		&cli.IntFlag{
			Name:        "top",
			Aliases:     []string{"n"},
			Usage:       "Number of rows to print (0 prints the default limit)",
			Destination: &top,
		},
		&cli.BoolFlag{
			Name:        "public",
			Usage:       "Print the public view instead of the admin view",
			Destination: &public,
		},
		&cli.StringFlag{
			Name:        "pdf",
			Usage:       "Also write the ranking as a PDF to this path",
			Destination: &pdfPath,
		},
	}
	flags = append(flags, rankingCfg.Flags()...)

	return &cli.Command{
		Name:    "rank",
		Aliases: []string{"r"},
		Usage:   "Rank a local attendance export without storing anything",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := rankingCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load ranking configuration")
			}

			date := model.TruncateDay(time.Now())
			if dateStr != "" {
				if date, err = model.ParseDate(dateStr); err != nil {
					return goerr.Wrap(err, "invalid --date", goerr.V("date", dateStr))
				}
			}

			view, err := rankFile(ctx, filePath, date, top, public, cfg)
			if err != nil {
				return err
			}

			printRanking(c.Root().Writer, view)

			if pdfPath != "" {
				data, err := report.RenderRanking(view)
				if err != nil {
					return err
				}
				if err := os.WriteFile(pdfPath, data, 0600); err != nil {
					return goerr.Wrap(err, "failed to write PDF", goerr.V("path", pdfPath))
				}
				logging.Default().Info("PDF written", "path", pdfPath)
			}
			return nil
		},
	}
}

// rankFile runs extraction, aggregation and ranking on a local file
func rankFile(ctx context.Context, path string, date time.Time, top int, public bool, cfg *domainConfig.RankingConfig) (model.RankingView, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		return model.RankingView{}, goerr.Wrap(err, "failed to read file", goerr.V("path", path))
	}

	fileType, ok := extract.DetectFileType(data, mime.TypeByExtension(strings.ToLower(filepath.Ext(path))))
	if !ok {
		return model.RankingView{}, goerr.Wrap(usecase.ErrUnsupportedFile, "file is neither pdf nor xlsx", goerr.V("path", path))
	}

	entries, err := extract.Extract(ctx, data, fileType, date)
	if err != nil {
		return model.RankingView{}, err
	}
	if len(entries) == 0 {
		return model.RankingView{}, goerr.Wrap(usecase.ErrNoValidEntries, "file contains no usable rows", goerr.V("path", path))
	}

	ranking := usecase.ComputeRanking(date, entries, cfg, time.Now())
	logging.Default().Info("file ranked",
		"path", path,
		"file_type", fileType,
		"entries", len(entries),
		"participants", ranking.TotalParticipants,
	)

	if top <= 0 {
		top = cfg.DefaultLimit
	}
	return model.BuildView(ranking, !public, cfg.MaxDisplayableDuration, model.FilterOptions{TopN: top}), nil
}

var (
	podiumColors = map[int]*color.Color{
		1: color.New(color.FgYellow, color.Bold),
		2: color.New(color.FgWhite, color.Bold),
		3: color.New(color.FgRed),
	}
	headerColor = color.New(color.FgCyan, color.Bold)
	mutedColor  = color.New(color.FgHiBlack)
)

func printRanking(w io.Writer, view model.RankingView) {
	_, _ = headerColor.Fprintf(w, "Ranking for %s (%d participants)\n", view.Date, view.TotalParticipants)
	if len(view.Rankings) == 0 {
		_, _ = mutedColor.Fprintln(w, "  no attendance")
		return
	}

	_, _ = fmt.Fprintf(w, "%4s  %-32s  %-32s  %8s  %s\n", "#", "Name", "Email", "Sessions", "Duration")
	for _, r := range view.Rankings {
		line := fmt.Sprintf("%4d  %-32s  %-32s  %8d  %s", r.Rank, clip(r.FullName, 32), clip(r.Email, 32), r.SessionCount, r.TotalDurationFormatted)
		if c, ok := podiumColors[r.Rank]; ok {
			_, _ = c.Fprintln(w, line)
		} else {
			_, _ = fmt.Fprintln(w, line)
		}
	}

	s := view.Statistics
	_, _ = mutedColor.Fprintf(w, "total %s  average %s  median %s  top %s\n",
		model.FormatDuration(s.TotalDuration),
		model.FormatDuration(s.AverageDuration),
		model.FormatDuration(s.MedianDuration),
		model.FormatDuration(s.TopDuration),
	)
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
