package slack

import (
	"fmt"
	"strings"

	"github.com/secmon-lab/studyhall/pkg/domain/model"
	"github.com/slack-go/slack"
)

// maxSectionTextBytes is Slack's limit on section text
const maxSectionTextBytes = 3000

var medals = map[int]string{1: ":first_place_medal:", 2: ":second_place_medal:", 3: ":third_place_medal:"}

// BuildRankingBlocks renders the public view of a ranking as Block Kit blocks plus
// the plain-text fallback used in notifications. Emails are never included.
func BuildRankingBlocks(ranking *model.DailyRanking, topN, maxDisplayable int, dashboardURL string) ([]slack.Block, string) {
	view := model.BuildView(ranking, false, maxDisplayable, model.FilterOptions{TopN: topN})
	title := fmt.Sprintf("Study ranking for %s", view.Date)
	fallback := fmt.Sprintf("%s: %d participants", title, view.TotalParticipants)

	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, title, true, false)),
	}

	if len(view.Rankings) == 0 {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, "_No attendance recorded._", false, false), nil, nil))
		return blocks, fallback
	}

	var lines []string
	for _, r := range view.Rankings {
		badge, ok := medals[r.Rank]
		if !ok {
			badge = fmt.Sprintf("%d.", r.Rank)
		}
		lines = append(lines, fmt.Sprintf("%s *%s*  %s", badge, escape(r.FullName), r.TotalDurationFormatted))
	}
	blocks = append(blocks, slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, truncateToMaxBytes(strings.Join(lines, "\n"), maxSectionTextBytes), false, false),
		nil, nil,
	))

	stats := view.Statistics
	blocks = append(blocks, slack.NewContextBlock("",
		slack.NewTextBlockObject(slack.MarkdownType,
			fmt.Sprintf("%d participants · total %s · average %s",
				view.TotalParticipants,
				model.FormatDuration(stats.TotalDuration),
				model.FormatDuration(stats.AverageDuration),
			), false, false),
	))

	if dashboardURL != "" {
		blocks = append(blocks, slack.NewActionBlock("",
			slack.NewButtonBlockElement("open_ranking", view.Date,
				slack.NewTextBlockObject(slack.PlainTextType, "Open ranking", false, false),
			).WithURL(strings.TrimRight(dashboardURL, "/")+"/rankings/"+view.Date),
		))
	}

	return blocks, fallback
}

// escape neutralizes Slack control characters in user-supplied names
func escape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "*", "", "_", " ", "~", "")
	return r.Replace(s)
}

// truncateToMaxBytes cuts s to at most maxBytes without splitting a UTF-8 sequence
func truncateToMaxBytes(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	cut := 0
	for i := range s {
		if i > maxBytes {
			break
		}
		cut = i
	}
	return s[:cut]
}
