package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/studyhall/pkg/domain/interfaces"
	"github.com/secmon-lab/studyhall/pkg/service/slack"
	"github.com/urfave/cli/v3"
)

type Slack struct {
	botToken     string `masq:"secret"`
	channelID    string
	topN         int
	dashboardURL string
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token (for ranking notifications)",
			Category:    "Slack",
			Destination: &x.botToken,
			Sources:     cli.EnvVars("STUDYHALL_SLACK_BOT_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-channel",
			Usage:       "Channel ID receiving a summary of every processed upload",
			Category:    "Slack",
			Destination: &x.channelID,
			Sources:     cli.EnvVars("STUDYHALL_SLACK_CHANNEL"),
		},
		&cli.IntFlag{
			Name:        "slack-top-n",
			Usage:       "Number of attendees listed in the summary",
			Category:    "Slack",
			Value:       slack.DefaultTopN,
			Destination: &x.topN,
			Sources:     cli.EnvVars("STUDYHALL_SLACK_TOP_N"),
		},
		&cli.StringFlag{
			Name:        "dashboard-url",
			Usage:       "Base URL of the ranking page linked from notifications",
			Category:    "Slack",
			Destination: &x.dashboardURL,
			Sources:     cli.EnvVars("STUDYHALL_DASHBOARD_URL"),
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot-token.len", len(x.botToken)),
		slog.String("channel", x.channelID),
		slog.Int("top-n", x.topN),
	)
}

// NewSlackForTest creates a Slack config for testing purposes
func NewSlackForTest(botToken, channelID string, topN int) *Slack {
	return &Slack{botToken: botToken, channelID: channelID, topN: topN}
}

// IsConfigured reports whether notifications are enabled
func (x *Slack) IsConfigured() bool {
	return x.botToken != "" && x.channelID != ""
}

// Configure returns the ranking notifier, or nil when Slack is not configured.
// Setting only one of token and channel is an error.
func (x *Slack) Configure(maxDisplayableDuration int) (interfaces.Notifier, error) {
	if x.botToken == "" && x.channelID == "" {
		return nil, nil
	}
	if !x.IsConfigured() {
		return nil, goerr.Wrap(ErrInvalidConfig, "--slack-bot-token and --slack-channel must be set together")
	}

	opts := []slack.Option{slack.WithMaxDisplayableDuration(maxDisplayableDuration)}
	if x.topN > 0 {
		opts = append(opts, slack.WithTopN(x.topN))
	}
	if x.dashboardURL != "" {
		opts = append(opts, slack.WithDashboardURL(x.dashboardURL))
	}

	notifier, err := slack.New(x.botToken, x.channelID, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize slack notifier")
	}
	return notifier, nil
}
