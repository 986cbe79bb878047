package slack

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/studyhall/pkg/domain/interfaces"
	"github.com/secmon-lab/studyhall/pkg/domain/model"
	"github.com/secmon-lab/studyhall/pkg/utils/logging"
	"github.com/slack-go/slack"
)

const (
	// DefaultTopN is the number of attendees listed in a ranking message
	DefaultTopN = 10
)

// poster is the subset of the Slack API used by Notifier
type poster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Notifier posts the public view of a freshly computed ranking to a channel
type Notifier struct {
	api            poster
	channelID      string
	topN           int
	maxDisplayable int
	dashboardURL   string
}

var _ interfaces.Notifier = &Notifier{}

// Option is a functional option for Notifier configuration
type Option func(*Notifier)

// WithTopN sets how many attendees are listed
func WithTopN(n int) Option {
	return func(c *Notifier) {
		c.topN = n
	}
}

// WithMaxDisplayableDuration sets the public-view ceiling applied before posting
func WithMaxDisplayableDuration(minutes int) Option {
	return func(c *Notifier) {
		c.maxDisplayable = minutes
	}
}

// WithDashboardURL adds a link button to the ranking page
func WithDashboardURL(url string) Option {
	return func(c *Notifier) {
		c.dashboardURL = url
	}
}

// New creates a Notifier with the provided bot token and destination channel
func New(token, channelID string, opts ...Option) (*Notifier, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}
	if channelID == "" {
		return nil, goerr.New("Slack channel is required")
	}

	return newNotifier(slack.New(token), channelID, opts...), nil
}

func newNotifier(api poster, channelID string, opts ...Option) *Notifier {
	c := &Notifier{
		api:       api,
		channelID: channelID,
		topN:      DefaultTopN,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NotifyRanking posts the top attendees of the day
func (c *Notifier) NotifyRanking(ctx context.Context, ranking *model.DailyRanking) error {
	blocks, text := BuildRankingBlocks(ranking, c.topN, c.maxDisplayable, c.dashboardURL)

	_, ts, err := c.api.PostMessageContext(ctx, c.channelID,
		slack.MsgOptionBlocks(blocks...),
		slack.MsgOptionText(text, false),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to post ranking message",
			goerr.V("channel_id", c.channelID),
			goerr.V("date", model.DateKey(ranking.Date)),
		)
	}

	logging.From(ctx).Info("ranking posted to Slack",
		"channel_id", c.channelID,
		"date", model.DateKey(ranking.Date),
		"ts", ts,
	)
	return nil
}
