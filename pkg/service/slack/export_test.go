package slack

// TruncateToMaxBytes is exported for testing UTF-8 truncation
var TruncateToMaxBytes = truncateToMaxBytes

// Poster is exported for testing
type Poster = poster

// NewWithPoster builds a Notifier around a fake API
func NewWithPoster(api Poster, channelID string, opts ...Option) *Notifier {
	return newNotifier(api, channelID, opts...)
}

