package interfaces

import (
	"context"

	"github.com/secmon-lab/studyhall/pkg/domain/model"
)

// Notifier announces a freshly computed ranking to an outside audience
type Notifier interface {
	NotifyRanking(ctx context.Context, ranking *model.DailyRanking) error
}
