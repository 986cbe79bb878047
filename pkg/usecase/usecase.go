package usecase

import (
	"time"

	"github.com/secmon-lab/studyhall/pkg/domain/interfaces"
	"github.com/secmon-lab/studyhall/pkg/domain/model/config"
)

type UseCases struct {
	repo          interfaces.Repository
	rankingConfig *config.RankingConfig
	archive       interfaces.FileArchive
	notifier      interfaces.Notifier
	clock         func() time.Time

	Attendance *AttendanceUseCase
	Ranking    *RankingUseCase
	Auth       AuthUseCaseInterface
}

type Option func(*UseCases)

func WithRankingConfig(cfg *config.RankingConfig) Option {
	return func(uc *UseCases) {
		uc.rankingConfig = cfg
	}
}

// WithArchive keeps the raw bytes of every upload
func WithArchive(archive interfaces.FileArchive) Option {
	return func(uc *UseCases) {
		uc.archive = archive
	}
}

// WithNotifier announces every processed upload
func WithNotifier(notifier interfaces.Notifier) Option {
	return func(uc *UseCases) {
		uc.notifier = notifier
	}
}

func WithAuth(auth AuthUseCaseInterface) Option {
	return func(uc *UseCases) {
		uc.Auth = auth
	}
}

// WithClock replaces time.Now, for tests
func WithClock(clock func() time.Time) Option {
	return func(uc *UseCases) {
		uc.clock = clock
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:  repo,
		clock: time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	if uc.rankingConfig == nil {
		uc.rankingConfig = config.DefaultRankingConfig()
	}
	if uc.Auth == nil {
		uc.Auth = NewAnonymousUseCase()
	}

	uc.Ranking = NewRankingUseCase(repo, uc.rankingConfig)
	uc.Attendance = NewAttendanceUseCase(repo, uc.rankingConfig,
		withArchive(uc.archive),
		withNotifier(uc.notifier),
		withClock(uc.clock),
	)

	return uc
}

// RankingConfig returns the configuration shared by all use cases
func (uc *UseCases) RankingConfig() *config.RankingConfig {
	return uc.rankingConfig
}

const maxPageSize = 1000

// PageSize is the number of items a list call returns for the requested limit
func (uc *UseCases) PageSize(limit int) int {
	_, size := pageWindow(1, limit, uc.rankingConfig.DefaultLimit)
	return size
}

// pageWindow turns a 1-based page and a page size into an offset and limit
func pageWindow(page, limit, defaultLimit int) (offset, size int) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit, limit
}
