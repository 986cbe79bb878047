package config

const (
	DefaultAdminName              = "Study Space Admin"
	DefaultMaxTopRanks            = 100
	DefaultLimit                  = 100
	DefaultMaxDisplayableDuration = 720
	DefaultPreviewSize            = 20
)

// RankingConfig holds the constants the ranking engine depends on
type RankingConfig struct {
	// ExcludedNames are admin/system accounts that never appear in rankings
	ExcludedNames []string
	// MaxTopRanks caps the number of stored entries per day
	MaxTopRanks int
	// DefaultLimit is the page size of list responses
	DefaultLimit int
	// MaxDisplayableDuration is the public-view ceiling in minutes
	MaxDisplayableDuration int
}

// DefaultRankingConfig returns the configuration used when nothing is supplied
func DefaultRankingConfig() *RankingConfig {
	return &RankingConfig{
		ExcludedNames:          []string{DefaultAdminName},
		MaxTopRanks:            DefaultMaxTopRanks,
		DefaultLimit:           DefaultLimit,
		MaxDisplayableDuration: DefaultMaxDisplayableDuration,
	}
}
