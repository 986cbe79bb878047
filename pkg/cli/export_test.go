package cli

// Exported for testing
var (
	RankFile       = rankFile
	PrintRanking   = printRanking
	GetIndexConfig = getIndexConfig
)
