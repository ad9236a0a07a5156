package service

const (
	// Heart rate chart size when none is configured
	DefaultChartWidth  = 72
	DefaultChartHeight = 10

	// Run history listing
	RecentRunsLimit = 10
)
