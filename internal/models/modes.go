package models

// ActivityCategory classifies an activity segment by its band mode code.
type ActivityCategory string

const (
	ActivitySlowWalk ActivityCategory = "slow_walking"
	ActivityFastWalk ActivityCategory = "fast_walking"
	ActivityRun      ActivityCategory = "running"
	ActivityLight    ActivityCategory = "light_activity"
	ActivityOther    ActivityCategory = "other"
)

// SleepStageCategory classifies a sleep stage segment.
type SleepStageCategory string

const (
	SleepLight   SleepStageCategory = "light"
	SleepDeep    SleepStageCategory = "deep"
	SleepAwake   SleepStageCategory = "awake"
	SleepREM     SleepStageCategory = "rem"
	SleepUnknown SleepStageCategory = "unknown"
)

// The upstream mode code space is undocumented and not exhaustively known.
// These tables cover the codes observed in real band_data responses; unknown
// codes must degrade gracefully rather than fail a whole record, and both
// tables can be extended from configuration without touching decode logic.

// DefaultActivityModes returns the known activity mode code table.
func DefaultActivityModes() map[int]ActivityCategory {
	return map[int]ActivityCategory{
		1:  ActivitySlowWalk,
		3:  ActivityFastWalk,
		7:  ActivityRun,
		76: ActivityLight,
	}
}

// DefaultSleepModes returns the known sleep stage mode code table.
func DefaultSleepModes() map[int]SleepStageCategory {
	return map[int]SleepStageCategory{
		4: SleepLight,
		5: SleepDeep,
		7: SleepAwake,
		8: SleepREM,
	}
}

// ValidActivityCategory reports whether s names a known activity category.
func ValidActivityCategory(s string) bool {
	switch ActivityCategory(s) {
	case ActivitySlowWalk, ActivityFastWalk, ActivityRun, ActivityLight, ActivityOther:
		return true
	}
	return false
}

// ValidSleepStageCategory reports whether s names a known sleep stage category.
func ValidSleepStageCategory(s string) bool {
	switch SleepStageCategory(s) {
	case SleepLight, SleepDeep, SleepAwake, SleepREM, SleepUnknown:
		return true
	}
	return false
}
