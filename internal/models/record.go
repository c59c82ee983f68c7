package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// HeartRateSample is one valid per-minute heart rate reading. Sentinel bytes
// (0, 254, 255) never produce a sample, so a day's sequence is sparse.
type HeartRateSample struct {
	MinuteOfDay int `json:"minute"`
	BPM         int `json:"bpm"`
}

// Clock formats the sample's minute-of-day as "HH:MM".
func (s HeartRateSample) Clock() string {
	return fmt.Sprintf("%02d:%02d", s.MinuteOfDay/60, s.MinuteOfDay%60)
}

// ActivityMinute is one raw 3-byte group from the activity series. Steps is
// the only byte with known semantics; Aux preserves the remaining two bytes
// untouched for future protocol discovery.
type ActivityMinute struct {
	Minute int     `json:"minute"`
	Steps  int     `json:"steps"`
	Aux    [2]byte `json:"aux"`
}

// ActivitySegment is one contiguous stretch of a single activity category.
// StopMinute may exceed 1440 when the segment crosses into the next day;
// StopMinute > StartMinute always holds.
type ActivitySegment struct {
	StartMinute    int              `json:"start_minute"`
	StopMinute     int              `json:"stop_minute"`
	Category       ActivityCategory `json:"category"`
	ModeCode       int              `json:"mode_code"`
	Steps          int              `json:"steps"`
	DistanceMeters int              `json:"distance_meters"`
	Calories       int              `json:"calories"`
}

// Minutes returns the segment duration, unclamped across midnight.
func (s ActivitySegment) Minutes() int {
	return s.StopMinute - s.StartMinute
}

// SleepStage is one stage segment of a sleep session. Minute values are
// offsets from the midnight preceding the session's source date and may
// exceed 1440.
type SleepStage struct {
	StartMinute int                `json:"start_minute"`
	StopMinute  int                `json:"stop_minute"`
	Category    SleepStageCategory `json:"category"`
	ModeCode    int                `json:"mode_code"`
	IsNap       bool               `json:"is_nap,omitempty"`
}

// SleepSession is one merged logical sleep session. Date is the wake date the
// session is reported under; SourceDate is the payload date the upstream API
// filed it against (the date the user fell asleep). Scalar metrics stay nil
// when the upstream omitted them.
type SleepSession struct {
	Date       Date      `json:"date"`
	SourceDate Date      `json:"source_date"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`

	Score          *int `json:"score,omitempty"`
	RestingHR      *int `json:"resting_hr,omitempty"`
	WakeCount      *int `json:"wake_count,omitempty"`
	LatencyMinutes *int `json:"latency_minutes,omitempty"`
	DeepMinutes    *int `json:"deep_minutes,omitempty"`
	LightMinutes   *int `json:"light_minutes,omitempty"`

	HasStageData bool `json:"has_stage_data"`

	Stages []SleepStage `json:"stages,omitempty"`
	Naps   []SleepStage `json:"naps,omitempty"`
}

// DurationMinutes returns the whole-session duration from absolute instants.
func (s SleepSession) DurationMinutes() int {
	return int(s.End.Sub(s.Start) / time.Minute)
}

// StepSummary is the daily step totals from the decoded summary.
type StepSummary struct {
	Total          int  `json:"total"`
	DistanceMeters int  `json:"distance_meters"`
	Calories       int  `json:"calories"`
	RunDistanceM   *int `json:"run_distance_meters,omitempty"`
	RunCalories    *int `json:"run_calories,omitempty"`
	Goal           *int `json:"goal,omitempty"`
}

// StressReading is one 5-minute interval stress level.
type StressReading struct {
	Time  time.Time `json:"time"`
	Level int       `json:"level"`
}

// StressZones holds the four zone proportions as reported upstream, in
// percent. They are surfaced verbatim, never recomputed from readings.
type StressZones struct {
	Relaxed int `json:"relaxed"`
	Normal  int `json:"normal"`
	Medium  int `json:"medium"`
	High    int `json:"high"`
}

// StressDaySummary is one day's stress data.
type StressDaySummary struct {
	Date     Date            `json:"date"`
	Avg      *int            `json:"avg,omitempty"`
	Max      *int            `json:"max,omitempty"`
	Min      *int            `json:"min,omitempty"`
	Zones    *StressZones    `json:"zones,omitempty"`
	Readings []StressReading `json:"readings,omitempty"`
}

// TrainingLoadPoint is one day's training load metrics, merged from the
// exertion and phn event feeds. TRIMP comes only from phn; the rest mostly
// from exertion. Either feed may be missing for a given date.
type TrainingLoadPoint struct {
	Date           Date          `json:"date"`
	ATL            *float64      `json:"atl,omitempty"`
	CTL            *float64      `json:"ctl,omitempty"`
	TSB            *float64      `json:"tsb,omitempty"`
	TRIMP          *float64      `json:"trimp,omitempty"`
	ExerciseScore  *int          `json:"exercise_score,omitempty"`
	TargetScore    *int          `json:"target_score,omitempty"`
	RecoveryFactor *float64      `json:"recovery_factor,omitempty"`
	Plan           *ExercisePlan `json:"exercise_plan,omitempty"`
}

// SportLoadDay is one day of the watch's sport load statistics: the day's
// own load plus the rolling weekly total and its recommended band.
type SportLoadDay struct {
	Date         Date `json:"date"`
	DailyLoad    *int `json:"daily_load,omitempty"`
	WeeklyLoad   *int `json:"weekly_load,omitempty"`
	OptimalMin   *int `json:"optimal_min,omitempty"`
	OptimalMax   *int `json:"optimal_max,omitempty"`
	Overreaching *int `json:"overreaching,omitempty"`
}

// VO2MaxRecord is one day's VO2 max reading. The payload is stored as
// received because its shape differs across device generations.
type VO2MaxRecord struct {
	Date    Date            `json:"date"`
	Payload json.RawMessage `json:"payload"`
}

// FieldError records a decode failure isolated to one field of a day's
// payload. The rest of the record is still populated.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// NewFieldError wraps err as a FieldError for the named payload field.
func NewFieldError(field string, err error) FieldError {
	return FieldError{Field: field, Message: err.Error(), Err: err}
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e FieldError) Unwrap() error {
	return e.Err
}

// DayRecord is the canonical assembled output for one calendar date. It is
// created once by the assembler and immutable thereafter; every field other
// than Date may be absent when the upstream payload lacked or corrupted it.
type DayRecord struct {
	Date   Date   `json:"date"`
	Source string `json:"source,omitempty"`

	HeartRate       []HeartRateSample `json:"heart_rate,omitempty"`
	ActivityMinutes []ActivityMinute  `json:"activity_minutes,omitempty"`
	Activity        []ActivitySegment `json:"activity,omitempty"`
	Steps           *StepSummary      `json:"steps,omitempty"`
	Sleep           *SleepSession     `json:"sleep,omitempty"`
	ExtraSleep      []SleepSession    `json:"extra_sleep,omitempty"`
	Stress          *StressDaySummary `json:"stress,omitempty"`

	SyncTime *time.Time `json:"sync_time,omitempty"`

	Errors []FieldError `json:"errors,omitempty"`
}
