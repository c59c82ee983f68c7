package models

import "encoding/json"

// Wire types for the Zepp/Huami cloud API. The upstream format is unversioned
// and undocumented; field names here match the short keys observed in real
// band_data responses ("stp", "slp", "ttl", ...). Numeric fields that the API
// omits when no data exists are pointers so absence survives decoding.

// BandEnvelope is the band_data.json response wrapper.
type BandEnvelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    []RawDayPayload `json:"data"`
}

// EventsEnvelope is the /events response wrapper (v1 and v2 share it).
type EventsEnvelope struct {
	Items []json.RawMessage `json:"items"`
}

// RawDayPayload is one calendar day as returned by band_data.json. The
// summary, data_hr, and data fields are opaque base64 text until decoded.
// Stress is attached by the caller from the separate all_day_stress event
// for the same date; it is not part of the band_data response.
type RawDayPayload struct {
	Date        Date   `json:"date_time"`
	Summary     string `json:"summary"`
	HeartRate   string `json:"data_hr,omitempty"`
	Activity    string `json:"data,omitempty"`
	Source      string `json:"source,omitempty"`
	DeviceID    string `json:"device_id,omitempty"`
	UUID        string `json:"uuid,omitempty"`
	LastSyncSec int64  `json:"last_sync_time,omitempty"`

	Stress *StressEvent `json:"-"`
}

// DecodedSummary is the parsed JSON object hidden inside the base64 summary
// field. It is consumed transiently during assembly and never mutated.
type DecodedSummary struct {
	Version int           `json:"v,omitempty"`
	Goal    *int          `json:"goal,omitempty"`
	TZ      string        `json:"tz,omitempty"` // UTC offset in seconds, as a string (e.g. "-21600")
	Serial  string        `json:"sn,omitempty"`
	SyncSec int64         `json:"sync,omitempty"`
	Steps   *StepsSection `json:"stp,omitempty"`
	Sleep   *SleepSection `json:"slp,omitempty"`
	MaxHR   *MaxHRSection `json:"hr,omitempty"`
}

// StepsSection is the "stp" block: daily step totals plus activity stages.
type StepsSection struct {
	Total       int          `json:"ttl"`
	DistanceM   int          `json:"dis"`
	Calories    int          `json:"cal"`
	RunDistance *int         `json:"runDist,omitempty"`
	RunCalories *int         `json:"runCal,omitempty"`
	Stages      []StageEntry `json:"stage,omitempty"`
}

// SleepSection is the "slp" block. Start and End are absolute unix seconds;
// stage minute offsets are relative to the midnight preceding the payload's
// assigned date and may exceed 1440 when the session crosses midnight.
type SleepSection struct {
	Start          int64        `json:"st"`
	End            int64        `json:"ed"`
	DeepMinutes    *int         `json:"dp,omitempty"`
	LightMinutes   *int         `json:"lt,omitempty"`
	RestingHR      *int         `json:"rhr,omitempty"`
	Score          *int         `json:"ss,omitempty"`
	WakeCount      *int         `json:"wc,omitempty"`
	LatencyMinutes *int         `json:"lb,omitempty"`
	UserEdited     *int         `json:"usrSt,omitempty"`
	Stages         []StageEntry `json:"stage,omitempty"`
	NapStages      []StageEntry `json:"odd_stage,omitempty"`
}

// MaxHRSection is the "hr" block carrying max heart rate metadata.
type MaxHRSection struct {
	Max *HRReading `json:"mhr,omitempty"`
}

// HRReading is a single timestamped heart rate value inside the summary.
type HRReading struct {
	BPM    int `json:"hr"`
	Minute int `json:"tm"`
}

// StageEntry is one segment of the "stage"/"odd_stage" arrays, shared by the
// activity (stp) and sleep (slp) blocks. Start and Stop are minute-of-day
// offsets; Stop may exceed 1440 (midnight spill). Step, Dis, and Cal are only
// populated on activity stages.
type StageEntry struct {
	Start int  `json:"start"`
	Stop  int  `json:"stop"`
	Mode  int  `json:"mode"`
	Steps *int `json:"step,omitempty"`
	DisM  *int `json:"dis,omitempty"`
	Cal   *int `json:"cal,omitempty"`
}

// StressEvent is one item of the all_day_stress events response. Data is a
// JSON-encoded string (double encoding) holding the 5-minute readings array.
type StressEvent struct {
	TimestampMS int64  `json:"timestamp"`
	AvgStress   *int   `json:"avgStress,omitempty"`
	MaxStress   *int   `json:"maxStress,omitempty"`
	MinStress   *int   `json:"minStress,omitempty"`
	Relaxed     *int   `json:"relaxProportion,omitempty"`
	Normal      *int   `json:"normalProportion,omitempty"`
	Medium      *int   `json:"mediumProportion,omitempty"`
	High        *int   `json:"highProportion,omitempty"`
	Data        string `json:"data,omitempty"`
}

// ExertionEvent is one item of the exertion/algo_result events response.
type ExertionEvent struct {
	TimestampMS int64         `json:"timestamp"`
	Value       ExertionValue `json:"value"`
}

// ExertionValue carries the training load metrics computed upstream. TSB is
// surfaced exactly as reported, never recomputed from CTL-ATL.
type ExertionValue struct {
	ExerciseScore     *int          `json:"exerciseScore,omitempty"`
	TotalScore        *int          `json:"totalScore,omitempty"`
	TargetScore       *int          `json:"targetScore,omitempty"`
	CompletionPercent *int          `json:"completionPercent,omitempty"`
	RecoveryFactor    *float64      `json:"recoveryFactor,omitempty"`
	ATL               *float64      `json:"atl,omitempty"`
	CTL               *float64      `json:"ctl,omitempty"`
	TSB               *float64      `json:"tsb,omitempty"`
	ExercisePlan      *ExercisePlan `json:"exercisePlan,omitempty"`
}

// ExercisePlan is the nested plan block inside an exertion event.
type ExercisePlan struct {
	HRLower         int    `json:"heartRateLower"`
	HRUpper         int    `json:"heartRateUpper"`
	DurationMinutes int    `json:"duration"`
	Intensity       string `json:"intensity"`
}

// PHNEvent is one item of the phn/daily_analysis events response. The
// metrics of interest sit two levels down, under value.result.
type PHNEvent struct {
	TimestampMS int64    `json:"timestamp"`
	Value       PHNValue `json:"value"`
}

// PHNValue is the value block of a PHN event.
type PHNValue struct {
	Result PHNResult `json:"result"`
}

// PHNResult carries the personalized-heart-number analysis: the TRIMP score
// for the day plus the same rolling loads the exertion feed reports.
type PHNResult struct {
	TRIMP *float64 `json:"trimp,omitempty"`
	ATL   *float64 `json:"atl,omitempty"`
	CTL   *float64 `json:"ctl,omitempty"`
	TSB   *float64 `json:"tsb,omitempty"`
}

// SportLoadItem is one row of the WatchSportStatistics SPORT_LOAD feed.
// "currnetDayTrainLoad" is the upstream's misspelling, kept verbatim since
// it is the wire key.
type SportLoadItem struct {
	DayID        string `json:"dayId"`
	DailyLoad    *int   `json:"currnetDayTrainLoad,omitempty"`
	WeeklyLoad   *int   `json:"wtlSum,omitempty"`
	OptimalMin   *int   `json:"wtlSumOptimalMin,omitempty"`
	OptimalMax   *int   `json:"wtlSumOptimalMax,omitempty"`
	Overreaching *int   `json:"wtlSumOverreaching,omitempty"`
}

// VO2MaxItem is one row of the WatchSportStatistics VO2_MAX feed. Beyond
// the day key the shape varies by device generation, so the body stays
// opaque until a consumer knows what to do with it.
type VO2MaxItem struct {
	DayID string `json:"dayId"`
}
