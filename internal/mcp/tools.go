package mcp

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/meltforce/zeppvault/internal/models"
)

// defaultTimeRange returns start/end defaulting to the last 7 days.
func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -7)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// dateArg extracts and parses the required "date" parameter. The second
// return value is non-nil when the request should fail.
func dateArg(req mcp.CallToolRequest) (models.Date, *mcp.CallToolResult) {
	dateStr, err := req.RequireString("date")
	if err != nil {
		return models.Date{}, mcp.NewToolResultError(err.Error())
	}
	date, err := models.ParseDate(dateStr)
	if err != nil {
		return models.Date{}, mcp.NewToolResultError("invalid date, expected YYYY-MM-DD: " + dateStr)
	}
	return date, nil
}

// --- Tool definitions ---

var toolGetDaySummary = mcp.NewTool("get_day_summary",
	mcp.WithDescription("Retrieve the full record for one day: step totals, sleep session with stages, heart rate samples, activity segments, stress, and any decode errors."),
	mcp.WithString("date", mcp.Required(), mcp.Description("Day to fetch (YYYY-MM-DD)")),
)

var toolGetHeartRate = mcp.NewTool("get_heart_rate",
	mcp.WithDescription("Retrieve per-minute heart rate samples for one day. Minutes where the band recorded nothing are absent."),
	mcp.WithString("date", mcp.Required(), mcp.Description("Day to fetch (YYYY-MM-DD)")),
)

var toolGetSteps = mcp.NewTool("get_steps",
	mcp.WithDescription("Retrieve the daily step summary: total steps, goal, distance, calories, and run/walk breakdown."),
	mcp.WithString("date", mcp.Required(), mcp.Description("Day to fetch (YYYY-MM-DD)")),
)

var toolGetActivity = mcp.NewTool("get_activity",
	mcp.WithDescription("Retrieve timed activity segments (walking, running, light activity) for one day, each with duration and step count."),
	mcp.WithString("date", mcp.Required(), mcp.Description("Day to fetch (YYYY-MM-DD)")),
)

var toolGetSleep = mcp.NewTool("get_sleep",
	mcp.WithDescription("Retrieve sleep sessions for one night, filed under the date the wearer fell asleep. Includes stage segments (light/deep/REM/awake) and any naps."),
	mcp.WithString("date", mcp.Required(), mcp.Description("Night to fetch, by fall-asleep date (YYYY-MM-DD)")),
)

var toolGetSleepSummary = mcp.NewTool("get_sleep_summary",
	mcp.WithDescription("Aggregated sleep report over a period: nights, average duration, deep/light breakdown, average bedtime/waketime, and schedule consistency."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
	mcp.WithString("bucket", mcp.Description("Grouping bucket. Defaults to '1 week'."), mcp.Enum("1 day", "1 week", "1 month")),
)

var toolGetStress = mcp.NewTool("get_stress",
	mcp.WithDescription("Retrieve the all-day stress record for one day: per-point readings, daily avg/min/max, and time-in-zone percentages."),
	mcp.WithString("date", mcp.Required(), mcp.Description("Day to fetch (YYYY-MM-DD)")),
)

var toolGetTrainingLoad = mcp.NewTool("get_training_load",
	mcp.WithDescription("Retrieve daily training load points over a range: exercise score, TRIMP, acute/chronic load (ATL/CTL), training stress balance (TSB), and recovery factor."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
)

var toolGetSportLoad = mcp.NewTool("get_sport_load",
	mcp.WithDescription("Retrieve the watch's daily sport load over a range: the day's load, the rolling weekly sum, and the recommended weekly band."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
)

var toolGetDataStats = mcp.NewTool("get_data_stats",
	mcp.WithDescription("Get coverage statistics for the stored dataset: total days, row counts, date range, and activity minutes per category."),
)

// --- Tool handlers ---

func (h *handlers) getDaySummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, fail := dateArg(req)
	if fail != nil {
		return fail, nil
	}

	rec, err := h.ds.QueryDayRecord(ctx, date)
	if err != nil {
		h.log.Error("mcp: day record query failed", "date", date, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if rec == nil {
		return mcp.NewToolResultError("no data for " + date.String()), nil
	}

	return mcp.NewToolResultJSON(rec)
}

func (h *handlers) getHeartRate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, fail := dateArg(req)
	if fail != nil {
		return fail, nil
	}

	samples, err := h.ds.QueryHeartRate(ctx, date)
	if err != nil {
		h.log.Error("mcp: heart rate query failed", "date", date, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	return mcp.NewToolResultJSON(map[string]any{
		"date":    date,
		"count":   len(samples),
		"samples": samples,
	})
}

func (h *handlers) getSteps(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, fail := dateArg(req)
	if fail != nil {
		return fail, nil
	}

	summary, err := h.ds.QueryStepSummary(ctx, date)
	if err != nil {
		h.log.Error("mcp: step summary query failed", "date", date, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if summary == nil {
		return mcp.NewToolResultError("no step data for " + date.String()), nil
	}

	return mcp.NewToolResultJSON(summary)
}

func (h *handlers) getActivity(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, fail := dateArg(req)
	if fail != nil {
		return fail, nil
	}

	segments, err := h.ds.QueryActivitySegments(ctx, date)
	if err != nil {
		h.log.Error("mcp: activity query failed", "date", date, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	return mcp.NewToolResultJSON(map[string]any{
		"date":     date,
		"segments": segments,
	})
}

func (h *handlers) getSleep(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, fail := dateArg(req)
	if fail != nil {
		return fail, nil
	}

	sessions, err := h.ds.QuerySleepSessions(ctx, date)
	if err != nil {
		h.log.Error("mcp: sleep query failed", "date", date, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if len(sessions) == 0 {
		return mcp.NewToolResultError("no sleep data for " + date.String()), nil
	}

	return mcp.NewToolResultJSON(map[string]any{
		"date":     date,
		"sessions": sessions,
	})
}

func (h *handlers) getSleepSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid time range: " + err.Error()), nil
	}

	bucket := req.GetString("bucket", "1 week")

	periods, err := h.ds.GetSleepSummary(ctx, start, end, bucket)
	if err != nil {
		h.log.Error("mcp: sleep summary query failed", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	return mcp.NewToolResultJSON(periods)
}

func (h *handlers) getStress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, fail := dateArg(req)
	if fail != nil {
		return fail, nil
	}

	day, err := h.ds.QueryStressDay(ctx, date)
	if err != nil {
		h.log.Error("mcp: stress query failed", "date", date, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if day == nil {
		return mcp.NewToolResultError("no stress data for " + date.String()), nil
	}

	return mcp.NewToolResultJSON(day)
}

func (h *handlers) getTrainingLoad(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid time range: " + err.Error()), nil
	}

	points, err := h.ds.QueryTrainingLoad(ctx, start, end)
	if err != nil {
		h.log.Error("mcp: training load query failed", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	return mcp.NewToolResultJSON(points)
}

func (h *handlers) getSportLoad(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid time range: " + err.Error()), nil
	}

	days, err := h.ds.QuerySportLoad(ctx, start, end)
	if err != nil {
		h.log.Error("mcp: sport load query failed", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	return mcp.NewToolResultJSON(days)
}

func (h *handlers) getDataStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.ds.GetDataStats(ctx)
	if err != nil {
		h.log.Error("mcp: data stats query failed", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	return mcp.NewToolResultJSON(stats)
}
