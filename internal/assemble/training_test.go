package assemble

import (
	"encoding/json"
	"testing"
)

func rawItems(items ...string) []json.RawMessage {
	out := make([]json.RawMessage, len(items))
	for i, s := range items {
		out[i] = json.RawMessage(s)
	}
	return out
}

// TestDecodeTrainingLoadTimezone verifies exertion timestamps resolve in the
// wearer's zone. The events sit at local midnight, so east of UTC the naive
// UTC date is one day early: 1770314400000 ms is 2026-02-06 00:00 at +6,
// but 2026-02-05 18:00 in UTC.
func TestDecodeTrainingLoadTimezone(t *testing.T) {
	items := rawItems(`{"timestamp":1770314400000,"value":{"atl":12.5}}`)

	points, err := DecodeTrainingLoad(items, 6*3600)
	if err != nil {
		t.Fatalf("DecodeTrainingLoad: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("len(points) = %d, want 1", len(points))
	}
	if got := points[0].Date.String(); got != "2026-02-06" {
		t.Errorf("date at +6 = %s, want 2026-02-06", got)
	}

	points, err = DecodeTrainingLoad(items, 0)
	if err != nil {
		t.Fatalf("DecodeTrainingLoad: %v", err)
	}
	if got := points[0].Date.String(); got != "2026-02-05" {
		t.Errorf("date at UTC = %s, want 2026-02-05", got)
	}
}

// TestDecodeTrainingLoadSkipsBad verifies one unparseable item loses only
// itself.
func TestDecodeTrainingLoadSkipsBad(t *testing.T) {
	items := rawItems(
		`{"timestamp":1770314400000,"value":{"ctl":40.1}}`,
		`"not an object"`,
	)

	points, err := DecodeTrainingLoad(items, 0)
	if err == nil {
		t.Error("expected error reporting the skipped item")
	}
	if len(points) != 1 {
		t.Fatalf("len(points) = %d, want 1", len(points))
	}
	if points[0].CTL == nil || *points[0].CTL != 40.1 {
		t.Errorf("ctl = %v, want 40.1", points[0].CTL)
	}
}

// TestDecodePHN verifies the nested value.result block surfaces TRIMP and
// the rolling loads, dated in the wearer's zone.
func TestDecodePHN(t *testing.T) {
	items := rawItems(`{"timestamp":1770314400000,"value":{"result":{"trimp":88.4,"atl":31.2,"tsb":-4.5}}}`)

	points, err := DecodePHN(items, 6*3600)
	if err != nil {
		t.Fatalf("DecodePHN: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("len(points) = %d, want 1", len(points))
	}
	p := points[0]
	if got := p.Date.String(); got != "2026-02-06" {
		t.Errorf("date = %s, want 2026-02-06", got)
	}
	if p.TRIMP == nil || *p.TRIMP != 88.4 {
		t.Errorf("trimp = %v, want 88.4", p.TRIMP)
	}
	if p.TSB == nil || *p.TSB != -4.5 {
		t.Errorf("tsb = %v, want -4.5", p.TSB)
	}
	if p.CTL != nil {
		t.Errorf("ctl = %v, want absent", p.CTL)
	}
}

// TestDecodeSportLoad verifies both dayId layouts parse and an item with an
// unrecognized dayId is skipped, not fatal.
func TestDecodeSportLoad(t *testing.T) {
	items := rawItems(
		`{"dayId":"2026-02-06","currnetDayTrainLoad":96,"wtlSum":412,"wtlSumOptimalMin":300,"wtlSumOptimalMax":600}`,
		`{"dayId":"20260207","wtlSum":450}`,
		`{"dayId":"yesterday"}`,
	)

	days, err := DecodeSportLoad(items)
	if err == nil {
		t.Error("expected error reporting the skipped item")
	}
	if len(days) != 2 {
		t.Fatalf("len(days) = %d, want 2", len(days))
	}
	if got := days[0].Date.String(); got != "2026-02-06" {
		t.Errorf("days[0].Date = %s, want 2026-02-06", got)
	}
	if days[0].DailyLoad == nil || *days[0].DailyLoad != 96 {
		t.Errorf("daily load = %v, want 96", days[0].DailyLoad)
	}
	if got := days[1].Date.String(); got != "2026-02-07" {
		t.Errorf("days[1].Date = %s, want 2026-02-07", got)
	}
	if days[1].DailyLoad != nil {
		t.Errorf("days[1].DailyLoad = %v, want absent", days[1].DailyLoad)
	}
}

// TestDecodeVO2Max verifies the day key is extracted while the rest of the
// item stays opaque.
func TestDecodeVO2Max(t *testing.T) {
	items := rawItems(`{"dayId":"20260206","vo2MaxValue":43,"deviceSource":9}`)

	records, err := DecodeVO2Max(items)
	if err != nil {
		t.Fatalf("DecodeVO2Max: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}
	if got := records[0].Date.String(); got != "2026-02-06" {
		t.Errorf("date = %s, want 2026-02-06", got)
	}
	var payload map[string]any
	if err := json.Unmarshal(records[0].Payload, &payload); err != nil {
		t.Fatalf("payload not valid JSON: %v", err)
	}
	if payload["vo2MaxValue"] != float64(43) {
		t.Errorf("payload vo2MaxValue = %v, want 43", payload["vo2MaxValue"])
	}
}

// TestDecodeStressEvents verifies unparseable items are skipped while the
// double-encoded data string survives for DecodeStress.
func TestDecodeStressEvents(t *testing.T) {
	items := rawItems(
		`{"timestamp":1770400000000,"avgStress":30,"data":"[]"}`,
		`"not an object"`,
		`{"timestamp":1770500000000,"maxStress":80}`,
	)

	events, err := DecodeStressEvents(items)
	if err == nil {
		t.Error("expected error reporting the skipped item")
	}
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	if events[0].AvgStress == nil || *events[0].AvgStress != 30 {
		t.Errorf("avg = %v, want 30", events[0].AvgStress)
	}
	if events[0].Data != "[]" {
		t.Errorf("data = %q, want preserved", events[0].Data)
	}
}
