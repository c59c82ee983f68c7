// Package decode handles the three non-standard encodings the Zepp cloud API
// layers inside its JSON envelope: base64-wrapped JSON (summary fields),
// base64-wrapped fixed-stride binary (heart rate and activity timelines), and
// JSON strings embedded inside JSON values (stress data).
//
// Every function here is pure: no I/O, no shared state, safe to call
// concurrently.
package decode

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/meltforce/zeppvault/internal/models"
)

// ErrMalformedPayload marks a base64, UTF-8, or JSON decode failure. The
// failure is final for that field; callers isolate it and keep decoding the
// rest of the day.
var ErrMalformedPayload = errors.New("malformed payload")

// Heart rate sentinel bytes: 0 and 254-255 mean "no reading for this minute",
// not a measurement.
const (
	hrSentinelZero = 0
	hrSentinelLow  = 254
)

// activityStride is the byte group size of the activity series: one group per
// minute.
const activityStride = 3

// Base64 decodes standard base64 text into raw bytes.
func Base64(text string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64: %v", ErrMalformedPayload, err)
	}
	return raw, nil
}

// Base64JSON decodes base64 text and parses the result as UTF-8 JSON into v.
// Used for the summary field in band_data responses.
func Base64JSON(text string, v any) error {
	raw, err := Base64(text)
	if err != nil {
		return err
	}
	if !utf8.Valid(raw) {
		return fmt.Errorf("%w: decoded bytes are not valid UTF-8", ErrMalformedPayload)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", ErrMalformedPayload, err)
	}
	return nil
}

// NestedJSON parses a field whose value is itself a JSON-encoded string
// (double encoding), as used by the stress data field.
func NestedJSON(s string, v any) error {
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return fmt.Errorf("%w: invalid nested JSON: %v", ErrMalformedPayload, err)
	}
	return nil
}

// DecodeSummary decodes a base64-encoded summary field into its JSON object.
func DecodeSummary(b64 string) (*models.DecodedSummary, error) {
	var s models.DecodedSummary
	if err := Base64JSON(b64, &s); err != nil {
		return nil, fmt.Errorf("decoding summary: %w", err)
	}
	return &s, nil
}

// HeartRateSeries interprets raw bytes as a per-minute heart rate timeline:
// one byte per minute starting at 00:00. Bytes 1-253 are readings in BPM;
// sentinel bytes produce no sample. Short arrays (partial-day data) are
// accepted and indexed from zero; the result is sparse and ascending, never
// zero-padded.
func HeartRateSeries(raw []byte) []models.HeartRateSample {
	var samples []models.HeartRateSample
	for minute, b := range raw {
		if b == hrSentinelZero || b >= hrSentinelLow {
			continue
		}
		samples = append(samples, models.HeartRateSample{
			MinuteOfDay: minute,
			BPM:         int(b),
		})
	}
	return samples
}

// ActivitySeries interprets raw bytes as fixed-stride per-minute activity
// groups. Byte 0 of each group is that minute's step count; bytes 1-2 are
// not decoded with confidence upstream and are preserved opaque rather than
// guessed at.
func ActivitySeries(raw []byte) ([]models.ActivityMinute, error) {
	if len(raw)%activityStride != 0 {
		return nil, fmt.Errorf("%w: activity series length %d is not a multiple of %d",
			ErrMalformedPayload, len(raw), activityStride)
	}
	minutes := make([]models.ActivityMinute, 0, len(raw)/activityStride)
	for i := 0; i < len(raw); i += activityStride {
		minutes = append(minutes, models.ActivityMinute{
			Minute: i / activityStride,
			Steps:  int(raw[i]),
			Aux:    [2]byte{raw[i+1], raw[i+2]},
		})
	}
	return minutes, nil
}

// Base64HeartRate decodes a base64-encoded heart rate timeline.
func Base64HeartRate(b64 string) ([]models.HeartRateSample, error) {
	raw, err := Base64(b64)
	if err != nil {
		return nil, fmt.Errorf("decoding heart rate data: %w", err)
	}
	return HeartRateSeries(raw), nil
}

// Base64Activity decodes a base64-encoded activity timeline.
func Base64Activity(b64 string) ([]models.ActivityMinute, error) {
	raw, err := Base64(b64)
	if err != nil {
		return nil, fmt.Errorf("decoding activity data: %w", err)
	}
	return ActivitySeries(raw)
}
