package export

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"github.com/meltforce/zeppvault/internal/models"
	"github.com/meltforce/zeppvault/internal/timeline"
)

// appleDateLayout matches the timestamp format of Apple's own Health export.
const appleDateLayout = "2006-01-02 15:04:05 -0700"

// sleepStageToApple maps sleep stage categories to HKCategoryValue constants.
// Unknown stages are skipped rather than guessed.
var sleepStageToApple = map[models.SleepStageCategory]string{
	models.SleepLight: "HKCategoryValueSleepAnalysisAsleepCore",
	models.SleepDeep:  "HKCategoryValueSleepAnalysisAsleepDeep",
	models.SleepREM:   "HKCategoryValueSleepAnalysisAsleepREM",
	models.SleepAwake: "HKCategoryValueSleepAnalysisAwake",
}

// Counts reports how many records of each kind an export produced.
type Counts struct {
	HeartRate int
	Steps     int
	Sleep     int
}

func (c Counts) Total() int { return c.HeartRate + c.Steps + c.Sleep }

type healthData struct {
	XMLName    xml.Name      `xml:"HealthData"`
	Locale     string        `xml:"locale,attr"`
	ExportDate exportDate    `xml:"ExportDate"`
	Records    []appleRecord `xml:"Record"`
}

type exportDate struct {
	Value string `xml:"value,attr"`
}

type appleRecord struct {
	Type       string `xml:"type,attr"`
	SourceName string `xml:"sourceName,attr"`
	Unit       string `xml:"unit,attr,omitempty"`
	Value      string `xml:"value,attr"`
	StartDate  string `xml:"startDate,attr"`
	EndDate    string `xml:"endDate,attr"`
}

// WriteAppleHealth renders records in the Apple Health export XML schema.
// Apple Health does not import XML directly; the output is for third-party
// import apps that consume Apple's own export format. tzOffsetSeconds fixes
// the zone every local timestamp is rendered in.
func WriteAppleHealth(w io.Writer, records []*models.DayRecord, sourceName string, tzOffsetSeconds int) (Counts, error) {
	loc := timeline.FixedZone(tzOffsetSeconds)

	doc := healthData{
		Locale:     "en_US",
		ExportDate: exportDate{Value: time.Now().In(loc).Format(appleDateLayout)},
	}

	var counts Counts
	for _, rec := range records {
		if rec == nil {
			continue
		}

		for _, s := range rec.HeartRate {
			lt, err := timeline.MinuteOfDayToLocal(s.MinuteOfDay, rec.Date, tzOffsetSeconds)
			if err != nil {
				continue
			}
			ts := lt.Instant(tzOffsetSeconds).In(loc).Format(appleDateLayout)
			doc.Records = append(doc.Records, appleRecord{
				Type:       "HKQuantityTypeIdentifierHeartRate",
				SourceName: sourceName,
				Unit:       "count/min",
				Value:      fmt.Sprint(s.BPM),
				StartDate:  ts,
				EndDate:    ts,
			})
			counts.HeartRate++
		}

		if st := rec.Steps; st != nil && st.Total > 0 {
			dayStart := timeline.MidnightBefore(rec.Date, tzOffsetSeconds)
			dayEnd := dayStart.Add(1439 * time.Minute)
			doc.Records = append(doc.Records, appleRecord{
				Type:       "HKQuantityTypeIdentifierStepCount",
				SourceName: sourceName,
				Unit:       "count",
				Value:      fmt.Sprint(st.Total),
				StartDate:  dayStart.Format(appleDateLayout),
				EndDate:    dayEnd.Format(appleDateLayout),
			})
			counts.Steps++
		}

		for _, session := range sessions(rec) {
			counts.Sleep += appendSleep(&doc, session, sourceName, tzOffsetSeconds, loc)
		}
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return counts, fmt.Errorf("writing xml header: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return counts, fmt.Errorf("encoding health data: %w", err)
	}
	return counts, nil
}

func sessions(rec *models.DayRecord) []*models.SleepSession {
	var out []*models.SleepSession
	if rec.Sleep != nil {
		out = append(out, rec.Sleep)
	}
	for i := range rec.ExtraSleep {
		out = append(out, &rec.ExtraSleep[i])
	}
	return out
}

// appendSleep emits one Record per stage segment plus an InBed record
// spanning the whole session. Stage minutes resolve against the session's
// source date, the frame the upstream filed them in.
func appendSleep(doc *healthData, s *models.SleepSession, sourceName string, tzOffsetSeconds int, loc *time.Location) int {
	written := 0

	for _, stage := range s.Stages {
		appleValue, ok := sleepStageToApple[stage.Category]
		if !ok {
			continue
		}
		start, err := timeline.MinuteOfDayToLocal(stage.StartMinute, s.SourceDate, tzOffsetSeconds)
		if err != nil {
			continue
		}
		end, err := timeline.MinuteOfDayToLocal(stage.StopMinute, s.SourceDate, tzOffsetSeconds)
		if err != nil {
			continue
		}
		doc.Records = append(doc.Records, appleRecord{
			Type:       "HKCategoryTypeIdentifierSleepAnalysis",
			SourceName: sourceName,
			Value:      appleValue,
			StartDate:  start.Instant(tzOffsetSeconds).In(loc).Format(appleDateLayout),
			EndDate:    end.Instant(tzOffsetSeconds).In(loc).Format(appleDateLayout),
		})
		written++
	}

	if !s.Start.IsZero() && !s.End.IsZero() {
		doc.Records = append(doc.Records, appleRecord{
			Type:       "HKCategoryTypeIdentifierSleepAnalysis",
			SourceName: sourceName,
			Value:      "HKCategoryValueSleepAnalysisInBed",
			StartDate:  s.Start.In(loc).Format(appleDateLayout),
			EndDate:    s.End.In(loc).Format(appleDateLayout),
		})
		written++
	}

	return written
}
