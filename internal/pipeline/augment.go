package pipeline

import (
	"log/slog"

	"github.com/dgallion1/torahtrack/internal/torah"
)

// specialReading is a reading the weekly calendar never lists because it is
// read on a festival.
type specialReading struct {
	title   string
	hebrew  string
	portion string
	ranges  [torah.AliyotPerReading]string
}

var specialReadings = []specialReading{
	{
		title:   torah.VZotHaBerachah,
		hebrew:  "וזאת הברכה",
		portion: "Deuteronomy 33:1-34:12",
		ranges: [torah.AliyotPerReading]string{
			"Deuteronomy 33:1-33:7",
			"Deuteronomy 33:8-33:12",
			"Deuteronomy 33:13-33:17",
			"Deuteronomy 33:18-33:21",
			"Deuteronomy 33:22-33:26",
			"Deuteronomy 33:27-33:29",
			"Deuteronomy 34:1-34:12",
		},
	},
}

// AugmentSpecialReadings inserts the fixed festival readings into readings,
// replacing any existing entry with the same title.
func AugmentSpecialReadings(readings map[string]torah.Reading, report *Report, log *slog.Logger) {
	for _, sr := range specialReadings {
		ranges := make([]numberedRange, 0, len(sr.ranges))
		for i, raw := range sr.ranges {
			ranges = append(ranges, numberedRange{number: i + 1, raw: raw})
		}
		aliyot := parseAliyot(sr.title, ranges, report, log)
		if len(aliyot) == 0 {
			log.Error("special reading has no usable aliyot", "title", sr.title)
			continue
		}
		readings[sr.title] = newReading(sr.title, sr.hebrew, "", sr.portion, aliyot)
		log.Info("added special reading", "title", sr.title, "aliyot", len(aliyot))
	}
}
