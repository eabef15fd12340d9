package insight

import (
	"fmt"
	"time"

	"gitlab.com/timkado/api/daisi-crm-insights/internal/model"
)

// EstimateBestContactWindow suggests a time of day from the hours at which
// completed interactions took place. Hours are read in loc; a nil loc means
// each timestamp's own location.
func EstimateBestContactWindow(history []model.Interaction, loc *time.Location) string {
	counts := make(map[int]int)
	var seen []int
	windowCounts := make([]int, len(contactWindows))

	for _, rec := range NewestFirst(history) {
		if !rec.IsCompleted() {
			continue
		}
		at := rec.OccurredAt
		if loc != nil {
			at = at.In(loc)
		}
		hour := at.Hour()
		if hour < firstContactHour || hour >= lastContactHour {
			continue
		}
		if counts[hour] == 0 {
			seen = append(seen, hour)
		}
		counts[hour]++
		for i, w := range contactWindows {
			if hour >= w.start && hour < w.end {
				windowCounts[i]++
				break
			}
		}
	}

	if len(seen) == 0 {
		return defaultContactWindow
	}

	best := 0
	for i := 1; i < len(windowCounts); i++ {
		if windowCounts[i] > windowCounts[best] {
			best = i
		}
	}

	hours := rankedKeys(seen, counts)
	label := TitleCase(contactWindows[best].name)
	if len(hours) == 1 {
		return fmt.Sprintf("%s (%d:00)", label, hours[0])
	}
	return fmt.Sprintf("%s (%d:00 or %d:00)", label, hours[0], hours[1])
}
