package render

import (
	"encoding/json"
	"fmt"
)

// ChartDataset is the shape the overview charts consume.
type ChartDataset struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
}

// ThroughputChart returns the packets-per-second line chart dataset.
// Label spacing follows the poll cadence.
func ThroughputChart(intervalSecs int) ChartDataset {
	labels := make([]string, 15)
	for i := range labels {
		labels[i] = fmt.Sprintf("%ds", i*intervalSecs)
	}
	return ChartDataset{
		Labels: labels,
		Data:   []float64{42, 58, 45, 67, 52, 71, 63, 80, 72, 91, 85, 102, 95, 110, 98},
	}
}

// CallDistributionChart returns the calls-by-hour bar chart dataset.
func CallDistributionChart() ChartDataset {
	return ChartDataset{
		Labels: []string{"00:00", "04:00", "08:00", "12:00", "16:00", "20:00"},
		Data:   []float64{12, 5, 45, 78, 62, 34},
	}
}

// ChartJSON serializes a dataset for embedding in the page.
func ChartJSON(d ChartDataset) string {
	out, _ := json.Marshal(d)
	return string(out)
}
