package report

import (
	"time"

	"github.com/nao1215/xmlmerge/internal/model"
)

// Summary is the condensed outcome of a run.
type Summary struct {
	Status    string        `json:"status"`
	Sources   int           `json:"sources"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Products  int           `json:"products"`
	Published bool          `json:"published"`
	Location  string        `json:"location,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// NewSummary condenses report.
func NewSummary(report *model.RunReport) *Summary {
	s := &Summary{
		Status:    report.Status(),
		Sources:   len(report.Sources),
		Succeeded: report.SucceededCount(),
		Failed:    report.FailedCount(),
		Products:  report.ProductCount,
		Published: report.Published(),
		Duration:  report.Duration(),
	}
	if report.Publish != nil {
		s.Location = report.Publish.Location
	}
	return s
}
