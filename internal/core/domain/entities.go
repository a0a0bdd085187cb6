package domain

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the calendar-date format used by date pickers and the analysis API.
const DateLayout = "2006-01-02"

// ErrInvalidDateRange is returned when a date range cannot be analysed.
var ErrInvalidDateRange = errors.New("invalid date range")

// DateRange is a start/end calendar date pair as entered by the user.
type DateRange struct {
	Start string `json:"startDate"`
	End   string `json:"endDate"`
}

// Complete reports whether both dates are present.
func (d DateRange) Complete() bool { return d.Start != "" && d.End != "" }

// Parse returns both dates as UTC midnights.
func (d DateRange) Parse() (start, end time.Time, err error) {
	start, err = time.Parse(DateLayout, d.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start date %q is not YYYY-MM-DD", ErrInvalidDateRange, d.Start)
	}
	end, err = time.Parse(DateLayout, d.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end date %q is not YYYY-MM-DD", ErrInvalidDateRange, d.End)
	}
	return start, end, nil
}

// Validate checks the format, ordering and, when maxDays > 0, the window length.
func (d DateRange) Validate(maxDays int) error {
	start, end, err := d.Parse()
	if err != nil {
		return err
	}
	if start.After(end) {
		return fmt.Errorf("%w: start date %s is after end date %s", ErrInvalidDateRange, d.Start, d.End)
	}
	if maxDays > 0 {
		if days := int(end.Sub(start).Hours() / 24); days > maxDays {
			return fmt.Errorf("%w: window of %d days exceeds %d", ErrInvalidDateRange, days, maxDays)
		}
	}
	return nil
}

// AnalysisRequest is the body posted to the NDVI analysis endpoint.
type AnalysisRequest struct {
	Coordinates SelectedArea `json:"coordinates"`
	StartDate   string       `json:"startDate"`
	EndDate     string       `json:"endDate"`
}

// Dates returns the request's date range.
func (r AnalysisRequest) Dates() DateRange {
	return DateRange{Start: r.StartDate, End: r.EndDate}
}

// AnalysisResponse is the envelope returned by the NDVI analysis endpoint.
type AnalysisResponse struct {
	Success bool          `json:"success"`
	Data    *AnalysisData `json:"data,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// AnalysisData is the payload of a successful analysis.
type AnalysisData struct {
	MeanNDVI float64 `json:"meanNDVI"`
	Date     string  `json:"date"`
}

// NDVIObservation is what an imagery processor reports for an area.
type NDVIObservation struct {
	MeanNDVI   float64
	ObservedAt time.Time
}

// AnalysisResult is the display-ready outcome of a successful pipeline run.
type AnalysisResult struct {
	MeanNDVI   float64   `json:"meanNDVI"`
	ObservedAt time.Time `json:"observedAt"`
	Date       string    `json:"date"` // human-readable ObservedAt
}

// PipelineError is the user-facing outcome of a failed pipeline run.
type PipelineError struct {
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"` // diagnostic trace, shown on demand
}

func (e *PipelineError) Error() string { return e.Message }

// Analysis is a recorded NDVI analysis.
type Analysis struct {
	ID          string       `json:"id"`
	Coordinates SelectedArea `json:"coordinates"`
	StartDate   string       `json:"start_date"`
	EndDate     string       `json:"end_date"`
	MeanNDVI    float64      `json:"mean_ndvi"`
	ObservedAt  time.Time    `json:"observed_at"`
	AreaHa      float64      `json:"area_ha"`
	PerimeterM  float64      `json:"perimeter_m"`
	CreatedAt   time.Time    `json:"created_at"`
}

// JobStatus is the lifecycle state of an asynchronous analysis.
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// AnalysisJob is an asynchronous analysis tracked by the workflow engine.
type AnalysisJob struct {
	ID     string        `json:"id"`
	Status JobStatus     `json:"status"`
	Result *AnalysisData `json:"result,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// PriceTrend is the direction of the latest price change.
type PriceTrend string

const (
	TrendUp   PriceTrend = "up"
	TrendDown PriceTrend = "down"
)

// CropPrice is a market price quote for a crop.
type CropPrice struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	PricePerUnit  float64    `json:"price_per_unit"`
	Currency      string     `json:"currency"`
	Unit          string     `json:"unit"`
	ChangePercent float64    `json:"change_percent"`
	Trend         PriceTrend `json:"trend"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// DiseasePrediction is the top class reported by the leaf-disease classifier.
type DiseasePrediction struct {
	Class      string  `json:"class"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"` // percent, 2 decimals
	Healthy    bool    `json:"healthy"`
}

// TrendOf derives the trend from a percentage change; zero counts as up.
func TrendOf(changePercent float64) PriceTrend {
	if changePercent < 0 {
		return TrendDown
	}
	return TrendUp
}
