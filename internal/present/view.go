// Package present renders pipeline outcomes for terminals and browser sessions.
package present

import (
	"strconv"

	"github.com/samirrijal/agrosight/internal/pipeline"
)

// Kind says which outcome a View shows.
type Kind string

const (
	KindEmpty  Kind = "empty"
	KindResult Kind = "result"
	KindError  Kind = "error"
)

// View is the display model of an outcome.
type View struct {
	Kind     Kind   `json:"kind"`
	MeanNDVI string `json:"meanNDVI,omitempty"`
	Date     string `json:"date,omitempty"`
	Message  string `json:"message,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// NewView builds the view for an outcome.
func NewView(o pipeline.Outcome) View {
	switch {
	case o.Err != nil:
		return View{Kind: KindError, Message: o.Err.Message, Detail: o.Err.Detail}
	case o.Result != nil:
		return View{Kind: KindResult, MeanNDVI: FormatNDVI(o.Result.MeanNDVI), Date: o.Result.Date}
	}
	return View{Kind: KindEmpty}
}

// FormatNDVI renders an NDVI value with 4 decimals.
func FormatNDVI(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
