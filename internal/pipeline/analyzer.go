// Package pipeline turns the current selection into one NDVI analysis request
// and maps the response into a result or a user-facing error.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samirrijal/agrosight/internal/core/domain"
	"github.com/samirrijal/agrosight/internal/selection"
)

// User-facing messages.
const (
	MsgIncomplete  = "Please select an area and date range"
	MsgDateOrder   = "Start date must not be after end date"
	MsgInFlight    = "An analysis is already in progress"
	MsgErrorPrefix = "Error analyzing NDVI: "
	MsgFailed      = "Failed to analyze NDVI"
)

// DisplayLayout renders observation timestamps, e.g. "Mar 1, 2024 10:00:00 AM".
const DisplayLayout = "Jan 2, 2006 3:04:05 PM"

const maxBody = 1 << 20

// Source supplies the selection to analyse.
type Source interface {
	Snapshot() selection.Snapshot
}

// Outcome holds at most one of Result and Err. The zero value means no run yet.
type Outcome struct {
	Result *domain.AnalysisResult
	Err    *domain.PipelineError
}

func (o Outcome) Empty() bool { return o.Result == nil && o.Err == nil }

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Analyzer) { a.client = c }
}

// WithTimeout bounds each request. Zero waits as long as the caller's context allows.
func WithTimeout(d time.Duration) Option {
	return func(a *Analyzer) { a.timeout = d }
}

// WithLocation sets the timezone used to display observation dates.
func WithLocation(loc *time.Location) Option {
	return func(a *Analyzer) {
		if loc != nil {
			a.loc = loc
		}
	}
}

// Analyzer runs the pipeline for one session. At most one Analyze call is in flight.
type Analyzer struct {
	endpoint string
	source   Source
	client   *http.Client
	timeout  time.Duration
	loc      *time.Location

	busy atomic.Bool
	mu   sync.RWMutex
	last Outcome
}

// NewAnalyzer creates an Analyzer posting to endpoint.
func NewAnalyzer(endpoint string, source Source, opts ...Option) *Analyzer {
	a := &Analyzer{
		endpoint: endpoint,
		source:   source,
		client:   &http.Client{},
		loc:      time.UTC,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Busy reports whether a request is outstanding.
func (a *Analyzer) Busy() bool { return a.busy.Load() }

// Last returns the outcome of the most recent completed run.
func (a *Analyzer) Last() Outcome {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last
}

// Analyze validates the selection, posts it and records the outcome.
// A call made while another is outstanding returns an in-flight error and
// leaves the recorded outcome untouched. So does a run whose context was
// cancelled, since its consumer is gone.
func (a *Analyzer) Analyze(ctx context.Context) Outcome {
	if !a.busy.CompareAndSwap(false, true) {
		return Outcome{Err: &domain.PipelineError{Message: MsgInFlight}}
	}
	defer a.busy.Store(false)

	out := a.run(ctx)
	if errors.Is(ctx.Err(), context.Canceled) {
		return out
	}
	a.mu.Lock()
	a.last = out
	a.mu.Unlock()
	return out
}

func (a *Analyzer) run(ctx context.Context) Outcome {
	snap := a.source.Snapshot()
	if !snap.Ready() {
		return failure(MsgIncomplete, "")
	}
	if start, end, err := snap.Dates.Parse(); err == nil && start.After(end) {
		return failure(MsgDateOrder, "")
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	body, err := json.Marshal(snap.Request())
	if err != nil {
		return failure(MsgErrorPrefix+err.Error(), chain(err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return failure(MsgErrorPrefix+err.Error(), chain(err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return failure(MsgErrorPrefix+transportMessage(err), requestLine(req)+"\n"+chain(err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return failure(MsgErrorPrefix+transportMessage(err), requestLine(req)+"\n"+chain(err))
	}
	detail := fmt.Sprintf("%s\nstatus: %s\nbody: %s", requestLine(req), resp.Status, excerpt(raw))

	result, perr := a.interpret(resp.StatusCode, raw)
	if perr != nil {
		return failure(MsgErrorPrefix+perr.Error(), detail)
	}
	return Outcome{Result: result}
}

// interpret validates the response envelope and payload.
func (a *Analyzer) interpret(status int, raw []byte) (*domain.AnalysisResult, error) {
	var env struct {
		Success *bool `json:"success"`
		Data    *struct {
			MeanNDVI *float64        `json:"meanNDVI"`
			Date     json.RawMessage `json:"date"`
		} `json:"data"`
		Error string `json:"error"`
	}
	decodeErr := json.Unmarshal(raw, &env)

	if status < 200 || status >= 300 {
		if decodeErr == nil && env.Error != "" {
			return nil, errors.New(env.Error)
		}
		return nil, fmt.Errorf("HTTP error! status: %d", status)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("invalid response body: %w", decodeErr)
	}
	if env.Success == nil || !*env.Success {
		if env.Error != "" {
			return nil, errors.New(env.Error)
		}
		return nil, errors.New(MsgFailed)
	}
	if env.Data == nil {
		return nil, errors.New("response is missing data")
	}
	if env.Data.MeanNDVI == nil {
		return nil, errors.New("response is missing meanNDVI")
	}
	mean := *env.Data.MeanNDVI
	if mean < -1 || mean > 1 {
		return nil, fmt.Errorf("meanNDVI %v is outside [-1, 1]", mean)
	}
	observed, err := ParseObservationDate(env.Data.Date)
	if err != nil {
		return nil, err
	}
	return &domain.AnalysisResult{
		MeanNDVI:   mean,
		ObservedAt: observed,
		Date:       observed.In(a.loc).Format(DisplayLayout),
	}, nil
}

func failure(msg, detail string) Outcome {
	return Outcome{Err: &domain.PipelineError{Message: msg, Detail: detail}}
}

func transportMessage(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	case errors.Is(err, context.Canceled):
		return "request cancelled"
	}
	return err.Error()
}

func requestLine(req *http.Request) string {
	return req.Method + " " + req.URL.String()
}

// chain lists an error and every error it wraps, one per line.
func chain(err error) string {
	var b strings.Builder
	for depth := 0; err != nil; depth++ {
		fmt.Fprintf(&b, "%s%s", strings.Repeat("  ", depth), err.Error())
		err = errors.Unwrap(err)
		if err != nil {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func excerpt(b []byte) string {
	const n = 512
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
