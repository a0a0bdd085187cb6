package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/samirrijal/agrosight/internal/core/domain"
	"github.com/samirrijal/agrosight/internal/mapdraw"
	"github.com/samirrijal/agrosight/internal/pipeline"
	"github.com/samirrijal/agrosight/internal/present"
	"github.com/samirrijal/agrosight/internal/selection"
)

type analyzeOptions struct {
	lat, lng string
	polygon  string
	events   string
	start    string
	end      string
	endpoint string
	timeout  time.Duration
	timezone string
	details  bool
	jsonOut  bool
}

func newAnalyzeCmd(app *cli) *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Request the mean NDVI of an area over a date range",
		Example: `  ndvictl analyze --lat 20.5937 --lng 78.9629 --start 2024-03-01 --end 2024-03-31
  ndvictl analyze --polygon "20.1,78.1;20.1,78.3;20.3,78.3" --start 2024-03-01 --end 2024-03-31
  ndvictl analyze --events draw.jsonl --start 2024-03-01 --end 2024-03-31 --details`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, app, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.lat, "lat", "", "latitude of a single point")
	f.StringVar(&opts.lng, "lng", "", "longitude of a single point")
	f.StringVar(&opts.polygon, "polygon", "", `polygon vertices as "lat,lng;lat,lng;..."`)
	f.StringVar(&opts.events, "events", "", "file of leaflet-draw events, one JSON object per line")
	f.StringVar(&opts.start, "start", "", "start date (YYYY-MM-DD)")
	f.StringVar(&opts.end, "end", "", "end date (YYYY-MM-DD)")
	f.StringVar(&opts.endpoint, "endpoint", "", "analysis endpoint (default client.endpoint)")
	f.DurationVar(&opts.timeout, "timeout", 0, "request timeout (default client.timeout)")
	f.StringVar(&opts.timezone, "timezone", "", "IANA timezone for the observation date (default client.timezone)")
	f.BoolVar(&opts.details, "details", false, "expand error details")
	f.BoolVar(&opts.jsonOut, "json", false, "print the view as JSON")

	cmd.MarkFlagsRequiredTogether("lat", "lng")
	cmd.MarkFlagsMutuallyExclusive("lat", "polygon", "events")
	return cmd
}

func runAnalyze(cmd *cobra.Command, app *cli, opts *analyzeOptions) error {
	client := app.cfg.Client
	endpoint := opts.endpoint
	if endpoint == "" {
		endpoint = client.Endpoint
	}
	timeout := opts.timeout
	if timeout == 0 {
		timeout = client.Timeout
	}
	loc := client.Location()
	if opts.timezone != "" {
		var err error
		if loc, err = time.LoadLocation(opts.timezone); err != nil {
			return fmt.Errorf("timezone: %w", err)
		}
	}

	state := selection.New()
	state.SetStartDate(opts.start)
	state.SetEndDate(opts.end)

	switch {
	case opts.events != "":
		if err := replayEvents(cmd.Context(), state, opts.events); err != nil {
			return err
		}
	case opts.polygon != "":
		area, err := parsePolygon(opts.polygon)
		if err != nil {
			return err
		}
		state.SetArea(area)
	case opts.lat != "":
		if err := state.SubmitCoordinates(opts.lat, opts.lng); err != nil {
			slog.Debug("coordinate form rejected", "error", err)
			return show(cmd.OutOrStdout(), present.View{
				Kind:    present.KindError,
				Message: selection.InvalidCoordinatesMessage,
			}, opts)
		}
	}

	analyzer := pipeline.NewAnalyzer(endpoint, state,
		pipeline.WithTimeout(timeout),
		pipeline.WithLocation(loc),
	)
	slog.Info("requesting analysis", "endpoint", endpoint, "vertices", len(state.Snapshot().Area))
	return show(cmd.OutOrStdout(), present.NewView(analyzer.Analyze(cmd.Context())), opts)
}

// show writes the view and reports errAnalysisFailed for error views.
func show(w io.Writer, v present.View, opts *analyzeOptions) error {
	if opts.jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return err
		}
	} else if out := present.Render(v, present.Options{ShowDetail: opts.details}); out != "" {
		fmt.Fprintln(w, out)
	}
	if v.Kind == present.KindError {
		return errAnalysisFailed
	}
	return nil
}

// parsePolygon reads "lat,lng;lat,lng;..." into a ring of at least 3 vertices.
func parsePolygon(s string) (domain.SelectedArea, error) {
	var ring domain.SelectedArea
	for i, pair := range strings.Split(s, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		lat, lng, ok := strings.Cut(pair, ",")
		if !ok {
			return nil, fmt.Errorf("polygon vertex %d: expected lat,lng, got %q", i+1, pair)
		}
		c, err := domain.ParseCoordinate(strings.TrimSpace(lat), strings.TrimSpace(lng))
		if err != nil {
			return nil, fmt.Errorf("polygon vertex %d: %w", i+1, err)
		}
		ring = append(ring, c)
	}
	if !ring.IsPolygon() {
		return nil, fmt.Errorf("polygon needs at least 3 vertices, got %d", len(ring))
	}
	return ring, nil
}

// replayEvents feeds recorded draw events through a map controller into state.
// Rejected events are logged and skipped, as a map would ignore them.
func replayEvents(ctx context.Context, state *selection.State, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open events: %w", err)
	}
	defer f.Close()

	ctl := mapdraw.NewController()
	done := make(chan struct{})
	go func() {
		defer close(done)
		state.Follow(ctx, ctl.Selections())
	}()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var ev mapdraw.Event
		if err := json.Unmarshal([]byte(text), &ev); err != nil {
			slog.Warn("skipping malformed event", "line", line, "error", err)
			continue
		}
		if err := ctl.Dispatch(ev); err != nil {
			slog.Warn("event rejected", "line", line, "type", ev.Type, "error", err)
		}
	}
	scanErr := scanner.Err()

	_ = ctl.Dispose()
	<-done
	if scanErr != nil {
		return fmt.Errorf("read events: %w", scanErr)
	}
	return nil
}
