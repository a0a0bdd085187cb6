package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/samirrijal/agrosight/internal/core/domain"
	"github.com/samirrijal/agrosight/internal/pipeline"
	"github.com/samirrijal/agrosight/internal/present"
	"github.com/samirrijal/agrosight/internal/selection"
)

func TestParsePolygon(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    domain.SelectedArea
		wantErr bool
	}{
		{
			name: "triangle",
			in:   "20.1,78.1;20.1,78.3;20.3,78.3",
			want: domain.SelectedArea{{Lat: 20.1, Lng: 78.1}, {Lat: 20.1, Lng: 78.3}, {Lat: 20.3, Lng: 78.3}},
		},
		{
			name: "spaces and trailing separator",
			in:   " 1, 2 ; 3,4;5 ,6; ",
			want: domain.SelectedArea{{Lat: 1, Lng: 2}, {Lat: 3, Lng: 4}, {Lat: 5, Lng: 6}},
		},
		{name: "two vertices", in: "1,2;3,4", wantErr: true},
		{name: "missing comma", in: "1,2;34;5,6", wantErr: true},
		{name: "latitude out of range", in: "91,2;3,4;5,6", wantErr: true},
		{name: "not a number", in: "a,2;3,4;5,6", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePolygon(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ring mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// analysisServer answers every request with a fixed result and records the last body.
func analysisServer(t *testing.T, hits *atomic.Int32, last *domain.AnalysisRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if last != nil {
			_ = json.NewDecoder(r.Body).Decode(last)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"meanNDVI":0.6432,"date":"2024-03-01T10:00:00Z"}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestAnalyze_Point(t *testing.T) {
	var hits atomic.Int32
	var got domain.AnalysisRequest
	srv := analysisServer(t, &hits, &got)

	out, err := run(t, "analyze", "--lat", "20.5937", "--lng", "78.9629",
		"--start", "2024-03-01", "--end", "2024-03-31",
		"--endpoint", srv.URL, "--timezone", "UTC", "--json")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	var view present.View
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	want := present.View{Kind: present.KindResult, MeanNDVI: "0.6432", Date: "Mar 1, 2024 10:00:00 AM"}
	if diff := cmp.Diff(want, view); diff != "" {
		t.Errorf("view mismatch (-want +got):\n%s", diff)
	}
	wantReq := domain.AnalysisRequest{
		Coordinates: domain.SelectedArea{{Lat: 20.5937, Lng: 78.9629}},
		StartDate:   "2024-03-01",
		EndDate:     "2024-03-31",
	}
	if diff := cmp.Diff(wantReq, got); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyze_RendersPanel(t *testing.T) {
	var hits atomic.Int32
	srv := analysisServer(t, &hits, nil)

	out, err := run(t, "analyze", "--polygon", "20.1,78.1;20.1,78.3;20.3,78.3",
		"--start", "2024-03-01", "--end", "2024-03-31", "--endpoint", srv.URL, "--timezone", "UTC")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	for _, want := range []string{"Analysis Results", "Mean NDVI: 0.6432", "Last updated: Mar 1, 2024 10:00:00 AM"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestAnalyze_IncompleteSelectionSkipsRequest(t *testing.T) {
	var hits atomic.Int32
	srv := analysisServer(t, &hits, nil)

	out, err := run(t, "analyze", "--start", "2024-03-01", "--endpoint", srv.URL, "--json")
	if !errors.Is(err, errAnalysisFailed) {
		t.Fatalf("expected errAnalysisFailed, got %v", err)
	}
	if !strings.Contains(out, pipeline.MsgIncomplete) {
		t.Errorf("output missing %q:\n%s", pipeline.MsgIncomplete, out)
	}
	if hits.Load() != 0 {
		t.Errorf("expected no request, got %d", hits.Load())
	}
}

func TestAnalyze_InvalidCoordinates(t *testing.T) {
	var hits atomic.Int32
	srv := analysisServer(t, &hits, nil)

	out, err := run(t, "analyze", "--lat", "north", "--lng", "78.9",
		"--start", "2024-03-01", "--end", "2024-03-31", "--endpoint", srv.URL, "--json")
	if !errors.Is(err, errAnalysisFailed) {
		t.Fatalf("expected errAnalysisFailed, got %v", err)
	}
	if !strings.Contains(out, selection.InvalidCoordinatesMessage) {
		t.Errorf("output missing %q:\n%s", selection.InvalidCoordinatesMessage, out)
	}
	if hits.Load() != 0 {
		t.Errorf("expected no request, got %d", hits.Load())
	}
}

func TestAnalyze_ReplaysDrawEvents(t *testing.T) {
	var hits atomic.Int32
	var got domain.AnalysisRequest
	srv := analysisServer(t, &hits, &got)

	events := strings.Join([]string{
		`{"type":"draw:created","layerType":"polygon","layer":{"id":"a","latlngs":[[1,1],[1,2],[2,2]]}}`,
		`{"type":"draw:created","layerType":"circle","layer":{"id":"b","latlngs":[[5,5]]}}`,
		`not json`,
		`{"type":"draw:edited","layers":[{"id":"a","latlngs":[[10,10],[10,11],[11,11],[11,10]]}]}`,
	}, "\n")
	path := filepath.Join(t.TempDir(), "draw.jsonl")
	if err := os.WriteFile(path, []byte(events), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := run(t, "analyze", "--events", path,
		"--start", "2024-03-01", "--end", "2024-03-31", "--endpoint", srv.URL, "--json"); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	want := domain.SelectedArea{{Lat: 10, Lng: 10}, {Lat: 10, Lng: 11}, {Lat: 11, Lng: 11}, {Lat: 11, Lng: 10}}
	if diff := cmp.Diff(want, got.Coordinates); diff != "" {
		t.Errorf("coordinates mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyze_ServerErrorShowsDetails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"success":false,"error":"processor unavailable"}`))
	}))
	defer srv.Close()

	out, err := run(t, "analyze", "--lat", "20.5", "--lng", "78.9",
		"--start", "2024-03-01", "--end", "2024-03-31", "--endpoint", srv.URL, "--details")
	if !errors.Is(err, errAnalysisFailed) {
		t.Fatalf("expected errAnalysisFailed, got %v", err)
	}
	for _, want := range []string{"Error analyzing NDVI: processor unavailable", "Details", "status: 502"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/prices" || r.URL.Query().Get("q") != "whe" {
			http.Error(w, `{"message":"unexpected request"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"1","name":"Wheat","price_per_unit":2275,"currency":"INR","unit":"quintal","change_percent":1.5,"trend":"up"}]`))
	}))
	defer srv.Close()

	out, err := run(t, "prices", "whe", "--api", srv.URL)
	if err != nil {
		t.Fatalf("prices: %v", err)
	}
	for _, want := range []string{"Crop", "Wheat", "INR 2275.00/quintal", "+1.5%"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if _, err := run(t, "prices", "rice", "--api", srv.URL); err == nil || !strings.Contains(err.Error(), "unexpected request") {
		t.Errorf("expected the API message, got %v", err)
	}
}
