package domain_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/samirrijal/agrosight/internal/core/domain"
)

func TestCoordinate_Validate(t *testing.T) {
	tests := []struct {
		name string
		c    domain.Coordinate
		ok   bool
	}{
		{"centre of india", domain.Coordinate{Lat: 20.5937, Lng: 78.9629}, true},
		{"poles and antimeridian", domain.Coordinate{Lat: -90, Lng: 180}, true},
		{"latitude too high", domain.Coordinate{Lat: 90.1, Lng: 0}, false},
		{"longitude too low", domain.Coordinate{Lat: 0, Lng: -180.5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, domain.ErrInvalidCoordinate) {
				t.Errorf("expected ErrInvalidCoordinate, got %v", err)
			}
		})
	}
}

func TestParseCoordinate(t *testing.T) {
	c, err := domain.ParseCoordinate("20.5937", " 78.9629 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Lat != 20.5937 || c.Lng != 78.9629 {
		t.Errorf("got %+v", c)
	}

	for _, in := range [][2]string{{"abc", "78"}, {"20", ""}, {"NaN", "1"}, {"95", "10"}, {"20.5937 N", "78.9629"}, {"20.5937", "78.9629E"}} {
		if _, err := domain.ParseCoordinate(in[0], in[1]); !errors.Is(err, domain.ErrInvalidCoordinate) {
			t.Errorf("ParseCoordinate(%q, %q): expected ErrInvalidCoordinate, got %v", in[0], in[1], err)
		}
	}
}

func TestCoordinate_JSONPair(t *testing.T) {
	area := domain.SelectedArea{{Lat: 1.5, Lng: 2.5}, {Lat: -3, Lng: 4}}
	data, err := json.Marshal(area)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[[1.5,2.5],[-3,4]]" {
		t.Errorf("unexpected wire form %s", data)
	}

	var c domain.Coordinate
	if err := json.Unmarshal([]byte("[1,2,3]"), &c); err == nil {
		t.Error("expected error for a 3-element pair")
	}
}

func TestSelectedArea_Validate(t *testing.T) {
	if err := (domain.SelectedArea{}).Validate(); err == nil {
		t.Error("expected error for empty area")
	}
	if err := (domain.SelectedArea{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}}).Validate(); err == nil {
		t.Error("expected error for a two-vertex area")
	}
	if err := (domain.SelectedArea{{Lat: 1, Lng: 1}}).Validate(); err != nil {
		t.Errorf("point should be valid: %v", err)
	}
	bad := domain.SelectedArea{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}, {Lat: 200, Lng: 2}}
	if err := bad.Validate(); !errors.Is(err, domain.ErrInvalidCoordinate) {
		t.Errorf("expected ErrInvalidCoordinate, got %v", err)
	}
}

func TestSelectedArea_Bounds(t *testing.T) {
	area := domain.SelectedArea{{Lat: 10, Lng: 70}, {Lat: 12, Lng: 75}, {Lat: 11, Lng: 68}}
	b := area.Bounds()
	want := domain.Bounds{MinLat: 10, MinLon: 68, MaxLat: 12, MaxLon: 75}
	if b != want {
		t.Errorf("got %+v, want %+v", b, want)
	}
}

func TestDateRange_Validate(t *testing.T) {
	if err := (domain.DateRange{Start: "2024-03-01", End: "2024-03-31"}).Validate(366); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (domain.DateRange{Start: "2024-04-01", End: "2024-03-01"}).Validate(0); !errors.Is(err, domain.ErrInvalidDateRange) {
		t.Errorf("expected ErrInvalidDateRange for reversed range, got %v", err)
	}
	if err := (domain.DateRange{Start: "2022-01-01", End: "2024-01-01"}).Validate(366); !errors.Is(err, domain.ErrInvalidDateRange) {
		t.Errorf("expected ErrInvalidDateRange for long window, got %v", err)
	}
	if err := (domain.DateRange{Start: "03/01/2024", End: "2024-03-02"}).Validate(0); !errors.Is(err, domain.ErrInvalidDateRange) {
		t.Errorf("expected ErrInvalidDateRange for bad format, got %v", err)
	}
}
