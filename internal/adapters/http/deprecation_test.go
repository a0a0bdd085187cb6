package http

import "testing"

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		path, pattern string
		want          bool
	}{
		{"/api/ndvi", "/api/ndvi", true},
		{"/v1/analyses/abc", "/v1/analyses/:id", true},
		{"/v1/analyses/", "/v1/analyses/:id", false},
		{"/v1/analyses/abc/extra", "/v1/analyses/:id", false},
		{"/v1/prices", "/v1/analyses/:id", false},
	}
	for _, tt := range tests {
		if got := matchPattern(tt.path, tt.pattern); got != tt.want {
			t.Errorf("matchPattern(%q, %q) = %v, want %v", tt.path, tt.pattern, got, tt.want)
		}
	}
}

func TestCacheControlFor(t *testing.T) {
	tests := map[string]string{
		"/v1/health":           "public, max-age=10",
		"/v1/ndvi/jobs/ndvi-1": "private, max-age=5",
		"/v1/analyses/abc":     "public, max-age=3600",
		"/v1/analyses":         "private, max-age=30",
		"/v1/prices":           "public, max-age=300",
		"/v1/map/config":       "public, max-age=60",
		"/graphql":             "",
	}
	for path, want := range tests {
		if got := cacheControlFor(path); got != want {
			t.Errorf("cacheControlFor(%q) = %q, want %q", path, got, want)
		}
	}
}
