package present_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/samirrijal/agrosight/internal/core/domain"
	"github.com/samirrijal/agrosight/internal/pipeline"
	"github.com/samirrijal/agrosight/internal/present"
)

func TestFormatNDVI(t *testing.T) {
	tests := map[float64]string{
		0.6432:     "0.6432",
		0.64325001: "0.6433",
		-0.1:       "-0.1000",
		1:          "1.0000",
	}
	for in, want := range tests {
		if got := present.FormatNDVI(in); got != want {
			t.Errorf("FormatNDVI(%v) = %s, want %s", in, got, want)
		}
	}
}

func TestNewView(t *testing.T) {
	if v := present.NewView(pipeline.Outcome{}); v.Kind != present.KindEmpty {
		t.Errorf("expected empty view, got %+v", v)
	}

	res := present.NewView(pipeline.Outcome{Result: &domain.AnalysisResult{
		MeanNDVI: 0.6432, ObservedAt: time.Now(), Date: "Mar 1, 2024 10:00:00 AM",
	}})
	if res.Kind != present.KindResult || res.MeanNDVI != "0.6432" || res.Date != "Mar 1, 2024 10:00:00 AM" {
		t.Errorf("unexpected result view %+v", res)
	}

	errView := present.NewView(pipeline.Outcome{Err: &domain.PipelineError{Message: "boom", Detail: "trace"}})
	if errView.Kind != present.KindError || errView.Message != "boom" || errView.Detail != "trace" {
		t.Errorf("unexpected error view %+v", errView)
	}
}

func TestRender_Result(t *testing.T) {
	out := present.Render(present.View{Kind: present.KindResult, MeanNDVI: "0.6432", Date: "Mar 1, 2024 10:00:00 AM"}, present.Options{})
	for _, want := range []string{"Analysis Results", "Mean NDVI: 0.6432", "Last updated: Mar 1, 2024 10:00:00 AM"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in\n%s", want, out)
		}
	}
}

func TestRender_ErrorDisclosure(t *testing.T) {
	v := present.View{Kind: present.KindError, Message: "Error analyzing NDVI: server exploded", Detail: "status: 500"}

	collapsed := present.Render(v, present.Options{})
	if !strings.Contains(collapsed, "server exploded") || !strings.Contains(collapsed, "Show details") {
		t.Errorf("unexpected collapsed panel\n%s", collapsed)
	}
	if strings.Contains(collapsed, "status: 500") {
		t.Error("detail must stay hidden until requested")
	}

	expanded := present.Render(v, present.Options{ShowDetail: true})
	if !strings.Contains(expanded, "status: 500") {
		t.Errorf("expected detail in\n%s", expanded)
	}

	noDetail := present.Render(present.View{Kind: present.KindError, Message: "Please select an area and date range"}, present.Options{})
	if strings.Contains(noDetail, "Show details") {
		t.Error("no disclosure without detail")
	}
}

func TestRender_Empty(t *testing.T) {
	if out := present.Render(present.View{Kind: present.KindEmpty}, present.Options{ShowDetail: true}); out != "" {
		t.Errorf("expected nothing, got %q", out)
	}
}

func TestView_JSON(t *testing.T) {
	data, err := json.Marshal(present.View{Kind: present.KindResult, MeanNDVI: "0.6432", Date: "d"})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"kind":"result","meanNDVI":"0.6432","date":"d"}` {
		t.Errorf("unexpected json %s", data)
	}
}
