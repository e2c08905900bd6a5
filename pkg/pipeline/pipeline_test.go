package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cartoflow/cartoflow/pkg/cache"
	"github.com/cartoflow/cartoflow/pkg/errors"
	"github.com/cartoflow/cartoflow/pkg/layout"
)

const testCSV = `start_x,start_y,end_x,end_y,value
0,0,100,0,5
0,0,50,80,3
100,0,50,80,2
`

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestExecute(t *testing.T) {
	input := writeInput(t, "commutes.csv", testCSV)
	runner := NewRunner(nil, nil, nil)

	result, err := runner.Execute(context.Background(), Options{
		Input:   input,
		Formats: []string{FormatSVG, FormatDOT, FormatJSON},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.Stats.NodeCount != 3 || result.Stats.FlowCount != 3 {
		t.Errorf("counts = %d nodes, %d flows; want 3, 3",
			result.Stats.NodeCount, result.Stats.FlowCount)
	}
	for _, format := range []string{FormatSVG, FormatDOT, FormatJSON} {
		if len(result.Artifacts[format]) == 0 {
			t.Errorf("no %s artifact", format)
		}
	}
	if !strings.HasPrefix(string(result.Artifacts[FormatDOT]), "graph flows {") {
		t.Error("DOT artifact malformed")
	}
	if result.ModelHash == "" {
		t.Error("no model hash")
	}
	if result.CacheInfo.LayoutHit || result.CacheInfo.RenderHit {
		t.Error("cache hit reported with NullCache")
	}
}

func TestExecuteGraphFormat(t *testing.T) {
	input := writeInput(t, "commutes.csv", testCSV)
	runner := NewRunner(nil, nil, nil)

	result, err := runner.Execute(context.Background(), Options{
		Input:      input,
		SkipLayout: true,
		Formats:    []string{FormatGraph},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	svg := string(result.Artifacts[FormatGraph])
	if !strings.Contains(svg, "<svg") {
		t.Errorf("graph artifact is not SVG: %.60q", svg)
	}
	if !strings.Contains(svg, `viewBox="0 0`) {
		t.Error("graph artifact viewBox not normalized")
	}
}

func TestExecuteCacheHits(t *testing.T) {
	input := writeInput(t, "commutes.csv", testCSV)
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	runner := NewRunner(c, nil, nil)
	opts := Options{Input: input}

	first, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	if first.CacheInfo.LayoutHit || first.CacheInfo.RenderHit {
		t.Fatal("first run reported cache hits")
	}

	second, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !second.CacheInfo.LayoutHit {
		t.Error("second run missed the layout cache")
	}
	if !second.CacheInfo.RenderHit {
		t.Error("second run missed the render cache")
	}
	if second.ModelHash != first.ModelHash {
		t.Error("cached layout differs from computed layout")
	}
}

func TestExecuteRefreshBypassesLayoutCache(t *testing.T) {
	input := writeInput(t, "commutes.csv", testCSV)
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	runner := NewRunner(c, nil, nil)

	if _, err := runner.Execute(context.Background(), Options{Input: input}); err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	result, err := runner.Execute(context.Background(), Options{Input: input, Refresh: true})
	if err != nil {
		t.Fatalf("refresh Execute: %v", err)
	}
	if result.CacheInfo.LayoutHit {
		t.Error("refresh run served layout from cache")
	}
}

func TestExecuteForwardsProgress(t *testing.T) {
	input := writeInput(t, "commutes.csv", testCSV)
	runner := NewRunner(nil, nil, nil)

	var calls int
	_, err := runner.Execute(context.Background(), Options{
		Input:   input,
		Monitor: layout.FuncMonitor{OnProgress: func(int) { calls++ }},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if calls == 0 {
		t.Error("monitor saw no progress")
	}
}

func TestExecuteSkipLayout(t *testing.T) {
	input := writeInput(t, "commutes.csv", testCSV)
	runner := NewRunner(nil, nil, nil)

	result, err := runner.Execute(context.Background(), Options{
		Input:      input,
		SkipLayout: true,
		Formats:    []string{FormatJSON},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	// Without layout every control point is still the baseline midpoint.
	for _, f := range result.Model.Flows() {
		mid := f.Start().Lerp(f.End(), 0.5)
		if f.Ctrl() != mid {
			t.Errorf("flow %d moved without layout: ctrl %v", f.ID(), f.Ctrl())
		}
	}
}

func TestOptionsValidation(t *testing.T) {
	cases := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"missing input", Options{}, errors.ErrCodeInvalidParams},
		{"unknown extension", Options{Input: "flows.xlsx"}, errors.ErrCodeInvalidFormat},
		{"bad format override", Options{Input: "flows.csv", Format: "xml"}, errors.ErrCodeInvalidFormat},
		{"bad output format", Options{Input: "flows.csv", Formats: []string{"png"}}, errors.ErrCodeInvalidFormat},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.opts.ValidateAndSetDefaults()
			if errors.GetCode(err) != tc.code {
				t.Errorf("error code = %v, want %v", errors.GetCode(err), tc.code)
			}
		})
	}
}

func TestOptionsFormatInference(t *testing.T) {
	cases := []struct {
		input, want string
	}{
		{"flows.csv", InputCSV},
		{"flows.CSV", InputCSV},
		{"layout.json", InputJSON},
	}
	for _, tc := range cases {
		opts := Options{Input: tc.input}
		if err := opts.ValidateForImport(); err != nil {
			t.Errorf("%s: %v", tc.input, err)
			continue
		}
		if opts.Format != tc.want {
			t.Errorf("%s inferred %q, want %q", tc.input, opts.Format, tc.want)
		}
	}
}

func TestOptionsName(t *testing.T) {
	opts := Options{Input: "/data/commuter-flows.csv"}
	if got := opts.Name(); got != "commuter-flows" {
		t.Errorf("Name() = %q", got)
	}
}

func TestImportMissingFile(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	_, err := runner.Import(context.Background(), Options{Input: filepath.Join(t.TempDir(), "absent.csv")})
	if errors.GetCode(err) != errors.ErrCodeFileNotFound {
		t.Fatalf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeFileNotFound)
	}
}
