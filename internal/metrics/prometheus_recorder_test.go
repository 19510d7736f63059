package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("render", 150*time.Millisecond)
	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.IncStageResult("render", ResultSuccess)
	pr.IncBuildOutcome("success")
	pr.ObserveRenderDuration(2 * time.Millisecond)
	pr.IncDocuments(DocRendered, 3)
	pr.IncDocuments(DocFailed, 1)
	pr.IncFiles(FileWritten, 5)
	pr.SetBrokenLinks(2)
	pr.SetWorkers(4)

	assert.InDelta(t, 3, gathered(t, reg, "sitebuilder_documents_total", "rendered"), 0)
	assert.InDelta(t, 1, gathered(t, reg, "sitebuilder_documents_total", "failed"), 0)
	assert.InDelta(t, 2, gathered(t, reg, "sitebuilder_broken_internal_links", ""), 0)
	assert.InDelta(t, 4, gathered(t, reg, "sitebuilder_workers", ""), 0)
}

// gathered returns the counter or gauge value of the series of name whose
// first label has value label ("" for unlabelled metrics).
func gathered(t *testing.T, reg *prom.Registry, name, label string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if label != "" && (len(m.GetLabel()) == 0 || m.GetLabel()[0].GetValue() != label) {
				continue
			}
			if c := m.GetCounter(); c != nil {
				return c.GetValue()
			}
			return m.GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s{%s} not found", name, label)
	return 0
}

func TestPrometheusRecorder_WriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncFiles(FileUnchanged, 7)

	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, pr.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `sitebuilder_output_files_total{result="unchanged"} 7`))
}

func TestNoopRecorderSatisfiesInterface(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.IncDocuments(DocSkipped, 1)
	r.ObserveStageDuration("discover", time.Second)
}
