package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	r.ObserveBuild("browser", 1500*time.Millisecond, true)
	r.ObserveBuild("desktop", 2*time.Second, false)
	r.ObserveStage(StageAssemble, 250*time.Millisecond)
	r.SetArchiveSize(4096)
	r.Finish(OutcomeSuccess)

	require.InDelta(t, 1.5, testutil.ToFloat64(r.buildDuration.WithLabelValues("browser", "success")), 1e-9)
	require.InDelta(t, 2.0, testutil.ToFloat64(r.buildDuration.WithLabelValues("desktop", "failed")), 1e-9)
	require.InDelta(t, 0.25, testutil.ToFloat64(r.stageDuration.WithLabelValues(StageAssemble)), 1e-9)
	require.InDelta(t, 4096.0, testutil.ToFloat64(r.archiveSize), 1e-9)
	require.InDelta(t, 1.0, testutil.ToFloat64(r.runOutcome.WithLabelValues(string(OutcomeSuccess))), 1e-9)

	path := filepath.Join(t.TempDir(), "avg_release.prom")
	require.NoError(t, r.WriteTextfile(path))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(body), `avg_release_build_duration_seconds{platform="browser",result="success"} 1.5`)
	require.Contains(t, string(body), "avg_release_archive_size_bytes 4096")
}

func TestRecorder_Nil(t *testing.T) {
	t.Parallel()

	var r *Recorder

	r.ObserveBuild("browser", time.Second, true)
	r.ObserveStage(StageBuild, time.Second)
	r.SetArchiveSize(1)
	r.Finish(OutcomeFailed)
	require.Nil(t, r.Registry())
	require.NoError(t, r.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
}
