package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecorderServesExpositionFormat(t *testing.T) {
	rec := NewRecorder()
	rec.Dispatches.WithLabelValues("MLFQ").Inc()
	rec.Boosts.Inc()
	rec.Demotions.Inc()
	rec.ShareRejected.Inc()

	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	rec.Handler().ServeHTTP(rr, req)

	require.Equal(t, 200, rr.Code)
	body := rr.Body.String()
	require.Contains(t, body, "schedsim_dispatches_total")
	require.Contains(t, body, `class="MLFQ"`)
	require.Contains(t, body, "schedsim_mlfq_boosts_total 1")
	require.Contains(t, body, "schedsim_mlfq_demotions_total 1")
	require.Contains(t, body, "schedsim_cpu_share_rejected_total 1")
}
