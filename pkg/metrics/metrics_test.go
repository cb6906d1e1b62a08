package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/searchserver/pkg/errors"
)

func TestRecordAdd(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordAdd(nil, 1)
	m.RecordAdd(nil, 2)
	m.RecordAdd(apperrors.New(apperrors.ErrInvalidWord, "add_document", "x"), 2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DocsIndexedTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DocumentCount))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AddFailuresTotal.WithLabelValues("invalid_word")))
}

func TestRecordQueryOutcomes(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordQuery("find_top_documents", "parallel", time.Millisecond, 3, nil)
	m.RecordQuery("find_top_documents", "parallel", time.Millisecond, 0, nil)
	m.RecordQuery("find_top_documents", "sequential", time.Millisecond, 0, errors.New("bad"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues("find_top_documents", "parallel", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues("find_top_documents", "parallel", "zero_result")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues("find_top_documents", "sequential", "error")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordAdd(nil, 1)
	m.RecordRemove("sequential", 0)
	m.RecordQuery("match_document", "sequential", 0, 0, nil)
	m.RecordWindow(3)
	m.RecordCache(true)
}

func TestHandlerServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.RecordWindow(4)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "searchserver_window_empty_results 4")
}
