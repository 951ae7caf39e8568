package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordBaselineLoad(t *testing.T) {
	ok := BaselineLoads.WithLabelValues("X-TEST", "embedded", "success")
	failed := BaselineLoads.WithLabelValues("X-TEST", "embedded", "error")

	RecordBaselineLoad("X-TEST", "embedded", nil)
	RecordBaselineLoad("X-TEST", "embedded", nil)
	RecordBaselineLoad("X-TEST", "embedded", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(ok))
	assert.Equal(t, 1.0, testutil.ToFloat64(failed))
}
