package tiktokbridge

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opengovern/tiktok-bridge/mock"
)

func TestExecute_RecordsMetrics(t *testing.T) {
	assert := assert.New(t)
	const host = "metrics.test"

	ok := requestsTotal.WithLabelValues("POST", host, "404")
	failed := transportErrors.WithLabelValues("GET", host)
	exhausted := requestsExhausted.WithLabelValues("GET", host)
	okBefore := testutil.ToFloat64(ok)
	failedBefore := testutil.ToFloat64(failed)
	exhaustedBefore := testutil.ToFloat64(exhausted)

	re, _ := newTestExecutor(t, mock.Responding(404, `{}`), 0)
	_, err := re.Execute(context.Background(), &Request{BaseURL: "https://" + host + "/", Method: "POST", Path: "v2/x/"})
	require.NoError(t, err)
	assert.Equal(okBefore+1, testutil.ToFloat64(ok))

	re, _ = newTestExecutor(t, mock.Failing(nil), 2)
	_, err = re.Execute(context.Background(), &Request{BaseURL: "https://" + host + "/", Method: "GET", Path: "v2/x/"})
	require.Error(t, err)
	assert.Equal(failedBefore+3, testutil.ToFloat64(failed))
	assert.Equal(exhaustedBefore+1, testutil.ToFloat64(exhausted))
}
