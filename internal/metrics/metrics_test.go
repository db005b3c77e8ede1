package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Cache(t *testing.T) {
	before := Observer.CacheCount("test", Hit)
	Observer.Cache("test", Hit)
	Observer.Cache("test", Hit)
	assert.Equal(t, before+2, Observer.CacheCount("test", Hit))
	assert.Equal(t, before+2, testutil.ToFloat64(Observer.prometheus.Cache.WithLabelValues("test", Hit)))
}

func TestMetrics_Excluded(t *testing.T) {
	before := Observer.ExcludedCount(Features)
	Observer.Excluded(Features, 5)
	assert.Equal(t, before+5, Observer.ExcludedCount(Features))
}

func TestWrite(t *testing.T) {
	Observer.Cache("write", Stored)
	p := filepath.Join(t.TempDir(), "free-data.prom")
	require.NoError(t, Write(p))

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(b), "free_data_cache_total"))
}
