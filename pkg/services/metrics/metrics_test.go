package metrics

import (
	"io"
	"net/http"
	"testing"

	"github.com/nspcc-dev/statetrie/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func get(t *testing.T, url string) (int, string) {
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestPrometheusService(t *testing.T) {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:      "test_gauge",
		Namespace: "statetrie",
	})
	require.NoError(t, prometheus.Register(g))
	t.Cleanup(func() { prometheus.Unregister(g) })
	g.Set(42)

	cfg := config.BasicService{Enabled: true, Addresses: []string{"localhost:0", "localhost:0"}}
	s := NewPrometheusService(cfg, zaptest.NewLogger(t))
	require.NoError(t, s.Start())
	t.Cleanup(s.ShutDown)
	// Duplicates are removed.
	require.Len(t, s.Addresses(), 1)
	require.NoError(t, s.Start())

	code, body := get(t, "http://"+s.Addresses()[0]+"/metrics")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, "statetrie_test_gauge 42")
}

func TestPprofService(t *testing.T) {
	cfg := config.BasicService{Enabled: true, Addresses: []string{"localhost:0"}}
	s := NewPprofService(cfg, zaptest.NewLogger(t))
	require.NoError(t, s.Start())
	t.Cleanup(s.ShutDown)

	code, _ := get(t, "http://"+s.Addresses()[0]+"/debug/pprof/cmdline")
	require.Equal(t, http.StatusOK, code)
}

func TestDisabledService(t *testing.T) {
	s := NewPrometheusService(config.BasicService{Addresses: []string{"localhost:0"}}, zaptest.NewLogger(t))
	require.NoError(t, s.Start())
	require.Equal(t, []string{"localhost:0"}, s.Addresses())
	s.ShutDown()

	require.Nil(t, NewPrometheusService(config.BasicService{}, nil))
	require.Nil(t, NewPprofService(config.BasicService{}, nil))
}
