package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/matprops-go/application"
	"github.com/lk2023060901/matprops-go/internal/compute"
	"github.com/lk2023060901/matprops-go/internal/message"
	"github.com/lk2023060901/matprops-go/internal/network/acceptor"
	"github.com/lk2023060901/matprops-go/internal/network/codec"
	"github.com/lk2023060901/matprops-go/internal/network/connector"
	"github.com/lk2023060901/matprops-go/internal/network/endian"
	"github.com/lk2023060901/matprops-go/internal/network/router"
	"github.com/lk2023060901/matprops-go/internal/network/serializer"
	"github.com/lk2023060901/matprops-go/pkg/util/merr"
)

func newTestServer(t *testing.T) *httptest.Server {
	gin.SetMode(gin.TestMode)
	r := router.New(endian.Native(), nil)
	require.NoError(t, compute.Register(r))
	a, err := acceptor.NewHTTPAcceptor(r, nil, acceptor.Config{Version: application.Version})
	require.NoError(t, err)
	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestFormatsLocal(t *testing.T) {
	out, err := run(t, "formats", message.ElasticModulesForHoneycomb)
	require.NoError(t, err)
	assert.Contains(t, out, "POST /compute/elastic_modules_for_honeycomb")
	assert.Contains(t, out, "<BBxxxxxxdddd")
	assert.Contains(t, out, ">BBxxxxxxdddd")
	assert.Contains(t, out, "application/x.elastic-modules-for-honeycomb-args-message")

	out, err = run(t, "formats", "--json")
	require.NoError(t, err)
	var docs []router.FormatDoc
	require.NoError(t, serializer.JSONSerializer{}.Unmarshal([]byte(out), &docs))
	assert.Len(t, docs, 6)

	_, err = run(t, "formats", "nope")
	assert.ErrorIs(t, err, merr.ErrOperationNotSupported)
}

func TestFormatsRemote(t *testing.T) {
	srv := newTestServer(t)
	out, err := run(t, "formats", "--remote", "--url", srv.URL, message.EffectiveProperties)
	require.NoError(t, err)
	assert.Regexp(t, `size\s+80\n`, out)
}

func TestComputeCommand(t *testing.T) {
	srv := newTestServer(t)
	for _, tag := range []string{"little", "big"} {
		out, err := run(t, "compute", "--url", srv.URL, "--endianness", tag, "--example",
			message.ThermalExpansionForUnidirectionalComposite)
		require.NoError(t, err)
		assert.Contains(t, out, "alpha1")
		assert.Regexp(t, `alpha1\s+9\.97989889\d*e-05`, out)
	}

	_, err := run(t, "compute", "--url", srv.URL, "--example", "--set", "number_of_model=9",
		message.ElasticModulesForHoneycomb)
	assert.ErrorIs(t, err, merr.ErrComputeUnknownModel)

	_, err = run(t, "compute", "--url", srv.URL, "--set", "bogus", message.ElasticModulesForHoneycomb)
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)

	_, err = run(t, "compute", "--url", srv.URL, "missing_message")
	assert.ErrorIs(t, err, merr.ErrOperationNotSupported)

	_, err = run(t, "compute", "--endianness", "middle", message.ElasticModulesForHoneycomb)
	assert.Error(t, err)
}

func TestBuildRequest(t *testing.T) {
	route, err := lookupRoute(message.EffectiveProperties)
	require.NoError(t, err)

	req, err := buildRequest(route, true, []string{"u_for_nu_1 = 0.3", "number_of_model=2"})
	require.NoError(t, err)
	v, err := codec.Get(req, "u_for_nu_1")
	require.NoError(t, err)
	assert.Equal(t, 0.3, v)
	v, err = codec.Get(req, "number_of_model")
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)

	_, err = buildRequest(route, false, []string{"number_of_model=1.5"})
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
	_, err = buildRequest(route, false, []string{"u_for_nu_1=abc"})
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
	_, err = buildRequest(route, false, []string{"u_for_nu_1= "})
	assert.ErrorIs(t, err, merr.ErrParameterMissing)
	assert.ErrorContains(t, err, "missing_param=u_for_nu_1")
}

func TestBench(t *testing.T) {
	srv := newTestServer(t)
	out, err := run(t, "bench", "--url", srv.URL, "--requests", "40", "--concurrency", "4",
		message.ThermalConductivityForUnidirectionalComposite)
	require.NoError(t, err)
	assert.Contains(t, out, "requests:    40 (failed 0, rejected 0, concurrency 4)")
	assert.Contains(t, out, "p99")

	_, err = run(t, "bench", "--url", srv.URL, "--requests", "0", message.ThermalConductivityForUnidirectionalComposite)
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
}

func TestPercentile(t *testing.T) {
	sorted := make([]time.Duration, 100)
	for i := range sorted {
		sorted[i] = time.Duration(i+1) * time.Millisecond
	}
	assert.Equal(t, 50*time.Millisecond, percentile(sorted, 0.50))
	assert.Equal(t, 90*time.Millisecond, percentile(sorted, 0.90))
	assert.Equal(t, 99*time.Millisecond, percentile(sorted, 0.99))
	assert.Equal(t, time.Millisecond, percentile(sorted[:1], 0.99))
	assert.Zero(t, percentile(nil, 0.5))

	r := benchReport{Requests: 12, Dispatched: 10, Rejected: 2, Failures: 2, Elapsed: 2 * time.Second}
	assert.Equal(t, 4.0, r.Throughput())
}

func TestRunBenchPoolOptions(t *testing.T) {
	srv := newTestServer(t)
	client, err := connector.NewClient(connector.Config{BaseURL: srv.URL, Endianness: endian.Big})
	require.NoError(t, err)
	route, err := lookupRoute(message.EffectiveProperties)
	require.NoError(t, err)

	report, err := runBench(context.Background(), client, route, benchOptions{Requests: 30, Concurrency: 3, PreAlloc: true})
	require.NoError(t, err)
	assert.Equal(t, 30, report.Dispatched)
	assert.Zero(t, report.Rejected)
	assert.Zero(t, report.Failures)

	report, err = runBench(context.Background(), client, route, benchOptions{Requests: 30, Concurrency: 1, NonBlocking: true})
	require.NoError(t, err)
	assert.Equal(t, report.Requests, report.Dispatched+report.Rejected)
	assert.GreaterOrEqual(t, report.Dispatched, 1)
	assert.Zero(t, report.Failures)
	assert.NoError(t, report.FirstFail)
}

func TestVersionCommand(t *testing.T) {
	srv := newTestServer(t)
	out, err := run(t, "version", "--remote", "--url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "matprops "+application.Version)
	assert.Contains(t, out, "server   "+application.Version)
}
