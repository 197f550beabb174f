package acceptor

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/matprops-go/internal/compute"
	"github.com/lk2023060901/matprops-go/internal/message"
	"github.com/lk2023060901/matprops-go/internal/network/codec"
	"github.com/lk2023060901/matprops-go/internal/network/compressor"
	"github.com/lk2023060901/matprops-go/internal/network/endian"
	"github.com/lk2023060901/matprops-go/internal/network/router"
	"github.com/lk2023060901/matprops-go/internal/network/serializer"
	"github.com/lk2023060901/matprops-go/pkg/metrics"
	"github.com/lk2023060901/matprops-go/pkg/util/merr"
)

type AcceptorSuite struct {
	suite.Suite
	native   endian.Tag
	registry *prometheus.Registry
	router   router.Router
}

func (s *AcceptorSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	s.native = endian.Native()
	s.registry = prometheus.NewRegistry()
	s.registry.MustRegister(metrics.ComputeRequestsTotal)

	s.router = router.New(s.native, nil)
	s.Require().NoError(compute.Register(s.router))
}

func (s *AcceptorSuite) newAcceptor(cfg Config) *HTTPAcceptor {
	cfg.Gatherer = s.registry
	if cfg.Version == "" {
		cfg.Version = "1.2.3"
	}
	a, err := NewHTTPAcceptor(s.router, nil, cfg)
	s.Require().NoError(err)
	return a
}

func (s *AcceptorSuite) do(h http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func (s *AcceptorSuite) encode(tag endian.Tag, rec codec.Record) []byte {
	data, err := codec.EncodeRequest(tag, s.native, rec)
	s.Require().NoError(err)
	return data
}

func (s *AcceptorSuite) status(w *httptest.ResponseRecorder) merr.Status {
	s.Equal("application/json; charset=utf-8", w.Header().Get("Content-Type"))
	var st merr.Status
	s.Require().NoError(serializer.JSONSerializer{}.Unmarshal(w.Body.Bytes(), &st))
	return st
}

func (s *AcceptorSuite) TestComputeBothEndianness() {
	h := s.newAcceptor(Config{}).Handler()
	path := "/compute/" + message.ElasticModulesForUnidirectionalComposite
	for _, tag := range []endian.Tag{endian.Little, endian.Big} {
		w := s.do(h, http.MethodPost, path, s.encode(tag, message.ElasticModulesForUnidirectionalCompositeArgsExample()))
		s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
		s.Equal(message.ElasticModulesForUnidirectionalCompositeResponseDesc.ContentType(), w.Header().Get("Content-Type"))
		s.Equal("72", w.Header().Get("Content-Length"))
		s.NotEmpty(w.Header().Get("X-Request-ID"))

		var resp message.ElasticModulesForUnidirectionalCompositeResponse
		s.Require().NoError(codec.DecodeResponse(w.Body.Bytes(), tag, s.native, &resp))
		want := message.ElasticModulesForUnidirectionalCompositeResponseExample()
		s.InEpsilon(want.E1, resp.E1, 1e-12)
		s.InEpsilon(want.G23, resp.G23, 1e-12)
	}
}

func (s *AcceptorSuite) TestProtocolErrors() {
	h := s.newAcceptor(Config{}).Handler()
	path := "/compute/" + message.ThermalConductivityForUnidirectionalComposite
	data := s.encode(endian.Little, message.ThermalConductivityForUnidirectionalCompositeArgsExample())

	cases := []struct {
		name string
		body []byte
		code int32
	}{
		{"overflow", append(append([]byte{}, data...), 1, 2, 3), merr.Code(merr.ErrProtocolOverflow)},
		{"short", data[:20], merr.Code(merr.ErrProtocolLengthMismatch)},
		{"tag", append([]byte{9}, data[1:]...), merr.Code(merr.ErrProtocolInvalidEndianness)},
	}
	for _, c := range cases {
		s.Run(c.name, func() {
			w := s.do(h, http.MethodPost, path, c.body)
			s.Equal(http.StatusBadRequest, w.Code)
			st := s.status(w)
			s.Equal(c.code, st.Code)
			s.Equal(merr.InputError.String(), st.Type)
		})
	}
}

func (s *AcceptorSuite) TestOverflowPolicy() {
	h := s.newAcceptor(Config{OverflowPolicy: OverflowInternal}).Handler()
	path := "/compute/" + message.ThermalConductivityForUnidirectionalComposite
	data := s.encode(endian.Big, message.ThermalConductivityForUnidirectionalCompositeArgsExample())

	w := s.do(h, http.MethodPost, path, append(data, 0))
	s.Equal(http.StatusInternalServerError, w.Code)
	s.Equal(merr.Code(merr.ErrProtocolOverflow), s.status(w).Code)

	// 其余错误不受影响。
	w = s.do(h, http.MethodPost, path, data[:1])
	s.Equal(http.StatusBadRequest, w.Code)

	_, err := NewHTTPAcceptor(s.router, nil, Config{OverflowPolicy: "ignore"})
	s.ErrorIs(err, merr.ErrParameterInvalid)
}

func (s *AcceptorSuite) TestUnknownMessage() {
	h := s.newAcceptor(Config{}).Handler()
	w := s.do(h, http.MethodPost, "/compute/no_such_message", []byte{0})
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal(merr.Code(merr.ErrOperationNotSupported), s.status(w).Code)

	w = s.do(h, http.MethodGet, "/nowhere", nil)
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(h, http.MethodPost, "/compute/Bad-Name", []byte{0})
	s.Equal(http.StatusBadRequest, w.Code)
	st := s.status(w)
	s.Equal(merr.Code(merr.ErrParameterInvalid), st.Code)
	s.Equal(merr.InputError.String(), st.Type)

	w = s.do(h, http.MethodGet, "/api/formats/Bad-Name", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *AcceptorSuite) TestKernelError() {
	h := s.newAcceptor(Config{}).Handler()
	args := message.ElasticModulesForHoneycombArgsExample()
	args.NumberOfModel = 4
	w := s.do(h, http.MethodPost, "/compute/"+message.ElasticModulesForHoneycomb, s.encode(endian.Big, args))
	s.Equal(http.StatusInternalServerError, w.Code)
	st := s.status(w)
	s.Equal(merr.Code(merr.ErrComputeUnknownModel), st.Code)
	s.Equal(merr.SystemError.String(), st.Type)
}

func (s *AcceptorSuite) TestFormats() {
	h := s.newAcceptor(Config{}).Handler()
	w := s.do(h, http.MethodGet, "/api/formats", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var docs []router.FormatDoc
	s.Require().NoError(serializer.JSONSerializer{}.Unmarshal(w.Body.Bytes(), &docs))
	s.Len(docs, 6)

	w = s.do(h, http.MethodGet, "/api/formats/"+message.EffectiveProperties, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var doc router.FormatDoc
	s.Require().NoError(serializer.JSONSerializer{}.Unmarshal(w.Body.Bytes(), &doc))
	s.Equal(80, doc.Request.Size)
	s.Equal(24, doc.Response.Size)
	s.Equal("/compute/effective_properties", doc.Path)
	s.NotEmpty(doc.Request.ExampleBig)

	w = s.do(h, http.MethodGet, "/api/formats/nope", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *AcceptorSuite) TestCompressedFormats() {
	zc, err := compressor.NewZstdCompressor()
	s.Require().NoError(err)
	defer zc.Close()
	h := s.newAcceptor(Config{Compressor: zc}).Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/formats", nil)
	req.Header.Set("Accept-Encoding", "gzip, zstd")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(compressor.EncodingZstd, w.Header().Get("Content-Encoding"))
	s.Equal("Accept-Encoding", w.Header().Get("Vary"))

	plain, err := zc.Decompress(nil, w.Body.Bytes())
	s.Require().NoError(err)
	var docs []router.FormatDoc
	s.Require().NoError(serializer.JSONSerializer{}.Unmarshal(plain, &docs))
	s.Len(docs, 6)

	// 未声明 zstd 或响应体过小时不压缩。
	w = s.do(h, http.MethodGet, "/api/formats", nil)
	s.Empty(w.Header().Get("Content-Encoding"))
	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Accept-Encoding", "zstd")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	s.Empty(w.Header().Get("Content-Encoding"))
	s.JSONEq(`{"status":"ok"}`, w.Body.String())
}

func (s *AcceptorSuite) TestVersionAndHealth() {
	h := s.newAcceptor(Config{Version: "0.4.0"}).Handler()
	w := s.do(h, http.MethodGet, "/api/version", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var info VersionInfo
	s.Require().NoError(serializer.JSONSerializer{}.Unmarshal(w.Body.Bytes(), &info))
	s.Equal("0.4.0", info.Version)
	s.Len(info.Messages, 6)

	w = s.do(h, http.MethodGet, "/healthz", nil)
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"status":"ok"}`, w.Body.String())
}

func (s *AcceptorSuite) TestMetricsEndpoint() {
	h := s.newAcceptor(Config{MetricsPath: "/metrics"}).Handler()
	s.do(h, http.MethodPost, "/compute/"+message.ThermalExpansionForHoneycomb,
		s.encode(endian.Little, message.ThermalExpansionForHoneycombArgsExample()))

	w := s.do(h, http.MethodGet, "/metrics", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `matprops_compute_requests_total{message="thermal_expansion_for_honeycomb",status="success"}`)

	h = s.newAcceptor(Config{}).Handler()
	s.Equal(http.StatusNotFound, s.do(h, http.MethodGet, "/metrics", nil).Code)
}

func (s *AcceptorSuite) TestRateLimit() {
	h := s.newAcceptor(Config{RateLimit: RateLimit{QPS: 0.001, Burst: 1}}).Handler()
	path := "/compute/" + message.ThermalExpansionForHoneycomb
	body := s.encode(endian.Little, message.ThermalExpansionForHoneycombArgsExample())

	s.Equal(http.StatusOK, s.do(h, http.MethodPost, path, body).Code)
	w := s.do(h, http.MethodPost, path, body)
	s.Equal(http.StatusTooManyRequests, w.Code)
	st := s.status(w)
	s.Equal(merr.Code(merr.ErrHTTPRateLimit), st.Code)
	s.True(st.Retriable)

	// 文档接口不受限流影响。
	s.Equal(http.StatusOK, s.do(h, http.MethodGet, "/api/formats", nil).Code)
}

func (s *AcceptorSuite) TestMaxInflight() {
	a := s.newAcceptor(Config{MaxInflight: 1})
	entered, release := make(chan struct{}), make(chan struct{})
	engine := gin.New()
	engine.POST("/compute/:name", a.inflight(1), func(c *gin.Context) {
		close(entered)
		<-release
		c.Status(http.StatusNoContent)
	})

	done := make(chan int)
	go func() {
		done <- s.do(engine, http.MethodPost, "/compute/x", nil).Code
	}()
	<-entered

	w := s.do(engine, http.MethodPost, "/compute/x", nil)
	s.Equal(http.StatusTooManyRequests, w.Code)
	s.Equal(merr.Code(merr.ErrServiceTooManyRequests), s.status(w).Code)

	close(release)
	s.Equal(http.StatusNoContent, <-done)
}

func (s *AcceptorSuite) TestServeAndShutdown() {
	a := s.newAcceptor(Config{ShutdownTimeout: time.Second})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	s.Require().NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- a.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String()
	s.Eventually(func() bool {
		resp, err := http.Get(url + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	body := s.encode(endian.Big, message.ThermalExpansionForHoneycombArgsExample())
	resp, err := http.Post(url+"/compute/"+message.ThermalExpansionForHoneycomb, "application/octet-stream", bytes.NewReader(body))
	s.Require().NoError(err)
	resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal(strconv.Itoa(message.ThermalExpansionForHoneycombResponseDesc.Size()), resp.Header.Get("Content-Length"))

	cancel()
	select {
	case err := <-served:
		s.NoError(err)
	case <-time.After(5 * time.Second):
		s.Fail("Serve did not return after cancel")
	}
	s.NoError(a.Close())
}

func TestAcceptor(t *testing.T) {
	suite.Run(t, new(AcceptorSuite))
}
