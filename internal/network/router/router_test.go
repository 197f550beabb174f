package router

import (
	"bytes"
	"context"
	"encoding/hex"
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/lk2023060901/matprops-go/internal/message"
	network "github.com/lk2023060901/matprops-go/internal/network"
	"github.com/lk2023060901/matprops-go/internal/network/codec"
	"github.com/lk2023060901/matprops-go/internal/network/endian"
	"github.com/lk2023060901/matprops-go/internal/network/framer"
	"github.com/lk2023060901/matprops-go/pkg/log"
	"github.com/lk2023060901/matprops-go/pkg/metrics"
	"github.com/lk2023060901/matprops-go/pkg/util/merr"
)

type RouterSuite struct {
	suite.Suite
	router Router
	calls  int
}

// sumHandler 把三个方向的载荷分别除以对应尺寸，便于断言结果。
func (s *RouterSuite) sumHandler(_ context.Context, req codec.Record) (codec.Record, error) {
	s.calls++
	args := req.(*message.EffectivePropertiesArgs)
	if args.NumberOfModel > 5 {
		return nil, merr.WrapErrComputeUnknownModel(message.EffectiveProperties, args.NumberOfModel)
	}
	resp := &message.EffectivePropertiesResponse{}
	resp.SetValues([3]float64{args.FX / args.LX, args.FY / args.LY, args.FZ / args.LZ})
	return resp, nil
}

func (s *RouterSuite) effectiveRoute(h Handler) Route {
	return Route{
		NewRequest:      func() codec.Record { return &message.EffectivePropertiesArgs{} },
		Handler:         h,
		RequestExample:  func() codec.Record { return message.EffectivePropertiesArgsExample() },
		ResponseExample: func() codec.Record { return message.EffectivePropertiesResponseExample() },
	}
}

func (s *RouterSuite) SetupTest() {
	s.calls = 0
	s.router = New(endian.Little, framer.NewBodyFramer(7))
	s.Require().NoError(s.router.Register(s.effectiveRoute(s.sumHandler)))
}

func (s *RouterSuite) encode(tag endian.Tag) []byte {
	data, err := codec.EncodeRequest(tag, endian.Little, message.EffectivePropertiesArgsExample())
	s.Require().NoError(err)
	return data
}

func (s *RouterSuite) TestRegisterValidation() {
	err := s.router.Register(s.effectiveRoute(s.sumHandler))
	s.ErrorContains(err, "already registered")

	s.Error(s.router.Register(Route{}))
	s.Error(s.router.Register(Route{
		NewRequest: func() codec.Record { return &message.EffectivePropertiesArgs{} },
		Handler:    s.sumHandler,
	}))

	// 响应描述符与请求名不一致。
	err = s.router.Register(Route{
		NewRequest:      func() codec.Record { return &message.ElasticModulesForHoneycombArgs{} },
		Handler:         s.sumHandler,
		RequestExample:  func() codec.Record { return message.ElasticModulesForHoneycombArgsExample() },
		ResponseExample: func() codec.Record { return message.EffectivePropertiesResponseExample() },
	})
	s.ErrorContains(err, "response descriptor is named")

	// 请求与响应方向颠倒。
	err = s.router.Register(Route{
		NewRequest:      func() codec.Record { return message.ElasticModulesForHoneycombResponseExample() },
		Handler:         s.sumHandler,
		RequestExample:  func() codec.Record { return message.ElasticModulesForHoneycombResponseExample() },
		ResponseExample: func() codec.Record { return message.ElasticModulesForHoneycombResponseExample() },
	})
	s.ErrorContains(err, "is not a request")
}

func (s *RouterSuite) TestNamesSorted() {
	s.Require().NoError(s.router.Register(Route{
		NewRequest:      func() codec.Record { return &message.ElasticModulesForHoneycombArgs{} },
		Handler:         s.sumHandler,
		RequestExample:  func() codec.Record { return message.ElasticModulesForHoneycombArgsExample() },
		ResponseExample: func() codec.Record { return message.ElasticModulesForHoneycombResponseExample() },
	}))
	s.Equal([]string{message.EffectiveProperties, message.ElasticModulesForHoneycomb}, s.router.Names())

	_, ok := s.router.Lookup(message.ElasticModulesForHoneycomb)
	s.True(ok)
	_, ok = s.router.Lookup("nope")
	s.False(ok)
}

func (s *RouterSuite) TestHandleBothEndianness() {
	for _, tag := range []endian.Tag{endian.Little, endian.Big} {
		parcel, err := s.router.Handle(context.Background(), message.EffectiveProperties, bytes.NewReader(s.encode(tag)))
		s.Require().NoError(err)
		s.Equal(tag, parcel.Target())
		s.Equal(24, parcel.DeclaredSize())

		chunk, ok := parcel.NextChunk()
		s.Require().True(ok)
		_, ok = parcel.NextChunk()
		s.False(ok)

		var resp message.EffectivePropertiesResponse
		s.Require().NoError(codec.DecodeResponse(chunk, tag, endian.Little, &resp))
		s.Equal(10.0, resp.First)
		s.Equal(10.0, resp.Second)
		s.Equal(10.0, resp.Third)
	}
	s.Equal(2, s.calls)
}

func (s *RouterSuite) TestHandleUnknownRoute() {
	_, err := s.router.Handle(context.Background(), "missing", bytes.NewReader(nil))
	s.ErrorIs(err, merr.ErrOperationNotSupported)
	s.ErrorIs(err, network.ErrRouteFailed)
	s.Equal(network.StageRoute, network.StageOf(err))
}

func (s *RouterSuite) TestMalformedName() {
	for _, name := range []string{"Effective", "../formats", "a-b", ""} {
		_, err := s.router.Handle(context.Background(), name, bytes.NewReader(nil))
		s.ErrorIs(err, merr.ErrParameterInvalid, name)
		s.Equal(network.StageRoute, network.StageOf(err))
		s.Equal(400, merr.HTTPStatus(err))

		_, err = s.router.Format(name)
		s.ErrorIs(err, merr.ErrParameterInvalid, name)
	}
	s.Zero(s.calls)
}

func (s *RouterSuite) TestHandleProtocolErrors() {
	data := s.encode(endian.Little)

	cases := []struct {
		name  string
		body  []byte
		want  error
		stage network.Stage
	}{
		{"overflow", append(append([]byte{}, data...), 0), merr.ErrProtocolOverflow, network.StageReceive},
		{"short", data[:len(data)-1], merr.ErrProtocolLengthMismatch, network.StageDecode},
		{"empty", nil, merr.ErrProtocolLengthMismatch, network.StageDecode},
		{"tag", append([]byte{2}, data[1:]...), merr.ErrProtocolInvalidEndianness, network.StageDecode},
	}
	for _, c := range cases {
		s.Run(c.name, func() {
			_, err := s.router.Handle(context.Background(), message.EffectiveProperties, bytes.NewReader(c.body))
			s.ErrorIs(err, c.want)
			s.Equal(c.stage, network.StageOf(err))
			s.Equal(merr.InputError, merr.GetErrorType(err))
		})
	}
	s.Zero(s.calls)
}

func (s *RouterSuite) TestHandleComputeError() {
	args := message.EffectivePropertiesArgsExample()
	args.NumberOfModel = 9
	data, err := codec.EncodeRequest(endian.Big, endian.Little, args)
	s.Require().NoError(err)

	_, err = s.router.Handle(context.Background(), message.EffectiveProperties, bytes.NewReader(data))
	s.ErrorIs(err, merr.ErrComputeUnknownModel)
	s.ErrorIs(err, network.ErrComputeFailed)
	s.Equal(network.StageCompute, network.StageOf(err))
}

func (s *RouterSuite) TestHandleCanceledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.router.Handle(ctx, message.EffectiveProperties, bytes.NewReader(s.encode(endian.Little)))
	s.ErrorIs(err, context.Canceled)
	s.Equal(network.StageCompute, network.StageOf(err))
	s.Zero(s.calls)
}

func (s *RouterSuite) TestHandleWrongResponse() {
	r := New(endian.Little, nil)
	s.Require().NoError(r.Register(s.effectiveRoute(func(context.Context, codec.Record) (codec.Record, error) {
		return message.ElasticModulesForHoneycombResponseExample(), nil
	})))
	_, err := r.Handle(context.Background(), message.EffectiveProperties, bytes.NewReader(s.encode(endian.Little)))
	s.ErrorIs(err, merr.ErrProtocolLayout)
	s.Equal(network.StageEncode, network.StageOf(err))

	r = New(endian.Little, nil)
	s.Require().NoError(r.Register(s.effectiveRoute(func(context.Context, codec.Record) (codec.Record, error) {
		return nil, nil
	})))
	_, err = r.Handle(context.Background(), message.EffectiveProperties, bytes.NewReader(s.encode(endian.Little)))
	s.ErrorIs(err, merr.ErrServiceInternal)
	s.True(errors.Is(err, network.ErrComputeFailed))

	// 带类型的 nil 指针同样视为没有响应。
	r = New(endian.Little, nil)
	s.Require().NoError(r.Register(s.effectiveRoute(func(context.Context, codec.Record) (codec.Record, error) {
		var resp *message.EffectivePropertiesResponse
		return resp, nil
	})))
	_, err = r.Handle(context.Background(), message.EffectiveProperties, bytes.NewReader(s.encode(endian.Little)))
	s.ErrorIs(err, merr.ErrServiceInternal)
	s.Equal(network.StageCompute, network.StageOf(err))
}

func latencySamples(name string) uint64 {
	var m dto.Metric
	_ = metrics.ComputeRequestLatency.WithLabelValues(name).(prometheus.Metric).Write(&m)
	return m.GetHistogram().GetSampleCount()
}

func (s *RouterSuite) TestLatencyObservedWhenParcelReady() {
	before := latencySamples(message.EffectiveProperties)
	parcel, err := s.router.Handle(context.Background(), message.EffectiveProperties, bytes.NewReader(s.encode(endian.Big)))
	s.Require().NoError(err)
	s.False(parcel.Sent())
	s.Equal(before+1, latencySamples(message.EffectiveProperties))

	_, err = s.router.Handle(context.Background(), message.EffectiveProperties, bytes.NewReader(nil))
	s.Error(err)
	s.Equal(before+1, latencySamples(message.EffectiveProperties))
}

func (s *RouterSuite) TestModuleLogger() {
	core, logs := observer.New(zapcore.DebugLevel)
	r := New(endian.Little, nil, WithLogger(&log.MLogger{Logger: zap.New(core, zap.AddCaller())}))
	s.Require().NoError(r.Register(s.effectiveRoute(s.sumHandler)))
	s.Equal(1, logs.FilterMessage("message registered").Len())

	_, err := r.Handle(context.Background(), message.EffectiveProperties, bytes.NewReader(s.encode(endian.Big)))
	s.Require().NoError(err)
	decoded := logs.FilterMessage("request decoded").All()
	s.Require().Len(decoded, 1)
	s.True(decoded[0].Caller.Defined)
	s.Contains(decoded[0].Caller.File, "router/router.go")

	// 请求上下文中的 Logger 优先。
	ctxCore, ctxLogs := observer.New(zapcore.DebugLevel)
	ctx := context.WithValue(context.Background(), log.CtxLogKey, &log.MLogger{Logger: zap.New(ctxCore)})
	_, err = r.Handle(ctx, message.EffectiveProperties, bytes.NewReader(nil))
	s.Error(err)
	s.Equal(1, ctxLogs.FilterMessage("compute request failed").Len())
	s.Zero(logs.FilterMessage("compute request failed").Len())
}

func (s *RouterSuite) TestFormats() {
	docs := s.router.Formats()
	s.Require().Len(docs, 1)
	doc := docs[0]
	s.Equal(message.EffectiveProperties, doc.Name)
	s.Equal("/compute/effective_properties", doc.Path)
	s.Equal(80, doc.Request.Size)
	s.Equal(24, doc.Response.Size)
	s.Equal("application/x.effective-properties-args-message", doc.Request.ContentType)
	s.Equal("application/x.effective-properties-response-message", doc.Response.ContentType)
	s.Len(doc.Request.Fields, 11)
	s.Equal("endianness", doc.Request.Fields[0].Name)
	s.Equal("byte", doc.Request.Fields[0].Type)
	s.Equal(8, doc.Request.Fields[2].Offset)

	little, err := hex.DecodeString(doc.Request.ExampleLittle)
	s.Require().NoError(err)
	s.Equal(s.encode(endian.Little), little)
	big, err := hex.DecodeString(doc.Request.ExampleBig)
	s.Require().NoError(err)
	s.Equal(s.encode(endian.Big), big)
	s.Len(doc.Response.ExampleLittle, 48)
	s.NotEqual(doc.Response.ExampleLittle, doc.Response.ExampleBig)

	s.Equal([]float64{0, 10, 20, 30, 100, 200, 300, 0.5, 0.1, 0.2}, doc.Request.ExampleValues)
	s.False(math.IsNaN(doc.Response.ExampleValues[0]))

	_, err = s.router.Format("missing")
	s.ErrorIs(err, merr.ErrOperationNotSupported)
}

func TestRouter(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}
