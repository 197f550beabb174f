package compute

import (
	"bytes"
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/matprops-go/internal/message"
	network "github.com/lk2023060901/matprops-go/internal/network"
	"github.com/lk2023060901/matprops-go/internal/network/codec"
	"github.com/lk2023060901/matprops-go/internal/network/endian"
	"github.com/lk2023060901/matprops-go/internal/network/router"
	"github.com/lk2023060901/matprops-go/pkg/util/merr"
)

type ComputeSuite struct {
	suite.Suite
	router router.Router
	native endian.Tag
}

func (s *ComputeSuite) SetupTest() {
	s.native = endian.Native()
	s.router = router.New(s.native, nil)
	s.Require().NoError(Register(s.router))
}

func (s *ComputeSuite) handle(tag endian.Tag, req codec.Record) (codec.Record, error) {
	route, ok := s.router.Lookup(req.Descriptor().Name())
	s.Require().True(ok)

	data, err := codec.EncodeRequest(tag, s.native, req)
	s.Require().NoError(err)
	parcel, err := s.router.Handle(context.Background(), req.Descriptor().Name(), bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	s.Equal(tag, parcel.Target())
	chunk, ok := parcel.NextChunk()
	s.Require().True(ok)
	s.Len(chunk, parcel.DeclaredSize())

	resp := route.ResponseExample()
	s.Require().NoError(codec.DecodeResponse(chunk, tag, s.native, resp))
	return resp, nil
}

func (s *ComputeSuite) assertClose(expected, actual []float64) {
	s.Require().Len(actual, len(expected))
	for i := range expected {
		if math.IsNaN(expected[i]) {
			s.True(math.IsNaN(actual[i]), "index %d", i)
			continue
		}
		s.InEpsilon(expected[i], actual[i], 1e-12, "index %d", i)
	}
}

func (s *ComputeSuite) TestRoutesRegistered() {
	s.Equal([]string{
		message.EffectiveProperties,
		message.ElasticModulesForHoneycomb,
		message.ElasticModulesForUnidirectionalComposite,
		message.ThermalConductivityForUnidirectionalComposite,
		message.ThermalExpansionForHoneycomb,
		message.ThermalExpansionForUnidirectionalComposite,
	}, s.router.Names())

	s.Error(Register(s.router))
}

// 每条路由的示例请求经过完整的编解码与计算后，应得到示例响应。
func (s *ComputeSuite) TestExamplesEndToEnd() {
	for _, route := range Routes() {
		for _, tag := range []endian.Tag{endian.Little, endian.Big} {
			req := route.RequestExample()
			s.Run(req.Descriptor().Name()+"/"+tag.String(), func() {
				resp, err := s.handle(tag, req)
				s.Require().NoError(err)
				s.assertClose(codec.Values(route.ResponseExample()), codec.Values(resp))
			})
		}
	}
}

func (s *ComputeSuite) TestRuleOfMixturesUndefinedCoefficients() {
	req := message.ElasticModulesForUnidirectionalCompositeArgsExample()
	req.NumberOfModel = 1
	resp, err := s.handle(endian.Big, req)
	s.Require().NoError(err)
	r := resp.(*message.ElasticModulesForUnidirectionalCompositeResponse)
	s.InEpsilon(24.0, r.E1, 1e-12)
	s.True(math.IsNaN(r.Nu23))
	s.True(math.IsNaN(r.G23))
}

func (s *ComputeSuite) TestEffectivePropertiesOptionalArguments() {
	req := message.EffectivePropertiesArgsExample()
	req.UForNu2 = math.NaN()
	_, err := s.handle(endian.Little, req)
	s.ErrorIs(err, merr.ErrComputeArgumentMissing)
	s.ErrorContains(err, "u_for_nu_2")

	// 剪切模型不需要 u_for_nu_*。
	req.NumberOfModel = 3
	req.UForNu1 = math.NaN()
	resp, err := s.handle(endian.Big, req)
	s.Require().NoError(err)
	r := resp.(*message.EffectivePropertiesResponse)
	s.InEpsilon(2.224998266055643, r.First, 1e-12)
	s.True(math.IsNaN(r.Second))
	s.True(math.IsNaN(r.Third))
}

func (s *ComputeSuite) TestKernelErrorsAreSystemErrors() {
	req := message.ThermalExpansionForHoneycombArgsExample()
	req.NumberOfModel = 7
	_, err := s.handle(endian.Little, req)
	s.ErrorIs(err, merr.ErrComputeUnknownModel)
	s.Equal(merr.SystemError, merr.GetErrorType(err))
	s.Equal(500, merr.HTTPStatus(err))
}

func (s *ComputeSuite) TestNilResponseRejected() {
	route := bind(
		func() *message.EffectivePropertiesArgs { return &message.EffectivePropertiesArgs{} },
		func(context.Context, *message.EffectivePropertiesArgs) (*message.EffectivePropertiesResponse, error) {
			return nil, nil
		},
		message.EffectivePropertiesArgsExample,
		message.EffectivePropertiesResponseExample,
	)
	resp, err := route.Handler(context.Background(), message.EffectivePropertiesArgsExample())
	s.Nil(resp)
	s.ErrorIs(err, merr.ErrServiceInternal)
	s.ErrorContains(err, message.EffectiveProperties)

	r := router.New(s.native, nil)
	s.Require().NoError(r.Register(route))
	data, err := codec.EncodeRequest(s.native, s.native, message.EffectivePropertiesArgsExample())
	s.Require().NoError(err)
	_, err = r.Handle(context.Background(), message.EffectiveProperties, bytes.NewReader(data))
	s.ErrorIs(err, merr.ErrServiceInternal)
	s.Equal(network.StageCompute, network.StageOf(err))
}

func TestCompute(t *testing.T) {
	suite.Run(t, new(ComputeSuite))
}
