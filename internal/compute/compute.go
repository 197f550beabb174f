// Package compute 把 internal/message 中的请求/响应记录绑定到 internal/kernel 的计算内核，
// 生成可注册到 router.Router 的路由表。
package compute

import (
	"context"

	"github.com/samber/lo"

	"github.com/lk2023060901/matprops-go/internal/kernel"
	"github.com/lk2023060901/matprops-go/internal/message"
	"github.com/lk2023060901/matprops-go/internal/network/codec"
	"github.com/lk2023060901/matprops-go/internal/network/router"
	"github.com/lk2023060901/matprops-go/pkg/util/merr"
)

// bind 把强类型的计算函数包装为 router.Route。
func bind[Req, Resp codec.Record](
	newRequest func() Req,
	handle func(ctx context.Context, req Req) (Resp, error),
	requestExample func() Req,
	responseExample func() Resp,
) router.Route {
	return router.Route{
		NewRequest: func() codec.Record { return newRequest() },
		Handler: func(ctx context.Context, req codec.Record) (codec.Record, error) {
			resp, err := handle(ctx, req.(Req))
			if err != nil {
				return nil, err
			}
			if lo.IsNil(resp) {
				// 接口里的带类型 nil 不能交给编码阶段。
				return nil, merr.WrapErrServiceInternal("handler returned no response", req.Descriptor().Name())
			}
			return resp, nil
		},
		RequestExample:  func() codec.Record { return requestExample() },
		ResponseExample: func() codec.Record { return responseExample() },
	}
}

// Routes 返回全部计算路由，顺序与注册顺序一致。
func Routes() []router.Route {
	return []router.Route{
		bind(
			func() *message.ElasticModulesForUnidirectionalCompositeArgs {
				return &message.ElasticModulesForUnidirectionalCompositeArgs{}
			},
			elasticModulesForUnidirectionalComposite,
			message.ElasticModulesForUnidirectionalCompositeArgsExample,
			message.ElasticModulesForUnidirectionalCompositeResponseExample,
		),
		bind(
			func() *message.ThermalConductivityForUnidirectionalCompositeArgs {
				return &message.ThermalConductivityForUnidirectionalCompositeArgs{}
			},
			thermalConductivityForUnidirectionalComposite,
			message.ThermalConductivityForUnidirectionalCompositeArgsExample,
			message.ThermalConductivityForUnidirectionalCompositeResponseExample,
		),
		bind(
			func() *message.ThermalExpansionForUnidirectionalCompositeArgs {
				return &message.ThermalExpansionForUnidirectionalCompositeArgs{}
			},
			thermalExpansionForUnidirectionalComposite,
			message.ThermalExpansionForUnidirectionalCompositeArgsExample,
			message.ThermalExpansionForUnidirectionalCompositeResponseExample,
		),
		bind(
			func() *message.ElasticModulesForHoneycombArgs { return &message.ElasticModulesForHoneycombArgs{} },
			elasticModulesForHoneycomb,
			message.ElasticModulesForHoneycombArgsExample,
			message.ElasticModulesForHoneycombResponseExample,
		),
		bind(
			func() *message.ThermalExpansionForHoneycombArgs { return &message.ThermalExpansionForHoneycombArgs{} },
			thermalExpansionForHoneycomb,
			message.ThermalExpansionForHoneycombArgsExample,
			message.ThermalExpansionForHoneycombResponseExample,
		),
		bind(
			func() *message.EffectivePropertiesArgs { return &message.EffectivePropertiesArgs{} },
			effectiveProperties,
			message.EffectivePropertiesArgsExample,
			message.EffectivePropertiesResponseExample,
		),
	}
}

// Register 把全部计算路由注册到 r。
func Register(r router.Router) error {
	for _, route := range Routes() {
		if err := r.Register(route); err != nil {
			return err
		}
	}
	return nil
}

func elasticModulesForUnidirectionalComposite(
	_ context.Context, a *message.ElasticModulesForUnidirectionalCompositeArgs,
) (*message.ElasticModulesForUnidirectionalCompositeResponse, error) {
	v, err := kernel.ElasticModulesForUnidirectionalComposite(a.NumberOfModel,
		a.FibreContent, a.EForFiber, a.NuForFiber, a.EForMatrix, a.NuForMatrix)
	if err != nil {
		return nil, err
	}
	resp := &message.ElasticModulesForUnidirectionalCompositeResponse{}
	resp.SetValues(v)
	return resp, nil
}

func thermalConductivityForUnidirectionalComposite(
	_ context.Context, a *message.ThermalConductivityForUnidirectionalCompositeArgs,
) (*message.ThermalConductivityForUnidirectionalCompositeResponse, error) {
	v, err := kernel.ThermalConductivityForUnidirectionalComposite(a.NumberOfModel,
		a.FibreContent, a.KForFiber, a.KForMatrix)
	if err != nil {
		return nil, err
	}
	resp := &message.ThermalConductivityForUnidirectionalCompositeResponse{}
	resp.SetValues(v)
	return resp, nil
}

func thermalExpansionForUnidirectionalComposite(
	_ context.Context, a *message.ThermalExpansionForUnidirectionalCompositeArgs,
) (*message.ThermalExpansionForUnidirectionalCompositeResponse, error) {
	v, err := kernel.ThermalExpansionForUnidirectionalComposite(a.NumberOfModel,
		a.FibreContent, a.EForFiber, a.NuForFiber, a.AlphaForFiber,
		a.EForMatrix, a.NuForMatrix, a.AlphaForMatrix)
	if err != nil {
		return nil, err
	}
	resp := &message.ThermalExpansionForUnidirectionalCompositeResponse{}
	resp.SetValues(v)
	return resp, nil
}

func elasticModulesForHoneycomb(
	_ context.Context, a *message.ElasticModulesForHoneycombArgs,
) (*message.ElasticModulesForHoneycombResponse, error) {
	v, err := kernel.ElasticModulesForHoneycomb(a.NumberOfModel,
		a.LCellSideSize, a.HCellSideSize, a.WallThickness, a.Angle, a.EForHoneycomb, a.NuForHoneycomb)
	if err != nil {
		return nil, err
	}
	resp := &message.ElasticModulesForHoneycombResponse{}
	resp.SetValues(v)
	return resp, nil
}

func thermalExpansionForHoneycomb(
	_ context.Context, a *message.ThermalExpansionForHoneycombArgs,
) (*message.ThermalExpansionForHoneycombResponse, error) {
	v, err := kernel.ThermalExpansionForHoneycomb(a.NumberOfModel,
		a.LCellSideSize, a.HCellSideSize, a.WallThickness, a.Angle, a.AlphaForHoneycomb)
	if err != nil {
		return nil, err
	}
	resp := &message.ThermalExpansionForHoneycombResponse{}
	resp.SetValues(v)
	return resp, nil
}

func effectiveProperties(
	_ context.Context, a *message.EffectivePropertiesArgs,
) (*message.EffectivePropertiesResponse, error) {
	v, err := kernel.EffectiveProperties(a.NumberOfModel,
		a.LX, a.LY, a.LZ, a.FX, a.FY, a.FZ, a.UUU,
		optional(a.UForNu1), optional(a.UForNu2))
	if err != nil {
		return nil, err
	}
	resp := &message.EffectivePropertiesResponse{}
	resp.SetValues(v)
	return resp, nil
}

// optional 把以 NaN 表示的缺省参数转换为 nil。
func optional(v float64) *float64 {
	if message.Absent(v) {
		return nil
	}
	return lo.ToPtr(v)
}
