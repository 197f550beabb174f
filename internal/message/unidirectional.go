package message

import (
	"github.com/lk2023060901/matprops-go/internal/network/codec"
	"github.com/lk2023060901/matprops-go/internal/network/layout"
)

const (
	ElasticModulesForUnidirectionalComposite      = "elastic_modules_for_unidirectional_composite"
	ThermalConductivityForUnidirectionalComposite = "thermal_conductivity_for_unidirectional_composite"
	ThermalExpansionForUnidirectionalComposite    = "thermal_expansion_for_unidirectional_composite"
)

var (
	ElasticModulesForUnidirectionalCompositeArgsDesc = layout.NewRequest(ElasticModulesForUnidirectionalComposite,
		layout.Byte("number_of_model"),
		layout.Double("fibre_content"),
		layout.Double("e_for_fiber"),
		layout.Double("nu_for_fiber"),
		layout.Double("e_for_matrix"),
		layout.Double("nu_for_matrix"),
	)
	ElasticModulesForUnidirectionalCompositeResponseDesc = layout.NewResponse(ElasticModulesForUnidirectionalComposite,
		elasticModuliFields()...,
	)

	ThermalConductivityForUnidirectionalCompositeArgsDesc = layout.NewRequest(ThermalConductivityForUnidirectionalComposite,
		layout.Byte("number_of_model"),
		layout.Double("fibre_content"),
		layout.Double("k_for_fiber"),
		layout.Double("k_for_matrix"),
	)
	ThermalConductivityForUnidirectionalCompositeResponseDesc = layout.NewResponse(ThermalConductivityForUnidirectionalComposite,
		layout.Double("k1"), layout.Double("k2"), layout.Double("k3"),
	)

	ThermalExpansionForUnidirectionalCompositeArgsDesc = layout.NewRequest(ThermalExpansionForUnidirectionalComposite,
		layout.Byte("number_of_model"),
		layout.Double("fibre_content"),
		layout.Double("e_for_fiber"),
		layout.Double("nu_for_fiber"),
		layout.Double("alpha_for_fiber"),
		layout.Double("e_for_matrix"),
		layout.Double("nu_for_matrix"),
		layout.Double("alpha_for_matrix"),
	)
	ThermalExpansionForUnidirectionalCompositeResponseDesc = layout.NewResponse(ThermalExpansionForUnidirectionalComposite,
		thermalExpansionFields()...,
	)
)

func elasticModuliFields() []layout.Field {
	return []layout.Field{
		layout.Double("e1"), layout.Double("e2"), layout.Double("e3"),
		layout.Double("nu12"), layout.Double("nu13"), layout.Double("nu23"),
		layout.Double("g12"), layout.Double("g13"), layout.Double("g23"),
	}
}

func thermalExpansionFields() []layout.Field {
	return []layout.Field{layout.Double("alpha1"), layout.Double("alpha2"), layout.Double("alpha3")}
}

// ElasticModuli 为九个弹性常数，1 为主方向。
type ElasticModuli struct {
	E1, E2, E3       float64
	Nu12, Nu13, Nu23 float64
	G12, G13, G23    float64
}

// SetValues 按 [E1, E2, E3, nu12, nu13, nu23, G12, G13, G23] 顺序赋值。
func (m *ElasticModuli) SetValues(v [9]float64) {
	m.E1, m.E2, m.E3 = v[0], v[1], v[2]
	m.Nu12, m.Nu13, m.Nu23 = v[3], v[4], v[5]
	m.G12, m.G13, m.G23 = v[6], v[7], v[8]
}

func (m *ElasticModuli) slots() []codec.Slot {
	return []codec.Slot{
		codec.DoubleSlot(&m.E1), codec.DoubleSlot(&m.E2), codec.DoubleSlot(&m.E3),
		codec.DoubleSlot(&m.Nu12), codec.DoubleSlot(&m.Nu13), codec.DoubleSlot(&m.Nu23),
		codec.DoubleSlot(&m.G12), codec.DoubleSlot(&m.G13), codec.DoubleSlot(&m.G23),
	}
}

// ThermalExpansion 为三个主方向上的线膨胀系数。
type ThermalExpansion struct {
	Alpha1, Alpha2, Alpha3 float64
}

func (t *ThermalExpansion) SetValues(v [3]float64) {
	t.Alpha1, t.Alpha2, t.Alpha3 = v[0], v[1], v[2]
}

func (t *ThermalExpansion) slots() []codec.Slot {
	return []codec.Slot{codec.DoubleSlot(&t.Alpha1), codec.DoubleSlot(&t.Alpha2), codec.DoubleSlot(&t.Alpha3)}
}

// ElasticModulesForUnidirectionalCompositeArgs 单向复合材料弹性常数请求。
//
// NumberOfModel：1 混合律，2 Vanin 模型。
type ElasticModulesForUnidirectionalCompositeArgs struct {
	NumberOfModel uint8
	FibreContent  float64
	EForFiber     float64
	NuForFiber    float64
	EForMatrix    float64
	NuForMatrix   float64
}

func (a *ElasticModulesForUnidirectionalCompositeArgs) Descriptor() *layout.Descriptor {
	return ElasticModulesForUnidirectionalCompositeArgsDesc
}

func (a *ElasticModulesForUnidirectionalCompositeArgs) Slots() []codec.Slot {
	return []codec.Slot{
		codec.ByteSlot(&a.NumberOfModel),
		codec.DoubleSlot(&a.FibreContent),
		codec.DoubleSlot(&a.EForFiber),
		codec.DoubleSlot(&a.NuForFiber),
		codec.DoubleSlot(&a.EForMatrix),
		codec.DoubleSlot(&a.NuForMatrix),
	}
}

func ElasticModulesForUnidirectionalCompositeArgsExample() *ElasticModulesForUnidirectionalCompositeArgs {
	return &ElasticModulesForUnidirectionalCompositeArgs{
		NumberOfModel: 2,
		FibreContent:  0.2,
		EForFiber:     100.0,
		NuForFiber:    0.3,
		EForMatrix:    5.0,
		NuForMatrix:   0.2,
	}
}

type ElasticModulesForUnidirectionalCompositeResponse struct {
	ElasticModuli
}

func (r *ElasticModulesForUnidirectionalCompositeResponse) Descriptor() *layout.Descriptor {
	return ElasticModulesForUnidirectionalCompositeResponseDesc
}

func (r *ElasticModulesForUnidirectionalCompositeResponse) Slots() []codec.Slot {
	return r.slots()
}

func ElasticModulesForUnidirectionalCompositeResponseExample() *ElasticModulesForUnidirectionalCompositeResponse {
	r := &ElasticModulesForUnidirectionalCompositeResponse{}
	r.SetValues([9]float64{
		40.01172332942556, 6.7364802254566305, 6.7364802254566305,
		0.03840958253366131, 0.03840958253366131, 0.21620579415556423,
		2.9945407835581253, 2.9945407835581253, 2.769465602708258,
	})
	return r
}

// ThermalConductivityForUnidirectionalCompositeArgs 单向复合材料导热系数请求。
//
// NumberOfModel：1 混合律，2 Vanin 正方形排列模型。
type ThermalConductivityForUnidirectionalCompositeArgs struct {
	NumberOfModel uint8
	FibreContent  float64
	KForFiber     float64
	KForMatrix    float64
}

func (a *ThermalConductivityForUnidirectionalCompositeArgs) Descriptor() *layout.Descriptor {
	return ThermalConductivityForUnidirectionalCompositeArgsDesc
}

func (a *ThermalConductivityForUnidirectionalCompositeArgs) Slots() []codec.Slot {
	return []codec.Slot{
		codec.ByteSlot(&a.NumberOfModel),
		codec.DoubleSlot(&a.FibreContent),
		codec.DoubleSlot(&a.KForFiber),
		codec.DoubleSlot(&a.KForMatrix),
	}
}

func ThermalConductivityForUnidirectionalCompositeArgsExample() *ThermalConductivityForUnidirectionalCompositeArgs {
	return &ThermalConductivityForUnidirectionalCompositeArgs{
		NumberOfModel: 2,
		FibreContent:  0.2,
		KForFiber:     100.0,
		KForMatrix:    1.0,
	}
}

type ThermalConductivityForUnidirectionalCompositeResponse struct {
	K1, K2, K3 float64
}

func (r *ThermalConductivityForUnidirectionalCompositeResponse) SetValues(v [3]float64) {
	r.K1, r.K2, r.K3 = v[0], v[1], v[2]
}

func (r *ThermalConductivityForUnidirectionalCompositeResponse) Descriptor() *layout.Descriptor {
	return ThermalConductivityForUnidirectionalCompositeResponseDesc
}

func (r *ThermalConductivityForUnidirectionalCompositeResponse) Slots() []codec.Slot {
	return []codec.Slot{codec.DoubleSlot(&r.K1), codec.DoubleSlot(&r.K2), codec.DoubleSlot(&r.K3)}
}

func ThermalConductivityForUnidirectionalCompositeResponseExample() *ThermalConductivityForUnidirectionalCompositeResponse {
	return &ThermalConductivityForUnidirectionalCompositeResponse{
		K1: 20.8,
		K2: 1.3300670235932428,
		K3: 1.3300670235932428,
	}
}

// ThermalExpansionForUnidirectionalCompositeArgs 单向复合材料线膨胀系数请求。
//
// NumberOfModel：1 Vanin 模型。
type ThermalExpansionForUnidirectionalCompositeArgs struct {
	NumberOfModel  uint8
	FibreContent   float64
	EForFiber      float64
	NuForFiber     float64
	AlphaForFiber  float64
	EForMatrix     float64
	NuForMatrix    float64
	AlphaForMatrix float64
}

func (a *ThermalExpansionForUnidirectionalCompositeArgs) Descriptor() *layout.Descriptor {
	return ThermalExpansionForUnidirectionalCompositeArgsDesc
}

func (a *ThermalExpansionForUnidirectionalCompositeArgs) Slots() []codec.Slot {
	return []codec.Slot{
		codec.ByteSlot(&a.NumberOfModel),
		codec.DoubleSlot(&a.FibreContent),
		codec.DoubleSlot(&a.EForFiber),
		codec.DoubleSlot(&a.NuForFiber),
		codec.DoubleSlot(&a.AlphaForFiber),
		codec.DoubleSlot(&a.EForMatrix),
		codec.DoubleSlot(&a.NuForMatrix),
		codec.DoubleSlot(&a.AlphaForMatrix),
	}
}

func ThermalExpansionForUnidirectionalCompositeArgsExample() *ThermalExpansionForUnidirectionalCompositeArgs {
	return &ThermalExpansionForUnidirectionalCompositeArgs{
		NumberOfModel:  1,
		FibreContent:   0.2,
		EForFiber:      100.0,
		NuForFiber:     0.3,
		AlphaForFiber:  1e-6,
		EForMatrix:     5.0,
		NuForMatrix:    0.2,
		AlphaForMatrix: 2e-4,
	}
}

type ThermalExpansionForUnidirectionalCompositeResponse struct {
	ThermalExpansion
}

func (r *ThermalExpansionForUnidirectionalCompositeResponse) Descriptor() *layout.Descriptor {
	return ThermalExpansionForUnidirectionalCompositeResponseDesc
}

func (r *ThermalExpansionForUnidirectionalCompositeResponse) Slots() []codec.Slot {
	return r.slots()
}

func ThermalExpansionForUnidirectionalCompositeResponseExample() *ThermalExpansionForUnidirectionalCompositeResponse {
	r := &ThermalExpansionForUnidirectionalCompositeResponse{}
	r.SetValues([3]float64{9.9798988919207e-05, 1.5007164918677882e-04, 1.5007164918677882e-04})
	return r
}
