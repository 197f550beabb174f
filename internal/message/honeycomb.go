package message

import (
	"math"

	"github.com/lk2023060901/matprops-go/internal/network/codec"
	"github.com/lk2023060901/matprops-go/internal/network/layout"
)

const (
	ElasticModulesForHoneycomb   = "elastic_modules_for_honeycomb"
	ThermalExpansionForHoneycomb = "thermal_expansion_for_honeycomb"
)

var (
	ElasticModulesForHoneycombArgsDesc = layout.NewRequest(ElasticModulesForHoneycomb,
		layout.Byte("number_of_model"),
		layout.Double("l_cell_side_size"),
		layout.Double("h_cell_side_size"),
		layout.Double("wall_thickness"),
		layout.Double("angle"),
		layout.Double("e_for_honeycomb"),
		layout.Double("nu_for_honeycomb"),
	)
	ElasticModulesForHoneycombResponseDesc = layout.NewResponse(ElasticModulesForHoneycomb,
		elasticModuliFields()...,
	)

	ThermalExpansionForHoneycombArgsDesc = layout.NewRequest(ThermalExpansionForHoneycomb,
		layout.Byte("number_of_model"),
		layout.Double("l_cell_side_size"),
		layout.Double("h_cell_side_size"),
		layout.Double("wall_thickness"),
		layout.Double("angle"),
		layout.Double("alpha_for_honeycomb"),
	)
	ThermalExpansionForHoneycombResponseDesc = layout.NewResponse(ThermalExpansionForHoneycomb,
		thermalExpansionFields()...,
	)
)

// ElasticModulesForHoneycombArgs 蜂窝芯弹性常数请求，Angle 以弧度表示。
type ElasticModulesForHoneycombArgs struct {
	NumberOfModel  uint8
	LCellSideSize  float64
	HCellSideSize  float64
	WallThickness  float64
	Angle          float64
	EForHoneycomb  float64
	NuForHoneycomb float64
}

func (a *ElasticModulesForHoneycombArgs) Descriptor() *layout.Descriptor {
	return ElasticModulesForHoneycombArgsDesc
}

func (a *ElasticModulesForHoneycombArgs) Slots() []codec.Slot {
	return []codec.Slot{
		codec.ByteSlot(&a.NumberOfModel),
		codec.DoubleSlot(&a.LCellSideSize),
		codec.DoubleSlot(&a.HCellSideSize),
		codec.DoubleSlot(&a.WallThickness),
		codec.DoubleSlot(&a.Angle),
		codec.DoubleSlot(&a.EForHoneycomb),
		codec.DoubleSlot(&a.NuForHoneycomb),
	}
}

func ElasticModulesForHoneycombArgsExample() *ElasticModulesForHoneycombArgs {
	return &ElasticModulesForHoneycombArgs{
		NumberOfModel:  1,
		LCellSideSize:  9.24,
		HCellSideSize:  8.4619,
		WallThickness:  0.4,
		Angle:          math.Pi / 6,
		EForHoneycomb:  7.07,
		NuForHoneycomb: 0.2,
	}
}

type ElasticModulesForHoneycombResponse struct {
	ElasticModuli
}

func (r *ElasticModulesForHoneycombResponse) Descriptor() *layout.Descriptor {
	return ElasticModulesForHoneycombResponseDesc
}

func (r *ElasticModulesForHoneycombResponse) Slots() []codec.Slot {
	return r.slots()
}

func ElasticModulesForHoneycombResponseExample() *ElasticModulesForHoneycombResponse {
	r := &ElasticModulesForHoneycombResponse{}
	r.SetValues([9]float64{
		0.0014972693834675922, 0.0013344741623586129, 0.3592394105863781,
		1.0512175946777975, 0.0008335774635770805, 0.0007429441887683659,
		0.000288216866909449, 0.07995563727728495, 0.0755763830773748,
	})
	return r
}

// ThermalExpansionForHoneycombArgs 蜂窝芯线膨胀系数请求。WallThickness 不参与计算。
type ThermalExpansionForHoneycombArgs struct {
	NumberOfModel     uint8
	LCellSideSize     float64
	HCellSideSize     float64
	WallThickness     float64
	Angle             float64
	AlphaForHoneycomb float64
}

func (a *ThermalExpansionForHoneycombArgs) Descriptor() *layout.Descriptor {
	return ThermalExpansionForHoneycombArgsDesc
}

func (a *ThermalExpansionForHoneycombArgs) Slots() []codec.Slot {
	return []codec.Slot{
		codec.ByteSlot(&a.NumberOfModel),
		codec.DoubleSlot(&a.LCellSideSize),
		codec.DoubleSlot(&a.HCellSideSize),
		codec.DoubleSlot(&a.WallThickness),
		codec.DoubleSlot(&a.Angle),
		codec.DoubleSlot(&a.AlphaForHoneycomb),
	}
}

func ThermalExpansionForHoneycombArgsExample() *ThermalExpansionForHoneycombArgs {
	return &ThermalExpansionForHoneycombArgs{
		NumberOfModel:     1,
		LCellSideSize:     9.24,
		HCellSideSize:     8.4619,
		WallThickness:     0.4,
		Angle:             math.Pi / 6,
		AlphaForHoneycomb: 2e-4,
	}
}

type ThermalExpansionForHoneycombResponse struct {
	ThermalExpansion
}

func (r *ThermalExpansionForHoneycombResponse) Descriptor() *layout.Descriptor {
	return ThermalExpansionForHoneycombResponseDesc
}

func (r *ThermalExpansionForHoneycombResponse) Slots() []codec.Slot {
	return r.slots()
}

func ThermalExpansionForHoneycombResponseExample() *ThermalExpansionForHoneycombResponse {
	r := &ThermalExpansionForHoneycombResponse{}
	r.SetValues([3]float64{0.0002, 0.00019999999999999966, 0.0002})
	return r
}
