package message

import (
	"math"

	"github.com/lk2023060901/matprops-go/internal/network/codec"
	"github.com/lk2023060901/matprops-go/internal/network/layout"
)

const EffectiveProperties = "effective_properties"

var (
	EffectivePropertiesArgsDesc = layout.NewRequest(EffectiveProperties,
		layout.Byte("number_of_model"),
		layout.Double("l_x"),
		layout.Double("l_y"),
		layout.Double("l_z"),
		layout.Double("f_x"),
		layout.Double("f_y"),
		layout.Double("f_z"),
		layout.Double("uuu"),
		layout.Double("u_for_nu_1"),
		layout.Double("u_for_nu_2"),
	)
	EffectivePropertiesResponseDesc = layout.NewResponse(EffectiveProperties,
		layout.Double("first"), layout.Double("second"), layout.Double("third"),
	)
)

// EffectivePropertiesArgs 由试样尺寸、载荷与位移求等效泊松比（模型 0~2）或剪切模量（模型 3~5）。
//
// UForNu1 / UForNu2 为 NaN 表示未提供。
type EffectivePropertiesArgs struct {
	NumberOfModel uint8
	LX, LY, LZ    float64
	FX, FY, FZ    float64
	UUU           float64
	UForNu1       float64
	UForNu2       float64
}

func (a *EffectivePropertiesArgs) Descriptor() *layout.Descriptor {
	return EffectivePropertiesArgsDesc
}

func (a *EffectivePropertiesArgs) Slots() []codec.Slot {
	return []codec.Slot{
		codec.ByteSlot(&a.NumberOfModel),
		codec.DoubleSlot(&a.LX),
		codec.DoubleSlot(&a.LY),
		codec.DoubleSlot(&a.LZ),
		codec.DoubleSlot(&a.FX),
		codec.DoubleSlot(&a.FY),
		codec.DoubleSlot(&a.FZ),
		codec.DoubleSlot(&a.UUU),
		codec.DoubleSlot(&a.UForNu1),
		codec.DoubleSlot(&a.UForNu2),
	}
}

func EffectivePropertiesArgsExample() *EffectivePropertiesArgs {
	return &EffectivePropertiesArgs{
		NumberOfModel: 0,
		LX:            10,
		LY:            20,
		LZ:            30,
		FX:            100,
		FY:            200,
		FZ:            300,
		UUU:           0.5,
		UForNu1:       0.1,
		UForNu2:       0.2,
	}
}

// EffectivePropertiesResponse 模型 0~2 三个字段均为泊松比；模型 3~5 仅 First 有效，其余为 NaN。
type EffectivePropertiesResponse struct {
	First, Second, Third float64
}

func (r *EffectivePropertiesResponse) SetValues(v [3]float64) {
	r.First, r.Second, r.Third = v[0], v[1], v[2]
}

func (r *EffectivePropertiesResponse) Descriptor() *layout.Descriptor {
	return EffectivePropertiesResponseDesc
}

func (r *EffectivePropertiesResponse) Slots() []codec.Slot {
	return []codec.Slot{codec.DoubleSlot(&r.First), codec.DoubleSlot(&r.Second), codec.DoubleSlot(&r.Third)}
}

func EffectivePropertiesResponseExample() *EffectivePropertiesResponse {
	return &EffectivePropertiesResponse{
		First:  3.3333333333333335,
		Second: -0.1,
		Third:  -0.13333333333333333,
	}
}

// Absent 报告可选参数是否缺省。
func Absent(v float64) bool {
	return math.IsNaN(v)
}
