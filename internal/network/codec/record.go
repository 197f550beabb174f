package codec

import (
	"fmt"

	"github.com/lk2023060901/matprops-go/internal/network/layout"
	"github.com/lk2023060901/matprops-go/pkg/util/merr"
)

// Slot 指向记录结构体中的一个字段。
//
// Record 通过 Slots 暴露字段地址，Decoder 与 Parcel 借此在不使用反射的前提下
// 读写具体的业务结构体。
type Slot struct {
	kind layout.Kind
	b    *uint8
	d    *float64
}

// ByteSlot 包装一个 1 字节字段。
func ByteSlot(p *uint8) Slot {
	return Slot{kind: layout.KindByte, b: p}
}

// DoubleSlot 包装一个 8 字节浮点字段。
func DoubleSlot(p *float64) Slot {
	return Slot{kind: layout.KindDouble, d: p}
}

// Kind 返回字段类型。
func (s Slot) Kind() layout.Kind {
	return s.kind
}

// Float 以 float64 形式读取字段值。
func (s Slot) Float() float64 {
	switch s.kind {
	case layout.KindByte:
		return float64(*s.b)
	case layout.KindDouble:
		return *s.d
	default:
		return 0
	}
}

func (s Slot) isNil() bool {
	switch s.kind {
	case layout.KindByte:
		return s.b == nil
	case layout.KindDouble:
		return s.d == nil
	default:
		return true
	}
}

// Record 是一种固定布局的请求或响应记录。
//
// 约定：
//   - Descriptor 返回该记录类型的布局描述（通常为包级变量）；
//   - Slots 按声明顺序返回业务字段的地址，不包含请求记录隐式的 endianness 字段。
type Record interface {
	Descriptor() *layout.Descriptor
	Slots() []Slot
}

// Validate 检查记录的 Slots 是否与其描述符一致。
//
// 不一致说明记录类型定义有误，返回 ErrProtocolLayout。
func Validate(rec Record) error {
	if rec == nil {
		return merr.WrapErrProtocolLayout("<nil>", "record is nil")
	}
	desc := rec.Descriptor()
	if desc == nil {
		return merr.WrapErrProtocolLayout(fmt.Sprintf("%T", rec), "descriptor is nil")
	}
	declared := desc.Declared()
	slots := rec.Slots()
	if len(slots) != len(declared) {
		return merr.WrapErrProtocolLayout(desc.Name(),
			fmt.Sprintf("record exposes %d slots, descriptor declares %d fields", len(slots), len(declared)))
	}
	for i, f := range declared {
		if slots[i].kind != f.Kind {
			return merr.WrapErrProtocolLayout(desc.Name(),
				fmt.Sprintf("slot %d (%s) is %s, descriptor says %s", i, f.Name, slots[i].kind, f.Kind))
		}
		if slots[i].isNil() {
			return merr.WrapErrProtocolLayout(desc.Name(), fmt.Sprintf("slot %d (%s) is nil", i, f.Name))
		}
	}
	return nil
}

// Values 按声明顺序返回记录全部业务字段的值。
func Values(rec Record) []float64 {
	slots := rec.Slots()
	values := make([]float64, len(slots))
	for i, s := range slots {
		values[i] = s.Float()
	}
	return values
}

// Get 按字段名读取值。
func Get(rec Record, name string) (float64, error) {
	s, err := slotByName(rec, name)
	if err != nil {
		return 0, err
	}
	return s.Float(), nil
}

// Set 按字段名写入值；Byte 字段要求 v 为 [0,255] 内的整数。
func Set(rec Record, name string, v float64) error {
	s, err := slotByName(rec, name)
	if err != nil {
		return err
	}
	switch s.kind {
	case layout.KindByte:
		b, ok := toByte(v)
		if !ok {
			return merr.WrapErrParameterInvalidRange(0, 255, v, name+" must be an integer byte")
		}
		*s.b = b
	case layout.KindDouble:
		*s.d = v
	}
	return nil
}

func slotByName(rec Record, name string) (Slot, error) {
	if err := Validate(rec); err != nil {
		return Slot{}, err
	}
	for i, f := range rec.Descriptor().Declared() {
		if f.Name == name {
			return rec.Slots()[i], nil
		}
	}
	return Slot{}, merr.WrapErrParameterInvalidMsg("%s has no field %q", rec.Descriptor().Name(), name)
}

func toByte(v float64) (uint8, bool) {
	if v != v || v < 0 || v > 255 || v != float64(uint8(v)) {
		return 0, false
	}
	return uint8(v), true
}
