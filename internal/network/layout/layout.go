package layout

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/matprops-go/internal/network/endian"
)

// Kind 为记录字段的原始类型。
//
// 记录只由两种定长类型组成：1 字节无符号整数与 8 字节 IEEE-754 双精度浮点数。
type Kind uint8

const (
	KindByte Kind = iota + 1
	KindDouble
)

// PadCode 为格式串中填充字节使用的占位字符。
const PadCode = 'x'

// EndiannessField 为请求记录中隐式首字段的名称。
const EndiannessField = "endianness"

// Size 返回该类型占用的字节数。
func (k Kind) Size() int {
	switch k {
	case KindByte:
		return 1
	case KindDouble:
		return 8
	default:
		return 0
	}
}

// Align 返回该类型的自然对齐值（等于其大小）。
func (k Kind) Align() int {
	return k.Size()
}

// Code 返回该类型在格式串中的类型码（与 Python struct 模块一致）。
func (k Kind) Code() byte {
	switch k {
	case KindByte:
		return 'B'
	case KindDouble:
		return 'd'
	default:
		return '?'
	}
}

func (k Kind) String() string {
	switch k {
	case KindByte:
		return "byte"
	case KindDouble:
		return "double"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Field 描述记录中的一个字段。
type Field struct {
	Name string
	Kind Kind
}

// Byte 声明一个 1 字节字段。
func Byte(name string) Field {
	return Field{Name: name, Kind: KindByte}
}

// Double 声明一个 8 字节浮点字段。
func Double(name string) Field {
	return Field{Name: name, Kind: KindDouble}
}

// Direction 区分请求记录（args）与响应记录（response）。
type Direction uint8

const (
	Request Direction = iota
	Response
)

func (d Direction) String() string {
	if d == Response {
		return "response"
	}
	return "args"
}

// Descriptor 是一种记录类型在定义期即确定的布局描述。
//
// 布局遵循 C 规则：字段按声明顺序排列，每个字段按自身大小对齐，
// 记录末尾补齐到最大对齐值的整数倍。请求描述符总是以隐式的
// endianness 字节字段开头，响应描述符没有该字段。
//
// Descriptor 创建后只读，可在任意多个 goroutine 间共享。
type Descriptor struct {
	name      string
	direction Direction
	fields    []Field
	offsets   []int
	size      int
	align     int
	format    string
}

// NewRequest 创建请求记录描述符，并在 fields 之前插入 endianness 字段。
//
// 描述符属于定义期常量，参数非法（空名称、重复字段、未知类型）时直接 panic。
func NewRequest(name string, fields ...Field) *Descriptor {
	all := make([]Field, 0, len(fields)+1)
	all = append(all, Byte(EndiannessField))
	all = append(all, fields...)
	return mustDescriptor(name, Request, all)
}

// NewResponse 创建响应记录描述符。
func NewResponse(name string, fields ...Field) *Descriptor {
	return mustDescriptor(name, Response, append([]Field(nil), fields...))
}

func mustDescriptor(name string, dir Direction, fields []Field) *Descriptor {
	d, err := newDescriptor(name, dir, fields)
	if err != nil {
		panic(err)
	}
	return d
}

func newDescriptor(name string, dir Direction, fields []Field) (*Descriptor, error) {
	if name == "" {
		return nil, errors.Newf("layout: descriptor name is empty")
	}
	if len(fields) == 0 {
		return nil, errors.Newf("layout: descriptor %s has no fields", name)
	}

	d := &Descriptor{
		name:      name,
		direction: dir,
		fields:    fields,
		offsets:   make([]int, len(fields)),
		align:     1,
	}

	seen := make(map[string]struct{}, len(fields))
	var format strings.Builder
	cur := 0
	for i, f := range fields {
		if f.Kind.Size() == 0 {
			return nil, errors.Newf("layout: field %s.%s has unknown kind %d", name, f.Name, f.Kind)
		}
		if _, dup := seen[f.Name]; dup {
			return nil, errors.Newf("layout: duplicate field %s.%s", name, f.Name)
		}
		seen[f.Name] = struct{}{}

		pad := padding(cur, f.Kind.Align())
		writePad(&format, pad)
		cur += pad

		d.offsets[i] = cur
		// 多字节字段在格式串中只占一个类型码，与 struct 模块一致。
		format.WriteByte(f.Kind.Code())
		cur += f.Kind.Size()

		if f.Kind.Align() > d.align {
			d.align = f.Kind.Align()
		}
	}

	trailing := padding(cur, d.align)
	writePad(&format, trailing)
	d.size = cur + trailing
	d.format = format.String()
	return d, nil
}

// padding 返回从 offset 开始对齐到 align 需要的填充字节数。
func padding(offset, align int) int {
	return (align - offset%align) % align
}

func writePad(b *strings.Builder, n int) {
	for i := 0; i < n; i++ {
		b.WriteByte(PadCode)
	}
}

// Name 返回描述符名称（snake_case），同时用作路由名。
func (d *Descriptor) Name() string {
	return d.name
}

// Direction 返回记录方向。
func (d *Descriptor) Direction() Direction {
	return d.direction
}

// ContentType 返回该记录类型的 MIME 风格内容类型。
//
// 例如 application/x.elastic-modules-for-honeycomb-args-message。
func (d *Descriptor) ContentType() string {
	return "application/x." + strings.ReplaceAll(d.name, "_", "-") + "-" + d.direction.String() + "-message"
}

// Fields 返回全部字段（请求记录包含首个 endianness 字段）的副本。
func (d *Descriptor) Fields() []Field {
	return append([]Field(nil), d.fields...)
}

// Declared 返回业务声明的字段，不含隐式 endianness 字段。
func (d *Descriptor) Declared() []Field {
	return append([]Field(nil), d.fields[d.firstDeclared():]...)
}

// NumFields 返回全部字段数。
func (d *Descriptor) NumFields() int {
	return len(d.fields)
}

// Field 返回第 i 个字段。
func (d *Descriptor) Field(i int) Field {
	return d.fields[i]
}

// Offset 返回第 i 个字段在记录中的字节偏移。
func (d *Descriptor) Offset(i int) int {
	return d.offsets[i]
}

// Offsets 返回所有字段偏移的副本。
func (d *Descriptor) Offsets() []int {
	return append([]int(nil), d.offsets...)
}

// Size 返回记录总字节数（含字段间与末尾填充）。
func (d *Descriptor) Size() int {
	return d.size
}

// Align 返回记录的最大字段对齐值。
func (d *Descriptor) Align() int {
	return d.align
}

// Padding 返回记录中填充字节的总数。
func (d *Descriptor) Padding() int {
	n := d.size
	for _, f := range d.fields {
		n -= f.Kind.Size()
	}
	return n
}

// HasDouble 报告记录是否包含至少一个 Double 字段。
func (d *Descriptor) HasDouble() bool {
	for _, f := range d.fields {
		if f.Kind == KindDouble {
			return true
		}
	}
	return false
}

// FormatString 返回规范格式串：每个字段一个类型码，每个填充字节一个 'x'。
func (d *Descriptor) FormatString() string {
	return d.format
}

// StructFormat 返回带字节序前缀的 Python struct 格式串（'<' 小端，'>' 大端）。
//
// 显式前缀关闭了 struct 模块自身的对齐，填充完全由 'x' 表达。
func (d *Descriptor) StructFormat(tag endian.Tag) string {
	if tag == endian.Big {
		return ">" + d.format
	}
	return "<" + d.format
}

// IndexOf 返回字段下标（在 Fields() 中），不存在时返回 -1。
func (d *Descriptor) IndexOf(name string) int {
	for i, f := range d.fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// firstDeclared 返回首个业务字段在 fields 中的下标。
func (d *Descriptor) firstDeclared() int {
	if d.direction == Request {
		return 1
	}
	return 0
}

// Pack 按布局把 values 写入一块新分配、填充字节全为 0 的缓冲区。
//
// values 与 Fields() 一一对应；Byte 字段的值必须是 [0,255] 内的整数。
// 主要用于生成文档示例和测试数据。
func (d *Descriptor) Pack(order binary.ByteOrder, values ...float64) ([]byte, error) {
	if len(values) != len(d.fields) {
		return nil, errors.Newf("layout: %s expects %d values, got %d", d.name, len(d.fields), len(values))
	}
	buf := make([]byte, d.size)
	for i, f := range d.fields {
		off := d.offsets[i]
		switch f.Kind {
		case KindByte:
			v := values[i]
			if v != math.Trunc(v) || v < 0 || v > math.MaxUint8 {
				return nil, errors.Newf("layout: %s.%s value %v is not a byte", d.name, f.Name, v)
			}
			buf[off] = byte(v)
		case KindDouble:
			order.PutUint64(buf[off:off+8], math.Float64bits(values[i]))
		}
	}
	return buf, nil
}

// Unpack 是 Pack 的逆操作，buf 长度必须等于 Size()。
func (d *Descriptor) Unpack(order binary.ByteOrder, buf []byte) ([]float64, error) {
	if len(buf) != d.size {
		return nil, errors.Newf("layout: %s expects %d bytes, got %d", d.name, d.size, len(buf))
	}
	values := make([]float64, len(d.fields))
	for i, f := range d.fields {
		off := d.offsets[i]
		switch f.Kind {
		case KindByte:
			values[i] = float64(buf[off])
		case KindDouble:
			values[i] = math.Float64frombits(order.Uint64(buf[off : off+8]))
		}
	}
	return values, nil
}

func (d *Descriptor) String() string {
	return fmt.Sprintf("%s(%s, %d bytes, %q)", d.name, d.direction, d.size, d.format)
}
