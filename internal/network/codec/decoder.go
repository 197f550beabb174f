package codec

import (
	"math"

	"github.com/lk2023060901/matprops-go/internal/network/endian"
	"github.com/lk2023060901/matprops-go/internal/network/layout"
	"github.com/lk2023060901/matprops-go/pkg/util/merr"
)

// Decoder 把分块到达的请求体累积为一条定长请求记录。
//
// 使用方式：
//   - 每收到一块数据调用一次 Accumulate；
//   - 数据读完后调用 Finish，把记录解码到目标结构体中。
//
// Decoder 由单个请求独占，不支持并发调用。
type Decoder struct {
	native endian.Tag
	desc   *layout.Descriptor
	buf    []byte
}

// NewDecoder 创建一个面向 desc 的 Decoder，native 为本进程的字节序。
func NewDecoder(native endian.Tag, desc *layout.Descriptor) *Decoder {
	return &Decoder{
		native: native,
		desc:   desc,
		buf:    make([]byte, 0, desc.Size()),
	}
}

// Descriptor 返回 Decoder 面向的记录描述符。
func (d *Decoder) Descriptor() *layout.Descriptor {
	return d.desc
}

// Accumulate 追加一块数据。
//
// 若追加后总长度超过记录大小，返回 ErrProtocolOverflow，并丢弃已累积的数据。
func (d *Decoder) Accumulate(chunk []byte) error {
	got := len(d.buf) + len(chunk)
	if got > d.desc.Size() {
		d.buf = d.buf[:0]
		return merr.WrapErrProtocolOverflow(d.desc.Name(), d.desc.Size(), got)
	}
	d.buf = append(d.buf, chunk...)
	return nil
}

// Len 返回当前已累积的字节数。
func (d *Decoder) Len() int {
	return len(d.buf)
}

// Size 返回记录的固定字节数。
func (d *Decoder) Size() int {
	return d.desc.Size()
}

// Reset 丢弃已累积的数据，使 Decoder 可以复用。
func (d *Decoder) Reset() {
	d.buf = d.buf[:0]
}

// Finish 校验长度与字节序标记，把记录解码到 dst，返回请求携带的字节序。
//
// 步骤：
//  1. 长度必须恰好等于记录大小，否则返回 ErrProtocolLengthMismatch；
//  2. 首字节必须是 0 或 1，否则返回 ErrProtocolInvalidEndianness；
//  3. 标记与本机序不同时，原地反转每个 Double 字段的 8 个字节；
//  4. 按本机序读取各字段。
//
// 无论成功与否，Finish 返回后 Decoder 都会被重置。
func (d *Decoder) Finish(dst Record) (endian.Tag, error) {
	defer d.Reset()

	if len(d.buf) != d.desc.Size() {
		return 0, merr.WrapErrProtocolLengthMismatch(d.desc.Name(), d.desc.Size(), len(d.buf))
	}
	if err := Validate(dst); err != nil {
		return 0, err
	}
	if dst.Descriptor() != d.desc {
		return 0, merr.WrapErrProtocolLayout(d.desc.Name(), "destination record has a different descriptor "+dst.Descriptor().Name())
	}
	if d.desc.Direction() != layout.Request {
		return 0, merr.WrapErrProtocolLayout(d.desc.Name(), "only request records carry an endianness tag")
	}

	tag, ok := endian.TryFromByte(d.buf[d.desc.Offset(0)])
	if !ok {
		return 0, merr.WrapErrProtocolInvalidEndianness(d.desc.Name(), d.buf[d.desc.Offset(0)])
	}
	if tag != d.native {
		swapInPlace(d.desc, d.buf)
	}

	readSlots(d.desc, d.native, d.buf, dst.Slots())
	return tag, nil
}

// DecodeAs 是 NewDecoder + Accumulate + Finish 的便捷组合，用于整块数据已在内存中的场景。
func DecodeAs[R Record](native endian.Tag, data []byte, dst R) (endian.Tag, error) {
	dec := NewDecoder(native, dst.Descriptor())
	if err := dec.Accumulate(data); err != nil {
		return 0, err
	}
	return dec.Finish(dst)
}

// readSlots 按 order 从 buf 中读出业务字段（请求记录跳过 endianness 字段）。
func readSlots(desc *layout.Descriptor, order endian.Tag, buf []byte, slots []Slot) {
	bo := order.ByteOrder()
	first := desc.NumFields() - len(slots)
	for i, s := range slots {
		off := desc.Offset(first + i)
		switch s.kind {
		case layout.KindByte:
			*s.b = buf[off]
		case layout.KindDouble:
			*s.d = math.Float64frombits(bo.Uint64(buf[off : off+8]))
		}
	}
}

// writeSlots 按 order 把业务字段写入 buf，填充字节保持为 0。
func writeSlots(desc *layout.Descriptor, order endian.Tag, buf []byte, slots []Slot) {
	bo := order.ByteOrder()
	first := desc.NumFields() - len(slots)
	for i, s := range slots {
		off := desc.Offset(first + i)
		switch s.kind {
		case layout.KindByte:
			buf[off] = *s.b
		case layout.KindDouble:
			bo.PutUint64(buf[off:off+8], math.Float64bits(*s.d))
		}
	}
}
