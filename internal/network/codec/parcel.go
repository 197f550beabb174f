package codec

import (
	"github.com/lk2023060901/matprops-go/internal/network/endian"
	"github.com/lk2023060901/matprops-go/internal/network/layout"
)

// Parcel 把一条响应记录包装为“恰好产出一块数据”的序列。
//
// 传输层应先用 DeclaredSize 设置 Content-Length，再调用 NextChunk 取得唯一的数据块。
// NextChunk 第一次返回 (bytes, true)，之后永远返回 (nil, false)，不会重试也不会重新开始。
type Parcel struct {
	target endian.Tag
	native endian.Tag
	desc   *layout.Descriptor
	raw    []byte

	alreadySent bool
}

// NewParcel 以本机序快照 rec 的字段，target 为对端请求携带的字节序。
//
// rec 的布局必须与其描述符一致，否则返回 ErrProtocolLayout。
func NewParcel(target, native endian.Tag, rec Record) (*Parcel, error) {
	if err := Validate(rec); err != nil {
		return nil, err
	}
	desc := rec.Descriptor()
	raw := make([]byte, desc.Size())
	writeSlots(desc, native, raw, rec.Slots())
	return &Parcel{
		target: target,
		native: native,
		desc:   desc,
		raw:    raw,
	}, nil
}

// DeclaredSize 返回响应体的固定字节数。
func (p *Parcel) DeclaredSize() int {
	return p.desc.Size()
}

// Descriptor 返回响应记录的描述符。
func (p *Parcel) Descriptor() *layout.Descriptor {
	return p.desc
}

// Target 返回响应编码使用的字节序。
func (p *Parcel) Target() endian.Tag {
	return p.target
}

// NextChunk 第一次调用时返回完整的响应字节：target 与本机序相同时原样返回，
// 否则反转每个 8 字节字段；之后的调用都返回 (nil, false)。
func (p *Parcel) NextChunk() ([]byte, bool) {
	if p.alreadySent {
		return nil, false
	}
	p.alreadySent = true

	out := p.raw
	p.raw = nil
	if p.target != p.native {
		swapInPlace(p.desc, out)
	}
	return out, true
}

// Sent 报告唯一的数据块是否已经被取走。
func (p *Parcel) Sent() bool {
	return p.alreadySent
}
