package codec

import (
	"github.com/lk2023060901/matprops-go/internal/network/endian"
	"github.com/lk2023060901/matprops-go/internal/network/layout"
	"github.com/lk2023060901/matprops-go/pkg/util/merr"
)

// EncodeRequest 按 tag 指定的字节序把请求记录编码为线上字节。
//
// 首字节写入 tag，Double 字段先按本机序写入，tag 与本机序不同时再整体反转。
// 这是 Decoder.Finish 的逆过程，主要供客户端与测试使用。
func EncodeRequest(tag, native endian.Tag, rec Record) ([]byte, error) {
	if err := Validate(rec); err != nil {
		return nil, err
	}
	desc := rec.Descriptor()
	if desc.Direction() != layout.Request {
		return nil, merr.WrapErrProtocolLayout(desc.Name(), "not a request record")
	}
	buf := make([]byte, desc.Size())
	buf[desc.Offset(0)] = tag.Byte()
	writeSlots(desc, native, buf, rec.Slots())
	if tag != native {
		swapInPlace(desc, buf)
	}
	return buf, nil
}

// DecodeResponse 把服务端按 tag 字节序返回的响应字节解码到 dst。
func DecodeResponse(data []byte, tag, native endian.Tag, dst Record) error {
	if err := Validate(dst); err != nil {
		return err
	}
	desc := dst.Descriptor()
	if len(data) != desc.Size() {
		return merr.WrapErrProtocolLengthMismatch(desc.Name(), desc.Size(), len(data))
	}
	buf := append([]byte(nil), data...)
	if tag != native {
		swapInPlace(desc, buf)
	}
	readSlots(desc, native, buf, dst.Slots())
	return nil
}
