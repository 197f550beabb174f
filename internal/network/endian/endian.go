package endian

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Tag 为请求记录首字节携带的字节序标记。
//
// 线上取值固定：0 表示小端，1 表示大端，其它取值一律视为非法。
type Tag uint8

const (
	Little Tag = 0
	Big    Tag = 1
)

// TryFromByte 将线上字节解析为 Tag，非 0/1 时返回 false。
func TryFromByte(b byte) (Tag, bool) {
	switch Tag(b) {
	case Little, Big:
		return Tag(b), true
	default:
		return 0, false
	}
}

// Byte 返回 Tag 在线上的字节表示。
func (t Tag) Byte() byte {
	return byte(t)
}

// ByteOrder 返回与 Tag 对应的 encoding/binary 字节序。
func (t Tag) ByteOrder() binary.ByteOrder {
	if t == Big {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Opposite 返回相反的字节序。
func (t Tag) Opposite() Tag {
	if t == Big {
		return Little
	}
	return Big
}

func (t Tag) String() string {
	switch t {
	case Little:
		return "little"
	case Big:
		return "big"
	default:
		return fmt.Sprintf("invalid(%d)", uint8(t))
	}
}

// Native 探测当前进程的字节序。
//
// 只应在进程启动时调用一次，结果通过构造参数显式注入 Decoder/Parcel，
// 这样编解码逻辑可以在任意宿主上以任意一种“本机序”进行测试。
func Native() Tag {
	var word [2]byte
	binary.NativeEndian.PutUint16(word[:], 1)
	if word[0] == 1 {
		return Little
	}
	return Big
}

// Parse 解析配置或命令行中的字节序名称。
//
// 支持 little/le/0、big/be/1，以及 native/auto（返回 Native()）。
func Parse(s string) (Tag, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "little", "le", "0":
		return Little, nil
	case "big", "be", "1":
		return Big, nil
	case "", "native", "auto":
		return Native(), nil
	default:
		return 0, fmt.Errorf("endian: unknown endianness %q", s)
	}
}
