package serializer

// Serializer 抽象了“对象 <-> 字节流”的序列化能力。
//
// 二进制记录由 codec 直接处理；Serializer 只用于格式文档、版本信息与错误体等 JSON 报文。
type Serializer interface {
	// Marshal 将任意对象编码为字节序列。
	Marshal(v any) ([]byte, error)

	// Unmarshal 将字节序列解码到目标对象。
	//
	// v 通常为指针类型，用于接收解码结果。
	Unmarshal(data []byte, v any) error

	// ContentType 返回编码结果的内容类型。
	ContentType() string
}
