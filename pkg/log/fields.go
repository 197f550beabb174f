package log

import (
	"go.uber.org/zap"
)

const (
	FieldNameModule     = "module"
	FieldNameComponent  = "component"
	FieldNameMessage    = "message"
	FieldNameStage      = "stage"
	FieldNameEndianness = "endianness"
	FieldNameTraceID    = "traceID"
	FieldNameReqID      = "reqID"
)

// FieldModule 返回一个包含模块名的 zap 字段。
func FieldModule(module string) zap.Field {
	return zap.String(FieldNameModule, module)
}

// FieldComponent 返回一个包含组件名的 zap 字段。
func FieldComponent(component string) zap.Field {
	return zap.String(FieldNameComponent, component)
}

// FieldMessage 返回一个包含记录类型名（如 elastic_modules_for_honeycomb）的 zap 字段。
func FieldMessage(name string) zap.Field {
	return zap.String(FieldNameMessage, name)
}

// FieldStage 返回一个包含处理阶段的 zap 字段。
func FieldStage(stage string) zap.Field {
	return zap.String(FieldNameStage, stage)
}

// FieldEndianness 返回一个包含请求字节序的 zap 字段。
func FieldEndianness(tag string) zap.Field {
	return zap.String(FieldNameEndianness, tag)
}
