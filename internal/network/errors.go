package network

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Stage 表示一次计算请求在处理链路中的阶段。
//
// 主要用于在日志与监控中标记错误发生的位置，便于排查。
type Stage string

const (
	StageRoute   Stage = "route"   // 内容类型/路由名 -> Route
	StageReceive Stage = "receive" // 读取请求体并累积到 Decoder
	StageDecode  Stage = "decode"  // 字节 -> 请求记录
	StageCompute Stage = "compute" // 请求记录 -> 响应记录
	StageEncode  Stage = "encode"  // 响应记录 -> Parcel
	StageSend    Stage = "send"    // Parcel 写回对端
)

// 统一的错误码常量。
//
// 注意：这些是用于日志/监控的稳定字符串，真正的 error 对象在下面通过 errors.New 构造。
const (
	ErrCodeRouteFailed   = "network:route_failed"
	ErrCodeReceiveFailed = "network:receive_failed"
	ErrCodeDecodeFailed  = "network:decode_failed"
	ErrCodeComputeFailed = "network:compute_failed"
	ErrCodeEncodeFailed  = "network:encode_failed"
	ErrCodeSendFailed    = "network:send_failed"
)

var (
	// ErrRouteFailed 表示找不到与请求匹配的路由。
	ErrRouteFailed = errors.New(ErrCodeRouteFailed)

	// ErrReceiveFailed 表示在读取请求体时发生错误（传输错误或溢出）。
	ErrReceiveFailed = errors.New(ErrCodeReceiveFailed)

	// ErrDecodeFailed 表示在将累积字节解码为请求记录时发生错误。
	ErrDecodeFailed = errors.New(ErrCodeDecodeFailed)

	// ErrComputeFailed 表示计算内核返回了错误。
	ErrComputeFailed = errors.New(ErrCodeComputeFailed)

	// ErrEncodeFailed 表示在将响应记录编码为字节时发生错误。
	ErrEncodeFailed = errors.New(ErrCodeEncodeFailed)

	// ErrSendFailed 表示在发送数据到对端时发生错误。
	ErrSendFailed = errors.New(ErrCodeSendFailed)
)

var stageErrors = map[Stage]error{
	StageRoute:   ErrRouteFailed,
	StageReceive: ErrReceiveFailed,
	StageDecode:  ErrDecodeFailed,
	StageCompute: ErrComputeFailed,
	StageEncode:  ErrEncodeFailed,
	StageSend:    ErrSendFailed,
}

// StageError 为带阶段信息的错误。
//
// errors.Is 既可以匹配阶段哨兵错误（如 ErrDecodeFailed），也可以匹配底层的 merr 错误。
type StageError struct {
	Stage Stage
	Err   error
}

// WrapStage 为 err 附加阶段信息，err 为 nil 时返回 nil。
func WrapStage(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Is 使 errors.Is(err, ErrDecodeFailed) 之类的判断成立。
func (e *StageError) Is(target error) bool {
	sentinel, ok := stageErrors[e.Stage]
	return ok && sentinel == target
}

// StageOf 返回 err 链上最近的阶段，没有阶段信息时返回空串。
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
