package funcutil

import (
	"context"
)

// CheckCtxValid 判断 ctx 是否仍然有效（未取消、未超时）。
func CheckCtxValid(ctx context.Context) bool {
	return ctx.Err() == nil
}

// CheckCtxValidWithCause 在 ctx 失效时返回失效原因，否则返回 nil。
func CheckCtxValidWithCause(ctx context.Context) error {
	if ctx.Err() == nil {
		return nil
	}
	if cause := context.Cause(ctx); cause != nil {
		return cause
	}
	return ctx.Err()
}
