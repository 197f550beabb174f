// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package merr

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
)

// Code 返回给定错误对应的错误码。
func Code(err error) int32 {
	if err == nil {
		return 0
	}

	cause := errors.Cause(err)
	switch specificErr := cause.(type) {
	case propsError:
		return specificErr.code()

	default:
		if errors.Is(specificErr, context.Canceled) {
			return CanceledCode
		} else if errors.Is(specificErr, context.DeadlineExceeded) {
			return TimeoutCode
		} else {
			return errUnexpected.code()
		}
	}
}

func IsRetryableErr(err error) bool {
	var perr propsError
	if errors.As(err, &perr) {
		return perr.retriable
	}
	return false
}

func IsCanceledOrTimeout(err error) bool {
	return errors.IsAny(err, context.Canceled, context.DeadlineExceeded)
}

// Status 是错误在 HTTP 边界上的 JSON 表示。
type Status struct {
	Code      int32  `json:"code"`
	Msg       string `json:"msg"`
	Type      string `json:"type,omitempty"`
	Retriable bool   `json:"retriable,omitempty"`
}

// NewStatus 根据给定错误构造 Status。
// 当 err 为空时，返回一个表示成功的 Status。
func NewStatus(err error) *Status {
	if err == nil {
		return &Status{}
	}

	return &Status{
		Code:      Code(err),
		Msg:       previousLastError(err).Error(),
		Type:      GetErrorType(err).String(),
		Retriable: IsRetryableErr(err),
	}
}

func previousLastError(err error) error {
	lastErr := err
	for {
		nextErr := errors.Unwrap(err)
		if nextErr == nil {
			break
		}
		lastErr = err
		err = nextErr
	}
	return lastErr
}

func Ok(status *Status) bool {
	return status != nil && status.Code == 0
}

// Error returns a error according to the given status,
// returns nil if the status is a success status
func Error(status *Status) error {
	if Ok(status) {
		return nil
	}

	return newPropsError(status.Msg, status.Code, status.Retriable, WithErrorType(ParseErrorType(status.Type)))
}

// HTTPStatus 将错误映射为 HTTP 状态码。
//
// 输入类错误映射为 4xx，其余映射为 500。
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch {
	case errors.IsAny(err, ErrHTTPRateLimit, ErrServiceRateLimit, ErrServiceTooManyRequests):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrOperationNotSupported):
		return http.StatusNotFound
	case errors.IsAny(err, ErrServiceNotReady, ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	}
	if GetErrorType(err) == InputError {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func GetErrorType(err error) ErrorType {
	var perr propsError
	if errors.As(err, &perr) {
		return perr.errType
	}

	return SystemError
}

// Service 相关错误封装。
func WrapErrServiceNotReady(role string, state string, msg ...string) error {
	err := wrapFieldsWithDesc(ErrServiceNotReady,
		state,
		value("role", role),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrServiceUnavailable(reason string, msg ...string) error {
	err := wrapFieldsWithDesc(ErrServiceUnavailable, reason)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrTooManyRequests(limit int32, msg ...string) error {
	err := wrapFields(ErrServiceTooManyRequests,
		value("limit", limit),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrServiceInternal(reason string, msg ...string) error {
	err := wrapFieldsWithDesc(ErrServiceInternal, reason)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrServiceRateLimit(rate float64, msg ...string) error {
	err := wrapFields(ErrServiceRateLimit, value("rate", rate))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrServiceUnimplemented(reason string) error {
	return wrapFieldsWithDesc(ErrServiceUnimplemented, reason)
}

func WrapErrHTTPRateLimit(path string, limit float64) error {
	return wrapFields(ErrHTTPRateLimit, value("path", path), value("qps", limit))
}

// IO 相关错误封装。
func WrapErrIoFailed(key string, err error) error {
	if err == nil {
		return nil
	}
	return wrapFieldsWithDesc(ErrIoFailed, err.Error(), value("key", key))
}

func WrapErrIoUnexpectEOF(key string, err error) error {
	if err == nil {
		return nil
	}
	return wrapFieldsWithDesc(ErrIoUnexpectEOF, err.Error(), value("key", key))
}

// 参数相关错误封装。
func WrapErrParameterInvalid[T any](expected, actual T, msg ...string) error {
	err := wrapFields(ErrParameterInvalid,
		value("expected", expected),
		value("actual", actual),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrParameterInvalidRange[T any](lower, upper, actual T, msg ...string) error {
	err := wrapFields(ErrParameterInvalid,
		bound("value", actual, lower, upper),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrParameterInvalidMsg(fmt string, args ...any) error {
	return errors.Wrapf(ErrParameterInvalid, fmt, args...)
}

func WrapErrParameterMissing[T any](param T, msg ...string) error {
	err := wrapFields(ErrParameterMissing,
		value("missing_param", param),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrOperationNotSupported(operation string, msg ...string) error {
	err := wrapFields(ErrOperationNotSupported, value("operation", operation))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// 二进制记录协议相关错误封装。
func WrapErrProtocolOverflow(message string, limit, got int) error {
	return wrapFields(ErrProtocolOverflow,
		value("message", message),
		value("limit", limit),
		value("got", got),
	)
}

func WrapErrProtocolLengthMismatch(message string, expected, actual int) error {
	return wrapFields(ErrProtocolLengthMismatch,
		value("message", message),
		value("expected", expected),
		value("actual", actual),
	)
}

func WrapErrProtocolInvalidEndianness(message string, tag byte) error {
	return wrapFields(ErrProtocolInvalidEndianness,
		value("message", message),
		value("tag", tag),
	)
}

func WrapErrProtocolTransport(message string, err error) error {
	if err == nil {
		return nil
	}
	return wrapFieldsWithDesc(ErrProtocolTransport, err.Error(), value("message", message))
}

func WrapErrProtocolLayout(message string, reason string) error {
	return wrapFieldsWithDesc(ErrProtocolLayout, reason, value("message", message))
}

// 计算内核相关错误封装。
func WrapErrComputeUnknownModel(kernel string, model uint8) error {
	return wrapFields(ErrComputeUnknownModel,
		value("kernel", kernel),
		value("number_of_model", model),
	)
}

func WrapErrComputeArgumentMissing(kernel string, argument string) error {
	return wrapFields(ErrComputeArgumentMissing,
		value("kernel", kernel),
		value("argument", argument),
	)
}

func WrapErrComputeNumerical(kernel string, reason string) error {
	return wrapFieldsWithDesc(ErrComputeNumerical, reason, value("kernel", kernel))
}

func wrapFields(err propsError, fields ...errorField) error {
	for i := range fields {
		err.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	return err
}

func wrapFieldsWithDesc(err propsError, desc string, fields ...errorField) error {
	for i := range fields {
		err.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	err.msg += ": " + desc
	return err
}

type errorField interface {
	String() string
}

type valueField struct {
	name  string
	value any
}

func value(name string, value any) valueField {
	return valueField{
		name,
		value,
	}
}

func (f valueField) String() string {
	return fmt.Sprintf("%s=%v", f.name, f.value)
}

type boundField struct {
	name  string
	value any
	lower any
	upper any
}

func bound(name string, value, lower, upper any) boundField {
	return boundField{
		name,
		value,
		lower,
		upper,
	}
}

func (f boundField) String() string {
	return fmt.Sprintf("%v out of range %v <= %s <= %v", f.value, f.lower, f.name, f.upper)
}
