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
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

const (
	CanceledCode int32 = 10000
	TimeoutCode  int32 = 10001
)

type ErrorType int32

const (
	SystemError ErrorType = 0
	InputError  ErrorType = 1
)

var ErrorTypeName = map[ErrorType]string{
	SystemError: "system_error",
	InputError:  "input_error",
}

func (err ErrorType) String() string {
	return ErrorTypeName[err]
}

// ParseErrorType is the inverse of ErrorType.String, unknown names map to SystemError.
func ParseErrorType(name string) ErrorType {
	for t, n := range ErrorTypeName {
		if n == name {
			return t
		}
	}
	return SystemError
}

// Define leaf errors here,
// WARN: take care to add new error,
// check whether you can use the errors below before adding a new one.
// Name: Err + related prefix + error name
var (
	// Service related
	ErrServiceNotReady        = newPropsError("service not ready", 1, true)
	ErrServiceUnavailable     = newPropsError("service unavailable", 2, true)
	ErrServiceTooManyRequests = newPropsError("too many concurrent requests, queue is full", 4, true)
	ErrServiceInternal        = newPropsError("service internal error", 5, false)
	ErrServiceRateLimit       = newPropsError("rate limit exceeded", 8, true)
	ErrServiceUnimplemented   = newPropsError("service unimplemented", 10, false)

	// IO related
	ErrIoFailed      = newPropsError("IO failed", 1001, false)
	ErrIoUnexpectEOF = newPropsError("unexpected EOF", 1002, true)

	// Parameter related
	ErrParameterInvalid = newPropsError("invalid parameter", 1100, false, WithErrorType(InputError))
	ErrParameterMissing = newPropsError("missing parameter", 1101, false, WithErrorType(InputError))

	// high-level http api related
	ErrHTTPRateLimit = newPropsError("request is rejected by limiter", 1807, true, WithErrorType(InputError))

	// General
	ErrOperationNotSupported = newPropsError("unsupported operation", 3000, false, WithErrorType(InputError))

	// Binary record protocol related.
	// All of them are caused by what the client sent, except ErrProtocolLayout
	// which means a record type does not agree with its own descriptor.
	ErrProtocolOverflow          = newPropsError("args buffer overflow", 4000, false, WithErrorType(InputError))
	ErrProtocolLengthMismatch    = newPropsError("record length mismatch", 4001, false, WithErrorType(InputError))
	ErrProtocolInvalidEndianness = newPropsError("invalid endianness", 4002, false, WithErrorType(InputError))
	ErrProtocolTransport         = newPropsError("error receiving the payload", 4003, false, WithErrorType(InputError))
	ErrProtocolLayout            = newPropsError("record layout mismatch", 4004, false)

	// Computation kernel related
	ErrComputeUnknownModel    = newPropsError("unknown model", 4100, false)
	ErrComputeArgumentMissing = newPropsError("expected argument missing", 4101, false)
	ErrComputeNumerical       = newPropsError("numerical error", 4102, false)

	// Do NOT export this,
	// never allow programmer using this, keep only for converting unknown error to propsError
	errUnexpected = newPropsError("unexpected error", (1<<16)-1, false)
)

type errorOption func(*propsError)

func WithErrorType(etype ErrorType) errorOption {
	return func(err *propsError) {
		err.errType = etype
	}
}

type propsError struct {
	msg       string
	retriable bool
	errCode   int32
	errType   ErrorType
}

func newPropsError(msg string, code int32, retriable bool, options ...errorOption) propsError {
	err := propsError{
		msg:       msg,
		retriable: retriable,
		errCode:   code,
	}

	for _, option := range options {
		option(&err)
	}
	return err
}

func (e propsError) code() int32 {
	return e.errCode
}

func (e propsError) Error() string {
	return e.msg
}

func (e propsError) Is(err error) bool {
	cause := errors.Cause(err)
	if cause, ok := cause.(propsError); ok {
		return e.errCode == cause.errCode
	}
	return false
}

type multiErrors struct {
	errs []error
}

func (e multiErrors) Unwrap() error {
	if len(e.errs) <= 1 {
		return nil
	}
	// To make merr work for multi errors,
	// we need cause of multi errors, which defined as the last error
	if len(e.errs) == 2 {
		return e.errs[1]
	}

	return multiErrors{
		errs: e.errs[1:],
	}
}

func (e multiErrors) Error() string {
	final := e.errs[0]
	for i := 1; i < len(e.errs); i++ {
		final = errors.Wrap(e.errs[i], final.Error())
	}
	return final.Error()
}

func (e multiErrors) Is(err error) bool {
	for _, item := range e.errs {
		if errors.Is(item, err) {
			return true
		}
	}
	return false
}

func Combine(errs ...error) error {
	errs = lo.Filter(errs, func(err error, _ int) bool { return err != nil })
	if len(errs) == 0 {
		return nil
	}
	return multiErrors{
		errs,
	}
}
