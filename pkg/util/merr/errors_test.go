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
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"
)

type ErrSuite struct {
	suite.Suite
}

func (s *ErrSuite) TestCode() {
	err := WrapErrProtocolInvalidEndianness("elastic", 7)
	errors.Wrap(err, "failed to decode")
	s.ErrorIs(err, ErrProtocolInvalidEndianness)
	s.Equal(Code(ErrProtocolInvalidEndianness), Code(err))
	s.Equal(TimeoutCode, Code(context.DeadlineExceeded))
	s.Equal(CanceledCode, Code(context.Canceled))
	s.Equal(errUnexpected.errCode, Code(errUnexpected))
	s.Equal(errUnexpected.errCode, Code(io.EOF))
	s.Equal(int32(0), Code(nil))

	sameCodeErr := newPropsError("new error", ErrProtocolOverflow.errCode, false)
	s.True(sameCodeErr.Is(ErrProtocolOverflow))
}

func (s *ErrSuite) TestStatus() {
	err := WrapErrComputeUnknownModel("elastic_modules_for_honeycomb", 9)
	status := NewStatus(err)
	restoredErr := Error(status)

	s.ErrorIs(restoredErr, ErrComputeUnknownModel)
	s.Equal(SystemError.String(), status.Type)
	s.Equal(int32(0), NewStatus(nil).Code)
	s.Nil(Error(&Status{}))
	s.True(Ok(NewStatus(nil)))
	s.False(Ok(status))
	s.False(Ok(nil))
}

func (s *ErrSuite) TestStatusKeepsErrorType() {
	status := NewStatus(WrapErrProtocolLengthMismatch("elastic", 48, 47))
	s.Equal(InputError.String(), status.Type)

	restored := Error(status)
	s.Equal(InputError, GetErrorType(restored))
	s.ErrorIs(restored, ErrProtocolLengthMismatch)

	limited := Error(NewStatus(WrapErrHTTPRateLimit("/compute/x", 1)))
	s.True(IsRetryableErr(limited))
}

func (s *ErrSuite) TestWrap() {
	// Service 相关错误。
	s.ErrorIs(WrapErrServiceNotReady("matprops", "initializing"), ErrServiceNotReady)
	s.ErrorIs(WrapErrServiceUnavailable("draining", "shutdown"), ErrServiceUnavailable)
	s.ErrorIs(WrapErrTooManyRequests(100, "too many requests"), ErrServiceTooManyRequests)
	s.ErrorIs(WrapErrServiceInternal("never throw out"), ErrServiceInternal)
	s.ErrorIs(WrapErrServiceRateLimit(10, "slow down"), ErrServiceRateLimit)
	s.ErrorIs(WrapErrServiceUnimplemented("nope"), ErrServiceUnimplemented)
	s.ErrorIs(WrapErrHTTPRateLimit("/compute/x", 5), ErrHTTPRateLimit)

	// IO 相关错误。
	s.ErrorIs(WrapErrIoFailed("body", os.ErrClosed), ErrIoFailed)
	s.ErrorIs(WrapErrIoUnexpectEOF("body", io.ErrUnexpectedEOF), ErrIoUnexpectEOF)
	s.NoError(WrapErrIoFailed("body", nil))

	// 参数相关错误。
	s.ErrorIs(WrapErrParameterInvalid(8, 1, "failed to create"), ErrParameterInvalid)
	s.ErrorIs(WrapErrParameterInvalidRange(0, 255, 300, "byte out of range"), ErrParameterInvalid)
	s.ErrorIs(WrapErrParameterInvalidMsg("bad %s", "value"), ErrParameterInvalid)
	s.ErrorIs(WrapErrParameterMissing("fibre_content", "no value"), ErrParameterMissing)
	s.ErrorIs(WrapErrOperationNotSupported("compute/unknown"), ErrOperationNotSupported)

	// 协议相关错误。
	s.ErrorIs(WrapErrProtocolOverflow("elastic", 48, 49), ErrProtocolOverflow)
	s.ErrorIs(WrapErrProtocolLengthMismatch("elastic", 48, 47), ErrProtocolLengthMismatch)
	s.ErrorIs(WrapErrProtocolInvalidEndianness("elastic", 2), ErrProtocolInvalidEndianness)
	s.ErrorIs(WrapErrProtocolTransport("elastic", io.ErrUnexpectedEOF), ErrProtocolTransport)
	s.ErrorIs(WrapErrProtocolLayout("elastic", "slot count"), ErrProtocolLayout)
	s.NoError(WrapErrProtocolTransport("elastic", nil))

	// 计算内核相关错误。
	s.ErrorIs(WrapErrComputeUnknownModel("kernel", 3), ErrComputeUnknownModel)
	s.ErrorIs(WrapErrComputeArgumentMissing("kernel", "u_for_nu_1"), ErrComputeArgumentMissing)
	s.ErrorIs(WrapErrComputeNumerical("kernel", "division by zero"), ErrComputeNumerical)
}

func (s *ErrSuite) TestWrapMessage() {
	err := WrapErrProtocolOverflow("elastic", 48, 49)
	s.Equal("args buffer overflow[message=elastic][limit=48][got=49]", err.Error())

	err = WrapErrComputeNumerical("kernel", "nan in e1")
	s.Equal("numerical error[kernel=kernel]: nan in e1", err.Error())
}

func (s *ErrSuite) TestHTTPStatus() {
	s.Equal(http.StatusOK, HTTPStatus(nil))
	s.Equal(http.StatusBadRequest, HTTPStatus(WrapErrProtocolOverflow("m", 1, 2)))
	s.Equal(http.StatusBadRequest, HTTPStatus(WrapErrProtocolLengthMismatch("m", 1, 2)))
	s.Equal(http.StatusBadRequest, HTTPStatus(WrapErrProtocolInvalidEndianness("m", 2)))
	s.Equal(http.StatusBadRequest, HTTPStatus(WrapErrProtocolTransport("m", io.ErrUnexpectedEOF)))
	s.Equal(http.StatusBadRequest, HTTPStatus(errors.Wrap(WrapErrProtocolTransport("m", io.ErrUnexpectedEOF), "decode")))
	s.Equal(http.StatusInternalServerError, HTTPStatus(WrapErrProtocolLayout("m", "bad")))
	s.Equal(http.StatusInternalServerError, HTTPStatus(WrapErrComputeUnknownModel("k", 3)))
	s.Equal(http.StatusInternalServerError, HTTPStatus(WrapErrComputeArgumentMissing("k", "a")))
	s.Equal(http.StatusInternalServerError, HTTPStatus(WrapErrComputeNumerical("k", "r")))
	s.Equal(http.StatusNotFound, HTTPStatus(WrapErrOperationNotSupported("x")))
	s.Equal(http.StatusTooManyRequests, HTTPStatus(WrapErrHTTPRateLimit("/", 1)))
	s.Equal(http.StatusServiceUnavailable, HTTPStatus(WrapErrServiceNotReady("r", "s")))
	s.Equal(http.StatusBadRequest, HTTPStatus(WrapErrParameterInvalid("[a-z0-9_]", "A-B")))
	s.Equal(http.StatusBadRequest, HTTPStatus(WrapErrParameterMissing("u_for_nu_1")))
	s.Equal(http.StatusInternalServerError, HTTPStatus(errors.New("plain")))
}

func (s *ErrSuite) TestParseErrorType() {
	s.Equal(InputError, ParseErrorType("input_error"))
	s.Equal(SystemError, ParseErrorType("whatever"))
}

func (s *ErrSuite) TestCombine() {
	var (
		errFirst  = errors.New("first")
		errSecond = errors.New("second")
		errThird  = errors.New("third")
	)

	err := Combine(errFirst, errSecond)
	s.True(errors.Is(err, errFirst))
	s.True(errors.Is(err, errSecond))
	s.False(errors.Is(err, errThird))

	s.Equal("first: second", err.Error())
}

func (s *ErrSuite) TestCombineWithNil() {
	err := errors.New("non-nil")

	err = Combine(nil, err)
	s.NotNil(err)
}

func (s *ErrSuite) TestCombineOnlyNil() {
	err := Combine(nil, nil)
	s.Nil(err)
}

func (s *ErrSuite) TestCombineCode() {
	err := Combine(WrapErrProtocolOverflow("m", 1, 2), WrapErrComputeNumerical("k", "r"))
	s.Equal(Code(ErrComputeNumerical), Code(err))
}

func TestErrors(t *testing.T) {
	suite.Run(t, new(ErrSuite))
}
