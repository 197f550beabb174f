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

package log

import (
	"go.uber.org/zap/zapcore"

	"github.com/lk2023060901/matprops-go/pkg/metrics"
)

// meteredWriteSyncer 在写入底层输出的同时统计写入字节数与失败次数。
type meteredWriteSyncer struct {
	ws zapcore.WriteSyncer
}

var _ zapcore.WriteSyncer = (*meteredWriteSyncer)(nil)

func newMeteredWriteSyncer(ws zapcore.WriteSyncer) zapcore.WriteSyncer {
	if _, ok := ws.(*meteredWriteSyncer); ok {
		return ws
	}
	return &meteredWriteSyncer{ws: ws}
}

func (m *meteredWriteSyncer) Write(p []byte) (int, error) {
	n, err := m.ws.Write(p)
	metrics.LoggingWriteBytes.Add(float64(n))
	if err != nil {
		metrics.LoggingIOFailure.Inc()
	}
	return n, err
}

// Sync 的错误不计入失败次数，对终端执行 fsync 总会返回 EINVAL。
func (m *meteredWriteSyncer) Sync() error {
	return m.ws.Sync()
}
