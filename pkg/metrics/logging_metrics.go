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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	loggingMetricSubsystem = "logging"
)

var (
	LoggingWriteBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: matpropsNamespace,
		Subsystem: loggingMetricSubsystem,
		Name:      "write_bytes",
		Help:      "写入日志输出的总字节数",
	})

	LoggingIOFailure = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: matpropsNamespace,
		Subsystem: loggingMetricSubsystem,
		Name:      "io_failures",
		Help:      "写入日志输出失败的次数",
	})
)

func registerLoggingMetrics(r prometheus.Registerer) {
	r.MustRegister(LoggingWriteBytes)
	r.MustRegister(LoggingIOFailure)
}
