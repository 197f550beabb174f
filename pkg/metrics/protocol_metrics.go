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
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	computeMetricSubsystem = "compute"
)

var (
	ComputeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: matpropsNamespace,
			Subsystem: computeMetricSubsystem,
			Name:      "requests_total",
			Help:      "计算请求总数，按消息类型与结果分组",
		}, []string{messageLabelName, statusLabelName})

	ComputeRequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: matpropsNamespace,
			Subsystem: computeMetricSubsystem,
			Name:      "request_latency",
			Help:      "成功请求从开始读取请求体到响应 Parcel 构造完成的耗时（不含写出响应），单位毫秒",
			Buckets:   buckets,
		}, []string{messageLabelName})

	ProtocolErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: matpropsNamespace,
			Subsystem: computeMetricSubsystem,
			Name:      "protocol_errors_total",
			Help:      "各处理阶段失败的次数，code 为 merr 错误码",
		}, []string{messageLabelName, stageLabelName, codeLabelName})

	RecordBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: matpropsNamespace,
			Subsystem: computeMetricSubsystem,
			Name:      "record_bytes",
			Help:      "收发的记录字节总数",
		}, []string{messageLabelName, directionLabelName})

	RequestEndiannessTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: matpropsNamespace,
			Subsystem: computeMetricSubsystem,
			Name:      "request_endianness_total",
			Help:      "成功解码的请求按字节序标记分组的数量",
		}, []string{messageLabelName, endiannessLabelName})

	InflightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: matpropsNamespace,
			Subsystem: computeMetricSubsystem,
			Name:      "inflight_requests",
			Help:      "正在处理中的计算请求数",
		})
)

func registerProtocolMetrics(r prometheus.Registerer) {
	r.MustRegister(ComputeRequestsTotal)
	r.MustRegister(ComputeRequestLatency)
	r.MustRegister(ProtocolErrorsTotal)
	r.MustRegister(RecordBytes)
	r.MustRegister(RequestEndiannessTotal)
	r.MustRegister(InflightRequests)
}

// ObserveProtocolError 记录一次阶段失败。
func ObserveProtocolError(message, stage string, code int32) {
	ProtocolErrorsTotal.WithLabelValues(message, stage, strconv.FormatInt(int64(code), 10)).Inc()
}

// ObserveLatency 记录一次请求从 start 到 Parcel 就绪的耗时，在写出响应之前调用。
func ObserveLatency(message string, start time.Time) {
	ComputeRequestLatency.WithLabelValues(message).Observe(float64(time.Since(start).Microseconds()) / 1000)
}
