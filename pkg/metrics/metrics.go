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
	// #nosec
	_ "net/http/pprof"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// matpropsNamespace 是当前项目所有 Prometheus 指标使用的命名空间。
	matpropsNamespace = "matprops"

	// 以下为当前使用的通用标签名。
	messageLabelName    = "message"
	statusLabelName     = "status"
	stageLabelName      = "stage"
	codeLabelName       = "code"
	directionLabelName  = "direction"
	endiannessLabelName = "endianness"

	SuccessLabel  = "success"
	FailLabel     = "fail"
	RejectedLabel = "rejected"

	RequestLabel  = "args"
	ResponseLabel = "response"
)

var (
	// buckets 为请求耗时直方图的桶划分，单位为毫秒。
	// 计算内核通常在微秒级完成，因此从 0.01ms 开始。
	// 实际桶分布为：
	// [0.01 0.02 0.04 ... 655.36 1310.72]
	buckets = prometheus.ExponentialBuckets(0.01, 2, 18)

	HardwareCPUNum = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: matpropsNamespace,
			Name:      "hardware_cpu_num",
			Help:      "number of cpus usable by the process (cgroup limit aware)",
		})

	HardwareMemoryBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: matpropsNamespace,
			Name:      "hardware_memory_bytes",
			Help:      "memory usable by the process in bytes (cgroup limit aware)",
		})

	metricRegisterer prometheus.Registerer
)

// GetRegisterer 返回全局 Prometheus Registerer。
// 如果尚未通过 Register 显式设置，则返回 prometheus.DefaultRegisterer。
func GetRegisterer() prometheus.Registerer {
	if metricRegisterer == nil {
		return prometheus.DefaultRegisterer
	}
	return metricRegisterer
}

// Register 注册当前定义的所有指标。
// 同一个 Registerer 只能注册一次，测试中请使用 prometheus.NewRegistry()。
func Register(r prometheus.Registerer) {
	r.MustRegister(HardwareCPUNum)
	r.MustRegister(HardwareMemoryBytes)
	registerProtocolMetrics(r)
	registerLoggingMetrics(r)
	metricRegisterer = r
}
