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

package conc

import (
	ants "github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/lk2023060901/matprops-go/pkg/log"
)

// poolOption 决定 Pool 如何调度提交的任务。
type poolOption struct {
	// preAlloc 为 true 时在创建时分配全部 worker 队列。
	preAlloc bool
	// nonBlocking 为 true 时池满的 Submit 立即以 ants.ErrPoolOverload 失败。
	nonBlocking bool
	// disablePurge 为 true 时空闲 worker 不会被回收。
	disablePurge bool
	// concealPanic 为 true 时任务 panic 只记录日志。
	concealPanic bool
	// preHandler 在每个任务开始执行前调用。
	preHandler func()
}

func (opt *poolOption) antsOptions() []ants.Option {
	return []ants.Option{
		ants.WithPreAlloc(opt.preAlloc),
		ants.WithNonblocking(opt.nonBlocking),
		ants.WithDisablePurge(opt.disablePurge),
		ants.WithPanicHandler(func(v any) {
			log.Error("conc pool task panicked", zap.Any("panic", v))
			if !opt.concealPanic {
				panic(v)
			}
		}),
	}
}

// PoolOption 用于配置协程池行为的选项函数。
type PoolOption func(opt *poolOption)

func defaultPoolOption() *poolOption {
	return &poolOption{}
}

// WithPreAlloc 在创建时分配全部 worker 队列，适合容量固定的压测池。
func WithPreAlloc(v bool) PoolOption {
	return func(opt *poolOption) {
		opt.preAlloc = v
	}
}

// WithNonBlocking 设置池满时是否直接拒绝，被拒绝的 Future 满足 IsOverload。
func WithNonBlocking(v bool) PoolOption {
	return func(opt *poolOption) {
		opt.nonBlocking = v
	}
}

// WithDisablePurge 禁止回收空闲 worker。
func WithDisablePurge(v bool) PoolOption {
	return func(opt *poolOption) {
		opt.disablePurge = v
	}
}

// WithConcealPanic 设置任务 panic 后是否继续向上抛出。
// 无论是否隐藏，对应 Future 都会得到 ErrServiceInternal。
func WithConcealPanic(v bool) PoolOption {
	return func(opt *poolOption) {
		opt.concealPanic = v
	}
}

// WithPreHandler 设置每个任务执行前的回调，回调在 worker 协程中运行。
func WithPreHandler(fn func()) PoolOption {
	return func(opt *poolOption) {
		opt.preHandler = fn
	}
}
