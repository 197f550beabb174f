package main

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync/atomic"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/lk2023060901/matprops-go/internal/network/codec"
	"github.com/lk2023060901/matprops-go/internal/network/connector"
	"github.com/lk2023060901/matprops-go/internal/network/endian"
	"github.com/lk2023060901/matprops-go/internal/network/router"
	"github.com/lk2023060901/matprops-go/pkg/util/conc"
	"github.com/lk2023060901/matprops-go/pkg/util/hardware"
	"github.com/lk2023060901/matprops-go/pkg/util/merr"
)

// benchOptions 控制一次压测的请求量与协程池调度方式。
type benchOptions struct {
	Requests    int
	Concurrency int
	// PreAlloc 在开始前创建全部 worker，避免首批请求计入协程创建耗时。
	PreAlloc bool
	// NonBlocking 为 true 时池满的请求直接计为 Rejected，用于观察客户端过载。
	NonBlocking bool
}

// benchReport 为一次压测的统计结果。
// Requests 恒等于 Dispatched 与 Rejected 之和。
type benchReport struct {
	Requests   int
	Dispatched int
	Rejected   int
	Failures   int
	Elapsed    time.Duration
	Min        time.Duration
	Mean       time.Duration
	Max        time.Duration
	P50        time.Duration
	P90        time.Duration
	P99        time.Duration
	FirstFail  error
}

// Throughput 返回每秒成功请求数。
func (r benchReport) Throughput() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Dispatched-r.Failures) / r.Elapsed.Seconds()
}

func newBenchCmd(flags *GlobalFlags) *cobra.Command {
	var (
		opts       benchOptions
		endianness string
	)

	cmd := &cobra.Command{
		Use:   "bench <name>",
		Short: "对单个消息做并发压测",
		Long:  "以示例请求反复调用 /compute/<name>，报告吞吐与延迟分位数。--concurrency 为 0 时取 CPU 数。",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tag, err := endian.Parse(endianness)
			if err != nil {
				return err
			}
			route, err := lookupRoute(args[0])
			if err != nil {
				return err
			}
			client, err := newClient(flags, tag)
			if err != nil {
				return err
			}
			if opts.Concurrency <= 0 {
				opts.Concurrency = hardware.GetCPUNum()
			}
			report, err := runBench(cmd.Context(), client, route, opts)
			if err != nil {
				return err
			}
			printBench(cmd.OutOrStdout(), args[0], opts.Concurrency, report)
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.Requests, "requests", 1000, "请求总数")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", 0, "并发数")
	cmd.Flags().BoolVar(&opts.PreAlloc, "prealloc", true, "开始前预分配全部 worker")
	cmd.Flags().BoolVar(&opts.NonBlocking, "nonblocking", false, "worker 全忙时直接拒绝请求而不是排队")
	cmd.Flags().StringVar(&endianness, "endianness", "native", "请求字节序: little|big|native")
	return cmd
}

// runBench 预先编码示例请求，再通过协程池并发发送 opts.Requests 次。
func runBench(ctx context.Context, client *connector.Client, route router.Route, opts benchOptions) (benchReport, error) {
	if opts.Requests <= 0 || opts.Concurrency <= 0 {
		return benchReport{}, merr.WrapErrParameterInvalidMsg("requests and concurrency must be positive")
	}
	req := route.RequestExample()
	body, err := codec.EncodeRequest(client.Endianness(), endian.Native(), req)
	if err != nil {
		return benchReport{}, err
	}
	name := req.Descriptor().Name()
	resp := route.ResponseExample().Descriptor()

	var dispatched atomic.Int64
	pool := conc.NewPool[time.Duration](opts.Concurrency,
		conc.WithPreAlloc(opts.PreAlloc),
		conc.WithNonBlocking(opts.NonBlocking),
		conc.WithDisablePurge(true),
		conc.WithConcealPanic(true),
		conc.WithPreHandler(func() { dispatched.Add(1) }),
	)
	defer pool.Release()

	start := time.Now()
	futures := make([]*conc.Future[time.Duration], 0, opts.Requests)
	for i := 0; i < opts.Requests; i++ {
		futures = append(futures, pool.Submit(func() (time.Duration, error) {
			begin := time.Now()
			_, err := client.ComputeRaw(ctx, name, body, resp.Size(), resp.ContentType())
			return time.Since(begin), err
		}))
	}

	report := benchReport{Requests: opts.Requests}
	latencies := make([]time.Duration, 0, opts.Requests)
	for _, f := range futures {
		d, err := f.Await()
		if conc.IsOverload(err) {
			report.Rejected++
			continue
		}
		if err != nil {
			report.Failures++
			if report.FirstFail == nil {
				report.FirstFail = err
			}
			continue
		}
		latencies = append(latencies, d)
	}
	report.Elapsed = time.Since(start)
	report.Dispatched = int(dispatched.Load())

	if len(latencies) > 0 {
		slices.Sort(latencies)
		report.Min = lo.Min(latencies)
		report.Max = lo.Max(latencies)
		report.Mean = lo.Sum(latencies) / time.Duration(len(latencies))
		report.P50 = percentile(latencies, 0.50)
		report.P90 = percentile(latencies, 0.90)
		report.P99 = percentile(latencies, 0.99)
	}
	return report, nil
}

// percentile 按最近秩法取分位数，sorted 须已升序。
func percentile(sorted []time.Duration, q float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(q*float64(len(sorted)) + 0.5)
	idx = lo.Clamp(idx-1, 0, len(sorted)-1)
	return sorted[idx]
}

func printBench(out io.Writer, name string, concurrency int, r benchReport) {
	fmt.Fprintf(out, "message:     %s\n", name)
	fmt.Fprintf(out, "requests:    %d (failed %d, rejected %d, concurrency %d)\n", r.Requests, r.Failures, r.Rejected, concurrency)
	fmt.Fprintf(out, "elapsed:     %s\n", r.Elapsed)
	fmt.Fprintf(out, "throughput:  %.1f req/s\n", r.Throughput())
	fmt.Fprintf(out, "latency:     min %s  mean %s  max %s\n", r.Min, r.Mean, r.Max)
	fmt.Fprintf(out, "percentiles: p50 %s  p90 %s  p99 %s\n", r.P50, r.P90, r.P99)
	if r.FirstFail != nil {
		fmt.Fprintf(out, "first error: %v\n", r.FirstFail)
	}
}
