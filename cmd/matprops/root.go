package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lk2023060901/matprops-go/internal/network/connector"
	"github.com/lk2023060901/matprops-go/internal/network/endian"
	"github.com/lk2023060901/matprops-go/pkg/util/hardware"
)

// GlobalFlags 全局标志
type GlobalFlags struct {
	URL     string        // 服务端地址
	Timeout time.Duration // 单次请求超时
}

// newRootCmd 构造根命令及全部子命令。
func newRootCmd() *cobra.Command {
	flags := &GlobalFlags{}
	var undoMaxprocs func()

	root := &cobra.Command{
		Use:   "matprops",
		Short: "复合材料性能计算服务",
		Long: `matprops - 以定长二进制记录收发的复合材料性能计算服务

子命令:
  serve    启动 HTTP 计算服务
  formats  打印各消息的二进制布局
  compute  编码一条请求并调用服务端
  bench    对单个消息做并发压测
  version  打印版本信息`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			undo, err := hardware.InitMaxprocs()
			if err != nil {
				return fmt.Errorf("设置 GOMAXPROCS: %w", err)
			}
			undoMaxprocs = undo
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if undoMaxprocs != nil {
				undoMaxprocs()
			}
		},
	}

	root.PersistentFlags().StringVar(&flags.URL, "url", "http://127.0.0.1:8080", "服务端地址")
	root.PersistentFlags().DurationVar(&flags.Timeout, "timeout", 10*time.Second, "单次请求超时")

	root.AddCommand(
		newServeCmd(),
		newFormatsCmd(flags),
		newComputeCmd(flags),
		newBenchCmd(flags),
		newVersionCmd(flags),
	)
	return root
}

// Execute 执行根命令
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

// newClient 按全局标志创建客户端，tag 为请求使用的字节序。
func newClient(flags *GlobalFlags, tag endian.Tag) (*connector.Client, error) {
	return connector.NewClient(connector.Config{
		BaseURL:    flags.URL,
		Timeout:    flags.Timeout,
		Endianness: tag,
	})
}
