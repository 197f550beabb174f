package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lk2023060901/matprops-go/application"
)

func newServeCmd() *cobra.Command {
	var configPath, addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 计算服务",
		Long: `启动 HTTP 计算服务，收到 SIGINT/SIGTERM 后优雅退出。

配置文件查找顺序（后者优先）：./config.yaml、MATPROPS_CONFIG_FILE_PATH、--config。`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, configPath, addr)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "配置文件路径")
	cmd.Flags().StringVar(&addr, "addr", "", "监听地址，覆盖配置中的 server.address")
	return cmd
}

func runServe(ctx context.Context, configPath, addr string) error {
	app := application.New(
		application.WithConfigPath(configPath),
		application.WithAddress(addr),
	)
	return app.Run(ctx)
}
