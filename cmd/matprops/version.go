package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/lk2023060901/matprops-go/application"
	"github.com/lk2023060901/matprops-go/internal/network/endian"
)

func newVersionCmd(flags *GlobalFlags) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "打印版本信息",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "matprops %s (%s, %s/%s, native %s)\n",
				application.Version, runtime.Version(), runtime.GOOS, runtime.GOARCH, endian.Native())
			if !remote {
				return nil
			}
			client, err := newClient(flags, endian.Native())
			if err != nil {
				return err
			}
			info, err := client.Version(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "server   %s (%s, %d messages)\n", info.Version, info.GoVersion, len(info.Messages))
			return nil
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "同时查询服务端版本")
	return cmd
}
