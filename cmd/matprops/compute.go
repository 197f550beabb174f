package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lk2023060901/matprops-go/internal/network/codec"
	"github.com/lk2023060901/matprops-go/internal/network/endian"
	"github.com/lk2023060901/matprops-go/internal/network/router"
	"github.com/lk2023060901/matprops-go/pkg/util/merr"
)

func newComputeCmd(flags *GlobalFlags) *cobra.Command {
	var (
		endianness string
		example    bool
		sets       []string
	)

	cmd := &cobra.Command{
		Use:   "compute <name>",
		Short: "编码一条请求并调用服务端",
		Long: `按指定字节序编码请求记录，POST 到 /compute/<name> 并打印响应字段。

示例:
  matprops compute elastic_modules_for_honeycomb --example
  matprops compute effective_properties --example --set u_for_nu_1=0.3 --endianness big`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tag, err := endian.Parse(endianness)
			if err != nil {
				return err
			}
			route, err := lookupRoute(args[0])
			if err != nil {
				return err
			}
			req, err := buildRequest(route, example, sets)
			if err != nil {
				return err
			}

			client, err := newClient(flags, tag)
			if err != nil {
				return err
			}
			resp := route.ResponseExample()
			if err := client.Compute(cmd.Context(), req, resp); err != nil {
				return err
			}
			return printRecordValues(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVar(&endianness, "endianness", "native", "请求字节序: little|big|native")
	cmd.Flags().BoolVar(&example, "example", false, "以示例请求为基础")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "设置字段值，格式 field=value，可重复")
	return cmd
}

func lookupRoute(name string) (router.Route, error) {
	r, err := localRouter()
	if err != nil {
		return router.Route{}, err
	}
	route, ok := r.Lookup(name)
	if !ok {
		return router.Route{}, merr.WrapErrOperationNotSupported(name, "known messages: "+strings.Join(r.Names(), ", "))
	}
	return route, nil
}

// buildRequest 创建请求记录，并按 field=value 依次覆盖字段。
func buildRequest(route router.Route, example bool, sets []string) (codec.Record, error) {
	req := route.NewRequest()
	if example {
		req = route.RequestExample()
	}
	for _, kv := range sets {
		name, raw, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, merr.WrapErrParameterInvalidMsg("--set expects field=value, got %q", kv)
		}
		name, raw = strings.TrimSpace(name), strings.TrimSpace(raw)
		if raw == "" {
			return nil, merr.WrapErrParameterMissing(name, "--set needs a value")
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, merr.WrapErrParameterInvalidMsg("invalid value for %s: %v", name, err)
		}
		if err := codec.Set(req, name, v); err != nil {
			return nil, err
		}
	}
	return req, nil
}

func printRecordValues(out io.Writer, rec codec.Record) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	values := codec.Values(rec)
	for i, f := range rec.Descriptor().Declared() {
		fmt.Fprintf(w, "%s\t%s\n", f.Name, strconv.FormatFloat(values[i], 'g', -1, 64))
	}
	return w.Flush()
}
