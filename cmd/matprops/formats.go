package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lk2023060901/matprops-go/internal/compute"
	"github.com/lk2023060901/matprops-go/internal/network/compressor"
	"github.com/lk2023060901/matprops-go/internal/network/connector"
	"github.com/lk2023060901/matprops-go/internal/network/endian"
	"github.com/lk2023060901/matprops-go/internal/network/router"
	"github.com/lk2023060901/matprops-go/internal/network/serializer"
)

func newFormatsCmd(flags *GlobalFlags) *cobra.Command {
	var asJSON, remote bool

	cmd := &cobra.Command{
		Use:   "formats [name]",
		Short: "打印各消息的二进制布局",
		Long: `打印请求/响应记录的大小、格式串、Python struct 格式、字段偏移与内容类型。

默认使用本地注册表；--remote 时从服务端 /api/formats 获取。`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var docs []router.FormatDoc
			var err error
			if remote {
				docs, err = remoteFormats(cmd, flags, args)
			} else {
				docs, err = localFormats(args)
			}
			if err != nil {
				return err
			}
			if asJSON {
				data, err := serializer.JSONSerializer{Indent: "  "}.Marshal(docs)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			return printFormats(cmd.OutOrStdout(), docs)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "以 JSON 输出")
	cmd.Flags().BoolVar(&remote, "remote", false, "从服务端获取格式文档")
	return cmd
}

// localRouter 返回注册了全部计算消息的本地路由表。
func localRouter() (router.Router, error) {
	r := router.New(endian.Native(), nil)
	if err := compute.Register(r); err != nil {
		return nil, err
	}
	return r, nil
}

func localFormats(args []string) ([]router.FormatDoc, error) {
	r, err := localRouter()
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return r.Formats(), nil
	}
	doc, err := r.Format(args[0])
	if err != nil {
		return nil, err
	}
	return []router.FormatDoc{doc}, nil
}

func remoteFormats(cmd *cobra.Command, flags *GlobalFlags, args []string) ([]router.FormatDoc, error) {
	zc, err := compressor.NewZstdCompressor(compressor.WithConcurrency(1))
	if err != nil {
		return nil, err
	}
	defer zc.Close()
	client, err := connector.NewClient(connector.Config{
		BaseURL:    flags.URL,
		Timeout:    flags.Timeout,
		Compressor: zc,
	})
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return client.Formats(cmd.Context())
	}
	doc, err := client.Format(cmd.Context(), args[0])
	if err != nil {
		return nil, err
	}
	return []router.FormatDoc{doc}, nil
}

func printFormats(out io.Writer, docs []router.FormatDoc) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for i, doc := range docs {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s\tPOST %s\n", doc.Name, doc.Path)
		printRecord(w, "request", doc.Request)
		printRecord(w, "response", doc.Response)
	}
	return w.Flush()
}

func printRecord(w io.Writer, kind string, rec router.RecordDoc) {
	fmt.Fprintf(w, "  %s\t%s\n", kind, rec.ContentType)
	fmt.Fprintf(w, "    size\t%d\n", rec.Size)
	fmt.Fprintf(w, "    format\t%s\n", rec.Format)
	fmt.Fprintf(w, "    struct\t%s / %s\n", rec.StructLittle, rec.StructBig)
	for _, f := range rec.Fields {
		fmt.Fprintf(w, "    +%d\t%s %s\n", f.Offset, f.Type, f.Name)
	}
}
