package connector

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/blang/semver/v4"
	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/lk2023060901/matprops-go/internal/network/acceptor"
	"github.com/lk2023060901/matprops-go/internal/network/codec"
	"github.com/lk2023060901/matprops-go/internal/network/compressor"
	"github.com/lk2023060901/matprops-go/internal/network/endian"
	"github.com/lk2023060901/matprops-go/internal/network/framer"
	"github.com/lk2023060901/matprops-go/internal/network/router"
	"github.com/lk2023060901/matprops-go/internal/network/serializer"
	"github.com/lk2023060901/matprops-go/pkg/log"
	"github.com/lk2023060901/matprops-go/pkg/util/merr"
	"github.com/lk2023060901/matprops-go/pkg/util/retry"
)

// Config 描述客户端的基础配置。
type Config struct {
	// BaseURL 为服务端地址，例如 "http://127.0.0.1:8080"。
	BaseURL string

	// Timeout 为单次 HTTP 往返的超时时间，为 0 时使用默认值。
	Timeout time.Duration

	// Endianness 为请求记录使用的字节序，响应会以同一字节序返回。
	Endianness endian.Tag

	// RetryAttempts/RetrySleep 控制传输失败与 429/503 时的重试，
	// RetryAttempts 为 0 时使用默认值 3。
	RetryAttempts uint
	RetrySleep    time.Duration

	// HTTPClient 允许调用方自定义底层 http.Client，为 nil 时按 Timeout 创建。
	HTTPClient *http.Client

	// Serializer 用于解析 JSON 报文，为 nil 时使用 JSONSerializer。
	Serializer serializer.Serializer

	// Compressor 非 nil 时，文档类请求声明接受其编码并解压响应。
	Compressor compressor.Compressor
}

func defaultConfig() Config {
	return Config{
		Timeout:       10 * time.Second,
		Endianness:    endian.Native(),
		RetryAttempts: 3,
		RetrySleep:    100 * time.Millisecond,
		Serializer:    serializer.JSONSerializer{},
	}
}

// Client 是二进制记录协议的 HTTP 客户端。
//
// 职责：
//   - 按配置的字节序编码请求记录并 POST 到 /compute/<name>；
//   - 校验响应的内容类型与长度，按同一字节序解码响应记录；
//   - 把服务端的 JSON 错误体还原为 merr 错误，便于调用方使用 errors.Is 判断。
//
// Client 可在多个 goroutine 间并发使用。
type Client struct {
	log.Binder

	cfg    Config
	native endian.Tag
	base   *url.URL
	http   *http.Client
}

// NewClient 创建客户端，cfg 中的零值字段使用默认值。
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("connector: BaseURL is empty")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "connector: parse base url failed")
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, errors.Newf("connector: unsupported scheme %q", base.Scheme)
	}

	def := defaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = def.RetryAttempts
	}
	if cfg.RetrySleep <= 0 {
		cfg.RetrySleep = def.RetrySleep
	}
	if cfg.Serializer == nil {
		cfg.Serializer = def.Serializer
	}
	if _, ok := endian.TryFromByte(cfg.Endianness.Byte()); !ok {
		return nil, errors.Newf("connector: invalid endianness %d", cfg.Endianness)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	c := &Client{
		cfg:    cfg,
		native: endian.Native(),
		base:   base,
		http:   httpClient,
	}
	c.BindComponent("connector")
	return c, nil
}

// Endianness 返回客户端默认使用的请求字节序。
func (c *Client) Endianness() endian.Tag {
	return c.cfg.Endianness
}

// Compute 以默认字节序发送 req，并把响应解码到 resp。
func (c *Client) Compute(ctx context.Context, req, resp codec.Record) error {
	return c.ComputeWith(ctx, c.cfg.Endianness, req, resp)
}

// ComputeWith 以 tag 指定的字节序发送 req，并把响应解码到 resp。
//
// 传输失败以及服务端返回的可重试错误（429/503）按配置重试；
// 协议错误与计算错误不重试，直接以 merr 错误返回。
func (c *Client) ComputeWith(ctx context.Context, tag endian.Tag, req, resp codec.Record) error {
	if err := codec.Validate(resp); err != nil {
		return err
	}
	name := req.Descriptor().Name()
	if resp.Descriptor().Name() != name {
		return merr.WrapErrProtocolLayout(name, "response record is "+resp.Descriptor().String())
	}
	body, err := codec.EncodeRequest(tag, c.native, req)
	if err != nil {
		return err
	}

	data, err := c.post(ctx, name, req.Descriptor().ContentType(), resp.Descriptor().ContentType(), resp.Descriptor().Size(), body)
	if err != nil {
		return err
	}
	return codec.DecodeResponse(data, tag, c.native, resp)
}

// ComputeRaw 直接发送已编码的请求体，返回原始响应字节。
//
// 主要用于压测与调试：调用方自行负责编码与解码。
func (c *Client) ComputeRaw(ctx context.Context, name string, body []byte, respSize int, respContentType string) ([]byte, error) {
	return c.post(ctx, name, "application/octet-stream", respContentType, respSize, body)
}

func (c *Client) post(ctx context.Context, name, contentType, respContentType string, respSize int, body []byte) ([]byte, error) {
	target := c.base.JoinPath("compute", name).String()

	var (
		data    []byte
		lastErr error
	)
	err := retry.Do(ctx, func() error {
		data, lastErr = c.roundTrip(ctx, target, name, contentType, respContentType, respSize, body)
		if lastErr == nil || c.retriable(ctx, lastErr) {
			return lastErr
		}
		return retry.Unrecoverable(lastErr)
	}, retry.Attempts(c.cfg.RetryAttempts), retry.Sleep(c.cfg.RetrySleep))
	if err != nil {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, err
	}
	return data, nil
}

func (c *Client) roundTrip(ctx context.Context, target, name, contentType, respContentType string, respSize int, body []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", respContentType)

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, merr.WrapErrServiceUnavailable(err.Error(), target)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, c.decodeError(httpResp)
	}
	if got := httpResp.Header.Get("Content-Type"); respContentType != "" && got != respContentType {
		return nil, merr.WrapErrProtocolLayout(name, "unexpected content type "+got)
	}
	return framer.ReadExact(httpResp.Body, name, respSize)
}

// retriable 判断一次失败是否值得重试。ctx 已结束时不再重试。
func (c *Client) retriable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return merr.IsRetryableErr(err)
}

// decodeError 把非 200 响应还原为错误：JSON 错误体还原为 merr 错误，其余按状态码构造。
func (c *Client) decodeError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return merr.WrapErrIoFailed(resp.Request.URL.String(), err)
	}
	var status merr.Status
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") &&
		c.cfg.Serializer.Unmarshal(body, &status) == nil && !merr.Ok(&status) {
		return merr.Error(&status)
	}
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return merr.WrapErrServiceRateLimit(0, resp.Status)
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return merr.WrapErrServiceUnavailable(resp.Status, string(body))
	}
	return merr.WrapErrServiceInternal("unexpected status "+resp.Status, string(body))
}

// getJSON 请求 path 并把 JSON 响应解码到 v。
func (c *Client) getJSON(ctx context.Context, v any, path ...string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.JoinPath(path...).String(), nil)
	if err != nil {
		return err
	}
	if c.cfg.Compressor != nil {
		httpReq.Header.Set("Accept-Encoding", c.cfg.Compressor.Encoding())
	}
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return merr.WrapErrServiceUnavailable(err.Error(), httpReq.URL.String())
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return c.decodeError(httpResp)
	}
	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return merr.WrapErrIoFailed(httpReq.URL.String(), err)
	}
	if enc := httpResp.Header.Get("Content-Encoding"); enc != "" {
		if c.cfg.Compressor == nil || !strings.EqualFold(enc, c.cfg.Compressor.Encoding()) {
			return merr.WrapErrServiceInternal("unexpected content encoding "+enc, httpReq.URL.String())
		}
		if body, err = c.cfg.Compressor.Decompress(nil, body); err != nil {
			return merr.WrapErrServiceInternal("decompress response failed", err.Error())
		}
	}
	return c.cfg.Serializer.Unmarshal(body, v)
}

// Formats 获取服务端全部消息的格式文档。
func (c *Client) Formats(ctx context.Context) ([]router.FormatDoc, error) {
	var docs []router.FormatDoc
	if err := c.getJSON(ctx, &docs, "api", "formats"); err != nil {
		return nil, err
	}
	return docs, nil
}

// Format 获取单个消息的格式文档。
func (c *Client) Format(ctx context.Context, name string) (router.FormatDoc, error) {
	var doc router.FormatDoc
	err := c.getJSON(ctx, &doc, "api", "formats", name)
	return doc, err
}

// Version 获取服务端版本信息。
func (c *Client) Version(ctx context.Context) (acceptor.VersionInfo, error) {
	var info acceptor.VersionInfo
	err := c.getJSON(ctx, &info, "api", "version")
	return info, err
}

// CheckVersion 校验服务端版本满足 semver 范围表达式，例如 ">=0.1.0 <1.0.0"。
func (c *Client) CheckVersion(ctx context.Context, constraint string) (semver.Version, error) {
	expected, err := semver.ParseRange(constraint)
	if err != nil {
		return semver.Version{}, merr.WrapErrParameterInvalidMsg("invalid version range %q: %v", constraint, err)
	}
	info, err := c.Version(ctx)
	if err != nil {
		return semver.Version{}, err
	}
	v, err := semver.ParseTolerant(info.Version)
	if err != nil {
		return semver.Version{}, merr.WrapErrServiceInternal("server reported invalid version "+info.Version, err.Error())
	}
	if !expected(v) {
		return v, merr.WrapErrServiceUnimplemented("server version " + v.String() + " does not satisfy " + constraint)
	}
	return v, nil
}

// WaitReady 以指数退避轮询 /healthz，直到服务端就绪或 ctx 结束。
func (c *Client) WaitReady(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = time.Second
	b.MaxElapsedTime = 0
	b.Reset()

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		var health acceptor.HealthInfo
		err := c.getJSON(ctx, &health, "healthz")
		if err == nil && health.Status != "ok" {
			err = merr.WrapErrServiceNotReady("server", health.Status)
		}
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			c.Logger().RatedInfo(1, "server not ready", zap.Int("attempt", attempt), zap.Error(err))
		}
		return err
	}, backoff.WithContext(b, ctx))
}
