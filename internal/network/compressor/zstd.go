package compressor

import (
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/lk2023060901/matprops-go/pkg/util/hardware"
	"github.com/lk2023060901/matprops-go/pkg/util/merr"
)

// MaxDocumentSize 为解压后文档的上限，/api/formats 的完整输出远小于该值。
const MaxDocumentSize = 16 << 20

// ZstdCompressor 压缩 /api/formats 与 /version 的 JSON 文档。
//
// 内部 encoder/decoder 的 EncodeAll/DecodeAll 可并发调用。
type ZstdCompressor struct {
	level zstd.EncoderLevel
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

var _ Compressor = (*ZstdCompressor)(nil)

type zstdConfig struct {
	level       zstd.EncoderLevel
	concurrency int
}

// ZstdOption 配置 NewZstdCompressor。
type ZstdOption func(*zstdConfig)

// WithLevel 设置压缩级别，默认 zstd.SpeedDefault。
func WithLevel(level zstd.EncoderLevel) ZstdOption {
	return func(c *zstdConfig) {
		c.level = level
	}
}

// WithConcurrency 设置编码并发度，<= 0 时取主机 CPU 数。
func WithConcurrency(n int) ZstdOption {
	return func(c *zstdConfig) {
		c.concurrency = n
	}
}

// ParseLevel 解析配置里的级别名：fastest、default、better、best，大小写不敏感。
func ParseLevel(name string) (zstd.EncoderLevel, error) {
	ok, level := zstd.EncoderLevelFromString(strings.TrimSpace(name))
	if !ok {
		return 0, merr.WrapErrParameterInvalid("fastest|default|better|best", name, "unknown zstd level")
	}
	return level, nil
}

// NewZstdCompressor 创建一个 ZstdCompressor。
func NewZstdCompressor(opts ...ZstdOption) (*ZstdCompressor, error) {
	cfg := zstdConfig{level: zstd.SpeedDefault}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.concurrency <= 0 {
		cfg.concurrency = hardware.GetCPUNum()
	}

	enc, err := zstd.NewWriter(nil,
		zstd.WithZeroFrames(true),
		zstd.WithEncoderLevel(cfg.level),
		zstd.WithEncoderConcurrency(cfg.concurrency),
	)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxDocumentSize))
	if err != nil {
		enc.Close()
		return nil, err
	}
	return &ZstdCompressor{level: cfg.level, enc: enc, dec: dec}, nil
}

// Level 返回编码使用的压缩级别。
func (c *ZstdCompressor) Level() zstd.EncoderLevel {
	return c.level
}

func (c *ZstdCompressor) Compress(dst, src []byte) ([]byte, error) {
	if c == nil || c.enc == nil {
		return nil, zstd.ErrEncoderClosed
	}
	return c.enc.EncodeAll(src, dst[:0]), nil
}

func (c *ZstdCompressor) Decompress(dst, src []byte) ([]byte, error) {
	if c == nil || c.dec == nil {
		return nil, zstd.ErrDecoderClosed
	}
	return c.dec.DecodeAll(src, dst[:0])
}

func (c *ZstdCompressor) Encoding() string {
	return EncodingZstd
}

// Close 释放 encoder/decoder，可重复调用。之后的 Compress/Decompress 返回 ErrEncoderClosed/ErrDecoderClosed。
func (c *ZstdCompressor) Close() {
	if c == nil {
		return
	}
	if c.enc != nil {
		_ = c.enc.Close()
		c.enc = nil
	}
	if c.dec != nil {
		c.dec.Close()
		c.dec = nil
	}
}
