package application

import (
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/matprops-go/internal/network/acceptor"
	"github.com/lk2023060901/matprops-go/internal/network/compressor"
	"github.com/lk2023060901/matprops-go/internal/network/endian"
	"github.com/lk2023060901/matprops-go/internal/network/framer"
	zlog "github.com/lk2023060901/matprops-go/pkg/log"
	zviper "github.com/lk2023060901/matprops-go/pkg/util/viper"
)

const (
	// EnvPrefix 为配置项环境变量前缀，例如 server.address 对应 MATPROPS_SERVER_ADDRESS。
	EnvPrefix = "MATPROPS"
	// EnvConfigFilePath 指定配置文件路径。
	EnvConfigFilePath = "MATPROPS_CONFIG_FILE_PATH"
	// DefaultConfigFilePath 为默认配置文件路径，文件不存在时忽略。
	DefaultConfigFilePath = "./config.yaml"
)

// Config 为服务进程的完整配置。
type Config struct {
	Server  ServerConfig           `mapstructure:"server"`
	Metrics MetricsConfig          `mapstructure:"metrics"`
	Codec   CodecConfig            `mapstructure:"codec"`
	Logging map[string]zlog.Config `mapstructure:"logging"`
}

type ServerConfig struct {
	Address         string          `mapstructure:"address"`
	ReadTimeout     time.Duration   `mapstructure:"readTimeout"`
	WriteTimeout    time.Duration   `mapstructure:"writeTimeout"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdownTimeout"`
	ChunkSize       int             `mapstructure:"chunkSize"`
	OverflowPolicy  string          `mapstructure:"overflowPolicy"`
	RateLimit       RateLimitConfig `mapstructure:"rateLimit"`
	MaxInflight     int             `mapstructure:"maxInflight"`
	// CompressDocs 为 true 时，文档类 JSON 响应在客户端接受时以 zstd 压缩。
	CompressDocs bool `mapstructure:"compressDocs"`
	// CompressLevel 为 zstd 级别：fastest、default、better、best。
	CompressLevel string `mapstructure:"compressLevel"`
	// CompressMinSize 为压缩的最小响应体字节数。
	CompressMinSize int `mapstructure:"compressMinSize"`
}

type RateLimitConfig struct {
	QPS   float64 `mapstructure:"qps"`
	Burst int     `mapstructure:"burst"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type CodecConfig struct {
	// NativeEndianness 为 auto/little/big，auto 表示启动时探测。
	NativeEndianness string `mapstructure:"nativeEndianness"`
}

// DefaultConfig 返回全部取默认值的配置。
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:         ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			ChunkSize:       framer.DefaultChunkSize,
			OverflowPolicy:  string(acceptor.OverflowBadRequest),
			CompressDocs:    true,
			CompressLevel:   "default",
			CompressMinSize: 1024,
		},
		Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
		Codec:   CodecConfig{NativeEndianness: "auto"},
	}
}

// setDefaults 注册全部默认值，同时使这些 key 可以被环境变量覆盖。
func setDefaults(v *zviper.Config) {
	d := DefaultConfig()
	v.SetDefault("server.address", d.Server.Address)
	v.SetDefault("server.readTimeout", d.Server.ReadTimeout)
	v.SetDefault("server.writeTimeout", d.Server.WriteTimeout)
	v.SetDefault("server.shutdownTimeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.chunkSize", d.Server.ChunkSize)
	v.SetDefault("server.overflowPolicy", d.Server.OverflowPolicy)
	v.SetDefault("server.rateLimit.qps", d.Server.RateLimit.QPS)
	v.SetDefault("server.rateLimit.burst", d.Server.RateLimit.Burst)
	v.SetDefault("server.maxInflight", d.Server.MaxInflight)
	v.SetDefault("server.compressDocs", d.Server.CompressDocs)
	v.SetDefault("server.compressLevel", d.Server.CompressLevel)
	v.SetDefault("server.compressMinSize", d.Server.CompressMinSize)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)
	v.SetDefault("codec.nativeEndianness", d.Codec.NativeEndianness)
}

// resolveConfigPath 按优先级确定配置文件路径：
//  1. 显式指定（命令行 --config）；
//  2. 环境变量 MATPROPS_CONFIG_FILE_PATH；
//  3. 默认 ./config.yaml，仅在文件存在时使用。
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if envPath := strings.TrimSpace(os.Getenv(EnvConfigFilePath)); envPath != "" {
		return envPath
	}
	if _, err := os.Stat(DefaultConfigFilePath); err == nil {
		return DefaultConfigFilePath
	}
	return ""
}

// LoadConfig 加载并校验配置。path 为空时按 resolveConfigPath 的规则查找。
func LoadConfig(path string) (*Config, error) {
	v := zviper.New(EnvPrefix)
	setDefaults(v)

	path = resolveConfigPath(path)
	if err := v.LoadFile(path); err != nil {
		return nil, errors.Wrapf(err, "failed to load config file %q", path)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验配置取值。
func (c *Config) Validate() error {
	switch acceptor.OverflowPolicy(c.Server.OverflowPolicy) {
	case acceptor.OverflowBadRequest, acceptor.OverflowInternal:
	default:
		return errors.Newf("server.overflowPolicy must be %q or %q, got %q",
			acceptor.OverflowBadRequest, acceptor.OverflowInternal, c.Server.OverflowPolicy)
	}
	if c.Server.ChunkSize < 0 || c.Server.MaxInflight < 0 || c.Server.RateLimit.QPS < 0 || c.Server.CompressMinSize < 0 {
		return errors.New("server.chunkSize, server.maxInflight, server.rateLimit.qps and server.compressMinSize must not be negative")
	}
	if c.Server.CompressDocs {
		if _, err := compressor.ParseLevel(c.Server.CompressLevel); err != nil {
			return errors.Wrap(err, "server.compressLevel")
		}
	}
	if _, err := c.NativeEndianness(); err != nil {
		return err
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return errors.Newf("metrics.path must start with '/', got %q", c.Metrics.Path)
	}
	return nil
}

// NativeEndianness 返回配置的本机字节序，auto 时探测当前进程。
func (c *Config) NativeEndianness() (endian.Tag, error) {
	return endian.Parse(c.Codec.NativeEndianness)
}

// AcceptorConfig 把服务端配置转换为 acceptor.Config。
func (c *Config) AcceptorConfig() acceptor.Config {
	cfg := acceptor.Config{
		ReadTimeout:     c.Server.ReadTimeout,
		WriteTimeout:    c.Server.WriteTimeout,
		ShutdownTimeout: c.Server.ShutdownTimeout,
		OverflowPolicy:  acceptor.OverflowPolicy(c.Server.OverflowPolicy),
		RateLimit:       acceptor.RateLimit{QPS: c.Server.RateLimit.QPS, Burst: c.Server.RateLimit.Burst},
		MaxInflight:     c.Server.MaxInflight,
		CompressMinSize: c.Server.CompressMinSize,
		Version:         Version,
	}
	if c.Metrics.Enabled {
		cfg.MetricsPath = c.Metrics.Path
	}
	return cfg
}
