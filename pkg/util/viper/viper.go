package viper

import (
	"path/filepath"
	"strings"

	spfviper "github.com/spf13/viper"
)

// Config 封装 spf13/viper 实例，对外提供精简的 YAML/JSON/TOML 配置加载接口。
//
// 配置值的优先级从高到低为：环境变量、配置文件、SetDefault 设置的默认值。
type Config struct {
	v *spfviper.Viper
}

// New 创建一个空的 Config。
//
// envPrefix 非空时启用环境变量覆盖，例如前缀 MATPROPS 下，
// 键 server.addr 对应环境变量 MATPROPS_SERVER_ADDR。
func New(envPrefix string) *Config {
	v := spfviper.New()
	if envPrefix != "" {
		v.SetEnvPrefix(envPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
		v.AutomaticEnv()
	}
	return &Config{v: v}
}

// SetDefault 设置 key 的默认值。
// 仅设置过默认值（或出现在配置文件中）的 key 才会在 Unmarshal 时读取环境变量。
func (c *Config) SetDefault(key string, value any) {
	c.v.SetDefault(key, value)
}

// LoadFile 将配置文件加载到 Config 中。path 为空时直接返回。
// 文件类型通过扩展名（.yaml/.yml/.json/.toml）推断。
func (c *Config) LoadFile(path string) error {
	if path == "" {
		return nil
	}

	c.v.SetConfigFile(path)

	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		c.v.SetConfigType("yaml")
	case ".json":
		c.v.SetConfigType("json")
	case ".toml":
		c.v.SetConfigType("toml")
	default:
		// 让 viper 自行推断类型，或在读取时返回清晰的错误信息。
	}

	return c.v.ReadInConfig()
}

// Get 返回 key 当前生效的值。
func (c *Config) Get(key string) any {
	return c.v.Get(key)
}

// Unmarshal 将完整配置反序列化到 dst。
// dst 应为结构体或 map 的指针，字段通过 mapstructure 标签匹配。
func (c *Config) Unmarshal(dst any) error {
	return c.v.Unmarshal(dst)
}

// UnmarshalKey 将指定 key 对应的子配置反序列化到 dst。
func (c *Config) UnmarshalKey(key string, dst any) error {
	return c.v.UnmarshalKey(key, dst)
}
