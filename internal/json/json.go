package json

import (
	"github.com/bytedance/sonic"
)

// 统一的 JSON 入口，底层使用 bytedance/sonic 的标准库兼容配置。
var (
	json          = sonic.ConfigStd
	Marshal       = json.Marshal
	Unmarshal     = json.Unmarshal
	MarshalIndent = json.MarshalIndent
	NewDecoder    = json.NewDecoder
	NewEncoder    = json.NewEncoder
)
