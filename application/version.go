package application

import (
	"github.com/blang/semver/v4"
)

// Version 为服务版本号，发布构建时通过
// -ldflags "-X github.com/lk2023060901/matprops-go/application.Version=x.y.z" 注入。
var Version = "0.1.0"

// SemVersion 解析 Version，格式非法时返回 0.0.0 与错误。
func SemVersion() (semver.Version, error) {
	return semver.ParseTolerant(Version)
}
