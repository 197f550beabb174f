// Package kernel 实现材料等效性能的计算内核。
//
// 每个内核都是纯函数：输入为模型编号与若干 float64 参数，输出为定长数组。
// 失败时返回 merr 中的计算类错误：
//   - 未知模型编号：ErrComputeUnknownModel；
//   - 缺少模型所需的可选参数：ErrComputeArgumentMissing；
//   - 计算过程 panic，或模型定义的输出出现 NaN/Inf：ErrComputeNumerical。
//
// 模型不定义的系数恒为 NaN。
package kernel

import (
	"fmt"
	"math"

	"github.com/lk2023060901/matprops-go/pkg/util/merr"
)

// undefined 标记模型不定义的输出系数。
var undefined = math.NaN()

// recoverNumerical 把内核中的 panic 转换为 ErrComputeNumerical。
// 必须以 defer 方式调用。
func recoverNumerical(kernel string, err *error) {
	if r := recover(); r != nil {
		*err = merr.WrapErrComputeNumerical(kernel, fmt.Sprint(r))
	}
}

// checkFinite 检查 names 中非空名称对应的输出是否为有限值。
// 名称为空的位置表示该模型不定义此输出，不做检查。
func checkFinite(kernel string, names []string, values []float64) error {
	for i, v := range values {
		if names[i] == "" {
			continue
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return merr.WrapErrComputeNumerical(kernel, fmt.Sprintf("%s is %v", names[i], v))
		}
	}
	return nil
}

// shearModulus 由杨氏模量与泊松比计算剪切模量。
func shearModulus(e, nu float64) float64 {
	return e / (2.0 * (1.0 + nu))
}
