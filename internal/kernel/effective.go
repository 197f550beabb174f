package kernel

import (
	"math"

	"github.com/lk2023060901/matprops-go/pkg/util/merr"
)

// 等效性能内核的模型编号。
//
// 0~2 由载荷方向上的位移求泊松比，3~5 求剪切模量。
const (
	PoissonX uint8 = iota
	PoissonY
	PoissonZ
	ShearXY
	ShearXZ
	ShearYZ
)

const effectiveProperties = "effective_properties"

// EffectiveProperties 根据试样尺寸、载荷与位移计算等效泊松比或剪切模量。
//
// 返回 [first, second, third]：
//   - 模型 0：[nu_xx, nu_xy, nu_xz]；模型 1：[nu_yy, nu_yx, nu_yz]；模型 2：[nu_zz, nu_zx, nu_zy]；
//   - 模型 3/4/5：first 为 G_xy/G_xz/G_yz，其余为 NaN。
//
// 模型 0~2 需要 uForNu1 与 uForNu2，为 nil 时返回 ErrComputeArgumentMissing。
func EffectiveProperties(
	model uint8,
	lx, ly, lz, fx, fy, fz, uuu float64,
	uForNu1, uForNu2 *float64,
) (res [3]float64, err error) {
	defer recoverNumerical(effectiveProperties, &err)

	names := []string{"first", "second", "third"}
	switch model {
	case PoissonX, PoissonY, PoissonZ:
		if uForNu1 == nil {
			return res, merr.WrapErrComputeArgumentMissing(effectiveProperties, "u_for_nu_1")
		}
		if uForNu2 == nil {
			return res, merr.WrapErrComputeArgumentMissing(effectiveProperties, "u_for_nu_2")
		}
		u1, u2 := *uForNu1, *uForNu2
		switch model {
		case PoissonX:
			res = [3]float64{(fx * lx) / (uuu * lz * ly), -(u1 * lx) / (uuu * ly), -(u2 * lx) / (uuu * lz)}
		case PoissonY:
			res = [3]float64{(fy * ly) / (uuu * lx * lz), -(u1 * ly) / (uuu * lx), -(u2 * ly) / (uuu * lz)}
		default:
			res = [3]float64{(fz * lz) / (uuu * lx * ly), -(u1 * lz) / (uuu * lx), -(u2 * lz) / (uuu * ly)}
		}
	case ShearXY, ShearXZ, ShearYZ:
		projection := (2.0*uuu*lx + 2.0*uuu*ly) / math.Sqrt(ly*ly+4.0*uuu*uuu)
		var g float64
		switch model {
		case ShearXY:
			g = (fy * lx) / (projection * ly * lz)
		case ShearXZ:
			g = (fz * lx) / (projection * ly * lz)
		default:
			g = (fz * ly) / (projection * lx * lz)
		}
		res = [3]float64{g, undefined, undefined}
		names = []string{"first", "", ""}
	default:
		return res, merr.WrapErrComputeUnknownModel(effectiveProperties, model)
	}

	if err := checkFinite(effectiveProperties, names, res[:]); err != nil {
		return [3]float64{}, err
	}
	return res, nil
}
