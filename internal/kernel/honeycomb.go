package kernel

import (
	"math"

	"github.com/lk2023060901/matprops-go/pkg/util/merr"
)

// HoneycombGibson 为蜂窝内核唯一支持的模型编号。
const HoneycombGibson uint8 = 1

const (
	elasticHoneycomb   = "elastic_modules_for_honeycomb"
	expansionHoneycomb = "thermal_expansion_for_honeycomb"
)

// ElasticModulesForHoneycomb 计算正六边形类蜂窝芯的弹性常数。
//
// l、h 为胞元斜边与竖边长度，angle 为斜边与水平方向的夹角（弧度），
// 返回 [E1, E2, E3, nu12, nu13, nu23, G12, G13, G23]。
func ElasticModulesForHoneycomb(
	model uint8,
	lCellSideSize, hCellSideSize, wallThickness, angle, eForHoneycomb, nuForHoneycomb float64,
) (res [9]float64, err error) {
	defer recoverNumerical(elasticHoneycomb, &err)

	if model != HoneycombGibson {
		return res, merr.WrapErrComputeUnknownModel(elasticHoneycomb, model)
	}

	l, h, t := lCellSideSize, hCellSideSize, wallThickness
	e, nu := eForHoneycomb, nuForHoneycomb
	g := shearModulus(e, nu)
	sin, cos, tan := math.Sin(angle), math.Cos(angle), math.Tan(angle)

	lb := l - t/(2.0*cos)
	hb := h - t*(1.0-sin)/cos
	hl := h/l + sin
	tl2 := (t * t) / (lb * lb)
	cube := math.Pow(t/lb, 3.0)

	e1 := e * cube * (cos / (hl * sin * sin)) *
		(1.0 / (1.0 + (2.4+1.5*nu+1.0/(tan*tan))*tl2))
	e2 := e * cube * (hl / (cos * cos * cos)) *
		(1.0 / (1.0 + (2.4+1.5*nu+tan*tan+(2.0*hb/lb)/(cos*cos))*tl2))
	e3 := e * (1.0 - (lb*(hb+lb*sin))/(l*(h+l*sin)))

	nu12 := ((cos * cos) / (hl * sin)) *
		((1.0 + (1.4+1.5*nu)*tl2) / (1.0 + (2.4+1.5*nu+1.0/(tan*tan))*tl2))
	nu13 := e1 / e3 * nu
	nu23 := e2 / e3 * nu

	c := 1.0 + 2.0*hb/lb +
		tl2*((2.4+1.5*nu)/(hb/lb*(2.0+h/l+sin))+
			hl/tl2*(hl*tan*tan+sin))
	g12 := e * cube * hl / ((hb * hb) / (lb * lb) * cos) * 1.0 / c

	wall := (t / l) / (hl * cos)
	g13 := g * wall *
		(cos*cos*lb/l + 0.75*t/l*2.0*tan - cos/2.0*t/l*(2.0*sin-1.0))
	g23 := g * wall *
		(sin*sin*lb/l + hb/(2.0*l) + 0.75*t/l*2.0*tan - (sin*sin)/(2.0*cos)*t/l*(2.0*sin-1.0))

	res = [9]float64{e1, e2, e3, nu12, nu13, nu23, g12, g13, g23}
	if err := checkFinite(elasticHoneycomb, elasticNames, res[:]); err != nil {
		return [9]float64{}, err
	}
	return res, nil
}

// ThermalExpansionForHoneycomb 计算蜂窝芯的线膨胀系数 [alpha1, alpha2, alpha3]。
//
// wallThickness 仅为保持参数表与弹性内核一致，计算中不使用。
func ThermalExpansionForHoneycomb(
	model uint8,
	lCellSideSize, hCellSideSize, wallThickness, angle, alphaForHoneycomb float64,
) (res [3]float64, err error) {
	defer recoverNumerical(expansionHoneycomb, &err)

	if model != HoneycombGibson {
		return res, merr.WrapErrComputeUnknownModel(expansionHoneycomb, model)
	}

	_ = wallThickness
	a := alphaForHoneycomb
	hl := hCellSideSize / lCellSideSize
	cos := math.Cos(angle)
	alpha2 := (hl*a - cos*a) / (hl - cos)

	res = [3]float64{a, alpha2, a}
	if err := checkFinite(expansionHoneycomb, expansionNames, res[:]); err != nil {
		return [3]float64{}, err
	}
	return res, nil
}
