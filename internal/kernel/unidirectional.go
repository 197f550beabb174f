package kernel

import (
	"math"

	"github.com/lk2023060901/matprops-go/pkg/util/merr"
)

const (
	// RuleOfMixtures 混合律模型。
	RuleOfMixtures uint8 = 1
	// Vanin 为 Vanin 模型；导热系数内核中对应正方形排列。
	Vanin uint8 = 2

	// VaninThermalExpansion 为热膨胀内核中 Vanin 模型的编号。
	VaninThermalExpansion uint8 = 1
)

const (
	elasticUnidirectional      = "elastic_modules_for_unidirectional_composite"
	conductivityUnidirectional = "thermal_conductivity_for_unidirectional_composite"
	expansionUnidirectional    = "thermal_expansion_for_unidirectional_composite"
)

var (
	elasticNames      = []string{"e1", "e2", "e3", "nu12", "nu13", "nu23", "g12", "g13", "g23"}
	mixturesNames     = []string{"e1", "e2", "e3", "nu12", "nu13", "", "g12", "g13", ""}
	conductivityNames = []string{"k1", "k2", "k3"}
	expansionNames    = []string{"alpha1", "alpha2", "alpha3"}
)

// ElasticModulesForUnidirectionalComposite 计算单向纤维复合材料的弹性常数。
//
// 返回 [E1, E2, E3, nu12, nu13, nu23, G12, G13, G23]，1 为纤维方向。
// 混合律模型不定义 nu23 与 G23，二者为 NaN。
func ElasticModulesForUnidirectionalComposite(
	model uint8,
	fibreContent, eForFiber, nuForFiber, eForMatrix, nuForMatrix float64,
) (res [9]float64, err error) {
	defer recoverNumerical(elasticUnidirectional, &err)

	names := elasticNames
	switch model {
	case RuleOfMixtures:
		res = elasticRuleOfMixtures(fibreContent, eForFiber, nuForFiber, eForMatrix, nuForMatrix)
		names = mixturesNames
	case Vanin:
		res = elasticVanin(fibreContent, eForFiber, nuForFiber, eForMatrix, nuForMatrix)
	default:
		return res, merr.WrapErrComputeUnknownModel(elasticUnidirectional, model)
	}
	if err := checkFinite(elasticUnidirectional, names, res[:]); err != nil {
		return [9]float64{}, err
	}
	return res, nil
}

func elasticRuleOfMixtures(vf, ef, nuf, em, num float64) [9]float64 {
	gf := shearModulus(ef, nuf)
	gm := shearModulus(em, num)

	e1 := vf*ef + em*(1.0-vf)
	e2 := 1.0 / (vf/ef + (1.0-vf)/em)
	nu12 := nuf*vf + num*(1.0-vf)
	g12 := vf*gf + gm*(1.0-vf)
	return [9]float64{e1, e2, e2, nu12, nu12, undefined, g12, g12, undefined}
}

func elasticVanin(vf, ef, nuf, em, num float64) [9]float64 {
	gf := shearModulus(ef, nuf)
	gm := shearModulus(em, num)
	chiF := 3.0 - 4.0*nuf
	chiM := 3.0 - 4.0*num

	// 各公式共用的分母。
	d1 := 2.0 - vf + vf*chiM + (1.0-vf)*(chiF-1.0)*gm/gf
	d2 := chiM + vf + (1.0-vf)*gm/gf

	e1 := vf*ef*chiF + (1.0-vf)*em +
		(8.0*gm*(nuf-num)*(nuf-num)*vf*(1.0-vf))/d1
	nu21 := num - (chiM+1.0)*(num-nuf)*vf/d1
	nu31 := nu21

	a := (2.0*(1.0-vf)*(chiM-1.0) + (chiF-1.0)*(chiM-1.0+2.0*vf)*gm/gf) / d1
	b := 2.0 * (chiM*(1.0-vf) + (1.0+vf*chiM)*gm/gf) / d2

	e2 := 1.0 / (nu21/e1 + 1.0/(8.0*gm)*(a+b))
	e3 := 1.0 / (nu31/e1 + 1.0/(8.0*gm)*(a+b))
	nu23 := e2 * (-nu21/e1 + 1.0/(8.0*gm)*(-a+b))
	nu12 := nu21 * e2 / e1
	nu13 := nu31 * e3 / e1

	g12 := 1.0 / ((1.0 / gm) * (1.0 - vf + (1.0+vf)*gm/gf) / (1.0 + vf + (1.0-vf)*gm/gf))
	g23 := 1.0 / ((1.0 / gm) * ((1.0-vf)*chiM + (1.0+chiM*vf)*gm/gf) / d2)
	return [9]float64{e1, e2, e3, nu12, nu13, nu23, g12, g12, g23}
}

// ThermalConductivityForUnidirectionalComposite 计算单向纤维复合材料的导热系数 [k1, k2, k3]。
func ThermalConductivityForUnidirectionalComposite(
	model uint8,
	fibreContent, kForFiber, kForMatrix float64,
) (res [3]float64, err error) {
	defer recoverNumerical(conductivityUnidirectional, &err)

	vf, kf, km := fibreContent, kForFiber, kForMatrix
	k1 := vf*kf + (1.0-vf)*km
	switch model {
	case RuleOfMixtures:
		k2 := 1.0 / (vf/kf + (1.0-vf)/km)
		res = [3]float64{k1, k2, k2}
	case Vanin:
		k2 := conductivityTetragonal(vf, kf, km)
		res = [3]float64{k1, k2, k2}
	default:
		return res, merr.WrapErrComputeUnknownModel(conductivityUnidirectional, model)
	}
	if err := checkFinite(conductivityUnidirectional, conductivityNames, res[:]); err != nil {
		return [3]float64{}, err
	}
	return res, nil
}

// conductivityTetragonal 为纤维按正方形排列时的横向导热系数。
func conductivityTetragonal(vf, kf, km float64) float64 {
	const n = 6.0
	ratio := kf / km
	k2zero := km * ((1.0 + vf + (1.0-vf)*ratio) / (1.0 - vf + (1.0-vf)*ratio))

	p := (1.0 - ratio) / (1.0 - vf + (1.0+vf)*ratio)
	q := (1.0 - ratio) / (1.0 + ratio)
	s := math.Sin(math.Pi / 2.0)
	return k2zero * (1.0 + n*n*(n-1.0)*k2zero/km*p*p*(s*s)/math.Pow(math.Pi/2.0, n)*
		(vf*vf-math.Pow(vf, 2.0*n)*q*q))
}

// ThermalExpansionForUnidirectionalComposite 计算单向纤维复合材料的线膨胀系数 [alpha1, alpha2, alpha3]。
//
// 唯一的模型（编号 1）依赖 Vanin 弹性模型的结果。
func ThermalExpansionForUnidirectionalComposite(
	model uint8,
	fibreContent, eForFiber, nuForFiber, alphaForFiber, eForMatrix, nuForMatrix, alphaForMatrix float64,
) (res [3]float64, err error) {
	defer recoverNumerical(expansionUnidirectional, &err)

	if model != VaninThermalExpansion {
		return res, merr.WrapErrComputeUnknownModel(expansionUnidirectional, model)
	}

	vf, ef, nuf, af := fibreContent, eForFiber, nuForFiber, alphaForFiber
	em, num, am := eForMatrix, nuForMatrix, alphaForMatrix
	gf := shearModulus(ef, nuf)
	gm := shearModulus(em, num)
	chiF := 3.0 - 4.0*nuf
	chiM := 3.0 - 4.0*num

	el := elasticVanin(vf, ef, nuf, em, num)
	nu21 := el[3] * el[0] / el[1]
	nu31 := el[4] * el[0] / el[2]

	alpha1 := am - (am-af)*vf/el[0]*
		(ef+(8.0*gm*(nuf-num)*(1.0-vf)*(1.0+nuf))/
			(2.0-vf+vf*chiM+(1.0-vf)*(chiF+1.0)*gm/gf))
	alpha2 := am + (am-alpha1)*nu21 - (am-af)*(1.0+nuf)*(num-nu21)/(num-nuf)
	alpha3 := am + (am-alpha1)*nu31 - (am-af)*(1.0+nuf)*(num-nu31)/(num-nuf)

	res = [3]float64{alpha1, alpha2, alpha3}
	if err := checkFinite(expansionUnidirectional, expansionNames, res[:]); err != nil {
		return [3]float64{}, err
	}
	return res, nil
}
