package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// Normality test selection, per the conventional small/medium-sample cutoff:
// Shapiro-Wilk below the cutoff, Anderson-Darling at or above it. Both report
// a statistic and an upper-tail p-value against the normal family with
// estimated mean and variance.

const (
	testShapiroWilk      = "shapiro_wilk"
	testAndersonDarling  = "anderson_darling"
	minNormalitySampleSz = 3
)

// shapiroWilk computes the Shapiro-Wilk W statistic and its p-value using
// Royston's approximation (valid for 3 <= n <= 5000). Input need not be
// sorted. Returns ok=false when the sample is degenerate (n < 3 or zero
// range), in which case the decision is inconclusive.
func shapiroWilk(data []float64) (w, p float64, ok bool) {
	n := len(data)
	if n < minNormalitySampleSz {
		return 1, 1, false
	}

	x := make([]float64, n)
	copy(x, data)
	sort.Float64s(x)
	if x[n-1]-x[0] == 0 {
		return 1, 1, false
	}

	// Expected normal order statistics (Blom scores) and their normalization.
	m := make([]float64, n)
	ssm := 0.0
	for i := 0; i < n; i++ {
		m[i] = distuv.UnitNormal.Quantile((float64(i+1) - 0.375) / (float64(n) + 0.25))
		ssm += m[i] * m[i]
	}

	a := make([]float64, n)
	rssm := math.Sqrt(ssm)
	u := 1.0 / math.Sqrt(float64(n))

	if n > 5 {
		// Polynomial-corrected weights for the two largest order statistics.
		an := m[n-1]/rssm + u*(0.221157+u*(-0.147981+u*(-2.071190+u*(4.434685+u*(-2.706056)))))
		an1 := m[n-2]/rssm + u*(0.042981+u*(-0.293762+u*(-1.752461+u*(5.682633+u*(-3.582633)))))
		phi := (ssm - 2*m[n-1]*m[n-1] - 2*m[n-2]*m[n-2]) / (1 - 2*an*an - 2*an1*an1)
		sp := math.Sqrt(phi)
		a[n-1], a[n-2] = an, an1
		a[0], a[1] = -an, -an1
		for i := 2; i < n-2; i++ {
			a[i] = m[i] / sp
		}
	} else {
		an := m[n-1]/rssm + u*(0.221157+u*(-0.147981+u*(-2.071190+u*(4.434685+u*(-2.706056)))))
		phi := (ssm - 2*m[n-1]*m[n-1]) / (1 - 2*an*an)
		sp := math.Sqrt(phi)
		a[n-1] = an
		a[0] = -an
		for i := 1; i < n-1; i++ {
			a[i] = m[i] / sp
		}
	}

	mean := 0.0
	for _, v := range x {
		mean += v
	}
	mean /= float64(n)

	num, den := 0.0, 0.0
	for i, v := range x {
		num += a[i] * v
		den += (v - mean) * (v - mean)
	}
	w = num * num / den
	if w > 1 {
		w = 1
	}

	// Normalizing transform of W, then an upper-tail standard normal p-value.
	fn := float64(n)
	switch {
	case n == 3:
		p = 6.0 / math.Pi * (math.Asin(math.Sqrt(w)) - math.Asin(math.Sqrt(0.75)))
		p = math.Max(0, math.Min(1, p))
		return w, p, true
	case n <= 11:
		g := -2.273 + 0.459*fn
		mu := 0.5440 - 0.39978*fn + 0.025054*fn*fn - 0.0006714*fn*fn*fn
		sigma := math.Exp(1.3822 - 0.77857*fn + 0.062767*fn*fn - 0.0020322*fn*fn*fn)
		z := (-math.Log(g-math.Log(1-w)) - mu) / sigma
		p = distuv.UnitNormal.Survival(z)
	default:
		ln := math.Log(fn)
		mu := 0.0038915*ln*ln*ln - 0.083751*ln*ln - 0.31082*ln - 1.5861
		sigma := math.Exp(0.0030302*ln*ln - 0.082676*ln - 0.4803)
		z := (math.Log(1-w) - mu) / sigma
		p = distuv.UnitNormal.Survival(z)
	}
	return w, p, true
}

// andersonDarling computes the Anderson-Darling A^2* statistic (adjusted for
// estimated mean and variance) and the D'Agostino-Stephens p-value.
func andersonDarling(data []float64, mean, stdDev float64) (a2 float64, p float64, ok bool) {
	n := len(data)
	if n < minNormalitySampleSz || stdDev == 0 {
		return 0, 1, false
	}

	z := make([]float64, n)
	for i, v := range data {
		z[i] = (v - mean) / stdDev
	}
	sort.Float64s(z)

	fn := float64(n)
	s := 0.0
	for i := 0; i < n; i++ {
		cdfLo := distuv.UnitNormal.CDF(z[i])
		cdfHi := distuv.UnitNormal.CDF(z[n-1-i])
		// Clamp away from 0/1 so the logs stay finite for extreme samples.
		cdfLo = math.Min(math.Max(cdfLo, 1e-12), 1-1e-12)
		cdfHi = math.Min(math.Max(cdfHi, 1e-12), 1-1e-12)
		s += (2*float64(i) + 1) * (math.Log(cdfLo) + math.Log(1-cdfHi))
	}
	a2 = -fn - s/fn
	a2 *= 1 + 0.75/fn + 2.25/(fn*fn)

	switch {
	case a2 >= 0.6:
		p = math.Exp(1.2937 - 5.709*a2 + 0.0186*a2*a2)
	case a2 > 0.34:
		p = math.Exp(0.9177 - 4.279*a2 - 1.38*a2*a2)
	case a2 > 0.2:
		p = 1 - math.Exp(-8.318+42.796*a2-59.938*a2*a2)
	default:
		p = 1 - math.Exp(-13.436+101.14*a2-223.73*a2*a2)
	}
	p = math.Max(0, math.Min(1, p))
	return a2, p, true
}
