package traverse

import "math"

// Order of the series expansions. Six terms keep the truncation error well
// below a micrometer for terrestrial flattening.
const seriesOrder = 6

const (
	nA1  = seriesOrder
	nC1  = seriesOrder
	nC1p = seriesOrder
	nA3  = seriesOrder
	nC3  = seriesOrder
	nC3x = (nC3 * (nC3 - 1)) / 2
)

// tiny is sqrt of the smallest normal float64.
var tiny = math.Sqrt(0x1p-1022)

// SeriesSolver is Karney's solution of the direct problem (2013). The
// distance and longitude integrals are expanded in the third flattening n
// and in eps, both small for any physical ellipsoid, so there is no
// iteration and no convergence branch.
type SeriesSolver struct{}

func (SeriesSolver) SolveDirect(origin Coordinate, bearingDeg, distanceMeters float64, e *Ellipsoid) (Result, error) {
	origin, bearingDeg, err := validateDirect(origin, bearingDeg, distanceMeters)
	if err != nil {
		return Result{}, err
	}
	e = orDefault(e)
	f, f1, b := e.flattening, 1-e.flattening, e.minor

	salp1, calp1 := sincosd(angRound(wrap180(bearingDeg)))
	sbet1, cbet1 := sincosd(angRound(origin.Lat))
	sbet1 *= f1
	sbet1, cbet1 = norm2(sbet1, cbet1)
	cbet1 = math.Max(tiny, cbet1)

	// azimuth of the geodesic at the equator
	salp0 := salp1 * cbet1
	calp0 := math.Hypot(calp1, salp1*sbet1)

	// sig1 is the arc length on the auxiliary sphere from the equator
	// crossing; omg1 the matching longitude there.
	ssig1, somg1 := sbet1, salp0*sbet1
	csig1, comg1 := 1.0, 1.0
	if sbet1 != 0 || calp1 != 0 {
		csig1 = cbet1 * calp1
		comg1 = csig1
	}
	ssig1, csig1 = norm2(ssig1, csig1)

	k2 := calp0 * calp0 * e.ep2
	eps := k2 / (2*(1+math.Sqrt(1+k2)) + k2)

	A1m1 := a1m1f(eps)
	var C1a, C1pa [nC1 + 1]float64
	c1f(eps, C1a[:])
	c1pf(eps, C1pa[:])
	B11 := sinCosSeries(true, ssig1, csig1, C1a[:])
	sB, cB := math.Sincos(B11)
	stau1 := ssig1*cB + csig1*sB
	ctau1 := csig1*cB - ssig1*sB

	var C3a [nC3]float64
	e.c3f(eps, C3a[:])
	A3c := -f * salp0 * e.a3f(eps)
	B31 := sinCosSeries(true, ssig1, csig1, C3a[:])

	tau12 := distanceMeters / (b * (1 + A1m1))
	s, c := math.Sincos(tau12)
	B12 := -sinCosSeries(true, stau1*c+ctau1*s, ctau1*c-stau1*s, C1pa[:])
	sig12 := tau12 - (B12 - B11)
	ssig12, csig12 := math.Sincos(sig12)
	if math.Abs(f) > 0.01 {
		// one Newton step on the distance equation; the reverted series
		// loses accuracy for strongly flattened bodies
		ssig2 := ssig1*csig12 + csig1*ssig12
		csig2 := csig1*csig12 - ssig1*ssig12
		B12 = sinCosSeries(true, ssig2, csig2, C1a[:])
		serr := (1+A1m1)*(sig12+(B12-B11)) - distanceMeters/b
		sig12 -= serr / math.Sqrt(1+k2*ssig2*ssig2)
		ssig12, csig12 = math.Sincos(sig12)
	}

	ssig2 := ssig1*csig12 + csig1*ssig12
	csig2 := csig1*csig12 - ssig1*ssig12
	sbet2 := calp0 * ssig2
	cbet2 := math.Hypot(salp0, calp0*csig2)
	if cbet2 == 0 {
		// destination is a pole
		cbet2, csig2 = tiny, tiny
	}
	salp2, calp2 := salp0, calp0*csig2

	somg2, comg2 := salp0*ssig2, csig2
	E := math.Copysign(1, salp0)
	omg12 := E * (sig12 -
		(math.Atan2(ssig2, csig2) - math.Atan2(ssig1, csig1)) +
		(math.Atan2(E*somg2, comg2) - math.Atan2(E*somg1, comg1)))
	lam12 := omg12 + A3c*(sig12+(sinCosSeries(true, ssig2, csig2, C3a[:])-B31))

	return Result{
		Destination: Coordinate{
			Lat: math.Atan2(sbet2, f1*cbet2) * degrees,
			Lon: wrapLon(origin.Lon + wrap180(lam12*degrees)),
		},
		FinalBearing: wrap360(math.Atan2(salp2, calp2) * degrees),
		Converged:    true,
		Method:       EllipsoidalSeries,
	}, nil
}

func (e *Ellipsoid) initSeries() {
	e.a3Coeff()
	e.c3Coeff()
}

func (e *Ellipsoid) a3Coeff() {
	// coefficients for A3
	coeff := []float64{-3, 128, -2, -3, 64, -1, -3, -1, 16, 3, -1, -2, 8, 1, -1, 2, 1, 1}
	o, k := 0, 0
	for j := nA3 - 1; j >= 0; j-- { // coeff of eps^j
		m := min(nA3-j-1, j) // order of polynomial in n
		e.a3x[k] = polyval(m, coeff, o, e.n) / coeff[o+m+1]
		k++
		o += m + 2
	}
}

func (e *Ellipsoid) c3Coeff() {
	// coefficients for C3
	coeff := []float64{
		3, 128, 2, 5, 128, -1, 3, 3, 64, -1, 0, 1, 8, -1, 1, 4,
		5, 256, 1, 3, 128, -3, -2, 3, 64, 1, -3, 2, 32,
		7, 512, -10, 9, 384, 5, -9, 5, 192,
		7, 512, -14, 7, 512,
		21, 2560,
	}
	o, k := 0, 0
	for l := 1; l < nC3; l++ { // l is index of C3[l]
		for j := nC3 - 1; j >= l; j-- { // coeff of eps^j
			m := min(nC3-j-1, j) // order of polynomial in n
			e.c3x[k] = polyval(m, coeff, o, e.n) / coeff[o+m+1]
			k++
			o += m + 2
		}
	}
}

func (e *Ellipsoid) a3f(eps float64) float64 {
	return polyval(nA3-1, e.a3x[:], 0, eps)
}

// c3f sets c[1] through c[nC3-1].
func (e *Ellipsoid) c3f(eps float64, c []float64) {
	mult := 1.0
	o := 0
	for l := 1; l < nC3; l++ {
		m := nC3 - l - 1 // order of polynomial in eps
		mult *= eps
		c[l] = mult * polyval(m, e.c3x[:], o, eps)
		o += m + 1
	}
}

// a1m1f returns A1 - 1.
func a1m1f(eps float64) float64 {
	coeff := []float64{1, 4, 64, 0, 256}
	m := nA1 / 2
	t := polyval(m, coeff, 0, eps*eps) / coeff[m+1]
	return (t + eps) / (1 - eps)
}

// c1f sets c[1] through c[nC1].
func c1f(eps float64, c []float64) {
	coeff := []float64{
		-1, 6, -16, 32,
		-9, 64, -128, 2048,
		9, -16, 768,
		3, -5, 512,
		-7, 1280,
		-7, 2048,
	}
	evenSeries(nC1, coeff, eps, c)
}

// c1pf sets c[1] through c[nC1p]; these revert the C1 series so distance
// can be turned back into arc length.
func c1pf(eps float64, c []float64) {
	coeff := []float64{
		205, -432, 768, 1536,
		4005, -4736, 3840, 12288,
		-225, 116, 384,
		-7173, 2695, 7680,
		3467, 7680,
		38081, 61440,
	}
	evenSeries(nC1p, coeff, eps, c)
}

func evenSeries(order int, coeff []float64, eps float64, c []float64) {
	eps2 := eps * eps
	d := eps
	o := 0
	for l := 1; l <= order; l++ {
		m := (order - l) / 2 // order of polynomial in eps^2
		c[l] = d * polyval(m, coeff, o, eps2) / coeff[o+m+1]
		o += m + 2
		d *= eps
	}
}

// polyval evaluates the degree n polynomial p[s:s+n+1] at x by Horner's
// method.
func polyval(n int, p []float64, s int, x float64) float64 {
	if n < 0 {
		return 0
	}
	y := p[s]
	for ; n > 0; n-- {
		s++
		y = y*x + p[s]
	}
	return y
}

// sinCosSeries evaluates
//
//	sinp ? sum(c[i] * sin( 2*i    * x), i, 1, n) :
//	       sum(c[i] * cos((2*i+1) * x), i, 0, n-1)
//
// by Clenshaw summation. c[0] is unused for the sine series.
func sinCosSeries(sinp bool, sinx, cosx float64, c []float64) float64 {
	k := len(c)
	n := k
	if sinp {
		n--
	}
	ar := 2 * (cosx - sinx) * (cosx + sinx) // 2 * cos(2 * x)
	var y0, y1 float64
	if n&1 != 0 {
		k--
		y0 = c[k]
	}
	for n /= 2; n > 0; n-- {
		k--
		y1 = ar*y0 - y1 + c[k]
		k--
		y0 = ar*y1 - y0 + c[k]
	}
	if sinp {
		return 2 * sinx * cosx * y0
	}
	return cosx * (y0 - y1)
}

// angRound pushes tiny angles to zero so that sums like 90 - x stay exact.
func angRound(x float64) float64 {
	const z = 1.0 / 16
	y := math.Abs(x)
	if y < z {
		y = z - (z - y)
	}
	return math.Copysign(y, x)
}

// sincosd is math.Sincos in degrees with exact results at multiples of 90.
func sincosd(x float64) (sinx, cosx float64) {
	r := math.Mod(x, 360)
	q := int(math.Round(r / 90))
	r = (r - float64(q)*90) * radians
	s, c := math.Sincos(r)
	switch uint(q) & 3 {
	case 0:
		sinx, cosx = s, c
	case 1:
		sinx, cosx = c, -s
	case 2:
		sinx, cosx = -s, -c
	default:
		sinx, cosx = -c, s
	}
	if sinx == 0 {
		sinx = math.Copysign(0, x)
	}
	return sinx, cosx + 0
}

func norm2(s, c float64) (float64, float64) {
	r := math.Hypot(s, c)
	return s / r, c / r
}
