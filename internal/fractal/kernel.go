package fractal

import "math"

// orbit carries one pixel's iteration state: the complex value z and the
// accumulated derivative dz. The derivative starts at (1, 0); for a
// Mandelbrot orbit (z0 = 0) the first step collapses to the same value a
// zero start would give, so a single initialization serves both families.
type orbit struct {
	zr, zi   float64
	dzr, dzi float64
}

func newOrbit(z0r, z0i float64) orbit {
	return orbit{zr: z0r, zi: z0i, dzr: 1, dzi: 0}
}

// magSq returns |z|^2, the quantity compared against the bailout.
func (o *orbit) magSq() float64 {
	return o.zr*o.zr + o.zi*o.zi
}

// step advances z one application of z^power + c in polar form, and the
// derivative recurrence alongside it. atan2 (never atan) keeps the full
// [-pi, pi] phase, which power*theta multiplication depends on.
//
// dcTerm is the additive term of the derivative recurrence: 1 when the
// derivative is taken with respect to c (Mandelbrot), 0 with respect to z0
// (Julia).
func (o *orbit) step(cr, ci float64, power int, dcTerm float64) {
	r := math.Sqrt(o.zr*o.zr + o.zi*o.zi)
	theta := math.Atan2(o.zi, o.zr)
	p := float64(power)

	// Derivative first: d' = power * z^(power-1) * d + dcTerm, using the
	// current z. Direct Cartesian expansion of z^(power-1) is unstable for
	// power > 2; the polar form is exact for any integer power.
	rpow := math.Pow(r, p-1)
	thetaPow := (p - 1) * theta
	zpr := rpow * math.Cos(thetaPow)
	zpi := rpow * math.Sin(thetaPow)
	ndzr := p*(zpr*o.dzr-zpi*o.dzi) + dcTerm
	ndzi := p * (zpr*o.dzi + zpi*o.dzr)

	// De Moivre: z^power = r^power * (cos(power*theta) + i sin(power*theta)).
	newR := math.Pow(r, p)
	newTheta := p * theta
	o.zr = newR*math.Cos(newTheta) + cr
	o.zi = newR*math.Sin(newTheta) + ci
	o.dzr = ndzr
	o.dzi = ndzi
}

// derivMag returns |dz|.
func (o *orbit) derivMag() float64 {
	return math.Sqrt(o.dzr*o.dzr + o.dzi*o.dzi)
}
