package kernel

// Unrolled4 processes four samples per iteration. Wide out-of-order cores
// overlap the independent multiplies of neighbouring samples.
func Unrolled4(c Coefficients, d0, d1 float64, buf []float64) (float64, float64) {
	b0, b1, b2 := c.B0, c.B1, c.B2
	a1, a2 := c.A1, c.A2

	i := 0
	n := len(buf)
	for ; i+3 < n; i += 4 {
		s := buf[i : i+4 : i+4]

		y0 := b0*s[0] + d0
		d0 = b1*s[0] - a1*y0 + d1
		d1 = b2*s[0] - a2*y0

		y1 := b0*s[1] + d0
		d0 = b1*s[1] - a1*y1 + d1
		d1 = b2*s[1] - a2*y1

		y2 := b0*s[2] + d0
		d0 = b1*s[2] - a1*y2 + d1
		d1 = b2*s[2] - a2*y2

		y3 := b0*s[3] + d0
		d0 = b1*s[3] - a1*y3 + d1
		d1 = b2*s[3] - a2*y3

		s[0], s[1], s[2], s[3] = y0, y1, y2, y3
	}

	for ; i < n; i++ {
		x := buf[i]
		y := b0*x + d0
		d0 = b1*x - a1*y + d1
		d1 = b2*x - a2*y
		buf[i] = y
	}

	return d0, d1
}
