package nurbs

// findSpan returns the knot span index containing u for n+1 control points
// of degree p. u at the upper domain end maps to the last non-empty span.
func findSpan(n, p int, u float32, knots []float32) int {
	if u >= knots[n+1] {
		s := n
		for s > p && knots[s] == knots[s+1] {
			s--
		}
		return s
	}
	if u <= knots[p] {
		return p
	}
	lo, hi := p, n+1
	mid := (lo + hi) / 2
	for u < knots[mid] || u >= knots[mid+1] {
		if u < knots[mid] {
			hi = mid
		} else {
			lo = mid
		}
		mid = (lo + hi) / 2
	}
	return mid
}

// basisDerivs returns the p+1 non-zero basis functions at u (row 0) and
// their first derivatives (row 1) on span.
func basisDerivs(span, p int, u float32, knots []float32) [2][]float32 {
	ndu := make([][]float32, p+1)
	for i := range ndu {
		ndu[i] = make([]float32, p+1)
	}
	left := make([]float32, p+1)
	right := make([]float32, p+1)
	ndu[0][0] = 1
	for j := 1; j <= p; j++ {
		left[j] = u - knots[span+1-j]
		right[j] = knots[span+j] - u
		var saved float32
		for r := 0; r < j; r++ {
			ndu[j][r] = right[r+1] + left[j-r]
			var tmp float32
			if ndu[j][r] != 0 {
				tmp = ndu[r][j-1] / ndu[j][r]
			}
			ndu[r][j] = saved + right[r+1]*tmp
			saved = left[j-r] * tmp
		}
		ndu[j][j] = saved
	}

	var out [2][]float32
	out[0] = make([]float32, p+1)
	out[1] = make([]float32, p+1)
	for j := 0; j <= p; j++ {
		out[0][j] = ndu[j][p]
	}
	if p == 0 {
		return out
	}
	for r := 0; r <= p; r++ {
		var d float32
		if r >= 1 && ndu[p][r-1] != 0 {
			d += ndu[r-1][p-1] / ndu[p][r-1]
		}
		if r <= p-1 && ndu[p][r] != 0 {
			d -= ndu[r][p-1] / ndu[p][r]
		}
		out[1][r] = d * float32(p)
	}
	return out
}

// domain returns the parameter range of a knot vector with the given order.
func domain(order int, knots []float32) (lo, hi float32) {
	return knots[order-1], knots[len(knots)-order]
}

// params returns the sample parameters: samples per non-empty span, with
// both domain ends included.
func params(order int, knots []float32, samples int) []float32 {
	lo, hi := domain(order, knots)
	var out []float32
	for i := order - 1; i < len(knots)-order; i++ {
		a, b := knots[i], knots[i+1]
		if b <= a {
			continue
		}
		for s := 0; s < samples; s++ {
			out = append(out, a+(b-a)*float32(s)/float32(samples))
		}
	}
	if len(out) == 0 || out[len(out)-1] != hi {
		out = append(out, hi)
	}
	if out[0] != lo {
		out = append([]float32{lo}, out...)
	}
	return out
}
