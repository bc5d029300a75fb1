package layout

// Scale is a linear map from a domain onto a range.
type Scale struct {
	d0, d1 float64
	r0, r1 float64
}

// NewScale creates a scale mapping [d0, d1] onto [r0, r1].
func NewScale(d0, d1, r0, r1 float64) Scale {
	return Scale{d0: d0, d1: d1, r0: r0, r1: r1}
}

// Map projects v into the range. A zero-width domain maps everything to r0.
func (s Scale) Map(v float64) float64 {
	if s.d1 == s.d0 {
		return s.r0
	}
	return s.r0 + (v-s.d0)/(s.d1-s.d0)*(s.r1-s.r0)
}

// Invert projects a range value back into the domain.
func (s Scale) Invert(px float64) float64 {
	if s.r1 == s.r0 {
		return s.d0
	}
	return s.d0 + (px-s.r0)/(s.r1-s.r0)*(s.d1-s.d0)
}
