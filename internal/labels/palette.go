package labels

// Colour is an rgb colour with channels in [0, 1].
type Colour [3]float64

// Palette assigns a colour to every class.
type Palette map[string]Colour

// Superset returns the palette of the superset classes,
// colouring every superset class with the mean colour of its members.
func (p Palette) Superset(s Superset) Palette {
	if p == nil || s.Infer || len(s.Classes) == 0 {
		return nil
	}
	palette := make(Palette, len(s.Classes))
	for class, members := range s.Classes {
		var sum Colour
		n := 0
		for _, member := range members {
			c, ok := p[member]
			if !ok {
				continue
			}
			for i := range sum {
				sum[i] += c[i]
			}
			n++
		}
		if n == 0 {
			continue
		}
		for i := range sum {
			sum[i] /= float64(n)
		}
		palette[class] = sum
	}
	return palette
}
