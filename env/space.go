package env

// Box is a bounded continuous space.
type Box struct {
	Low   float64
	High  float64
	Shape []int
}

// Size is the number of scalars in the space.
func (b Box) Size() int {
	n := 1
	for _, d := range b.Shape {
		n *= d
	}
	return n
}

func (b Box) Contains(v []float64) bool {
	if len(v) != b.Size() {
		return false
	}
	for _, x := range v {
		if x < b.Low || x > b.High {
			return false
		}
	}
	return true
}
