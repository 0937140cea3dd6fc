package jpeglossless

// predict computes the spatial predictor for sample (row, col) given the
// already-reconstructed neighbours Ra (left), Rb (above), Rc (above-left),
// per ITU-T T.81 Table H.1. selector 1..7; the corner sample (row==0,
// col==0) is handled by the caller via the 2^(P-Pt-1) rule (spec §4.G).
func predict(selector int, ra, rb, rc int) int {
	switch selector {
	case 1:
		return ra
	case 2:
		return rb
	case 3:
		return rc
	case 4:
		return ra + rb - rc
	case 5:
		return ra + ((rb - rc) >> 1)
	case 6:
		return rb + ((ra - rc) >> 1)
	case 7:
		return (ra + rb) / 2
	default:
		return ra
	}
}

// predictSample returns the prediction to use for sample
// (row, col), applying the first-row/first-column boundary rules of T.81
// §H.1.2.1: the first line uses the predictor-1 rule (left neighbour) for
// every selector, and the first column of subsequent lines uses the
// predictor-2 rule (above neighbour), with the true selector only applying
// to interior samples.
func predictSample(selector, row, col, precision, pointTransform int, data []int, width int) int {
	if row == 0 && col == 0 {
		return 1 << uint(precision-pointTransform-1)
	}
	if row == 0 {
		return data[row*width+col-1]
	}
	if col == 0 {
		return data[(row-1)*width+col]
	}
	ra := data[row*width+col-1]
	rb := data[(row-1)*width+col]
	rc := data[(row-1)*width+col-1]
	return predict(selector, ra, rb, rc)
}
