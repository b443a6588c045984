package parallel

// bandsPerWorker oversubscribes bands so work stealing can even out load.
const bandsPerWorker = 4

// minBandRows keeps bands from degenerating into single rows.
const minBandRows = 8

// Band is a half-open range of rows [Y0, Y1).
type Band struct {
	Y0, Y1 int
}

// Rows returns the number of rows in the band.
func (b Band) Rows() int {
	return b.Y1 - b.Y0
}

// SplitRows divides [0, height) into at most n contiguous bands of nearly
// equal size. The bands cover every row exactly once, in order.
func SplitRows(height, n int) []Band {
	if height <= 0 {
		return nil
	}
	if n < 1 {
		n = 1
	}
	if maxBands := (height + minBandRows - 1) / minBandRows; n > maxBands {
		n = maxBands
	}

	bands := make([]Band, 0, n)
	base, extra := height/n, height%n
	y := 0
	for i := range n {
		rows := base
		if i < extra {
			rows++
		}
		bands = append(bands, Band{Y0: y, Y1: y + rows})
		y += rows
	}
	return bands
}
