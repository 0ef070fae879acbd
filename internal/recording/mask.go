package recording

import "fmt"

// ROIMask is a segmented cell. Mask covers the Width x Height box whose top-left
// corner sits at (X, Y) in the imaging plane.
type ROIMask struct {
	CellSpecimenID int64    `json:"cell_specimen_id"`
	ROIID          int64    `json:"roi_id"`
	X              int      `json:"x"`
	Y              int      `json:"y"`
	Width          int      `json:"width"`
	Height         int      `json:"height"`
	Mask           [][]bool `json:"mask"`

	// Plane dimensions, filled in by Dataset.
	FrameRows int `json:"-"`
	FrameCols int `json:"-"`
}

func (m ROIMask) fits(rows, cols int) error {
	if m.X < 0 || m.Y < 0 || m.X+m.Width > cols || m.Y+m.Height > rows {
		return fmt.Errorf("box (%d,%d %dx%d) outside %dx%d plane", m.X, m.Y, m.Width, m.Height, rows, cols)
	}
	if len(m.Mask) != m.Height {
		return fmt.Errorf("mask has %d rows, want %d", len(m.Mask), m.Height)
	}
	for i, row := range m.Mask {
		if len(row) != m.Width {
			return fmt.Errorf("mask row %d has %d columns, want %d", i, len(row), m.Width)
		}
	}
	return nil
}

// Plane returns the mask placed in a full FrameRows x FrameCols boolean plane.
func (m ROIMask) Plane() [][]bool {
	plane := make([][]bool, m.FrameRows)
	for r := range plane {
		plane[r] = make([]bool, m.FrameCols)
	}
	for dy, row := range m.Mask {
		for dx, on := range row {
			y, x := m.Y+dy, m.X+dx
			if on && y < m.FrameRows && x < m.FrameCols {
				plane[y][x] = true
			}
		}
	}
	return plane
}

// MaskStack is a stack of full-plane masks with the physical coordinate of every
// pixel centre along each axis.
type MaskStack struct {
	ROIIDs  []int64    `json:"roi_ids"`
	Masks   [][][]bool `json:"masks"`
	Rows    []float64  `json:"row"`
	Columns []float64  `json:"column"`
}

func pixelCentres(n int, size float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = (float64(i) + 0.5) * size
	}
	return out
}
