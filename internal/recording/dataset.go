package recording

import (
	"errors"
	"fmt"

	"github.com/hyperjump/brainobs/internal/rewards"
)

var (
	// ErrCellSpecimenNotFound is returned when a requested cell specimen ID is not in the recording.
	ErrCellSpecimenNotFound = errors.New("Cell specimen not found")
	// ErrROINotFound is returned when a requested cell ROI ID is not in the recording.
	ErrROINotFound = errors.New("ROI not found")
)

// Traces is a set of per-cell traces sharing one timestamp axis.
type Traces struct {
	Timestamps []float64   `json:"timestamps"`
	Values     [][]float64 `json:"values"`
}

// Dataset gives cell-level access to a recording Source.
type Dataset struct {
	src Source
}

// NewDataset wraps src.
func NewDataset(src Source) *Dataset {
	return &Dataset{src: src}
}

// CellSpecimenIDs returns the IDs of all segmented cells in trace order.
func (d *Dataset) CellSpecimenIDs() []int64 {
	return d.src.CellSpecimenIDs()
}

// ROIIDs returns the cell ROI IDs in trace order.
func (d *Dataset) ROIIDs() []int64 {
	return d.src.ROIIDs()
}

// SessionType returns the stimulus session type.
func (d *Dataset) SessionType() string {
	return d.src.SessionType()
}

// Metadata returns the experiment metadata.
func (d *Dataset) Metadata() map[string]interface{} {
	return d.src.Metadata()
}

// RunningSpeed returns the running wheel speed.
func (d *Dataset) RunningSpeed() RunningSpeed {
	return d.src.RunningSpeed()
}

// MotionCorrection returns the registration offsets.
func (d *Dataset) MotionCorrection() MotionCorrection {
	return d.src.MotionCorrection()
}

// MaxProjection returns the maximum intensity projection image.
func (d *Dataset) MaxProjection() [][]float64 {
	return d.src.MaxProjection()
}

// CellSpecimenIndices maps cell specimen IDs to their row in the trace arrays.
func (d *Dataset) CellSpecimenIndices(ids []int64) ([]int, error) {
	pos := make(map[int64]int)
	for i, id := range d.src.CellSpecimenIDs() {
		pos[id] = i
	}
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		i, ok := pos[id]
		if !ok {
			return nil, fmt.Errorf("%w (%d)", ErrCellSpecimenNotFound, id)
		}
		out = append(out, i)
	}
	return out, nil
}

// indices resolves ids, or every cell when ids is empty.
func (d *Dataset) indices(ids []int64) ([]int, error) {
	if len(ids) == 0 {
		n := len(d.src.CellSpecimenIDs())
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all, nil
	}
	return d.CellSpecimenIndices(ids)
}

func (d *Dataset) traces(kind TraceKind, ids []int64) (Traces, error) {
	data, err := d.src.Trace(kind)
	if err != nil {
		return Traces{}, err
	}
	idx, err := d.indices(ids)
	if err != nil {
		return Traces{}, err
	}
	values := make([][]float64, len(idx))
	for i, j := range idx {
		values[i] = data[j]
	}
	return Traces{Timestamps: d.src.Timestamps(), Values: values}, nil
}

// FluorescenceTraces returns raw fluorescence for the given cells (all when none given).
func (d *Dataset) FluorescenceTraces(ids ...int64) (Traces, error) {
	return d.traces(Fluorescence, ids)
}

// NeuropilTraces returns neuropil traces for the given cells.
func (d *Dataset) NeuropilTraces(ids ...int64) (Traces, error) {
	return d.traces(Neuropil, ids)
}

// DffTraces returns dF/F traces for the given cells.
func (d *Dataset) DffTraces(ids ...int64) (Traces, error) {
	return d.traces(DFF, ids)
}

// CorrectedFluorescenceTraces returns F - r*N for the given cells, r being each cell's
// neuropil contamination ratio.
func (d *Dataset) CorrectedFluorescenceTraces(ids ...int64) (Traces, error) {
	f, err := d.traces(Fluorescence, ids)
	if err != nil {
		return Traces{}, err
	}
	n, err := d.traces(Neuropil, ids)
	if err != nil {
		return Traces{}, err
	}
	idx, err := d.indices(ids)
	if err != nil {
		return Traces{}, err
	}
	ratios := d.src.NeuropilRatio()
	if len(ratios) != len(d.src.CellSpecimenIDs()) {
		return Traces{}, fmt.Errorf("recording has %d neuropil ratios for %d cells", len(ratios), len(d.src.CellSpecimenIDs()))
	}
	out := make([][]float64, len(idx))
	for i, j := range idx {
		r := ratios[j]
		row := make([]float64, len(f.Values[i]))
		for k := range row {
			row[k] = f.Values[i][k] - r*n.Values[i][k]
		}
		out[i] = row
	}
	return Traces{Timestamps: f.Timestamps, Values: out}, nil
}

// ROIMasks returns the masks of the given cells (all when none given) in trace order.
func (d *Dataset) ROIMasks(ids ...int64) ([]ROIMask, error) {
	if _, err := d.indices(ids); err != nil {
		return nil, err
	}
	rows, cols := d.src.ImageShape()
	byCell := make(map[int64]ROIMask)
	for _, m := range d.src.Masks() {
		m.FrameRows, m.FrameCols = rows, cols
		byCell[m.CellSpecimenID] = m
	}
	if len(ids) == 0 {
		ids = d.src.CellSpecimenIDs()
	}
	out := make([]ROIMask, 0, len(ids))
	for _, id := range ids {
		m, ok := byCell[id]
		if !ok {
			return nil, fmt.Errorf("%w (%d has no mask)", ErrCellSpecimenNotFound, id)
		}
		out = append(out, m)
	}
	return out, nil
}

// ROIMaskArray returns the full-plane masks of the given cells stacked along the first axis.
func (d *Dataset) ROIMaskArray(ids ...int64) ([][][]bool, error) {
	masks, err := d.ROIMasks(ids...)
	if err != nil {
		return nil, err
	}
	out := make([][][]bool, len(masks))
	for i, m := range masks {
		out[i] = m.Plane()
	}
	return out, nil
}

// ROIMasksByCellROIID returns full-plane masks selected by cell ROI ID (all when none
// given) together with pixel-centre coordinates scaled by the pixel size.
func (d *Dataset) ROIMasksByCellROIID(roiIDs ...int64) (MaskStack, error) {
	rows, cols := d.src.ImageShape()
	byROI := make(map[int64]ROIMask)
	var order []int64
	for _, m := range d.src.Masks() {
		m.FrameRows, m.FrameCols = rows, cols
		byROI[m.ROIID] = m
		order = append(order, m.ROIID)
	}
	if len(roiIDs) == 0 {
		roiIDs = order
	}
	stack := MaskStack{ROIIDs: roiIDs}
	for _, id := range roiIDs {
		m, ok := byROI[id]
		if !ok {
			return MaskStack{}, fmt.Errorf("%w (%d)", ErrROINotFound, id)
		}
		stack.Masks = append(stack.Masks, m.Plane())
	}
	rowSize, colSize := d.src.PixelSize()
	stack.Rows = pixelCentres(rows, rowSize)
	stack.Columns = pixelCentres(cols, colSize)
	return stack, nil
}

// Rewards aligns the trial log against the stimulus timestamps.
func (d *Dataset) Rewards() ([]rewards.Reward, error) {
	return rewards.Align(d.src.TrialLog(), d.src.StimulusTimestamps())
}
