// Package recording reads per-experiment optical physiology recordings: traces, ROI masks,
// running speed, motion correction and rewards.
package recording

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hyperjump/brainobs/internal/rewards"
)

// TraceKind selects one of the trace arrays stored in a recording.
type TraceKind string

const (
	Fluorescence TraceKind = "fluorescence"
	Neuropil     TraceKind = "neuropil"
	DFF          TraceKind = "dff"
)

// Source is the raw content of one experiment recording.
type Source interface {
	CellSpecimenIDs() []int64
	ROIIDs() []int64
	Timestamps() []float64
	Trace(kind TraceKind) ([][]float64, error)
	NeuropilRatio() []float64
	Masks() []ROIMask
	ImageShape() (rows, cols int)
	PixelSize() (row, col float64)
	MaxProjection() [][]float64
	Metadata() map[string]interface{}
	SessionType() string
	RunningSpeed() RunningSpeed
	MotionCorrection() MotionCorrection
	StimulusTimestamps() []float64
	TrialLog() []rewards.Trial
}

// RunningSpeed is the running wheel speed sampled at Timestamps.
type RunningSpeed struct {
	Timestamps []float64 `json:"timestamps"`
	Values     []float64 `json:"values"`
}

// MotionCorrection holds per-frame x/y offsets applied during registration.
type MotionCorrection struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}

// PixelSize is the physical size of one pixel along each axis.
type PixelSize struct {
	Row    float64 `json:"row"`
	Column float64 `json:"column"`
}

// Bundle is a JSON export of one experiment. It implements Source.
type Bundle struct {
	Meta             map[string]interface{} `json:"metadata"`
	Session          string                 `json:"session_type"`
	CellSpecimens    []int64                `json:"cell_specimen_ids"`
	ROIs             []int64                `json:"roi_ids"`
	Times            []float64              `json:"timestamps"`
	FluorescenceData [][]float64            `json:"fluorescence"`
	NeuropilData     [][]float64            `json:"neuropil"`
	DFFData          [][]float64            `json:"dff"`
	R                []float64              `json:"r"`
	ROIMasks         []ROIMask              `json:"roi_masks"`
	Shape            [2]int                 `json:"image_shape"`
	Pixel            PixelSize              `json:"pixel_size"`
	MaxProj          [][]float64            `json:"max_projection"`
	Running          RunningSpeed           `json:"running_speed"`
	Motion           MotionCorrection       `json:"motion_correction"`
	StimulusTimes    []float64              `json:"stimulus_timestamps"`
	Trials           []rewards.Trial        `json:"trial_log"`
}

// Open reads and validates a JSON bundle.
func Open(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recording: %w", err)
	}
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse recording: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("invalid recording %s: %w", path, err)
	}
	return &b, nil
}

// Validate checks that traces, IDs and masks agree in shape.
func (b *Bundle) Validate() error {
	n := len(b.CellSpecimens)
	if len(b.ROIs) != 0 && len(b.ROIs) != n {
		return fmt.Errorf("%d roi ids for %d cells", len(b.ROIs), n)
	}
	for _, tr := range []struct {
		kind TraceKind
		data [][]float64
	}{{Fluorescence, b.FluorescenceData}, {Neuropil, b.NeuropilData}, {DFF, b.DFFData}} {
		if tr.data == nil {
			continue
		}
		if len(tr.data) != n {
			return fmt.Errorf("%s: %d traces for %d cells", tr.kind, len(tr.data), n)
		}
		for i, row := range tr.data {
			if len(row) != len(b.Times) {
				return fmt.Errorf("%s trace %d: %d samples for %d timestamps", tr.kind, i, len(row), len(b.Times))
			}
		}
	}
	if b.R != nil && len(b.R) != n {
		return fmt.Errorf("%d neuropil ratios for %d cells", len(b.R), n)
	}
	for i, m := range b.ROIMasks {
		if err := m.fits(b.Shape[0], b.Shape[1]); err != nil {
			return fmt.Errorf("roi mask %d: %w", i, err)
		}
	}
	return nil
}

func (b *Bundle) CellSpecimenIDs() []int64 { return b.CellSpecimens }
func (b *Bundle) ROIIDs() []int64 { return b.ROIs }
func (b *Bundle) Timestamps() []float64 { return b.Times }
func (b *Bundle) NeuropilRatio() []float64 { return b.R }
func (b *Bundle) Masks() []ROIMask { return b.ROIMasks }
func (b *Bundle) ImageShape() (int, int) { return b.Shape[0], b.Shape[1] }
func (b *Bundle) PixelSize() (float64, float64) { return b.Pixel.Row, b.Pixel.Column }
func (b *Bundle) MaxProjection() [][]float64 { return b.MaxProj }
func (b *Bundle) Metadata() map[string]interface{} { return b.Meta }
func (b *Bundle) SessionType() string { return b.Session }
func (b *Bundle) RunningSpeed() RunningSpeed { return b.Running }
func (b *Bundle) MotionCorrection() MotionCorrection { return b.Motion }
func (b *Bundle) StimulusTimestamps() []float64 { return b.StimulusTimes }
func (b *Bundle) TrialLog() []rewards.Trial { return b.Trials }

// Trace returns the stored trace array of the given kind.
func (b *Bundle) Trace(kind TraceKind) ([][]float64, error) {
	var data [][]float64
	switch kind {
	case Fluorescence:
		data = b.FluorescenceData
	case Neuropil:
		data = b.NeuropilData
	case DFF:
		data = b.DFFData
	default:
		return nil, fmt.Errorf("unknown trace kind %q", kind)
	}
	if data == nil {
		return nil, fmt.Errorf("recording has no %s traces", kind)
	}
	return data, nil
}
