package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/hyperjump/brainobs/internal/models"
	"github.com/hyperjump/brainobs/internal/tables"
	"github.com/hyperjump/brainobs/pkg/utils"
)

// maxCellWidth caps text table cells; genotype strings run long.
const maxCellWidth = 40

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ValidFormats lists the accepted --output values.
var ValidFormats = []OutputFormat{OutputText, OutputJSON}

// ParseOutputFormat normalizes s; the result may be invalid.
func ParseOutputFormat(s string) OutputFormat {
	return OutputFormat(strings.ToLower(strings.TrimSpace(s)))
}

// Valid reports whether f is one of ValidFormats.
func (f OutputFormat) Valid() bool {
	for _, v := range ValidFormats {
		if f == v {
			return true
		}
	}
	return false
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// SessionsOutput is the JSON shape of a postprocessed sessions table.
type SessionsOutput struct {
	Index   string                `json:"index"`
	Mode    string                `json:"mode"`
	Columns []string              `json:"columns"`
	Rows    []models.OphysSession `json:"rows"`
}

// WriteSessions writes a postprocessed table in the given format.
func WriteSessions(w io.Writer, t *tables.SessionsTable, mode tables.IndexMode, format OutputFormat) error {
	if format == OutputJSON {
		rows := t.Rows
		if rows == nil {
			rows = []models.OphysSession{}
		}
		return writeJSON(w, SessionsOutput{Index: t.Index, Mode: mode.String(), Columns: t.Columns(), Rows: rows})
	}
	if mode == tables.InvalidMode {
		fmt.Fprintln(w, "warning: invalid index column; rows left unchanged")
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Columns(), "\t"))
	for _, rec := range t.Records() {
		for i, c := range rec {
			rec[i] = utils.Truncate(c, maxCellWidth)
		}
		fmt.Fprintln(tw, strings.Join(rec, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%d rows indexed by %s\n", len(t.Rows), t.Index)
	return nil
}

// WriteFiles writes file manifest records in the given format.
func WriteFiles(w io.Writer, recs []*models.FileRecord, format OutputFormat) error {
	if format == OutputJSON {
		if recs == nil {
			recs = []*models.FileRecord{}
		}
		return writeJSON(w, recs)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE_ID\tSIZE\tPATH")
	for _, r := range recs {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", r.FileID, formatBytes(r.Size), r.Path)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%d files\n", len(recs))
	return nil
}

// CellSummary describes one cell of a recording.
type CellSummary struct {
	CellSpecimenID int64    `json:"cell_specimen_id"`
	ROIID          int64    `json:"roi_id,omitempty"`
	MeanDFF        float64  `json:"mean_dff"`
	MeanCorrected  *float64 `json:"mean_corrected_fluorescence,omitempty"`
	MaskPixels     int      `json:"mask_pixels"`
}

// RecordingSummary is the output of the recording command.
type RecordingSummary struct {
	SessionType  string        `json:"session_type"`
	Cells        int           `json:"cells"`
	Frames       int           `json:"frames"`
	Duration     float64       `json:"duration_seconds"`
	Rewards      int           `json:"rewards"`
	AutoRewards  int           `json:"auto_rewards"`
	RewardVolume float64       `json:"reward_volume"`
	RewardTimes  []RewardTime  `json:"reward_times"`
	CellSummary  []CellSummary `json:"cell_summary"`
	ROIs         []ROISummary  `json:"rois,omitempty"`
}

// RewardTime groups the rewards delivered at one stimulus timestamp.
type RewardTime struct {
	Timestamp   float64 `json:"timestamp"`
	Count       int     `json:"count"`
	AutoRewards int     `json:"auto_rewards"`
	Volume      float64 `json:"volume"`
}

// ROISummary describes one ROI mask in the imaging plane.
type ROISummary struct {
	ROIID          int64   `json:"roi_id"`
	Pixels         int     `json:"pixels"`
	CentroidRow    float64 `json:"centroid_row"`
	CentroidColumn float64 `json:"centroid_column"`
}

// WriteRecordingSummary writes a recording summary in the given format.
func WriteRecordingSummary(w io.Writer, s *RecordingSummary, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, s)
	}
	fmt.Fprintf(w, "Session type: %s\n", s.SessionType)
	fmt.Fprintf(w, "Cells: %d  Frames: %d  Duration: %.2fs\n", s.Cells, s.Frames, s.Duration)
	fmt.Fprintf(w, "Rewards: %d (%d auto) at %d times  Volume: %.3f\n",
		s.Rewards, s.AutoRewards, len(s.RewardTimes), s.RewardVolume)
	if len(s.CellSummary) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "CELL_SPECIMEN_ID\tROI_ID\tMEAN_DFF\tMEAN_CORRECTED\tMASK_PIXELS")
		for _, c := range s.CellSummary {
			corrected := "-"
			if c.MeanCorrected != nil {
				corrected = fmt.Sprintf("%.4f", *c.MeanCorrected)
			}
			fmt.Fprintf(tw, "%d\t%d\t%.4f\t%s\t%d\n", c.CellSpecimenID, c.ROIID, c.MeanDFF, corrected, c.MaskPixels)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	if len(s.ROIs) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ROI_ID\tPIXELS\tCENTROID_ROW\tCENTROID_COLUMN")
	for _, r := range s.ROIs {
		fmt.Fprintf(tw, "%d\t%d\t%.2f\t%.2f\n", r.ROIID, r.Pixels, r.CentroidRow, r.CentroidColumn)
	}
	return tw.Flush()
}

// StatusReport is the output of the status command.
type StatusReport struct {
	ConfigPath     string `json:"config_path,omitempty"`
	DatabasePath   string `json:"database_path"`
	IDStrategy     string `json:"id_strategy"`
	IndexColumn    string `json:"index_column"`
	Sessions       int64  `json:"sessions"`
	Files          int64  `json:"files"`
	DiskUsageBytes int64  `json:"disk_usage_bytes"`
}

// WriteStatus writes a status report in the given format.
func WriteStatus(w io.Writer, s *StatusReport, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, s)
	}
	if s.ConfigPath != "" {
		fmt.Fprintf(w, "Config:      %s\n", s.ConfigPath)
	}
	fmt.Fprintf(w, "Database:    %s (%s)\n", s.DatabasePath, formatBytes(s.DiskUsageBytes))
	fmt.Fprintf(w, "ID strategy: %s\n", s.IDStrategy)
	fmt.Fprintf(w, "Index:       %s\n", s.IndexColumn)
	fmt.Fprintf(w, "Sessions:    %d\n", s.Sessions)
	fmt.Fprintf(w, "Files:       %d\n", s.Files)
	return nil
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
