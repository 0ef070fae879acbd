// Package tables post-processes project metadata tables before they are served or exported.
package tables

import (
	"go.uber.org/zap"

	"github.com/hyperjump/brainobs/internal/models"
)

// Index column names accepted by the sessions table.
const (
	IndexOphysSession    = "ophys_session_id"
	IndexOphysExperiment = "ophys_experiment_id"
)

// IndexMode is the outcome of interpreting the requested index column.
type IndexMode int

const (
	// Passthrough keeps one row per ophys session.
	Passthrough IndexMode = iota
	// ExplodeOnExperiment produces one row per ophys experiment.
	ExplodeOnExperiment
	// InvalidMode means the index column was not recognised; rows are left unchanged.
	InvalidMode
)

func (m IndexMode) String() string {
	switch m {
	case Passthrough:
		return "passthrough"
	case ExplodeOnExperiment:
		return "explode"
	default:
		return "invalid"
	}
}

// ParseIndexColumn maps an index column name to its mode.
func ParseIndexColumn(column string) IndexMode {
	switch column {
	case IndexOphysSession:
		return Passthrough
	case IndexOphysExperiment:
		return ExplodeOnExperiment
	default:
		return InvalidMode
	}
}

// SessionsTable holds behavior-ophys session rows plus the reference table of all
// behavior sessions needed for exposure counts.
type SessionsTable struct {
	Rows      []models.OphysSession
	Index     string
	Suppress  []string
	reference []models.BehaviorSession
	column    string
	logger    *zap.Logger
}

// Option configures a SessionsTable.
type Option func(*SessionsTable)

// WithSuppress hides the named columns from Columns and Records.
func WithSuppress(cols ...string) Option {
	return func(t *SessionsTable) { t.Suppress = append(t.Suppress, cols...) }
}

// WithIndexColumn sets the requested index column (default ophys_session_id).
func WithIndexColumn(column string) Option {
	return func(t *SessionsTable) { t.column = column }
}

// WithLogger sets the logger used for the invalid index warning.
func WithLogger(l *zap.Logger) Option {
	return func(t *SessionsTable) { t.logger = l }
}

// NewSessionsTable copies rows and returns a table indexed by ophys session.
func NewSessionsTable(rows []models.OphysSession, reference []models.BehaviorSession, opts ...Option) *SessionsTable {
	t := &SessionsTable{
		Rows:      append([]models.OphysSession(nil), rows...),
		Index:     IndexOphysSession,
		reference: reference,
		column:    IndexOphysSession,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Postprocess adds prior exposure counts, then explodes or keeps rows according to the
// index column. An unknown column is logged and reported as InvalidMode; rows are not touched.
func (t *SessionsTable) Postprocess() IndexMode {
	t.Rows = AddPriorExposures(t.Rows, t.reference)
	mode := ParseIndexColumn(t.column)
	switch mode {
	case Passthrough:
	case ExplodeOnExperiment:
		t.Rows = Explode(t.Rows)
		t.Index = IndexOphysExperiment
	default:
		t.logger.Warn("invalid index column for sessions table; data left unchanged",
			zap.String("index_column", t.column),
			zap.Strings("valid", []string{IndexOphysExperiment, IndexOphysSession}))
	}
	return mode
}

// Explode returns one row per experiment ID with OphysExperimentID set. Sessions
// without experiments are kept as a single row with OphysExperimentID 0.
func Explode(rows []models.OphysSession) []models.OphysSession {
	out := make([]models.OphysSession, 0, len(rows))
	for _, r := range rows {
		if len(r.OphysExperimentIDs) == 0 {
			r.OphysExperimentID = 0
			out = append(out, r)
			continue
		}
		for _, expID := range r.OphysExperimentIDs {
			row := r
			row.OphysExperimentIDs = []int64{expID}
			row.OphysExperimentID = expID
			out = append(out, row)
		}
	}
	return out
}
