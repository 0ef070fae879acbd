package tables

import (
	"strconv"
	"strings"
	"time"

	"github.com/hyperjump/brainobs/internal/models"
)

var sessionColumns = []string{
	"ophys_session_id",
	"behavior_session_id",
	"ophys_experiment_id",
	"ophys_container_id",
	"mouse_id",
	"session_type",
	"date_of_acquisition",
	"equipment_name",
	"genotype",
	"sex",
	"age_in_days",
	"project_code",
	"prior_exposures_to_session_type",
	"prior_exposures_to_image_set",
	"prior_exposures_to_omissions",
}

// Columns returns the visible column names with the index column first.
func (t *SessionsTable) Columns() []string {
	cols := []string{t.Index}
	for _, c := range sessionColumns {
		if c == t.Index || t.suppressed(c) {
			continue
		}
		cols = append(cols, c)
	}
	return cols
}

// Records renders every row as strings in Columns order. Nil counts render as "".
func (t *SessionsTable) Records() [][]string {
	cols := t.Columns()
	out := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		rec := make([]string, len(cols))
		for j, c := range cols {
			rec[j] = t.cell(r, c)
		}
		out[i] = rec
	}
	return out
}

func (t *SessionsTable) suppressed(col string) bool {
	for _, s := range t.Suppress {
		if s == col {
			return true
		}
	}
	return false
}

func (t *SessionsTable) cell(r models.OphysSession, col string) string {
	switch col {
	case "ophys_session_id":
		return strconv.FormatInt(r.OphysSessionID, 10)
	case "behavior_session_id":
		return strconv.FormatInt(r.BehaviorSessionID, 10)
	case "ophys_experiment_id":
		if t.Index == IndexOphysExperiment {
			return strconv.FormatInt(r.OphysExperimentID, 10)
		}
		return JoinIDs(r.OphysExperimentIDs)
	case "ophys_container_id":
		return JoinIDs(r.OphysContainerIDs)
	case "mouse_id":
		return r.MouseID
	case "session_type":
		return r.SessionType
	case "date_of_acquisition":
		if r.DateOfAcquisition.IsZero() {
			return ""
		}
		return r.DateOfAcquisition.UTC().Format(time.RFC3339)
	case "equipment_name":
		return r.EquipmentName
	case "genotype":
		return r.Genotype
	case "sex":
		return r.Sex
	case "age_in_days":
		return strconv.Itoa(r.AgeInDays)
	case "project_code":
		return r.ProjectCode
	case "prior_exposures_to_session_type":
		return formatCount(r.PriorExposuresToSessionType)
	case "prior_exposures_to_image_set":
		return formatCount(r.PriorExposuresToImageSet)
	case "prior_exposures_to_omissions":
		return formatCount(r.PriorExposuresToOmissions)
	}
	return ""
}

// JoinIDs renders a list of IDs separated by ";".
func JoinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ";")
}

// SplitIDs parses a ";"-separated list of IDs. Blank entries are skipped.
func SplitIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func formatCount(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}
