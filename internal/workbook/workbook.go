// Package workbook imports project metadata from and exports session tables to Excel workbooks.
package workbook

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/brainobs/internal/models"
	"github.com/hyperjump/brainobs/internal/tables"
)

// Sheet names used by project workbooks.
const (
	SheetBehaviorSessions = "behavior_sessions"
	SheetOphysSessions    = "ophys_sessions"
	SheetSessions         = "sessions"
)

// Project is the metadata read from a project workbook.
type Project struct {
	BehaviorSessions []models.BehaviorSession
	OphysSessions    []models.OphysSession
}

// ReadProject reads both session sheets from the workbook at path. A missing
// ophys_sessions sheet yields no ophys rows; behavior_sessions is required.
func ReadProject(path string) (*Project, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	p := &Project{}
	rows, err := sheetRows(f, SheetBehaviorSessions, true)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		s, err := behaviorFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", SheetBehaviorSessions, i+2, err)
		}
		p.BehaviorSessions = append(p.BehaviorSessions, s)
	}

	rows, err = sheetRows(f, SheetOphysSessions, false)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		s, err := ophysFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", SheetOphysSessions, i+2, err)
		}
		p.OphysSessions = append(p.OphysSessions, s)
	}
	return p, nil
}

// sheetRows returns data rows keyed by header name.
func sheetRows(f *excelize.File, sheet string, required bool) ([]map[string]string, error) {
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		if required {
			return nil, fmt.Errorf("sheet %q not found", sheet)
		}
		return nil, nil
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	header := rows[0]
	out := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		m := make(map[string]string, len(header))
		for i, name := range header {
			name = strings.TrimSpace(name)
			if i < len(row) {
				m[name] = strings.TrimSpace(row[i])
			}
		}
		out = append(out, m)
	}
	return out, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func behaviorFromRow(row map[string]string) (models.BehaviorSession, error) {
	var s models.BehaviorSession
	var err error
	if s.BehaviorSessionID, err = parseID(row, "behavior_session_id"); err != nil {
		return s, err
	}
	if s.DateOfAcquisition, err = parseDate(row["date_of_acquisition"]); err != nil {
		return s, err
	}
	s.MouseID = row["mouse_id"]
	s.SessionType = row["session_type"]
	s.EquipmentName = row["equipment_name"]
	return s, nil
}

func ophysFromRow(row map[string]string) (models.OphysSession, error) {
	var s models.OphysSession
	var err error
	if s.OphysSessionID, err = parseID(row, "ophys_session_id"); err != nil {
		return s, err
	}
	if row["behavior_session_id"] != "" {
		if s.BehaviorSessionID, err = parseID(row, "behavior_session_id"); err != nil {
			return s, err
		}
	}
	if s.OphysExperimentIDs, err = tables.SplitIDs(row["ophys_experiment_id"]); err != nil {
		return s, fmt.Errorf("ophys_experiment_id: %w", err)
	}
	if s.OphysContainerIDs, err = tables.SplitIDs(row["ophys_container_id"]); err != nil {
		return s, fmt.Errorf("ophys_container_id: %w", err)
	}
	if s.DateOfAcquisition, err = parseDate(row["date_of_acquisition"]); err != nil {
		return s, err
	}
	if v := row["age_in_days"]; v != "" {
		if s.AgeInDays, err = strconv.Atoi(v); err != nil {
			return s, fmt.Errorf("age_in_days: %w", err)
		}
	}
	s.MouseID = row["mouse_id"]
	s.SessionType = row["session_type"]
	s.EquipmentName = row["equipment_name"]
	s.Genotype = row["genotype"]
	s.Sex = row["sex"]
	s.ProjectCode = row["project_code"]
	return s, nil
}

func parseID(row map[string]string, col string) (int64, error) {
	v, ok := row[col]
	if !ok || v == "" {
		return 0, fmt.Errorf("missing %s", col)
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", col, err)
	}
	return id, nil
}

var dateLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

func parseDate(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("date_of_acquisition: unrecognised date %q", v)
}

// WriteSessions writes the table's visible columns and rows into the sessions sheet
// of a new workbook at path.
func WriteSessions(path string, t *tables.SessionsTable) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSessions); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeRow(f, 1, t.Columns()); err != nil {
		return err
	}
	for i, rec := range t.Records() {
		if err := writeRow(f, i+2, rec); err != nil {
			return err
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	vals := make([]interface{}, len(values))
	for i, v := range values {
		vals[i] = v
	}
	if err := f.SetSheetRow(SheetSessions, cell, &vals); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}
