package tables

import (
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hyperjump/brainobs/internal/models"
)

func day(n int) time.Time {
	return time.Date(2021, 3, n, 9, 0, 0, 0, time.UTC)
}

func reference() []models.BehaviorSession {
	return []models.BehaviorSession{
		{BehaviorSessionID: 1, MouseID: "m1", SessionType: "TRAINING_1_images_A", DateOfAcquisition: day(1)},
		{BehaviorSessionID: 2, MouseID: "m1", SessionType: "OPHYS_1_images_A", DateOfAcquisition: day(3)},
		{BehaviorSessionID: 3, MouseID: "m1", SessionType: "OPHYS_1_images_A", DateOfAcquisition: day(4)},
		{BehaviorSessionID: 4, MouseID: "m1", SessionType: "OPHYS_4_images_B", DateOfAcquisition: day(5)},
		{BehaviorSessionID: 5, MouseID: "m2", SessionType: "OPHYS_1_images_A", DateOfAcquisition: day(2)},
		{BehaviorSessionID: 6, MouseID: "m1", SessionType: "", DateOfAcquisition: day(2)},
		{BehaviorSessionID: 7, MouseID: "m1", SessionType: "OPHYS_0_images_A_habituation", DateOfAcquisition: day(2)},
	}
}

func sessions() []models.OphysSession {
	return []models.OphysSession{
		{OphysSessionID: 10, BehaviorSessionID: 3, MouseID: "m1", SessionType: "OPHYS_1_images_A", OphysExperimentIDs: []int64{100, 101}},
		{OphysSessionID: 11, BehaviorSessionID: 4, MouseID: "m1", SessionType: "OPHYS_4_images_B", OphysExperimentIDs: []int64{102}},
		{OphysSessionID: 12, BehaviorSessionID: 99, MouseID: "m3", SessionType: "OPHYS_2_images_A"},
	}
}

func deref(n *int) int {
	if n == nil {
		return -1
	}
	return *n
}

func TestPriorExposures(t *testing.T) {
	counts := PriorExposures(reference())
	tests := []struct {
		id                         int64
		sessionType, set, omission int
	}{
		{1, 0, 0, 0},
		{7, 0, 1, 0},
		{2, 0, 2, 0},
		{3, 1, 3, 1},
		{4, 0, 0, 2},
		{5, 0, 0, 0},
	}
	for _, tt := range tests {
		e, ok := counts[tt.id]
		if !ok {
			t.Fatalf("no counts for session %d", tt.id)
		}
		if got := deref(e.SessionType); got != tt.sessionType {
			t.Errorf("session %d: to session type = %d, want %d", tt.id, got, tt.sessionType)
		}
		if got := deref(e.ImageSet); got != tt.set {
			t.Errorf("session %d: to image set = %d, want %d", tt.id, got, tt.set)
		}
		if got := deref(e.Omissions); got != tt.omission {
			t.Errorf("session %d: to omissions = %d, want %d", tt.id, got, tt.omission)
		}
	}
	if _, ok := counts[6]; ok {
		t.Error("session without session type should be ignored")
	}
}

func TestImageSetAndOmissions(t *testing.T) {
	if ImageSet("OPHYS_1_images_A") != "A" || ImageSet("OPHYS_7_receptive_field_mapping") != "" {
		t.Error("ImageSet extraction")
	}
	if !HasOmissions("OPHYS_1_images_A") || HasOmissions("OPHYS_0_images_A_habituation") || HasOmissions("TRAINING_1_gratings") {
		t.Error("HasOmissions")
	}
}

func TestPostprocess_passthrough(t *testing.T) {
	tbl := NewSessionsTable(sessions(), reference())
	if mode := tbl.Postprocess(); mode != Passthrough {
		t.Fatalf("mode = %v", mode)
	}
	if len(tbl.Rows) != 3 || tbl.Index != IndexOphysSession {
		t.Fatalf("rows=%d index=%s", len(tbl.Rows), tbl.Index)
	}
	if deref(tbl.Rows[0].PriorExposuresToSessionType) != 1 {
		t.Errorf("row 0 exposures to session type = %d", deref(tbl.Rows[0].PriorExposuresToSessionType))
	}
	if tbl.Rows[2].PriorExposuresToSessionType != nil {
		t.Error("session missing from reference should keep nil counts")
	}
}

func TestPostprocess_explode(t *testing.T) {
	tbl := NewSessionsTable(sessions(), reference(), WithIndexColumn(IndexOphysExperiment))
	if mode := tbl.Postprocess(); mode != ExplodeOnExperiment {
		t.Fatalf("mode = %v", mode)
	}
	var got []int64
	for _, r := range tbl.Rows {
		got = append(got, r.OphysExperimentID)
	}
	if want := []int64{100, 101, 102, 0}; !reflect.DeepEqual(got, want) {
		t.Errorf("exploded ids = %v, want %v", got, want)
	}
	if tbl.Rows[1].OphysSessionID != 10 || deref(tbl.Rows[1].PriorExposuresToImageSet) != 3 {
		t.Errorf("exploded row should keep session fields: %+v", tbl.Rows[1])
	}
	if cols := tbl.Columns(); cols[0] != IndexOphysExperiment {
		t.Errorf("first column = %s", cols[0])
	}
}

func TestPostprocess_invalidIndexColumn(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	in := sessions()
	tbl := NewSessionsTable(in, reference(), WithIndexColumn("mouse_id"), WithLogger(zap.New(core)))
	if mode := tbl.Postprocess(); mode != InvalidMode {
		t.Fatalf("mode = %v, want invalid", mode)
	}
	if len(tbl.Rows) != len(in) || tbl.Index != IndexOphysSession {
		t.Errorf("rows should be left unexploded: %d rows, index %s", len(tbl.Rows), tbl.Index)
	}
	if logs.Len() != 1 {
		t.Errorf("expected one warning, got %d", logs.Len())
	}
}

func TestParseIndexColumn(t *testing.T) {
	tests := []struct {
		column string
		want   IndexMode
	}{
		{"ophys_session_id", Passthrough},
		{"ophys_experiment_id", ExplodeOnExperiment},
		{"", InvalidMode},
		{"behavior_session_id", InvalidMode},
	}
	for _, tt := range tests {
		if got := ParseIndexColumn(tt.column); got != tt.want {
			t.Errorf("ParseIndexColumn(%q) = %v, want %v", tt.column, got, tt.want)
		}
	}
}

func TestRecords_suppress(t *testing.T) {
	tbl := NewSessionsTable(sessions(), reference(), WithSuppress("genotype", "sex"))
	tbl.Postprocess()
	cols := tbl.Columns()
	for _, c := range cols {
		if c == "genotype" || c == "sex" {
			t.Errorf("suppressed column %s present", c)
		}
	}
	recs := tbl.Records()
	if len(recs) != 3 || len(recs[0]) != len(cols) {
		t.Fatalf("records shape %dx%d", len(recs), len(recs[0]))
	}
	if recs[0][0] != "10" {
		t.Errorf("index cell = %q", recs[0][0])
	}
	if recs[0][2] != "100;101" {
		t.Errorf("experiment ids cell = %q", recs[0][2])
	}
}

func TestSplitIDs(t *testing.T) {
	ids, err := SplitIDs(" 1; 2;;3 ")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ids, []int64{1, 2, 3}) {
		t.Errorf("SplitIDs = %v", ids)
	}
	if _, err := SplitIDs("1;x"); err == nil {
		t.Error("expected parse error")
	}
	if JoinIDs(ids) != "1;2;3" {
		t.Errorf("JoinIDs = %s", JoinIDs(ids))
	}
}
