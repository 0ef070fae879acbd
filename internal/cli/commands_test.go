package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/brainobs/internal/config"
	"github.com/hyperjump/brainobs/internal/fileid"
	"github.com/hyperjump/brainobs/internal/models"
	"github.com/hyperjump/brainobs/internal/recording"
	"github.com/hyperjump/brainobs/internal/rewards"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "storage:\n  database_path: ./project.db\ndata:\n  extensions: [.nwb]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeProjectWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheets := map[string][][]interface{}{
		"behavior_sessions": {
			{"behavior_session_id", "mouse_id", "session_type", "date_of_acquisition"},
			{"1", "m1", "OPHYS_1_images_A", "2020-01-01"},
			{"2", "m1", "OPHYS_1_images_A", "2020-01-02"},
		},
		"ophys_sessions": {
			{"ophys_session_id", "behavior_session_id", "ophys_experiment_id", "mouse_id", "session_type", "date_of_acquisition"},
			{"10", "1", "100;101", "m1", "OPHYS_1_images_A", "2020-01-01"},
			{"11", "2", "102", "m1", "OPHYS_1_images_A", "2020-01-02"},
		},
	}
	for name, rows := range sheets {
		_, err := f.NewSheet(name)
		require.NoError(t, err)
		for i, row := range rows {
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			r := row
			require.NoError(t, f.SetSheetRow(name, cell, &r))
		}
	}
	path := filepath.Join(t.TempDir(), "project.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestImportAndSessions(t *testing.T) {
	cfgPath := writeTestConfig(t)
	out, err := run(t, "--config", cfgPath, "import", writeProjectWorkbook(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 behavior sessions and 2 ophys sessions")

	out, err = run(t, "--config", cfgPath, "--output", "json", "sessions", "--index", "ophys_experiment_id")
	require.NoError(t, err)
	var sessions SessionsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &sessions))
	assert.Equal(t, "explode", sessions.Mode)
	require.Len(t, sessions.Rows, 3)
	for _, row := range sessions.Rows {
		if row.OphysSessionID == 11 {
			require.NotNil(t, row.PriorExposuresToSessionType)
			assert.Equal(t, 1, *row.PriorExposuresToSessionType)
		}
	}

	out, err = run(t, "--config", cfgPath, "--output", "json", "sessions", "--index", "mouse_id")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &sessions))
	assert.Equal(t, "invalid", sessions.Mode)
	assert.Len(t, sessions.Rows, 2)

	export := filepath.Join(t.TempDir(), "sessions.xlsx")
	out, err = run(t, "--config", cfgPath, "sessions", "--suppress", "genotype", "--export", export)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 2 rows")
	_, err = os.Stat(export)
	assert.NoError(t, err)

	out, err = run(t, "--config", cfgPath, "--output", "json", "status")
	require.NoError(t, err)
	var status StatusReport
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, int64(2), status.Sessions)
	assert.Equal(t, cfgPath, status.ConfigPath)
}

func TestIDsCommand(t *testing.T) {
	cfgPath := writeTestConfig(t)
	dir := t.TempDir()
	for _, name := range []string{"a.nwb", "b.nwb", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0644))
	}

	out, err := run(t, "--config", cfgPath, "--output", "json", "ids", dir)
	require.NoError(t, err)
	var recs []models.FileRecord
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	require.Len(t, recs, 2)
	assert.NotEqual(t, recs[0].FileID, recs[1].FileID)
	stored := map[string]int{}
	for _, r := range recs {
		stored[r.Path] = r.FileID
	}

	// A later run over a second directory continues numbering and keeps earlier IDs.
	other := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(other, "c.nwb"), []byte("c"), 0644))
	out, err = run(t, "--config", cfgPath, "--output", "json", "ids", other)
	require.NoError(t, err)
	var more []models.FileRecord
	require.NoError(t, json.Unmarshal([]byte(out), &more))
	require.Len(t, more, 1)
	for _, id := range stored {
		assert.NotEqual(t, id, more[0].FileID)
	}
	out, err = run(t, "--config", cfgPath, "--output", "json", "ids", dir)
	require.NoError(t, err)
	var again []models.FileRecord
	require.NoError(t, json.Unmarshal([]byte(out), &again))
	for _, r := range again {
		assert.Equal(t, stored[r.Path], r.FileID, r.Path)
	}

	_, err = run(t, "--config", cfgPath, "ids")
	assert.Error(t, err, "missing directory argument")
}

func writeBundle(t *testing.T) string {
	t.Helper()
	b := recording.Bundle{
		Session:          "OPHYS_1_images_A",
		CellSpecimens:    []int64{517, 518},
		ROIs:             []int64{1, 2},
		Times:            []float64{0, 0.5, 1.0},
		FluorescenceData: [][]float64{{10, 10, 10}, {20, 20, 20}},
		NeuropilData:     [][]float64{{2, 2, 2}, {4, 4, 4}},
		DFFData:          [][]float64{{0.1, 0.2, 0.3}, {0.4, 0.5, 0.6}},
		R:                []float64{0.5, 0.5},
		ROIMasks: []recording.ROIMask{
			{CellSpecimenID: 517, ROIID: 1, Width: 2, Height: 1, Mask: [][]bool{{true, true}}},
			{CellSpecimenID: 518, ROIID: 2, Width: 1, Height: 1, Mask: [][]bool{{true}}},
		},
		Shape:         [2]int{4, 4},
		Pixel:         recording.PixelSize{Row: 1, Column: 1},
		StimulusTimes: []float64{0, 0.1, 0.2, 0.3},
		Trials: []rewards.Trial{
			{Rewards: []rewards.RewardEvent{{Volume: 0.005, Frame: 1}}, Params: rewards.TrialParams{AutoReward: true}},
			{Rewards: []rewards.RewardEvent{{Volume: 0.007, Frame: 3}}},
		},
	}
	data, err := json.Marshal(b)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "experiment.json")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestRecordingCommand(t *testing.T) {
	path := writeBundle(t)

	out, err := run(t, "--output", "json", "recording", path)
	require.NoError(t, err)
	var s RecordingSummary
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, 2, s.Cells)
	assert.Equal(t, 3, s.Frames)
	assert.InDelta(t, 1.0, s.Duration, 1e-9)
	assert.Equal(t, 2, s.Rewards)
	assert.Equal(t, 1, s.AutoRewards)
	assert.InDelta(t, 0.012, s.RewardVolume, 1e-9)
	require.Len(t, s.CellSummary, 2)
	assert.Equal(t, 2, s.CellSummary[0].MaskPixels)
	require.NotNil(t, s.CellSummary[0].MeanCorrected)
	assert.InDelta(t, 9.0, *s.CellSummary[0].MeanCorrected, 1e-9)

	out, err = run(t, "--output", "json", "recording", path, "--cells", "518")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	require.Len(t, s.CellSummary, 1)
	assert.Equal(t, int64(2), s.CellSummary[0].ROIID)
	assert.InDelta(t, 0.5, s.CellSummary[0].MeanDFF, 1e-9)

	_, err = run(t, "recording", path, "--cells", "999")
	assert.ErrorIs(t, err, recording.ErrCellSpecimenNotFound)
}

func TestRecordingCommand_rewardTimes(t *testing.T) {
	path := writeBundle(t)
	out, err := run(t, "--output", "json", "recording", path)
	require.NoError(t, err)
	var s RecordingSummary
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	require.Len(t, s.RewardTimes, 2)
	assert.InDelta(t, 0.1, s.RewardTimes[0].Timestamp, 1e-9)
	assert.Equal(t, 1, s.RewardTimes[0].AutoRewards)
	assert.InDelta(t, 0.3, s.RewardTimes[1].Timestamp, 1e-9)
	assert.InDelta(t, 0.007, s.RewardTimes[1].Volume, 1e-9)
	assert.Empty(t, s.ROIs)
}

func TestRewardTimes_sameFrame(t *testing.T) {
	rs := []rewards.Reward{
		{Volume: 0.002, Timestamp: 0.3},
		{Volume: 0.001, Timestamp: 0.1, Autorewarded: true},
		{Volume: 0.004, Timestamp: 0.3},
	}
	got := rewardTimes(rs)
	require.Len(t, got, 2)
	assert.Equal(t, RewardTime{Timestamp: 0.1, Count: 1, AutoRewards: 1, Volume: 0.001}, got[0])
	assert.Equal(t, 2, got[1].Count)
	assert.InDelta(t, 0.006, got[1].Volume, 1e-12)
}

func TestRecordingCommand_rois(t *testing.T) {
	path := writeBundle(t)

	out, err := run(t, "--output", "json", "recording", path, "--rois")
	require.NoError(t, err)
	var all RecordingSummary
	require.NoError(t, json.Unmarshal([]byte(out), &all))
	require.Len(t, all.ROIs, 2)
	assert.Equal(t, ROISummary{ROIID: 1, Pixels: 2, CentroidRow: 0.5, CentroidColumn: 1.0}, all.ROIs[0])
	assert.Equal(t, ROISummary{ROIID: 2, Pixels: 1, CentroidRow: 0.5, CentroidColumn: 0.5}, all.ROIs[1])

	out, err = run(t, "--output", "json", "recording", path, "--roi-ids", "2")
	require.NoError(t, err)
	var one RecordingSummary
	require.NoError(t, json.Unmarshal([]byte(out), &one))
	require.Len(t, one.ROIs, 1)
	assert.Equal(t, int64(2), one.ROIs[0].ROIID)

	out, err = run(t, "recording", path, "--roi-ids", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "CENTROID_ROW")
	assert.Contains(t, out, "at 2 times")

	_, err = run(t, "recording", path, "--roi-ids", "9")
	assert.ErrorIs(t, err, recording.ErrROINotFound)
}

func TestNewAssigner(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.nwb")
	b := filepath.Join(dir, "b.nwb")
	require.NoError(t, os.WriteFile(a, []byte("same"), 0644))
	require.NoError(t, os.WriteFile(b, []byte("same"), 0644))

	byPath := NewAssigner(config.DataConfig{IDStrategy: config.StrategyPath, IDBase: 5})
	id, err := byPath.IDFromPath(fileid.NewPath(a))
	require.NoError(t, err)
	assert.Equal(t, 5, id)

	byContent := NewAssigner(config.DataConfig{IDStrategy: config.StrategyContent})
	idA, err := byContent.IDFromPath(fileid.NewPath(a))
	require.NoError(t, err)
	idB, err := byContent.IDFromPath(fileid.NewPath(b))
	require.NoError(t, err)
	assert.Equal(t, idA, idB)
}

func TestLoadConfig(t *testing.T) {
	cfgPath := writeTestConfig(t)
	cfg, loaded, err := loadConfig(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, cfgPath, loaded)
	assert.Equal(t, filepath.Join(filepath.Dir(cfgPath), "project.db"), cfg.Storage.DatabasePath)

	_, _, err = loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	testChdir(t, filepath.Dir(cfgPath))
	_, loaded, err = loadConfig(DefaultConfigPath)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(cfgPath), "config.yaml"), loaded)
}

// testChdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func testChdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}
