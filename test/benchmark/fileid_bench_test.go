package benchmark

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/brainobs/internal/fileid"
	"github.com/hyperjump/brainobs/internal/models"
	"github.com/hyperjump/brainobs/internal/tables"
)

func dataFiles(b *testing.B, n int) []fileid.Path {
	b.Helper()
	dir := b.TempDir()
	paths := make([]fileid.Path, n)
	for i := range paths {
		p := filepath.Join(dir, fmt.Sprintf("exp%04d.nwb", i))
		if err := os.WriteFile(p, []byte(p), 0644); err != nil {
			b.Fatal(err)
		}
		paths[i] = fileid.NewPath(p)
	}
	return paths
}

func BenchmarkGenerator_IDFromPath(b *testing.B) {
	paths := dataFiles(b, 100)
	g := fileid.NewGenerator()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = g.IDFromPath(paths[i%len(paths)])
	}
}

func BenchmarkSynchronized_Parallel(b *testing.B) {
	paths := dataFiles(b, 100)
	s := fileid.NewSynchronized(fileid.NewGenerator())
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_, _ = s.IDFromPath(paths[i%len(paths)])
			i++
		}
	})
}

func BenchmarkContentHasher_IDFromPath(b *testing.B) {
	paths := dataFiles(b, 100)
	h := fileid.NewContentHasher()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = h.IDFromPath(paths[i%len(paths)])
	}
}

func BenchmarkSessionsTable_Postprocess(b *testing.B) {
	day := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	types := []string{"OPHYS_1_images_A", "OPHYS_3_images_A", "OPHYS_4_images_B", "OPHYS_6_images_B"}
	var ref []models.BehaviorSession
	var rows []models.OphysSession
	for i := 0; i < 1000; i++ {
		mouse := fmt.Sprintf("m%d", i%50)
		st := types[i%len(types)]
		date := day.AddDate(0, 0, i/50)
		ref = append(ref, models.BehaviorSession{BehaviorSessionID: int64(i), MouseID: mouse, SessionType: st, DateOfAcquisition: date})
		rows = append(rows, models.OphysSession{OphysSessionID: int64(10000 + i), BehaviorSessionID: int64(i),
			OphysExperimentIDs: []int64{int64(2 * i), int64(2*i + 1)}, MouseID: mouse, SessionType: st, DateOfAcquisition: date})
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		t := tables.NewSessionsTable(rows, ref, tables.WithIndexColumn(tables.IndexOphysExperiment))
		t.Postprocess()
	}
}
