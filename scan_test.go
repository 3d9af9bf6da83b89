package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"

	"osudiff/diffobj"
	"osudiff/dotosu"
	"osudiff/songindex"
)

const scanChart = `osu file format v14

[General]
Mode: 0

[Metadata]
Title:Scan Me
Version:Normal

[TimingPoints]
0,500,4,2,0,100,1,0

[HitObjects]
256,192,1000,1,0
0,0,2000,2,0,L|100:0,1,100
`

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "set1", "good.osu"), scanChart)
	writeFile(t, filepath.Join(dir, "set1", "copy.OSU"), scanChart)
	writeFile(t, filepath.Join(dir, "set2", "taiko.osu"), "osu file format v14\n[General]\nMode: 1\n[TimingPoints]\n0,500,4,2,0,100,1,0\n")
	writeFile(t, filepath.Join(dir, "set2", "empty.osu"), "osu file format v14\n[TimingPoints]\n0,500,4,2,0,100,1,0\n[HitObjects]\n")
	writeFile(t, filepath.Join(dir, "set2", "audio.mp3"), "not a chart")

	log, _ := test.NewNullLogger()
	ix, err := songindex.Open(filepath.Join(t.TempDir(), "songs.db"), log)
	if err != nil {
		t.Fatal(err)
	}
	defer ix.Close()

	s := &scanner{
		loader:  dotosu.NewLoader(dotosu.DefaultLimits(), log),
		index:   ix,
		log:     log,
		workers: 2,
	}
	ctx := context.Background()
	if err := s.Scan(ctx, dir); err != nil {
		t.Fatal(err)
	}

	// copy.OSU has the same hash as good.osu; whichever comes second is
	// either skipped or replaces the first
	charts, failures, err := ix.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if charts != 1 || failures != 2 {
		t.Errorf("charts = %d, failures = %d", charts, failures)
	}
	if s.failed.Load() != 2 || s.indexed.Load()+s.skipped.Load() != 2 {
		t.Errorf("indexed %d skipped %d failed %d", s.indexed.Load(), s.skipped.Load(), s.failed.Load())
	}

	fs, err := ix.Failures(ctx)
	if err != nil {
		t.Fatal(err)
	}
	codes := map[string]dotosu.ErrorCode{}
	for _, f := range fs {
		codes[filepath.Base(f.Path)] = f.Code
	}
	if codes["taiko.osu"] != dotosu.ErrMetadata || codes["empty.osu"] != dotosu.ErrNoHitObjects {
		t.Errorf("failures = %+v", fs)
	}

	// a second pass finds everything indexed
	s.indexed.Store(0)
	s.skipped.Store(0)
	if err := s.Scan(ctx, dir); err != nil {
		t.Fatal(err)
	}
	if s.indexed.Load() != 0 || s.skipped.Load() != 2 {
		t.Errorf("rescan indexed %d skipped %d", s.indexed.Load(), s.skipped.Load())
	}
}

func TestScanCancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.osu"), scanChart)

	log, _ := test.NewNullLogger()
	ix, err := songindex.Open(filepath.Join(t.TempDir(), "songs.db"), log)
	if err != nil {
		t.Fatal(err)
	}
	defer ix.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := &scanner{loader: dotosu.NewLoader(dotosu.DefaultLimits(), log), index: ix, log: log, workers: 1}
	if err := s.Scan(ctx, dir); dotosu.CodeOf(err) != dotosu.ErrCancelled {
		t.Errorf("err = %v", err)
	}
	if charts, failures, _ := ix.Count(context.Background()); charts != 0 || failures != 0 {
		t.Errorf("charts = %d, failures = %d", charts, failures)
	}
}

func TestLoadDump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.osu")
	writeFile(t, path, scanChart)
	log, _ := test.NewNullLogger()

	dump, err := loadDump(context.Background(), dotosu.NewLoader(dotosu.DefaultLimits(), log), path, diffobj.Options{SpeedMultiplier: 2})
	if err != nil {
		t.Fatal(err)
	}
	if dump.Metadata.Title != "Scan Me" || len(dump.Objects) != 2 {
		t.Errorf("dump = %+v", dump)
	}
	if dump.Objects[0].Time != 500 || dump.Objects[1].Kind != diffobj.Slider {
		t.Errorf("objects = %+v", dump.Objects)
	}
}
