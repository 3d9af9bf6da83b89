package songindex

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus/hooks/test"

	"osudiff/diffobj"
	"osudiff/dotosu"
)

func openTemp(t *testing.T) (*Index, *test.Hook) {
	t.Helper()
	log, hook := test.NewNullLogger()
	ix, err := Open(filepath.Join(t.TempDir(), "songs.db"), log)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ix.Close() })
	return ix, hook
}

func TestPutAndLookup(t *testing.T) {
	ix, _ := openTemp(t)
	ctx := context.Background()

	m := &dotosu.Metadata{
		MD5:               "0123456789abcdef0123456789abcdef",
		TitleUnicode:      "Title",
		ArtistUnicode:     "Artist",
		Creator:           "mapper",
		DifficultyName:    "Hard",
		BeatmapID:         77,
		BeatmapSetID:      7,
		CircleSize:        4,
		ApproachRate:      9.3,
		OverallDifficulty: 8,
		HPDrainRate:       6,
		BPM:               dotosu.BPMInfo{Min: 120, Max: 240, MostCommon: 180},
	}
	res := &diffobj.Result{Objects: make([]diffobj.Object, 3), MaxCombo: 5, LengthMS: 12345.5}
	want := NewChart("songs/a.osu", m, res)
	if err := ix.Put(ctx, want); err != nil {
		t.Fatal(err)
	}

	got, ok, err := ix.Chart(ctx, m.MD5)
	if err != nil || !ok {
		t.Fatalf("Chart: %v %v", ok, err)
	}
	if got != want {
		t.Errorf("chart = %+v\nwant %+v", got, want)
	}

	if _, ok, err := ix.Chart(ctx, "missing"); ok || err != nil {
		t.Errorf("missing chart: %v %v", ok, err)
	}
	if ok, err := ix.Indexed(ctx, m.MD5); !ok || err != nil {
		t.Errorf("Indexed = %v %v", ok, err)
	}

	// same hash again replaces the row
	want.Path = "songs/b.osu"
	if err := ix.Put(ctx, want); err != nil {
		t.Fatal(err)
	}
	if n, _, err := ix.Count(ctx); n != 1 || err != nil {
		t.Errorf("count = %d %v", n, err)
	}
}

func TestFailures(t *testing.T) {
	ix, hook := openTemp(t)
	ctx := context.Background()

	if err := ix.Fail(ctx, "songs/bad.osu", errors.Wrap(dotosu.ErrNoTimingPoints, "songs/bad.osu")); err != nil {
		t.Fatal(err)
	}
	if err := ix.Fail(ctx, "songs/new.osu", dotosu.ErrMetadata); err != nil {
		t.Fatal(err)
	}
	if len(hook.AllEntries()) != 2 {
		t.Errorf("%d log entries", len(hook.AllEntries()))
	}

	fs, err := ix.Failures(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(fs) != 2 || fs[0].Path != "songs/bad.osu" || fs[0].Code != dotosu.ErrNoTimingPoints || fs[1].Code != dotosu.ErrMetadata {
		t.Errorf("failures = %+v", fs)
	}

	// a later success clears the failure
	c := Chart{MD5: "abc", Path: "songs/bad.osu"}
	if err := ix.Put(ctx, c); err != nil {
		t.Fatal(err)
	}
	charts, failures, err := ix.Count(ctx)
	if err != nil || charts != 1 || failures != 1 {
		t.Errorf("count = %d %d %v", charts, failures, err)
	}
}
