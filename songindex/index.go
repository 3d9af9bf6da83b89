// Package songindex keeps a SQLite record of scanned charts, and of the
// ones that could not be loaded.
package songindex

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"osudiff/diffobj"
	"osudiff/dotosu"
)

const schema = `
CREATE TABLE IF NOT EXISTS charts (
	md5             TEXT PRIMARY KEY,
	path            TEXT NOT NULL,
	title           TEXT NOT NULL,
	artist          TEXT NOT NULL,
	creator         TEXT NOT NULL,
	difficulty      TEXT NOT NULL,
	beatmap_id      INTEGER NOT NULL,
	beatmapset_id   INTEGER NOT NULL,
	bpm_min         INTEGER NOT NULL,
	bpm_max         INTEGER NOT NULL,
	bpm_common      INTEGER NOT NULL,
	cs              REAL NOT NULL,
	ar              REAL NOT NULL,
	od              REAL NOT NULL,
	hp              REAL NOT NULL,
	objects         INTEGER NOT NULL,
	max_combo       INTEGER NOT NULL,
	length_ms       REAL NOT NULL,
	approximate     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS charts_path ON charts(path);
CREATE TABLE IF NOT EXISTS failures (
	path   TEXT PRIMARY KEY,
	code   INTEGER NOT NULL,
	reason TEXT NOT NULL
);
`

type Chart struct {
	MD5            string
	Path           string
	Title          string
	Artist         string
	Creator        string
	DifficultyName string
	BeatmapID      int64
	BeatmapSetID   int
	BPM            dotosu.BPMInfo
	CS, AR, OD, HP float32
	Objects        int
	MaxCombo       int
	LengthMS       float64
	Approximate    bool
}

type Failure struct {
	Path   string
	Code   dotosu.ErrorCode
	Reason string
}

type Index struct {
	db  *sql.DB
	log logrus.FieldLogger
}

// Open creates the database at path if needed.
func Open(path string, log logrus.FieldLogger) (*Index, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "open song index")
	}
	// one writer; scan workers queue up here instead of hitting SQLITE_BUSY
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create song index schema")
	}
	return &Index{db: db, log: log.WithField("index", path)}, nil
}

func (ix *Index) Close() error { return ix.db.Close() }

// NewChart summarises a loaded chart.
func NewChart(path string, m *dotosu.Metadata, res *diffobj.Result) Chart {
	return Chart{
		MD5:            m.MD5,
		Path:           path,
		Title:          m.TitleUnicode,
		Artist:         m.ArtistUnicode,
		Creator:        m.Creator,
		DifficultyName: m.DifficultyName,
		BeatmapID:      m.BeatmapID,
		BeatmapSetID:   m.BeatmapSetID,
		BPM:            m.BPM,
		CS:             m.CircleSize,
		AR:             m.ApproachRate,
		OD:             m.OverallDifficulty,
		HP:             m.HPDrainRate,
		Objects:        len(res.Objects),
		MaxCombo:       res.MaxCombo,
		LengthMS:       res.LengthMS,
		Approximate:    res.Approximate,
	}
}

// Put stores c, replacing any chart with the same hash, and clears an
// earlier failure for its path.
func (ix *Index) Put(ctx context.Context, c Chart) error {
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT OR REPLACE INTO charts VALUES
		(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.MD5, c.Path, c.Title, c.Artist, c.Creator, c.DifficultyName,
		c.BeatmapID, c.BeatmapSetID, c.BPM.Min, c.BPM.Max, c.BPM.MostCommon,
		c.CS, c.AR, c.OD, c.HP, c.Objects, c.MaxCombo, c.LengthMS, c.Approximate)
	if err != nil {
		return errors.Wrapf(err, "store %s", c.Path)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM failures WHERE path = ?`, c.Path); err != nil {
		return errors.Wrapf(err, "clear failure %s", c.Path)
	}
	return errors.Wrap(tx.Commit(), "commit")
}

// Fail records why path could not be indexed.
func (ix *Index) Fail(ctx context.Context, path string, reason error) error {
	code := dotosu.CodeOf(reason)
	ix.log.WithFields(logrus.Fields{"path": path, "code": int(code)}).Warn("fail: ", reason)
	_, err := ix.db.ExecContext(ctx, `INSERT OR REPLACE INTO failures VALUES (?, ?, ?)`,
		path, int(code), reason.Error())
	return errors.Wrapf(err, "record failure %s", path)
}

// Chart looks a chart up by its MD5. ok is false when it is not indexed.
func (ix *Index) Chart(ctx context.Context, md5 string) (c Chart, ok bool, err error) {
	row := ix.db.QueryRowContext(ctx, `SELECT * FROM charts WHERE md5 = ?`, md5)
	err = row.Scan(&c.MD5, &c.Path, &c.Title, &c.Artist, &c.Creator, &c.DifficultyName,
		&c.BeatmapID, &c.BeatmapSetID, &c.BPM.Min, &c.BPM.Max, &c.BPM.MostCommon,
		&c.CS, &c.AR, &c.OD, &c.HP, &c.Objects, &c.MaxCombo, &c.LengthMS, &c.Approximate)
	if err == sql.ErrNoRows {
		return Chart{}, false, nil
	}
	if err != nil {
		return Chart{}, false, errors.Wrapf(err, "read chart %s", md5)
	}
	return c, true, nil
}

// Indexed reports whether a chart with this hash is stored.
func (ix *Index) Indexed(ctx context.Context, md5 string) (bool, error) {
	var n int
	err := ix.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM charts WHERE md5 = ?`, md5).Scan(&n)
	return n > 0, errors.Wrap(err, "lookup")
}

func (ix *Index) Failures(ctx context.Context) ([]Failure, error) {
	rows, err := ix.db.QueryContext(ctx, `SELECT path, code, reason FROM failures ORDER BY path`)
	if err != nil {
		return nil, errors.Wrap(err, "list failures")
	}
	defer rows.Close()

	var out []Failure
	for rows.Next() {
		var f Failure
		var code int
		if err := rows.Scan(&f.Path, &code, &f.Reason); err != nil {
			return nil, errors.Wrap(err, "scan failure")
		}
		f.Code = dotosu.ErrorCode(code)
		out = append(out, f)
	}
	return out, errors.Wrap(rows.Err(), "list failures")
}

// Count returns the number of charts and of failures.
func (ix *Index) Count(ctx context.Context) (charts, failures int, err error) {
	err = ix.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM charts), (SELECT COUNT(*) FROM failures)`).Scan(&charts, &failures)
	return charts, failures, errors.Wrap(err, "count")
}
