package main

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"github.com/pkg/errors"
	"github.com/remeh/sizedwaitgroup"
	"github.com/sirupsen/logrus"

	"osudiff/diffobj"
	"osudiff/dotosu"
	"osudiff/songindex"
)

type scanner struct {
	loader  *dotosu.Loader
	index   *songindex.Index
	opts    diffobj.Options
	log     logrus.FieldLogger
	workers int
	rescan  bool

	indexed, skipped, failed atomic.Uint32
}

// findCharts lists every .osu file under dir, sorted, and their total size.
func findCharts(dir string, log logrus.FieldLogger) ([]string, int64, error) {
	var paths []string
	var size int64
	if err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.WithField("path", path).Warn(err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(d.Name()), ".osu") {
			paths = append(paths, path)
			if info, err := d.Info(); err == nil {
				size += info.Size()
			}
		}
		return nil
	}); err != nil {
		return nil, 0, errors.Wrap(err, dir)
	}
	sort.Strings(paths)
	return paths, size, nil
}

// Scan indexes every chart under dir. Charts already in the index are only
// reloaded with -rescan. Stops early when ctx is cancelled.
func (s *scanner) Scan(ctx context.Context, dir string) error {
	start := time.Now()
	paths, size, err := findCharts(dir, s.log)
	if err != nil {
		return err
	}
	s.log.Infof("found %s charts (%s)", humanize.Comma(int64(len(paths))), humanize.Bytes(uint64(size)))

	wg := sizedwaitgroup.New(max(s.workers, 1))
	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		Run(&wg, s.log, func() { s.scanOne(ctx, path) })
	}
	wg.Wait()

	s.log.WithFields(logrus.Fields{
		"indexed": humanize.Comma(int64(s.indexed.Load())),
		"skipped": humanize.Comma(int64(s.skipped.Load())),
		"failed":  humanize.Comma(int64(s.failed.Load())),
		"took":    durafmt.Parse(time.Since(start)).LimitFirstN(2),
	}).Info("scan finished")
	if ctx.Err() != nil {
		return dotosu.ErrCancelled
	}
	return nil
}

func (s *scanner) scanOne(ctx context.Context, path string) {
	log := s.log.WithField("path", path)

	m, err := s.loader.LoadMetadataFile(ctx, path)
	if err != nil {
		s.Fail(ctx, path, err)
		return
	}
	if !s.rescan {
		ok, err := s.index.Indexed(ctx, m.MD5)
		if err != nil {
			log.Error(err)
			return
		}
		if ok {
			s.skipped.Add(1)
			log.Debug("already indexed")
			return
		}
	}

	res, err := diffobj.Load(ctx, s.loader, path, s.opts)
	if err != nil {
		s.Fail(ctx, path, err)
		return
	}
	if err := s.index.Put(ctx, songindex.NewChart(path, m, res)); err != nil {
		log.Error(err)
		return
	}
	s.indexed.Add(1)
	log.WithFields(logrus.Fields{
		"title":   m.Title,
		"version": m.DifficultyName,
		"objects": len(res.Objects),
		"length":  durafmt.Parse(time.Duration(res.LengthMS) * time.Millisecond).LimitFirstN(2),
	}).Debug("indexed")
}
