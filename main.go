package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"time"

	"github.com/hako/durafmt"
	"github.com/sirupsen/logrus"

	"osudiff/diffobj"
	"osudiff/dotosu"
	"osudiff/songindex"
)

var (
	configPath = flag.String("c", "", "limits `file` (yaml)")
	scanDir    = flag.String("dir", "", "scan every .osu file under `dir` into the index")
	dbPath     = flag.String("db", "songs.db", "song index `path`")
	workers    = flag.Int("workers", runtime.NumCPU(), "concurrent charts while scanning")
	rescan     = flag.Bool("rescan", false, "reload charts that are already indexed")
	speed      = flag.Float64("speed", 1, "speed multiplier (1.5 for DT, 0.75 for HT)")
	approx     = flag.Bool("approx", false, "skip slider paths and stacking")
	hardRock   = flag.Bool("hr", false, "hard rock: raise cs, ar and od")
	easy       = flag.Bool("ez", false, "easy: halve cs, ar and od")
	verbose    = flag.Bool("v", false, "debug logging")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] chart.osu...\n       %s [flags] -dir songs\n", os.Args[0], os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	defer Recover(log)

	limits := dotosu.DefaultLimits()
	if *configPath != "" {
		var err error
		limits, err = dotosu.ReadLimits(os.DirFS(filepath.Dir(*configPath)), filepath.Base(*configPath))
		if err != nil {
			log.WithError(err).Fatal("read limits")
		}
	}
	loader := dotosu.NewLoader(limits, log)
	opts := diffobj.Options{
		Limits:          limits,
		SpeedMultiplier: *speed,
		Approximate:     *approx,
		Mods:            diffobj.Modifiers{HardRock: *hardRock, Easy: *easy},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *scanDir != "" {
		ix, err := songindex.Open(*dbPath, log)
		if err != nil {
			log.WithError(err).Fatal("open index")
		}
		defer ix.Close()
		s := &scanner{loader: loader, index: ix, opts: opts, log: log, workers: *workers, rescan: *rescan}
		if err := s.Scan(ctx, *scanDir); err != nil {
			log.WithError(err).Error("scan")
		}
		return
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "\t")
	for _, path := range flag.Args() {
		dump, err := loadDump(ctx, loader, path, opts)
		if err != nil {
			log.WithField("code", int(dotosu.CodeOf(err))).Error(err)
			continue
		}
		log.WithFields(logrus.Fields{
			"path":    path,
			"objects": len(dump.Objects),
			"length":  durafmt.Parse(time.Duration(dump.LengthMS) * time.Millisecond).LimitFirstN(2),
		}).Info("loaded")
		if err := enc.Encode(dump); err != nil {
			log.WithError(err).Fatal("write")
		}
	}
}

// chartDump is what gets printed for a single chart.
type chartDump struct {
	Path     string
	Metadata *dotosu.Metadata
	*diffobj.Result
}

func loadDump(ctx context.Context, loader *dotosu.Loader, path string, opts diffobj.Options) (*chartDump, error) {
	m, err := loader.LoadMetadataFile(ctx, path)
	if err != nil {
		return nil, err
	}
	res, err := diffobj.Load(ctx, loader, path, opts)
	if err != nil {
		return nil, err
	}
	return &chartDump{Path: path, Metadata: m, Result: res}, nil
}
