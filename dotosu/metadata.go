package dotosu

import (
	"bytes"
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Metadata is the song-select summary of a chart.
type Metadata struct {
	Version int
	MD5     string

	AudioFilename string
	SampleSet     SampleSet
	StackLeniency float32
	PreviewTime   int
	Mode          int

	Title, TitleUnicode   string
	Artist, ArtistUnicode string
	Creator               string
	DifficultyName        string
	Source, Tags          string
	BeatmapID             int64
	BeatmapSetID          int

	CircleSize        float32
	ApproachRate      float32
	HPDrainRate       float32
	OverallDifficulty float32
	SliderMultiplier  float32
	SliderTickRate    float32

	BackgroundFile, VideoFile string

	TimingPoints []TimingPoint `json:"-"` // beat lengths may be NaN
	BPM          BPMInfo
}

func (l *Loader) LoadMetadataFile(ctx context.Context, path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(ErrFileUnreadable, err.Error())
	}
	m, err := l.loadMetadata(ctx, data)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return m, nil
}

// LoadMetadata reads everything up to [HitObjects]. Charts newer than
// Limits.MaxFormatVersion, charts for other modes and charts without timing
// points fail with ErrMetadata.
func (l *Loader) LoadMetadata(ctx context.Context, r io.Reader) (*Metadata, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(ErrFileUnreadable, err.Error())
	}
	return l.loadMetadata(ctx, data)
}

func (l *Loader) loadMetadata(ctx context.Context, data []byte) (*Metadata, error) {
	if len(data) == 0 {
		return nil, errors.Wrap(ErrFileUnreadable, "empty file")
	}
	limits := l.limits()
	m := &Metadata{
		Version:           limits.DefaultFormatVersion,
		MD5:               fmt.Sprintf("%x", md5.Sum(data)),
		StackLeniency:     0.7,
		PreviewTime:       -1,
		BeatmapSetID:      -1,
		CircleSize:        5,
		ApproachRate:      5,
		HPDrainRate:       5,
		OverallDifficulty: 5,
		SliderMultiplier:  1,
		SliderTickRate:    1,
	}
	foundAR := false

	sc := newLineScanner(bytes.NewReader(data))
	sec := secHeader
scan:
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}
		line := sc.Text()
		if isComment(line) {
			continue
		}
		sec = nextSection(line, sec)

		switch sec {
		case secHeader:
			if parseHeader(line, &m.Version) && m.Version > limits.MaxFormatVersion {
				return nil, errors.Wrapf(ErrMetadata, "unsupported format version %d", m.Version)
			}

		case secGeneral:
			var sampleSet string
			ParseValue(line, "AudioFilename", String(&m.AudioFilename))
			if ParseValue(line, "SampleSet", String(&sampleSet)) {
				m.SampleSet = sampleSetByName(sampleSet)
			}
			ParseValue(line, "StackLeniency", Float32(&m.StackLeniency))
			ParseValue(line, "PreviewTime", Int(&m.PreviewTime))
			ParseValue(line, "Mode", Int(&m.Mode))

		case secMetadata:
			ParseValue(line, "Title", String(&m.Title))
			ParseValue(line, "TitleUnicode", String(&m.TitleUnicode))
			ParseValue(line, "Artist", String(&m.Artist))
			ParseValue(line, "ArtistUnicode", String(&m.ArtistUnicode))
			ParseValue(line, "Creator", String(&m.Creator))
			ParseValue(line, "Version", String(&m.DifficultyName))
			ParseValue(line, "Source", String(&m.Source))
			ParseValue(line, "Tags", String(&m.Tags))
			ParseValue(line, "BeatmapID", Int64(&m.BeatmapID))
			ParseValue(line, "BeatmapSetID", Int(&m.BeatmapSetID))

		case secDifficulty:
			ParseValue(line, "CircleSize", Float32(&m.CircleSize))
			if ParseValue(line, "ApproachRate", Float32(&m.ApproachRate)) {
				foundAR = true
			}
			ParseValue(line, "HPDrainRate", Float32(&m.HPDrainRate))
			ParseValue(line, "OverallDifficulty", Float32(&m.OverallDifficulty))
			ParseValue(line, "SliderMultiplier", Float32(&m.SliderMultiplier))
			ParseValue(line, "SliderTickRate", Float32(&m.SliderTickRate))

		case secEvents:
			m.parseEvent(line)

		case secTimingPoints:
			if tp, ok := parseTimingPoint(line); ok {
				m.TimingPoints = append(m.TimingPoints, tp)
			}

		case secHitObjects:
			break scan
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(ErrFileUnreadable, err.Error())
	}

	if m.TitleUnicode == "" {
		m.TitleUnicode = m.Title
	}
	if m.ArtistUnicode == "" {
		m.ArtistUnicode = m.Artist
	}
	if m.Mode != 0 {
		return nil, errors.Wrapf(ErrMetadata, "unsupported mode %d", m.Mode)
	}
	if len(m.TimingPoints) == 0 {
		return nil, errors.Wrap(ErrMetadata, "no timing points")
	}
	SortTimingPoints(m.TimingPoints)
	m.BPM = BPMSummary(m.TimingPoints)

	// charts older than the ApproachRate field use OD
	if !foundAR {
		m.ApproachRate = m.OverallDifficulty
	}
	return m, nil
}

var videoExts = map[string]bool{
	".avi": true, ".flv": true, ".mp4": true, ".mkv": true, ".mov": true,
	".wmv": true, ".mpg": true, ".mpeg": true, ".ogv": true, ".webm": true,
}

func (m *Metadata) parseEvent(line string) {
	parts := splitCSV(line)
	if len(parts) < 3 {
		return
	}
	switch strings.ToLower(parts[0]) {
	case "0", "background":
		m.BackgroundFile = cleanFilename(parts[2])
	case "1", "video":
		if fn := cleanFilename(parts[2]); videoExts[strings.ToLower(filepath.Ext(fn))] {
			m.VideoFile = fn
		}
	}
}
