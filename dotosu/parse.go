package dotosu

import (
	"strconv"
	"strings"
)

type section int

const (
	secHeader section = iota
	secGeneral
	secMetadata
	secDifficulty
	secEvents
	secTimingPoints
	secColours
	secHitObjects
)

var sectionHeaders = []struct {
	tag string
	sec section
}{
	{"[General]", secGeneral},
	{"[Metadata]", secMetadata},
	{"[Difficulty]", secDifficulty},
	{"[Events]", secEvents},
	{"[TimingPoints]", secTimingPoints},
	{"[Colours]", secColours},
	{"[Colors]", secColours},
	{"[HitObjects]", secHitObjects},
}

// nextSection returns the section a line switches to. Headers are matched
// anywhere in the line and unknown headers keep the current section.
func nextSection(line string, cur section) section {
	if strings.IndexByte(line, '[') < 0 {
		return cur
	}
	for _, h := range sectionHeaders {
		if strings.Contains(line, h.tag) {
			return h.sec
		}
	}
	return cur
}

// isComment only honours "//" at column 0, so values like
// "Artist:DJ'TEKINA//SOMETHING" survive.
func isComment(line string) bool { return strings.HasPrefix(line, "//") }

// parseHeader reads "osu file format v<N>".
func parseHeader(line string, version *int) bool {
	return Parse(line, Label("osu file format v"), Int(version))
}

type HitSoundFlags uint8

const (
	HitSoundNormal  HitSoundFlags = 1 << iota // 1
	HitSoundWhistle                           // 2
	HitSoundFinish                            // 4
	HitSoundClap                              // 8
)

type SampleSet uint8

const (
	SampleNone SampleSet = iota
	SampleNormal
	SampleSoft
	SampleDrum
)

// sampleSetByName maps the [General] SampleSet value, case-insensitively.
func sampleSetByName(s string) SampleSet {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal":
		return SampleNormal
	case "soft":
		return SampleSoft
	case "drum":
		return SampleDrum
	}
	return SampleNone
}

func toSampleSet(id int) SampleSet {
	switch id {
	case 1:
		return SampleNormal
	case 2:
		return SampleSoft
	case 3:
		return SampleDrum
	default:
		return SampleNone
	}
}

type HitObjectTypeFlags int

const (
	TypeCircle     HitObjectTypeFlags = 1 << iota // 1
	TypeSlider                                    // 2
	TypeNewCombo                                  // 4
	TypeSpinner                                   // 8
	TypeComboSkip1                                // 16
	TypeComboSkip2                                // 32
	TypeComboSkip3                                // 64
)

func (t HitObjectTypeFlags) Has(f HitObjectTypeFlags) bool { return t&f != 0 }

// ComboSkip is the 3-bit "skip N combo colours" value in bits 4-6.
func (t HitObjectTypeFlags) ComboSkip() int { return int(t>>4) & 7 }

type Vec2 struct{ X, Y int }

type HitSampleSpec struct {
	NormalSet   SampleSet
	AdditionSet SampleSet
	Index       int // custom sample bank
	Volume      int
	Filename    string
}

type EdgeAdd struct {
	NormalSet   SampleSet
	AdditionSet SampleSet
}

// ---------- parsing helpers ----------

func parseInt(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// parseFloat32 mirrors atof: garbage yields def, the longest numeric
// prefix wins otherwise.
func parseFloat32(s string, def float32) float32 {
	v := def
	if !Parse(s, Float32(&v)) {
		return def
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func cleanFilename(s string) string {
	s = strings.Trim(s, "\"")
	return strings.ReplaceAll(s, "\\", "/")
}

func splitCSV(line string) []string {
	var out []string
	var cur strings.Builder
	inQ := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch c {
		case '"':
			inQ = !inQ
		case ',':
			if inQ {
				cur.WriteByte(c)
			} else {
				out = append(out, strings.TrimSpace(cur.String()))
				cur.Reset()
			}
		default:
			cur.WriteByte(c)
		}
	}
	out = append(out, strings.TrimSpace(cur.String()))
	return out
}

func parseHitSample(s string) HitSampleSpec {
	// normalSet:additionSet:customIndex:volume:filename
	parts := strings.Split(s, ":")
	get := func(i int) string {
		if i < len(parts) {
			return parts[i]
		}
		return ""
	}
	return HitSampleSpec{
		NormalSet:   toSampleSet(parseInt(get(0), 0)),
		AdditionSet: toSampleSet(parseInt(get(1), 0)),
		Index:       parseInt(get(2), 0),
		Volume:      parseInt(get(3), 0),
		Filename:    strings.Trim(strings.TrimSpace(get(4)), "\""),
	}
}

func parseEdgeAddPair(s string) EdgeAdd {
	// "normal:addition"
	p := strings.Split(s, ":")
	var a, b int
	if len(p) >= 1 {
		a = parseInt(p[0], 0)
	}
	if len(p) >= 2 {
		b = parseInt(p[1], 0)
	}
	return EdgeAdd{NormalSet: toSampleSet(a), AdditionSet: toSampleSet(b)}
}
