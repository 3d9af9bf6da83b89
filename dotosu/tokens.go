package dotosu

import (
	"math"
	"strconv"
	"strings"
)

// Token is one element of a Parse chain: a literal label, a single character
// separator, or a typed value slot.
type Token interface {
	// consume matches the token at the start of s. Value slots return a
	// commit func instead of writing their destination directly.
	consume(s string) (rest string, commit func(), ok bool)
}

// Parse matches chain against line left to right, skipping spaces and tabs
// before every token. Destinations are written only if the whole chain
// matched. Text after the last token is ignored.
func Parse(line string, chain ...Token) bool {
	var commits [8]func()
	pending := commits[:0]
	rest := line
	for _, tok := range chain {
		rest = skipBlank(rest)
		var commit func()
		var ok bool
		rest, commit, ok = tok.consume(rest)
		if !ok {
			return false
		}
		if commit != nil {
			pending = append(pending, commit)
		}
	}
	for _, commit := range pending {
		commit()
	}
	return true
}

// ParseValue parses "Label: values..." lines.
func ParseValue(line, label string, chain ...Token) bool {
	return Parse(line, append([]Token{Label(label), Sep(':')}, chain...)...)
}

func skipBlank(s string) string {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return s[i:]
}

type labelToken string

func Label(s string) Token { return labelToken(s) }

func (t labelToken) consume(s string) (string, func(), bool) {
	if !strings.HasPrefix(s, string(t)) {
		return s, nil, false
	}
	return s[len(t):], nil, true
}

type sepToken byte

func Sep(c byte) Token { return sepToken(c) }

func (t sepToken) consume(s string) (string, func(), bool) {
	if len(s) == 0 || s[0] != byte(t) {
		return s, nil, false
	}
	return s[1:], nil, true
}

type intToken struct{ p *int }

// Int reads a base 10 integer that must fit in 32 bits.
func Int(p *int) Token { return intToken{p} }

func (t intToken) consume(s string) (string, func(), bool) {
	n := numericPrefix(s, false)
	if n == 0 {
		return s, nil, false
	}
	v, err := strconv.ParseInt(s[:n], 10, 32)
	if err != nil {
		return s, nil, false
	}
	return s[n:], func() { *t.p = int(v) }, true
}

type int64Token struct{ p *int64 }

func Int64(p *int64) Token { return int64Token{p} }

func (t int64Token) consume(s string) (string, func(), bool) {
	n := numericPrefix(s, false)
	if n == 0 {
		return s, nil, false
	}
	v, err := strconv.ParseInt(s[:n], 10, 64)
	if err != nil {
		return s, nil, false
	}
	return s[n:], func() { *t.p = v }, true
}

type floatToken struct{ p *float64 }

func Float(p *float64) Token { return floatToken{p} }

func (t floatToken) consume(s string) (string, func(), bool) {
	n := numericPrefix(s, true)
	if n == 0 {
		return s, nil, false
	}
	v, err := strconv.ParseFloat(s[:n], 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return s, nil, false
	}
	return s[n:], func() { *t.p = v }, true
}

type float32Token struct {
	p        *float32
	allowNaN bool
}

func Float32(p *float32) Token { return float32Token{p: p} }

// FloatNaN is Float32 that also accepts a literal NaN. Only timing point beat
// lengths use it; a NaN there disables tick generation downstream.
func FloatNaN(p *float32) Token { return float32Token{p: p, allowNaN: true} }

func (t float32Token) consume(s string) (string, func(), bool) {
	if t.allowNaN {
		if n := nanPrefix(s); n > 0 {
			return s[n:], func() { *t.p = float32(math.NaN()) }, true
		}
	}
	n := numericPrefix(s, true)
	if n == 0 {
		return s, nil, false
	}
	v, err := strconv.ParseFloat(s[:n], 32)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return s, nil, false
	}
	return s[n:], func() { *t.p = float32(v) }, true
}

type rawFloatToken struct{ p *float64 }

// rawFloat takes whatever strtod would: inf, nan and overflowing literals
// included. Callers clamp the result themselves.
func rawFloat(p *float64) Token { return rawFloatToken{p} }

func (t rawFloatToken) consume(s string) (string, func(), bool) {
	if n := nanPrefix(s); n > 0 {
		return s[n:], func() { *t.p = math.NaN() }, true
	}
	if n, sign := infPrefix(s); n > 0 {
		return s[n:], func() { *t.p = math.Inf(sign) }, true
	}
	n := numericPrefix(s, true)
	if n == 0 {
		return s, nil, false
	}
	// ParseFloat reports overflow as ±Inf together with ErrRange.
	v, _ := strconv.ParseFloat(s[:n], 64)
	return s[n:], func() { *t.p = v }, true
}

type stringToken struct{ p *string }

// String reads a double quoted span, or else the trimmed rest of the line.
// It has to be the last token of its chain.
func String(p *string) Token { return stringToken{p} }

func (t stringToken) consume(s string) (string, func(), bool) {
	if strings.HasPrefix(s, `"`) {
		end := strings.IndexByte(s[1:], '"')
		if end < 0 {
			return s, nil, false
		}
		v := s[1 : 1+end]
		return s[end+2:], func() { *t.p = v }, true
	}
	v := strings.TrimSpace(s)
	return "", func() { *t.p = v }, true
}

// numericPrefix returns the length of the longest prefix of s that is a
// valid integer literal, or a decimal floating point literal with optional
// exponent when float is set.
func numericPrefix(s string, float bool) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if !float {
		if digits == 0 {
			return 0
		}
		return i
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && isDigit(s[k]) {
			k++
		}
		if k > j {
			i = k
		}
	}
	return i
}

func nanPrefix(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	if len(s)-i >= 3 && strings.EqualFold(s[i:i+3], "nan") {
		return i + 3
	}
	return 0
}

func infPrefix(s string) (int, int) {
	i, sign := 0, 1
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		if s[i] == '-' {
			sign = -1
		}
		i++
	}
	rest := s[i:]
	switch {
	case len(rest) >= 8 && strings.EqualFold(rest[:8], "infinity"):
		return i + 8, sign
	case len(rest) >= 3 && strings.EqualFold(rest[:3], "inf"):
		return i + 3, sign
	}
	return 0, 0
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
