package dotosu

import (
	"bufio"
	"bytes"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const maxLine = 8 * 1024 * 1024

// newLineScanner splits r on "\n", "\r\n" or a bare "\r". A UTF-8 BOM is
// stripped and a UTF-16 one decodes the rest. Otherwise bytes pass through
// untouched, so legacy codepage text survives.
func newLineScanner(r io.Reader) *bufio.Scanner {
	dec := unicode.BOMOverride(transform.Nop)
	sc := bufio.NewScanner(transform.NewReader(r, dec))
	buf := make([]byte, 64*1024)
	sc.Buffer(buf, maxLine)
	sc.Split(scanLines)
	return sc
}

func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if !atEOF {
			// a '\n' may follow in the next read
			return 0, nil, nil
		}
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
