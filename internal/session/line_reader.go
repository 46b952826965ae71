package session

import "unicode/utf8"

type lineEvent int

const (
	lineNone lineEvent = iota
	lineErase
	lineDone
	lineOverflow
	// lineTail is the LF of a CRLF pair; the line already ended at the CR.
	lineTail
)

// lineReader assembles keystrokes into a command line. CR, LF and CRLF each
// end a line once.
type lineReader struct {
	buf    []byte
	max    int
	lastCR bool
}

func newLineReader(max int) *lineReader {
	return &lineReader{max: max}
}

func (lr *lineReader) feed(b byte) lineEvent {
	wasCR := lr.lastCR
	lr.lastCR = b == '\r'

	switch b {
	case '\n':
		if wasCR {
			return lineTail
		}
		return lineDone
	case '\r':
		return lineDone
	case backspace, del:
		if len(lr.buf) == 0 {
			return lineNone
		}
		_, size := utf8.DecodeLastRune(lr.buf)
		lr.buf = lr.buf[:len(lr.buf)-size]
		return lineErase
	}

	lr.buf = append(lr.buf, b)
	if len(lr.buf) > lr.max {
		return lineOverflow
	}
	return lineNone
}

func (lr *lineReader) take() []byte {
	line := lr.buf
	lr.buf = nil
	return line
}
