// Package count implements the single pass byte classifier behind wc.
//
// Every byte increments the byte counter. Bytes of the form 10xxxxxx are
// treated as UTF-8 continuation bytes and contribute to nothing else. All
// other bytes count as one character and drive a two state machine
// (outside word, inside word) over ASCII whitespace. A word is counted when
// whitespace ends it, so a trailing word without whitespace after it is not
// counted.
package count

import (
	"errors"
	"io"
)

// Counters is the result of a classification pass.
type Counters struct {
	Bytes uint64 `json:"bytes"`
	Chars uint64 `json:"chars"`
	Words uint64 `json:"words"`
	Lines uint64 `json:"lines"`
}

// Classifier folds a byte stream into Counters. The zero value is ready to use.
// It is not safe for concurrent use.
type Classifier struct {
	c      Counters
	inWord bool
}

var (
	_ io.Writer     = (*Classifier)(nil)
	_ io.ByteWriter = (*Classifier)(nil)
)

// ProcessByte classifies one byte of the stream.
func (c *Classifier) ProcessByte(b byte) {
	c.c.Bytes++

	if b>>6 == 2 {
		return
	}
	c.c.Chars++

	if !isSpace(b) {
		c.inWord = true
	} else if c.inWord {
		c.c.Words++
		c.inWord = false
	}

	if b == '\n' {
		c.c.Lines++
		c.inWord = false
	}
}

// Write feeds p to the classifier. It never fails.
func (c *Classifier) Write(p []byte) (int, error) {
	for _, b := range p {
		c.ProcessByte(b)
	}
	return len(p), nil
}

func (c *Classifier) WriteByte(b byte) error {
	c.ProcessByte(b)
	return nil
}

// InWord reports if the last non continuation byte was part of a word.
func (c *Classifier) InWord() bool {
	return c.inWord
}

// Counters returns a snapshot of the counters accumulated so far.
func (c *Classifier) Counters() Counters {
	return c.c
}

// Classify consumes r until io.EOF. On a read error the counters of all bytes
// consumed so far are returned together with the error.
func Classify(r io.Reader) (Counters, error) {
	var c Classifier
	_, err := io.Copy(&c, r)
	if errors.Is(err, io.EOF) {
		err = nil
	}
	return c.Counters(), err
}

// Count classifies an in memory byte slice.
func Count(p []byte) Counters {
	var c Classifier
	_, _ = c.Write(p)
	return c.Counters()
}

// isSpace matches space, tab, line feed, form feed and carriage return.
// Vertical tab is not included.
func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\f', '\r':
		return true
	}
	return false
}
