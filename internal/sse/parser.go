// Package sse implements a line-oriented Server-Sent-Events parser over an
// arbitrarily-fragmented byte stream.
package sse

import (
	"bytes"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// maxBufferBytes is the safety-valve cap on the internal line buffer. It
// guards against a misbehaving upstream that never sends a newline.
const maxBufferBytes = 1 << 20 // 1 MiB

// Parser turns raw byte chunks into complete SSE event payloads. It is not
// safe for concurrent use; each request owns exactly one Parser.
type Parser struct {
	log logrus.FieldLogger

	buf       []byte
	dataLines []string
}

// New creates a Parser. log may be nil, in which case a disabled logger is
// used.
func New(log logrus.FieldLogger) *Parser {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Parser{log: log}
}

// Push appends a chunk of bytes and returns zero or more complete event
// payloads extracted from it. A payload is the '\n'-joined concatenation of
// the data lines of one event.
func (p *Parser) Push(chunk []byte) []string {
	if len(chunk) == 0 {
		return nil
	}

	if len(p.buf)+len(chunk) > maxBufferBytes {
		p.log.Warnf("sse: buffer would exceed %d bytes, discarding in-flight event", maxBufferBytes)
		p.buf = nil
		p.dataLines = nil
	}

	p.buf = append(p.buf, chunk...)

	var events []string
	for {
		idx := bytes.IndexByte(p.buf, '\n')
		if idx < 0 {
			break
		}
		line := trimTrailingCR(p.buf[:idx])
		p.buf = p.buf[idx+1:]

		if ev, ok := p.consumeLine(string(line)); ok {
			events = append(events, ev)
		}
	}
	return events
}

// Flush yields any data accumulated for an event that never received its
// terminating blank line, e.g. at stream end.
func (p *Parser) Flush() []string {
	if len(p.buf) > 0 {
		line := trimTrailingCR(p.buf)
		p.buf = nil
		if ev, ok := p.consumeLine(string(line)); ok {
			return []string{ev}
		}
	}
	if len(p.dataLines) == 0 {
		return nil
	}
	ev := strings.Join(p.dataLines, "\n")
	p.dataLines = nil
	return []string{ev}
}

// consumeLine processes a single already-delimited line (no trailing \n or
// \r). It returns (payload, true) when the line terminates a non-empty
// event.
func (p *Parser) consumeLine(line string) (string, bool) {
	if line == "" {
		if len(p.dataLines) > 0 {
			ev := strings.Join(p.dataLines, "\n")
			p.dataLines = nil
			return ev, true
		}
		return "", false
	}

	if strings.HasPrefix(line, ":") {
		// Comment line; ignored.
		return "", false
	}

	if strings.HasPrefix(line, "data:") {
		value := line[len("data:"):]
		if strings.HasPrefix(value, " ") {
			value = value[1:]
		}
		p.dataLines = append(p.dataLines, value)
		return "", false
	}

	// event:, id:, retry:, or anything else: ignored by this proxy, which
	// only forwards the data payload.
	return "", false
}

func trimTrailingCR(line []byte) []byte {
	if len(line) > 0 && line[len(line)-1] == '\r' {
		return line[:len(line)-1]
	}
	return line
}
