package parser

import (
	"bytes"
	"errors"
	"io"

	// Packages
	multipart "github.com/mutablelogic/go-multipart"
	schema "github.com/mutablelogic/go-multipart/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type parseState int

// Stream is the incremental multipart parser. It consumes arbitrarily
// chunked bytes from an upstream reader, advances through the boundary state
// machine and yields parts one at a time. Exactly one part is live at any
// time; advancing to the next part drains the remainder of the current one.
//
// A Stream is not safe for concurrent use.
type Stream struct {
	src       io.Reader
	opening   []byte // "--" + boundary
	closing   []byte // "--" + boundary + "--"
	delimiter []byte // CRLF + "--" + boundary

	buf     []byte
	scratch []byte
	state   parseState
	limits  schema.Limits

	current      *Part
	received     int64
	upstreamDone bool
}

// Part is a streaming handle over one multipart part. The body is read
// incrementally through the Read method; bytes are released as soon as they
// are known not to overlap the trailing boundary look-ahead window.
type Part struct {
	headers schema.PartHeaders
	stream  *Stream
	maxSize int64 // applicable per-part cap in bytes, zero is unlimited
	count   int64 // body bytes emitted so far
	closed  bool
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	stateStartBoundary parseState = iota
	stateHeaders
	stateBody
	stateEnd
	stateFailed
)

const readChunkSize = 32 * 1024

var (
	crlf     = []byte("\r\n")
	crlfcrlf = []byte("\r\n\r\n")
	dashdash = []byte("--")
	crlfdash = []byte("\r\n--")
)

// Suffix classification after a matched delimiter.
type suffixVerdict int

const (
	suffixNextPart suffixVerdict = iota
	suffixTerminal
	suffixNeedMore
	suffixMalformed
	suffixTruncated
)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New creates a streaming parser for a known multipart boundary with no
// limits applied.
func New(boundary string, src io.Reader) (*Stream, error) {
	return NewWithLimits(boundary, src, schema.Limits{})
}

// NewWithLimits creates a streaming parser enforcing the given limits. The
// boundary is validated before any bytes are consumed.
func NewWithLimits(boundary string, src io.Reader, limits schema.Limits) (*Stream, error) {
	if err := ValidateBoundary(boundary); err != nil {
		return nil, err
	}

	self := &Stream{
		src:       src,
		opening:   []byte("--" + boundary),
		closing:   []byte("--" + boundary + "--"),
		delimiter: []byte("\r\n--" + boundary),
		state:     stateStartBoundary,
		limits:    limits,
	}

	// Return success
	return self, nil
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Next drains any in-progress part and returns the next one, or io.EOF when
// the closing boundary has been consumed. Parse, limit and upstream errors
// are terminal: they are surfaced exactly once and every later call reports
// io.EOF.
func (s *Stream) Next() (*Part, error) {
	if s.state == stateEnd || s.state == stateFailed {
		return nil, io.EOF
	}

	// Advancing ends the current part: its remaining body is discarded and
	// it reads no more bytes afterwards.
	if s.current != nil {
		if err := s.current.discard(); err != nil {
			return nil, err
		}
	}

	for {
		switch s.state {
		case stateStartBoundary:
			line, exists := s.takeLine()
			if !exists {
				if s.upstreamDone {
					return nil, s.fail(multipart.NewParseError("missing opening boundary"))
				}
				if err := s.fill(); err != nil {
					return nil, s.fail(err)
				}
				continue
			}
			if bytes.Equal(line, s.opening) {
				s.state = stateHeaders
				continue
			}
			if bytes.Equal(line, s.closing) {
				s.state = stateEnd
				return nil, io.EOF
			}
			return nil, s.fail(multipart.NewParseError("malformed opening boundary"))

		case stateHeaders:
			split := bytes.Index(s.buf, crlfcrlf)
			if split == -1 {
				if s.upstreamDone {
					return nil, s.fail(multipart.NewParseError("incomplete multipart stream"))
				}
				if err := s.fill(); err != nil {
					return nil, s.fail(err)
				}
				continue
			}

			headers, err := ParsePartHeaders(s.buf[:split])
			s.consume(split + len(crlfcrlf))
			if err != nil {
				return nil, s.fail(err)
			}

			// The applicable per-part size cap is chosen as soon as the
			// headers identify the part kind.
			maxSize := s.limits.MaxFieldSize
			if headers.IsFile() {
				maxSize = s.limits.MaxFileSize
			}

			s.current = &Part{headers: headers, stream: s, maxSize: maxSize}
			s.state = stateBody
			return s.current, nil

		case stateEnd, stateFailed:
			return nil, io.EOF

		default:
			return nil, s.fail(multipart.NewParseError("invalid parser state"))
		}
	}
}

// Received returns the total number of bytes consumed from the upstream.
func (s *Stream) Received() int64 {
	return s.received
}

////////////////////////////////////////////////////////////////////////////////
// PART METHODS

// Headers returns the parsed part headers.
func (p *Part) Headers() schema.PartHeaders {
	return p.headers
}

// FieldName returns the form-data name of the part.
func (p *Part) FieldName() string {
	return p.headers.FieldName
}

// FileName returns the filename parameter, or nil for text parts.
func (p *Part) FileName() *string {
	return p.headers.FileName
}

// ContentType returns the declared or defaulted content type essence.
func (p *Part) ContentType() string {
	return p.headers.ContentType
}

// IsFile returns true when the part carries a filename parameter.
func (p *Part) IsFile() bool {
	return p.headers.IsFile()
}

// ClampMaxSize lowers the per-part size cap. Raising it is not possible.
func (p *Part) ClampMaxSize(maxSize int64) {
	if maxSize > 0 && (p.maxSize == 0 || maxSize < p.maxSize) {
		p.maxSize = maxSize
	}
}

// Read streams body bytes in wire order, ending with io.EOF at the part
// delimiter. Once the parent stream has advanced past this part, Read
// returns io.EOF without consuming anything.
func (p *Part) Read(b []byte) (int, error) {
	if p.closed || p.stream.current != p {
		return 0, io.EOF
	}
	return p.stream.readBody(p, b)
}

// Bytes drains the remaining body into memory.
func (p *Part) Bytes() ([]byte, error) {
	return io.ReadAll(p)
}

// Text drains the remaining body as a string.
func (p *Part) Text() (string, error) {
	data, err := p.Bytes()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (p *Part) discard() error {
	if p.closed {
		return nil
	}
	_, err := io.Copy(io.Discard, p)
	return err
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// readBody serves body bytes for the current part. Bytes are only released
// once they cannot be a prefix of the delimiter, which keeps the buffered
// window at len(delimiter)-1 bytes beyond what the consumer has taken.
func (s *Stream) readBody(p *Part, b []byte) (int, error) {
	for {
		split := bytes.Index(s.buf, s.delimiter)
		if split == -1 {
			// Early size enforcement: bytes outside the trailing look-ahead
			// window are guaranteed body bytes, so a cap violation is known
			// before any terminal boundary arrives.
			safe := len(s.buf) - (len(s.delimiter) - 1)
			if safe < 0 {
				safe = 0
			}
			if p.maxSize > 0 && p.count+int64(safe) > p.maxSize {
				return 0, s.failPart(p, p.sizeLimitError())
			}
			if s.malformedBoundaryLine() {
				return 0, s.failPart(p, multipart.NewParseError("malformed multipart boundary"))
			}
			if safe > 0 {
				n := copy(b, s.buf[:min(safe, len(b))])
				s.consume(n)
				p.count += int64(n)
				return n, nil
			}
			if s.upstreamDone {
				return 0, s.failPart(p, multipart.NewParseError("incomplete multipart stream"))
			}
			if err := s.fill(); err != nil {
				return 0, s.failPart(p, err)
			}
			continue
		}

		// The delimiter resolves the final body length, so the cap can be
		// checked even before the remaining bytes are served.
		if p.maxSize > 0 && p.count+int64(split) > p.maxSize {
			return 0, s.failPart(p, p.sizeLimitError())
		}
		if split > 0 {
			n := copy(b, s.buf[:min(split, len(b))])
			s.consume(n)
			p.count += int64(n)
			return n, nil
		}

		// Delimiter at the head of the buffer: classify what follows it.
		consumed, verdict := classifySuffix(s.buf[len(s.delimiter):], s.upstreamDone)
		switch verdict {
		case suffixNeedMore:
			if err := s.fill(); err != nil {
				return 0, s.failPart(p, err)
			}
			continue
		case suffixMalformed:
			return 0, s.failPart(p, multipart.NewParseError("malformed multipart boundary"))
		case suffixTruncated:
			return 0, s.failPart(p, multipart.NewParseError("incomplete multipart stream"))
		case suffixTerminal:
			s.consume(len(s.delimiter) + consumed)
			s.detach(p)
			s.state = stateEnd
			return 0, io.EOF
		default:
			s.consume(len(s.delimiter) + consumed)
			s.detach(p)
			s.state = stateHeaders
			return 0, io.EOF
		}
	}
}

// fill appends one upstream chunk to the buffer, enforcing the global body
// size cap before the chunk is admitted. Upstream end-of-stream is recorded,
// not returned.
func (s *Stream) fill() error {
	if s.scratch == nil {
		s.scratch = make([]byte, readChunkSize)
	}

	n, err := s.src.Read(s.scratch)
	if n > 0 {
		if s.limits.MaxBodySize > 0 && s.received+int64(n) > s.limits.MaxBodySize {
			return &multipart.BodySizeLimitError{MaxBodySize: s.limits.MaxBodySize}
		}
		s.received += int64(n)
		s.buf = append(s.buf, s.scratch[:n]...)
	}

	if err != nil {
		if errors.Is(err, io.EOF) {
			s.upstreamDone = true
			return nil
		}
		return multipart.NewUpstreamError(err)
	}

	// Return success
	return nil
}

// takeLine removes and returns one CRLF-terminated line from the buffer.
func (s *Stream) takeLine() ([]byte, bool) {
	split := bytes.Index(s.buf, crlf)
	if split == -1 {
		return nil, false
	}
	line := append([]byte(nil), s.buf[:split]...)
	s.consume(split + len(crlf))
	return line, true
}

// malformedBoundaryLine reports whether the buffer holds a complete
// CRLF-terminated line starting with "--" that matches neither the opening
// nor the closing boundary. This catches corruption early, even when no
// matching delimiter ever arrives.
func (s *Stream) malformedBoundaryLine() bool {
	prefix := bytes.Index(s.buf, crlfdash)
	if prefix == -1 {
		return false
	}
	lineStart := prefix + len(crlf)
	relativeEnd := bytes.Index(s.buf[lineStart:], crlf)
	if relativeEnd == -1 {
		return false
	}
	line := s.buf[lineStart : lineStart+relativeEnd]
	return !bytes.Equal(line, s.opening) && !bytes.Equal(line, s.closing)
}

func (s *Stream) consume(n int) {
	s.buf = append(s.buf[:0], s.buf[n:]...)
}

func (s *Stream) fail(err error) error {
	s.state = stateFailed
	if s.current != nil {
		s.current.closed = true
		s.current = nil
	}
	return err
}

func (s *Stream) failPart(p *Part, err error) error {
	p.closed = true
	return s.fail(err)
}

func (s *Stream) detach(p *Part) {
	p.closed = true
	s.current = nil
}

func (p *Part) sizeLimitError() error {
	if p.headers.IsFile() {
		return &multipart.FileSizeLimitError{Field: p.headers.FieldName, MaxFileSize: p.maxSize}
	}
	return &multipart.FieldSizeLimitError{Field: p.headers.FieldName, MaxFieldSize: p.maxSize}
}

// classifySuffix inspects the bytes following a matched delimiter. The
// returned count is how many suffix bytes to consume when the verdict is
// suffixNextPart or suffixTerminal.
func classifySuffix(suffix []byte, upstreamDone bool) (int, suffixVerdict) {
	// "--" CRLF ends the multipart; a bare "--" is tolerated at
	// end-of-stream for clients that omit the final CRLF.
	if bytes.HasPrefix(suffix, dashdash) {
		rest := suffix[len(dashdash):]
		switch {
		case bytes.HasPrefix(rest, crlf):
			return len(dashdash) + len(crlf), suffixTerminal
		case len(rest) == 0 && upstreamDone:
			return len(dashdash), suffixTerminal
		case len(rest) == 0, len(rest) == 1 && rest[0] == '\r':
			if upstreamDone {
				return 0, suffixTruncated
			}
			return 0, suffixNeedMore
		default:
			return 0, suffixMalformed
		}
	}

	// CRLF continues with the next part's headers.
	if bytes.HasPrefix(suffix, crlf) {
		return len(crlf), suffixNextPart
	}

	// A proper prefix of either continuation may still complete.
	if len(suffix) == 0 || (len(suffix) == 1 && (suffix[0] == '-' || suffix[0] == '\r')) {
		if upstreamDone {
			return 0, suffixTruncated
		}
		return 0, suffixNeedMore
	}

	return 0, suffixMalformed
}
