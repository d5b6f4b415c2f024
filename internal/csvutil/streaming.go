package csvutil

// streaming.go holds the io.Reader/io.Writer wrappers that sit between a file
// and the CSV codec:
//
//   - BOMSkippingReader: drops a leading UTF-8 BOM (0xEF 0xBB 0xBF)
//   - NulStrippingReader: removes NUL bytes left behind by binary-contaminated exports
//   - UTF8Sanitizer: replaces invalid UTF-8 bytes with '?' (opt-in)
//   - CountingReader: tracks bytes read for progress messages
//
// decodeReader and encodeWriter pick the text encoding by name.

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	// DefaultReadEncoding decodes UTF-8 and strips a leading BOM.
	DefaultReadEncoding = "utf-8-sig"
	// DefaultWriteEncoding writes plain UTF-8 without a BOM.
	DefaultWriteEncoding = "utf-8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// BOMSkippingReader wraps an io.Reader and skips the UTF-8 BOM if present.
type BOMSkippingReader struct {
	r       *bufio.Reader
	checked bool
}

func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{r: bufio.NewReader(r)}
}

// Read implements io.Reader. The first call peeks at three bytes and discards
// them when they form a BOM.
func (b *BOMSkippingReader) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		lead, err := b.r.Peek(len(utf8BOM))
		switch {
		case err == nil && bytes.Equal(lead, utf8BOM):
			if _, err := b.r.Discard(len(utf8BOM)); err != nil {
				return 0, err
			}
		case err != nil && err != io.EOF:
			return 0, err
		}
	}
	return b.r.Read(p)
}

// NulStrippingReader removes every 0x00 byte from the stream.
type NulStrippingReader struct {
	r io.Reader
}

func NewNulStrippingReader(r io.Reader) *NulStrippingReader {
	return &NulStrippingReader{r: r}
}

func (n *NulStrippingReader) Read(p []byte) (int, error) {
	for {
		read, err := n.r.Read(p)
		if read == 0 || bytes.IndexByte(p[:read], 0) < 0 {
			return read, err
		}
		kept := 0
		for _, c := range p[:read] {
			if c != 0 {
				p[kept] = c
				kept++
			}
		}
		// A chunk made only of NULs must not surface as (0, nil).
		if kept > 0 || err != nil {
			return kept, err
		}
	}
}

// UTF8Sanitizer replaces invalid UTF-8 bytes with '?' on the fly. Multi-byte
// sequences split across reads are held back until complete.
type UTF8Sanitizer struct {
	r       io.Reader
	pending []byte
}

func NewUTF8Sanitizer(r io.Reader) *UTF8Sanitizer {
	return &UTF8Sanitizer{r: r, pending: make([]byte, 0, utf8.UTFMax)}
}

func (s *UTF8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		n := copy(p, s.pending)
		s.pending = append(s.pending[:0], s.pending[n:]...)

		read, err := s.r.Read(p[n:])
		n += read
		if n == 0 {
			return 0, err
		}

		out := s.clean(p[:n], err != nil)
		if out == 0 && err == nil {
			continue
		}
		return out, err
	}
}

// clean sanitizes data in place and returns the number of bytes to hand out.
// Unless final is set, an incomplete trailing sequence moves to pending.
func (s *UTF8Sanitizer) clean(data []byte, final bool) int {
	if utf8.Valid(data) {
		return len(data)
	}
	write := 0
	for read := 0; read < len(data); {
		c := data[read]
		if c < utf8.RuneSelf {
			data[write] = c
			write++
			read++
			continue
		}
		if !final && !utf8.FullRune(data[read:]) {
			s.pending = append(s.pending, data[read:]...)
			break
		}
		r, size := utf8.DecodeRune(data[read:])
		if r == utf8.RuneError && size == 1 {
			data[write] = '?'
			write++
			read++
			continue
		}
		copy(data[write:], data[read:read+size])
		write += size
		read += size
	}
	return write
}

// CountingReader tracks the number of bytes pulled from the underlying reader.
type CountingReader struct {
	r         io.Reader
	BytesRead int64
}

func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{r: r}
}

func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.BytesRead += int64(n)
	return n, err
}

// lookupEncoding resolves an encoding name. A nil Encoding means plain UTF-8;
// bom reports the "utf-8-sig" flavour.
func lookupEncoding(name string) (enc encoding.Encoding, bom bool, err error) {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case "", "utf-8", "utf8":
		return nil, false, nil
	case "utf-8-sig", "utf8-sig", "utf_8_sig":
		return nil, true, nil
	default:
		enc, err := htmlindex.Get(n)
		if err != nil {
			return nil, false, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
		}
		if enc == unicode.UTF8 {
			return nil, false, nil
		}
		return enc, false, nil
	}
}

// CheckEncoding reports whether name is an encoding Read and Write accept.
func CheckEncoding(name string) error {
	_, _, err := lookupEncoding(name)
	return err
}

// decodeReader converts r from the named encoding into UTF-8.
func decodeReader(r io.Reader, name string) (io.Reader, error) {
	enc, bom, err := lookupEncoding(name)
	if err != nil {
		return nil, err
	}
	switch {
	case bom:
		return NewBOMSkippingReader(r), nil
	case enc == nil:
		return r, nil
	default:
		return transform.NewReader(r, enc.NewDecoder()), nil
	}
}

// encodeWriter converts UTF-8 written to the result into the named encoding.
// Close flushes the encoder; it does not close w.
func encodeWriter(w io.Writer, name string) (io.WriteCloser, error) {
	enc, bom, err := lookupEncoding(name)
	if err != nil {
		return nil, err
	}
	if bom {
		enc = unicode.UTF8BOM
	}
	if enc == nil {
		return nopWriteCloser{w}, nil
	}
	return transform.NewWriter(w, enc.NewEncoder()), nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
