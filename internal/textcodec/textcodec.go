// Character encoding detection for log files.
// A probe inspects the leading bytes of the file (BOM first, statistical
// fallback second) and returns a Codec the viewer can decode lines with.
package textcodec

import (
	"bytes"
	"fmt"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// Codec identifies a character encoding and carries the x/text
// transformer needed to decode it.
type Codec struct {
	name string
	enc  encoding.Encoding
}

// Name returns the IANA-style name of the codec ("UTF-8", "UTF-16LE", ...).
func (c Codec) Name() string { return c.name }

// Encoding returns the decoder backing this codec.
func (c Codec) Encoding() encoding.Encoding { return c.enc }

// Valid reports whether the codec has been set. The zero Codec means
// "not yet detected".
func (c Codec) Valid() bool { return c.name != "" }

// DecodeString decodes raw file bytes into a UTF-8 string.
func (c Codec) DecodeString(b []byte) (string, error) {
	if !c.Valid() || c.enc == nil {
		return string(b), nil
	}
	decoded, err := c.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", c.name, err)
	}
	return string(decoded), nil
}

// Well-known codecs. UTF-16/32 variants ignore BOMs on decode because
// the probe already consumed the BOM information.
var (
	UTF8    = Codec{"UTF-8", unicode.UTF8}
	UTF16LE = Codec{"UTF-16LE", unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)}
	UTF16BE = Codec{"UTF-16BE", unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)}
	UTF32LE = Codec{"UTF-32LE", utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM)}
	UTF32BE = Codec{"UTF-32BE", utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM)}
)

// PlatformDefault is the codec assumed when nothing can be detected,
// e.g. for an empty file.
func PlatformDefault() Codec { return UTF8 }

// Byte order marks, longest first: the UTF-32LE BOM starts with the
// UTF-16LE BOM, so order matters.
var boms = []struct {
	mark  []byte
	codec Codec
}{
	{[]byte{0xFF, 0xFE, 0x00, 0x00}, UTF32LE},
	{[]byte{0x00, 0x00, 0xFE, 0xFF}, UTF32BE},
	{[]byte{0xEF, 0xBB, 0xBF}, UTF8},
	{[]byte{0xFF, 0xFE}, UTF16LE},
	{[]byte{0xFE, 0xFF}, UTF16BE},
}

// Detect inspects a leading byte window and returns the best codec
// guess. It is a pure function: same prefix, same answer.
func Detect(prefix []byte) Codec {
	if len(prefix) == 0 {
		return PlatformDefault()
	}

	for _, bom := range boms {
		if bytes.HasPrefix(prefix, bom.mark) {
			return bom.codec
		}
	}

	if c, ok := detectStatistical(prefix); ok {
		return c
	}

	return PlatformDefault()
}

// detectStatistical runs the chardet heuristic over the prefix and maps
// the charset name back to a codec.
func detectStatistical(prefix []byte) (Codec, bool) {
	result, err := chardet.NewTextDetector().DetectBest(prefix)
	if err != nil || result == nil {
		return Codec{}, false
	}
	c, err := FromName(result.Charset)
	if err != nil {
		return Codec{}, false
	}
	return c, true
}

// FromName resolves a codec by IANA name. Used for the forced-encoding
// path where the caller names the codec explicitly.
func FromName(name string) (Codec, error) {
	switch name {
	case "UTF-8", "utf-8":
		return UTF8, nil
	case "UTF-16LE", "utf-16le":
		return UTF16LE, nil
	case "UTF-16BE", "utf-16be":
		return UTF16BE, nil
	case "UTF-32LE", "utf-32le":
		return UTF32LE, nil
	case "UTF-32BE", "utf-32be":
		return UTF32BE, nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return Codec{}, fmt.Errorf("unknown encoding %q", name)
	}
	canonical, err := ianaindex.IANA.Name(enc)
	if err != nil {
		canonical = name
	}
	return Codec{canonical, enc}, nil
}
