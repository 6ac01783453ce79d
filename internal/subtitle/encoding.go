package subtitle

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// DefaultFallbackCodec is used for files without a BOM when nothing else is
// configured.
const DefaultFallbackCodec = "Windows-1252"

// EncodingSource records how the text encoding was chosen.
type EncodingSource string

const (
	SourceBOM       EncodingSource = "bom"
	SourceHeuristic EncodingSource = "heuristic"
	SourceFallback  EncodingSource = "fallback"
)

// TextEncoding names the codec a document was decoded with.
type TextEncoding struct {
	Name   string         `json:"name" yaml:"name"`
	Source EncodingSource `json:"source" yaml:"source"`
}

type bomEntry struct {
	mark []byte
	name string
	enc  encoding.Encoding
}

// longer marks first: the UTF-32LE mark starts with the UTF-16LE one
var bomTable = []bomEntry{
	{[]byte{0xEF, 0xBB, 0xBF}, "UTF-8", unicode.UTF8},
	{[]byte{0xFF, 0xFE, 0x00, 0x00}, "UTF-32LE", utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM)},
	{[]byte{0x00, 0x00, 0xFE, 0xFF}, "UTF-32BE", utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM)},
	{[]byte{0xFF, 0xFE}, "UTF-16LE", unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)},
	{[]byte{0xFE, 0xFF}, "UTF-16BE", unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)},
}

var (
	utf16LE = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	utf16BE = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
)

// utf-16 sniffing only looks at this many leading bytes
const sniffLen = 4096

// LookupCodec resolves a codec name through the WHATWG index first and the
// IANA registry second. The returned name is the canonical one.
func LookupCodec(name string) (encoding.Encoding, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, "", errorf(KindDecode, "codec empty")
	}

	if enc, err := htmlindex.Get(name); err == nil {
		if canonical, err := htmlindex.Name(enc); err == nil {
			return enc, canonical, nil
		}
		return enc, name, nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, "", errorf(KindDecode, "unknown codec %q", name)
	}
	if canonical, err := ianaindex.IANA.Name(enc); err == nil {
		return enc, canonical, nil
	}
	return enc, name, nil
}

// DetectEncoding picks a codec for data and decodes it strictly. A BOM wins,
// then UTF-16 and UTF-8 heuristics, then the fallback codec. Line endings in
// the result are normalised to \n.
func DetectEncoding(data []byte, fallback string) (TextEncoding, string, error) {
	for _, bom := range bomTable {
		if bytes.HasPrefix(data, bom.mark) {
			te := TextEncoding{Name: bom.name, Source: SourceBOM}
			text, err := decodeStrict(bom.enc, bom.name, data[len(bom.mark):])
			return te, text, err
		}
	}

	if name, enc, ok := sniffUTF16(data); ok {
		te := TextEncoding{Name: name, Source: SourceHeuristic}
		text, err := decodeStrict(enc, name, data)
		return te, text, err
	}

	if utf8.Valid(data) {
		return TextEncoding{Name: "UTF-8", Source: SourceHeuristic}, normalizeNewlines(string(data)), nil
	}

	if strings.TrimSpace(fallback) == "" {
		fallback = DefaultFallbackCodec
	}
	enc, canonical, err := LookupCodec(fallback)
	if err != nil {
		return TextEncoding{}, "", err
	}
	te := TextEncoding{Name: canonical, Source: SourceFallback}
	text, err := decodeStrict(enc, canonical, data)
	return te, text, err
}

// decodeStrict rejects input that does not survive a decode/encode round trip,
// which is how replacement characters for invalid sequences are caught.
func decodeStrict(enc encoding.Encoding, name string, data []byte) (string, error) {
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", newError(KindDecode, name, err)
	}

	reencoded, err := enc.NewEncoder().Bytes(decoded)
	if err != nil {
		return "", newError(KindDecode, name, err)
	}
	if !bytes.Equal(reencoded, data) {
		return "", errorf(KindDecode, "%s: invalid byte sequence", name)
	}

	return normalizeNewlines(string(decoded)), nil
}

// sniffUTF16 spots BOM-less UTF-16 by the zero high bytes of Latin text.
func sniffUTF16(data []byte) (string, encoding.Encoding, bool) {
	n := len(data)
	if n > sniffLen {
		n = sniffLen
	}
	n -= n % 2
	if n < 4 {
		return "", nil, false
	}

	var evenZeros, oddZeros int
	for i := 0; i < n; i += 2 {
		if data[i] == 0 {
			evenZeros++
		}
		if data[i+1] == 0 {
			oddZeros++
		}
	}

	pairs := n / 2
	switch {
	case oddZeros*10 >= pairs*4 && evenZeros*10 < pairs:
		return "UTF-16LE", utf16LE, true
	case evenZeros*10 >= pairs*4 && oddZeros*10 < pairs:
		return "UTF-16BE", utf16BE, true
	}
	return "", nil, false
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
