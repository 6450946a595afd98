package extract

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// Code pages commonly seen in game asset files, probed in order when the
// detector is unsure.
var commonGameEncodings = []string{"utf-8", "utf-8-sig", "latin-1", "cp1252", "shift_jis"}

// Legacy candidates for the heuristic cascade. latin-1 accepts any byte
// sequence, so the cascade always terminates.
var fallbackEncodings = []string{"latin-1", "cp1252", "iso-8859-1", "cp1250", "shift_jis", "gb2312"}

const detectConfidenceFloor = 70

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DetectEncoding names the likeliest encoding of raw. It runs the
// statistical detector first and falls back to the heuristic cascade
// (strict UTF-8, BOM sniffing, legacy code pages) when confidence is low.
func DetectEncoding(raw []byte) string {
	res, err := chardet.NewTextDetector().DetectBest(raw)
	if err != nil || res.Confidence < detectConfidenceFloor {
		return detectEncodingFallback(raw)
	}
	return canonicalName(res.Charset)
}

func detectEncodingFallback(raw []byte) string {
	if utf8.Valid(raw) {
		return "utf-8"
	}
	switch {
	case bytes.HasPrefix(raw, utf8BOM):
		return "utf-8-sig"
	case bytes.HasPrefix(raw, []byte{0xFF, 0xFE}):
		return "utf-16-le"
	case bytes.HasPrefix(raw, []byte{0xFE, 0xFF}):
		return "utf-16-be"
	}
	for _, name := range fallbackEncodings {
		if _, err := decodeBytes(raw, name); err == nil {
			return name
		}
	}
	return "utf-8"
}

// canonicalName maps detector charset labels onto the names this package
// uses everywhere else.
func canonicalName(charset string) string {
	switch strings.ToLower(charset) {
	case "utf-8", "utf8":
		return "utf-8"
	case "iso-8859-1":
		return "latin-1"
	case "windows-1252":
		return "cp1252"
	case "windows-1250":
		return "cp1250"
	case "shift_jis", "shift-jis", "sjis":
		return "shift_jis"
	case "gb-18030", "gb18030", "gbk", "gb2312":
		return "gb2312"
	case "utf-16le":
		return "utf-16-le"
	case "utf-16be":
		return "utf-16-be"
	default:
		return strings.ToLower(charset)
	}
}

// decodeBytes decodes raw under the named encoding. The UTF-8 variants are
// strict so the fallback cascade can tell them apart from legacy code
// pages, which accept any byte sequence.
func decodeBytes(raw []byte, name string) (string, error) {
	switch name {
	case "utf-8":
		if !utf8.Valid(raw) {
			return "", fmt.Errorf("invalid utf-8 input")
		}
		return string(raw), nil
	case "utf-8-sig":
		trimmed := bytes.TrimPrefix(raw, utf8BOM)
		if !utf8.Valid(trimmed) {
			return "", fmt.Errorf("invalid utf-8 input")
		}
		return string(trimmed), nil
	}
	enc, err := resolveEncoding(name)
	if err != nil {
		return "", err
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", name, err)
	}
	return string(out), nil
}

// encodeString converts decoded content back to raw bytes for writing.
func encodeString(content, name string) ([]byte, error) {
	switch name {
	case "utf-8":
		return []byte(content), nil
	case "utf-8-sig":
		out := make([]byte, 0, len(content)+3)
		out = append(out, utf8BOM...)
		return append(out, content...), nil
	}
	enc, err := resolveEncoding(name)
	if err != nil {
		return nil, err
	}
	out, err := encoding.ReplaceUnsupported(enc.NewEncoder()).Bytes([]byte(content))
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", name, err)
	}
	return out, nil
}

func resolveEncoding(name string) (encoding.Encoding, error) {
	switch name {
	case "utf-16-le":
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), nil
	case "utf-16-be":
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), nil
	case "latin-1":
		name = "iso-8859-1"
	case "cp1252":
		name = "windows-1252"
	case "cp1250":
		name = "windows-1250"
	case "gb2312":
		name = "gb18030"
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	return enc, nil
}

// decodeLossy is the last resort: UTF-8 with replacement of invalid
// sequences. Information loss is possible, which is why every stricter
// attempt runs first.
func decodeLossy(raw []byte) string {
	return strings.ToValidUTF8(string(raw), "�")
}
