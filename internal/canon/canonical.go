// Package canon produces canonical JSON for query documents and a stable
// fingerprint derived from it.
//
// Two documents that differ only in key order, insignificant whitespace,
// number spelling (1 vs 1.0) or Unicode normalisation form share a
// fingerprint. The fingerprint is for display and log correlation; it plays
// no part in validation.
package canon

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// DomainQuery separates query fingerprints from any other hash of the same
// bytes. The version suffix allows the encoding to change later.
const DomainQuery = "insightq/query/v1"

// Fingerprint returns the hex SHA-256 of the domain-separated canonical
// encoding of doc.
func Fingerprint(doc any) (string, error) {
	data, err := Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(DomainQuery))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Marshal produces canonical JSON in the style of RFC 8785:
//   - object keys sorted by UTF-16 code units
//   - no HTML escaping; U+2028 and U+2029 written literally
//   - strings and keys NFC-normalised
//   - numbers in shortest round-trip form, integral values without a fraction
//
// NaN and infinities have no JSON form and are rejected.
func Marshal(doc any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encode(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case string:
		return encodeString(buf, val)
	case float64:
		return encodeNumber(buf, val)
	case float32:
		return encodeNumber(buf, float64(val))
	case int:
		buf.WriteString(strconv.Itoa(val))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case uint64:
		buf.WriteString(strconv.FormatUint(val, 10))
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", val, err)
		}
		return encodeNumber(buf, f)
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encode(buf, elem); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		return encodeObject(buf, val)
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

func encodeNumber(buf *bytes.Buffer, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("non-finite number %v has no JSON form", f)
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		buf.WriteString(strconv.FormatInt(int64(f), 10))
		return nil
	}
	buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	return nil
}

func encodeObject(buf *bytes.Buffer, obj map[string]any) error {
	// Keys are normalised before sorting so equivalent spellings collide.
	keys := make([]string, 0, len(obj))
	byKey := make(map[string]any, len(obj))
	for k, v := range obj {
		nk := norm.NFC.String(k)
		if _, dup := byKey[nk]; dup {
			return fmt.Errorf("keys normalise to the same string %q", nk)
		}
		byKey[nk] = v
		keys = append(keys, nk)
	}
	slices.SortFunc(keys, compareUTF16)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeString(buf, k); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := encode(buf, byKey[k]); err != nil {
			return fmt.Errorf("%q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

func encodeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	out := bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'})
	buf.Write(unescapeLineSeparators(out))
	return nil
}

// unescapeLineSeparators rewrites the \u2028 and \u2029 escapes that
// encoding/json emits into the literal characters. A literal backslash is
// always encoded as \\, so tracking escape pairs is enough to tell the two
// apart.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] != '\\' || i+1 >= len(data) {
			out = append(out, data[i])
			continue
		}
		if data[i+1] == 'u' && i+6 <= len(data) {
			switch string(data[i+2 : i+6]) {
			case "2028":
				out = append(out, "\u2028"...)
				i += 5
				continue
			case "2029":
				out = append(out, "\u2029"...)
				i += 5
				continue
			}
		}
		out = append(out, data[i], data[i+1])
		i++
	}
	return out
}

// compareUTF16 orders strings by UTF-16 code units.
func compareUTF16(a, b string) int {
	ua := utf16.Encode([]rune(a))
	ub := utf16.Encode([]rune(b))
	return slices.Compare(ua, ub)
}
