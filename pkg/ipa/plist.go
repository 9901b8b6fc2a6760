package ipa

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"time"

	"howett.net/plist"

	apperrors "github.com/Coder-Joe458/ios-review-checker/internal/errors"
)

// Kind enumerates the property-list value types
type Kind int

const (
	KindInvalid Kind = iota
	KindString
	KindInteger
	KindReal
	KindBoolean
	KindDate
	KindData
	KindArray
	KindDictionary
)

// String returns the property-list name of the kind
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindBoolean:
		return "boolean"
	case KindDate:
		return "date"
	case KindData:
		return "data"
	case KindArray:
		return "array"
	case KindDictionary:
		return "dictionary"
	default:
		return "invalid"
	}
}

// Value is a decoded property-list value. Exactly one payload field is
// meaningful, selected by Kind; the typed accessors return ok=false otherwise.
type Value struct {
	kind Kind
	str  string
	i    int64
	f    float64
	b    bool
	t    time.Time
	data []byte
	arr  []Value
	dict Dictionary
}

// Kind returns the type of the value
func (v Value) Kind() Kind { return v.kind }

// AsString returns the string payload
func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

// AsInt returns the integer payload
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInteger }

// AsReal returns the real payload
func (v Value) AsReal() (float64, bool) { return v.f, v.kind == KindReal }

// AsBool returns the boolean payload
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBoolean }

// AsDate returns the date payload
func (v Value) AsDate() (time.Time, bool) { return v.t, v.kind == KindDate }

// AsData returns the data payload
func (v Value) AsData() ([]byte, bool) { return v.data, v.kind == KindData }

// AsArray returns the array payload
func (v Value) AsArray() ([]Value, bool) { return v.arr, v.kind == KindArray }

// AsDict returns the dictionary payload
func (v Value) AsDict() (Dictionary, bool) { return v.dict, v.kind == KindDictionary }

// Interface converts the value back to plain Go types
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindString:
		return v.str
	case KindInteger:
		return v.i
	case KindReal:
		return v.f
	case KindBoolean:
		return v.b
	case KindDate:
		return v.t
	case KindData:
		return v.data
	case KindArray:
		out := make([]interface{}, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Interface()
		}
		return out
	case KindDictionary:
		out := make(map[string]interface{}, v.dict.Len())
		for _, key := range v.dict.keys {
			out[key] = v.dict.values[key].Interface()
		}
		return out
	}
	return nil
}

// Dictionary maps string keys to values. Keys iterate in lexicographic order
// because the decoder does not preserve document order.
type Dictionary struct {
	keys   []string
	values map[string]Value
}

// Len returns the number of keys
func (d Dictionary) Len() int { return len(d.keys) }

// Keys returns the keys in iteration order
func (d Dictionary) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Get looks up a key
func (d Dictionary) Get(key string) (Value, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Has reports whether key is present, whatever its type
func (d Dictionary) Has(key string) bool {
	_, ok := d.values[key]
	return ok
}

// String returns the value at key when it is a string
func (d Dictionary) String(key string) (string, bool) {
	v, ok := d.values[key]
	if !ok {
		return "", false
	}
	return v.AsString()
}

// Bool returns the value at key when it is a boolean
func (d Dictionary) Bool(key string) (bool, bool) {
	v, ok := d.values[key]
	if !ok {
		return false, false
	}
	return v.AsBool()
}

// Dict returns the value at key when it is a dictionary
func (d Dictionary) Dict(key string) (Dictionary, bool) {
	v, ok := d.values[key]
	if !ok {
		return Dictionary{}, false
	}
	return v.AsDict()
}

// Array returns the value at key when it is an array
func (d Dictionary) Array(key string) ([]Value, bool) {
	v, ok := d.values[key]
	if !ok {
		return nil, false
	}
	return v.AsArray()
}

// Metadata is a decoded Info.plist
type Metadata struct {
	Dictionary
	// Format is the detected encoding, e.g. "xml" or "binary"
	Format string
}

var binaryMagic = []byte("bplist")

// DecodeMetadata decodes an XML or binary property list whose root is a dictionary
func DecodeMetadata(data []byte) (*Metadata, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, apperrors.NewDecodeError(apperrors.CodeDecodeFailed, "Info.plist is empty")
	}

	var raw interface{}
	format, err := plist.Unmarshal(data, &raw)
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.ErrorTypeDecode, apperrors.CodeDecodeFailed,
			"Info.plist is not a valid property list")
	}

	// A stray text file can parse as an OpenStep string; only a dictionary root is metadata
	rootMap, ok := raw.(map[string]interface{})
	if !ok {
		return nil, apperrors.NewDecodeError(apperrors.CodeDecodeFailed,
			fmt.Sprintf("Info.plist root is %T, expected a dictionary", raw))
	}
	if bytes.HasPrefix(data, binaryMagic) && format != plist.BinaryFormat {
		return nil, apperrors.NewDecodeError(apperrors.CodeDecodeFailed, "Info.plist has a binary header but is not a binary property list")
	}

	root, err := convertDict(rootMap)
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.ErrorTypeDecode, apperrors.CodeDecodeFailed,
			"Info.plist contains an unsupported value")
	}

	return &Metadata{Dictionary: root, Format: formatName(format)}, nil
}

func formatName(format int) string {
	switch format {
	case plist.XMLFormat:
		return "xml"
	case plist.BinaryFormat:
		return "binary"
	case plist.OpenStepFormat:
		return "openstep"
	case plist.GNUStepFormat:
		return "gnustep"
	default:
		return "unknown"
	}
}

func convertDict(m map[string]interface{}) (Dictionary, error) {
	d := Dictionary{
		keys:   make([]string, 0, len(m)),
		values: make(map[string]Value, len(m)),
	}
	for key, raw := range m {
		v, err := convertValue(raw)
		if err != nil {
			return Dictionary{}, fmt.Errorf("key %q: %w", key, err)
		}
		d.keys = append(d.keys, key)
		d.values[key] = v
	}
	sort.Strings(d.keys)
	return d, nil
}

func convertValue(raw interface{}) (Value, error) {
	switch x := raw.(type) {
	case string:
		return Value{kind: KindString, str: x}, nil
	case bool:
		return Value{kind: KindBoolean, b: x}, nil
	case uint64:
		if x > math.MaxInt64 {
			return Value{kind: KindReal, f: float64(x)}, nil
		}
		return Value{kind: KindInteger, i: int64(x)}, nil
	case int64:
		return Value{kind: KindInteger, i: x}, nil
	case plist.UID:
		return Value{kind: KindInteger, i: int64(x)}, nil
	case float64:
		return Value{kind: KindReal, f: x}, nil
	case float32:
		return Value{kind: KindReal, f: float64(x)}, nil
	case time.Time:
		return Value{kind: KindDate, t: x}, nil
	case []byte:
		return Value{kind: KindData, data: x}, nil
	case []interface{}:
		arr := make([]Value, 0, len(x))
		for i, item := range x {
			v, err := convertValue(item)
			if err != nil {
				return Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			arr = append(arr, v)
		}
		return Value{kind: KindArray, arr: arr}, nil
	case map[string]interface{}:
		d, err := convertDict(x)
		if err != nil {
			return Value{}, err
		}
		return Value{kind: KindDictionary, dict: d}, nil
	default:
		return Value{}, fmt.Errorf("unsupported property list type %T", raw)
	}
}
