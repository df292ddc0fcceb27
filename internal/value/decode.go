package value

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// DateKey is the wrapper key of a date scalar on the wire.
const DateKey = "$date"

// Decode parses one JSON document into a Value, keeping object key order.
// Trailing data after the document is an error.
func Decode(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after JSON document")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("unexpected end of JSON input")
		}
		return nil, err
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		return decodeNumber(t)
	case json.Delim:
		switch t {
		case '[':
			return decodeArray(dec)
		case '{':
			return decodeObject(dec)
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}

func decodeArray(dec *json.Decoder) (Value, error) {
	arr := Array{}
	for dec.More() {
		elem, err := decodeValue(dec)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", len(arr), err)
		}
		arr = append(arr, elem)
	}
	if _, err := dec.Token(); err != nil { // closing ]
		return nil, err
	}
	return arr, nil
}

func decodeObject(dec *json.Decoder) (Value, error) {
	obj := Object{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key must be a string, got %v", tok)
		}
		elem, err := decodeValue(dec)
		if err != nil {
			return nil, fmt.Errorf("object[%q]: %w", key, err)
		}
		// Duplicate keys keep their last value, like encoding/json.
		obj = obj.Set(key, elem)
	}
	if _, err := dec.Token(); err != nil { // closing }
		return nil, err
	}
	return unwrapDate(obj)
}

// unwrapDate turns {"$date": "..."} into a Date scalar.
func unwrapDate(obj Object) (Value, error) {
	if len(obj) != 1 || obj[0].Key != DateKey {
		return obj, nil
	}
	s, ok := obj[0].Value.(String)
	if !ok {
		return nil, fmt.Errorf("%s expects an RFC3339 string, got %s", DateKey, TypeName(obj[0].Value))
	}
	ts, err := time.Parse(time.RFC3339Nano, string(s))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", DateKey, err)
	}
	return Date{Time: ts.UTC()}, nil
}

// decodeNumber keeps integers exact; anything with a fraction, an exponent,
// or outside the int64 range becomes a Float.
func decodeNumber(n json.Number) (Value, error) {
	s := string(n)
	if !strings.ContainsAny(s, ".eE") {
		if i, err := n.Int64(); err == nil {
			return Int(i), nil
		}
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("invalid number %s: %w", s, err)
	}
	return Float(f), nil
}
