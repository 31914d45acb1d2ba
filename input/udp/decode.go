package udp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/c360/wirestreams/errors"
	"github.com/c360/wirestreams/record"
	"github.com/c360/wirestreams/typed"
)

// Decode turns one datagram into records. The payload is a JSON object, or
// an array of objects, one record each. Field order follows the document.
//
// Integral numbers become Long values and other numbers Double; strings
// and booleans map directly. Fields holding null, arrays or nested objects
// have no typed counterpart and are left out; their names are returned in
// skipped.
func Decode(data []byte) (records []*record.Record, skipped []string, err error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, errors.WrapInvalid(err, "udp", "Decode", "payload start")
	}

	switch tok {
	case json.Delim('{'):
		rec, s, err := decodeObject(dec)
		if err != nil {
			return nil, nil, err
		}
		records, skipped = append(records, rec), s
	case json.Delim('['):
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, nil, errors.WrapInvalid(err, "udp", "Decode", "array element")
			}
			if tok != json.Delim('{') {
				return nil, nil, errors.WrapInvalid(
					fmt.Errorf("array element is %v, not an object", tok), "udp", "Decode", "array element")
			}
			rec, s, err := decodeObject(dec)
			if err != nil {
				return nil, nil, err
			}
			records = append(records, rec)
			skipped = append(skipped, s...)
		}
		if _, err := dec.Token(); err != nil {
			return nil, nil, errors.WrapInvalid(err, "udp", "Decode", "array end")
		}
	default:
		return nil, nil, errors.WrapInvalid(
			fmt.Errorf("payload is %v, not an object or array", tok), "udp", "Decode", "payload start")
	}

	if _, err := dec.Token(); err != io.EOF {
		return nil, nil, errors.WrapInvalid(fmt.Errorf("trailing data after payload"), "udp", "Decode", "payload end")
	}
	return records, skipped, nil
}

// decodeObject reads the members of an object whose opening brace was
// already consumed, up to and including the closing brace.
func decodeObject(dec *json.Decoder) (*record.Record, []string, error) {
	var fields []record.Field
	var skipped []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, errors.WrapInvalid(err, "udp", "Decode", "object key")
		}
		name, _ := tok.(string)

		var raw any
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, errors.WrapInvalid(err, "udp", "Decode", "object value")
		}
		v, ok := valueOf(raw)
		if !ok {
			skipped = append(skipped, name)
			continue
		}
		fields = append(fields, record.F(name, v))
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, errors.WrapInvalid(err, "udp", "Decode", "object end")
	}
	return record.New(fields...), skipped, nil
}

func valueOf(raw any) (typed.Value, bool) {
	switch v := raw.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return typed.Long(i), true
		}
		if f, err := v.Float64(); err == nil {
			return typed.Double(f), true
		}
	case string:
		return typed.String(v), true
	case bool:
		return typed.Bool(v), true
	}
	return typed.Value{}, false
}
