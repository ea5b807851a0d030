// Package source fetches chat message records from the messages API, local
// JSON files and other record providers.
package source

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"chatqa/internal/domain"
)

// ErrUnexpectedShape is returned when a payload is valid JSON but neither an
// array nor an object.
var ErrUnexpectedShape = errors.New("unexpected response structure")

// DecodeRecords parses a messages payload. A top-level array is the record
// list. An object yields its "items" array, else its "messages" array, else
// its first array-valued field; an object with no arrays yields no records.
func DecodeRecords(body []byte) ([]domain.Record, error) {
	list, _, err := unwrap(body)
	if err != nil {
		return nil, err
	}
	return recordsOf(list), nil
}

// unwrap locates the record list inside body and reports the envelope key it
// came from ("" for a bare array).
func unwrap(body []byte) (gjson.Result, string, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, "", errors.New("invalid JSON in response body")
	}
	doc := gjson.ParseBytes(body)
	switch {
	case doc.IsArray():
		return doc, "", nil
	case doc.IsObject():
	default:
		return gjson.Result{}, "", fmt.Errorf("%w: top-level %s", ErrUnexpectedShape, kindOf(doc))
	}

	var items, messages, first gjson.Result
	var firstKey string
	doc.ForEach(func(key, value gjson.Result) bool {
		switch key.String() {
		case "items":
			items = value
		case "messages":
			messages = value
		}
		if firstKey == "" && value.IsArray() {
			first, firstKey = value, key.String()
		}
		return true
	})

	switch {
	case items.IsArray():
		return items, "items", nil
	case messages.IsArray():
		return messages, "messages", nil
	case firstKey != "":
		return first, firstKey, nil
	}
	return gjson.Result{}, "", nil
}

func recordsOf(list gjson.Result) []domain.Record {
	if !list.IsArray() {
		return []domain.Record{}
	}
	elems := list.Array()
	records := make([]domain.Record, 0, len(elems))
	for _, e := range elems {
		records = append(records, recordOf(e))
	}
	return records
}

// recordOf keeps object fields in document order. Non-object elements become
// non-object records, which flatten to nothing.
func recordOf(v gjson.Result) domain.Record {
	if !v.IsObject() {
		return domain.Record{}
	}
	var fields []domain.Field
	v.ForEach(func(key, value gjson.Result) bool {
		fields = append(fields, domain.Field{Key: key.String(), Value: value.Value()})
		return true
	})
	return domain.NewRecord(fields...)
}

func kindOf(r gjson.Result) string {
	switch {
	case r.IsObject():
		return "object"
	case r.IsArray():
		return "array"
	}
	switch r.Type {
	case gjson.String:
		return "string"
	case gjson.Number:
		return "number"
	case gjson.True, gjson.False:
		return "boolean"
	default:
		return "null"
	}
}

// DecodeRecord parses a single stored record.
func DecodeRecord(data []byte) (domain.Record, error) {
	if !gjson.ValidBytes(data) {
		return domain.Record{}, errors.New("invalid JSON record")
	}
	return recordOf(gjson.ParseBytes(data)), nil
}
