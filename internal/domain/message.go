package domain

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Field is one key/value pair of a message record.
type Field struct {
	Key   string
	Value any
}

// Record is a single message as delivered by the data source. The schema is
// open: fields keep the order they had in the source document and values may
// be of any JSON type. Payloads that were not JSON objects are kept with
// Object set to false so callers can skip them without failing the batch.
type Record struct {
	Fields []Field
	Object bool
}

// NewRecord builds an object record from fields in the given order.
func NewRecord(fields ...Field) Record {
	return Record{Fields: fields, Object: true}
}

// RecordFromMap builds an object record from a map. Map iteration order is
// random, so keys are sorted to keep the field order deterministic.
func RecordFromMap(m map[string]any) Record {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, Field{Key: k, Value: m[k]})
	}
	return Record{Fields: fields, Object: true}
}

// Get returns the value stored under key. If a key repeats, the last one wins,
// matching how JSON decoders treat duplicate keys.
func (r Record) Get(key string) (any, bool) {
	var (
		val   any
		found bool
	)
	for _, f := range r.Fields {
		if f.Key == key {
			val, found = f.Value, true
		}
	}
	return val, found
}

// String returns the value under key when it is a string.
func (r Record) String(key string) (string, bool) {
	v, ok := r.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// MarshalJSON encodes an object record with its fields in order. Non-object
// records encode as null.
func (r Record) MarshalJSON() ([]byte, error) {
	if !r.Object {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Message is a record reduced to its author and text. An empty Author means
// no author-like field was present.
type Message struct {
	Author string
	Text   string
}

// HasAuthor reports whether the message could be attributed to a participant.
func (m Message) HasAuthor() bool { return m.Author != "" }

// Intent is the coarse category a question falls into.
type Intent string

const (
	IntentTrip       Intent = "trip"
	IntentCar        Intent = "car"
	IntentRestaurant Intent = "restaurant"
	IntentGeneric    Intent = "generic"
)
