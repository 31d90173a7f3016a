package docstore

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// TimeLayout is how timestamps are stored. It is fixed width so that
// comparing the stored strings orders them chronologically on every driver.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FormatTime renders t in UTC with TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

var timeType = reflect.TypeOf(time.Time{})

// Encode turns a struct into a Document through its json tags so every store
// sees the same key names. Top-level time.Time fields are rewritten with
// TimeLayout. An empty id is dropped.
func Encode(v any) (Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("docstore: encode: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("docstore: encode: %w", err)
	}
	normalizeTimes(reflect.ValueOf(v), doc)
	if id, ok := doc[IDField]; ok && (id == nil || id == "") {
		delete(doc, IDField)
	}
	return doc, nil
}

func normalizeTimes(v reflect.Value, doc Document) {
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		meta := t.Field(i)
		key := strings.SplitN(meta.Tag.Get("json"), ",", 2)[0]
		if key == "" || key == "-" {
			key = meta.Name
		}
		if _, ok := doc[key]; !ok {
			continue
		}

		field := v.Field(i)
		if field.Kind() == reflect.Ptr && field.Type().Elem() == timeType {
			if field.IsNil() {
				continue
			}
			field = field.Elem()
		}
		if field.Type() == timeType {
			doc[key] = FormatTime(field.Interface().(time.Time))
		}
	}
}

// Decode fills out (a pointer) from a Document.
func Decode(doc Document, out any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("docstore: decode: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("docstore: decode: %w", err)
	}
	return nil
}

// DecodeAll decodes every document into a new slice of T.
func DecodeAll[T any](docs []Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		var v T
		if err := Decode(d, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
