package entities

import (
	"encoding/json"
	"reflect"
	"strings"
	"sync"
)

// Extra holds JSON keys a record carried that this version has no field
// for. They are written back unchanged so rewriting a collection never
// drops data from older or newer writers.
type Extra map[string]json.RawMessage

var knownKeysCache sync.Map // reflect.Type -> map[string]struct{}

// knownKeys lists the JSON names of t's exported, tagged fields.
func knownKeys(t reflect.Type) map[string]struct{} {
	if v, ok := knownKeysCache.Load(t); ok {
		return v.(map[string]struct{})
	}
	keys := make(map[string]struct{}, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		keys[name] = struct{}{}
	}
	knownKeysCache.Store(t, keys)
	return keys
}

// decodeWithExtra unmarshals data into dst (a pointer to a method-free
// alias type) and returns the keys dst has no field for.
func decodeWithExtra(data []byte, dst any) (Extra, error) {
	if err := json.Unmarshal(data, dst); err != nil {
		return nil, err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	known := knownKeys(reflect.TypeOf(dst).Elem())
	var extra Extra
	for k, v := range raw {
		if _, ok := known[k]; ok {
			continue
		}
		if extra == nil {
			extra = make(Extra)
		}
		extra[k] = v
	}
	return extra, nil
}

// encodeWithExtra marshals src (a method-free alias value) and adds the
// extra keys it does not already set.
func encodeWithExtra(src any, extra Extra) ([]byte, error) {
	data, err := json.Marshal(src)
	if err != nil || len(extra) == 0 {
		return data, err
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	known := knownKeys(reflect.TypeOf(src))
	for k, v := range extra {
		if _, ok := known[k]; ok {
			continue
		}
		out[k] = v
	}
	return json.Marshal(out)
}
