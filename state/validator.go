/*
 * Copyright (c) 2023. Monimoto Authors.
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 *  (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mmtracker/mongostate"
)

// stateMapSchemaJSON describes a valid state map:
// at least one non-empty state name, each state a non-empty list of {collection, data} entries
// where data is a non-empty object or a non-empty list of non-empty objects.
const stateMapSchemaJSON = `{
	"type": "object",
	"minProperties": 1,
	"propertyNames": {"minLength": 1},
	"patternProperties": {
		".*": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"properties": {
					"collection": {"type": "string", "minLength": 1},
					"data": {
						"oneOf": [
							{"type": "object", "minProperties": 1},
							{
								"type": "array",
								"minItems": 1,
								"items": {"type": "object", "minProperties": 1}
							}
						]
					}
				},
				"required": ["collection", "data"]
			}
		}
	}
}`

var stateMapSchema = jsonschema.MustCompileString("statemap.json", stateMapSchemaJSON)

// Validate checks candidate against the state map schema and returns it as a StateMap.
// All violations are reported in a single *mongostate.InvalidStateMapError.
func Validate(candidate interface{}) (mongostate.StateMap, error) {
	tree := normalize(candidate)

	if err := stateMapSchema.Validate(tree); err != nil {
		var validationErr *jsonschema.ValidationError
		if errors.As(err, &validationErr) {
			return nil, &mongostate.InvalidStateMapError{Violations: violations(validationErr)}
		}
		return nil, &mongostate.InvalidStateMapError{Violations: []mongostate.Violation{{Message: err.Error()}}}
	}

	// prefer the caller's own values so BSON types survive, the plain tree is a fallback
	if states, ok := buildStateMap(candidate); ok {
		return states, nil
	}
	if states, ok := buildStateMap(tree); ok {
		return states, nil
	}

	return nil, &mongostate.InvalidStateMapError{Violations: []mongostate.Violation{
		{Message: fmt.Sprintf("unsupported state map type %T", candidate)},
	}}
}

// normalize converts v into the plain tree the schema validator walks:
// maps become map[string]interface{}, lists become []interface{} and scalars
// keep a type jsonschema knows. Ordered BSON documents keep their object shape
// and float values such as NaN are kept instead of failing a JSON encoding.
// Values with no plain form become an object naming their Go type, so the
// schema still reports them at the right location.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case nil, bool, string, json.Number:
		return t
	case int, int8, int16, int32, int64:
		return reflect.ValueOf(t).Int()
	case uint, uint8, uint16, uint32, uint64:
		return reflect.ValueOf(t).Uint()
	case float32:
		return float64(t)
	case float64:
		return t
	case mongostate.StateMap:
		return normalizeStates(t)
	case map[string][]mongostate.Content:
		return normalizeStates(t)
	case []mongostate.Content:
		return normalizeContent(t)
	case mongostate.Content:
		return map[string]interface{}{"collection": t.Collection, "data": normalize(t.Data)}
	case mongostate.Data:
		if t.IsMany() {
			return normalize(t.Documents())
		}
		if t.Len() == 1 {
			return normalize(t.Documents()[0])
		}
		return nil
	case primitive.M:
		return normalizeMap(t)
	case map[string]interface{}:
		return normalizeMap(t)
	case primitive.D:
		out := make(map[string]interface{}, len(t))
		for _, e := range t {
			out[e.Key] = normalize(e.Value)
		}
		return out
	case primitive.A:
		return normalizeList(t)
	case []interface{}:
		return normalizeList(t)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return normalize(rv.Elem().Interface())
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			if rv.IsNil() {
				return nil
			}
			out := make(map[string]interface{}, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				out[iter.Key().String()] = normalize(iter.Value().Interface())
			}
			return out
		}
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() != reflect.Uint8 {
			if rv.Kind() == reflect.Slice && rv.IsNil() {
				return nil
			}
			out := make([]interface{}, rv.Len())
			for i := range out {
				out[i] = normalize(rv.Index(i).Interface())
			}
			return out
		}
	}

	return plain(v)
}

// plain round-trips values with their own JSON form (ObjectID, DateTime, structs)
func plain(v interface{}) interface{} {
	raw, err := json.Marshal(v)
	if err == nil {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var tree interface{}
		if err = dec.Decode(&tree); err == nil {
			return tree
		}
	}
	return map[string]interface{}{"$type": fmt.Sprintf("%T", v)}
}

func normalizeStates(states map[string][]mongostate.Content) map[string]interface{} {
	if states == nil {
		return nil
	}
	out := make(map[string]interface{}, len(states))
	for name, content := range states {
		out[name] = normalizeContent(content)
	}
	return out
}

func normalizeContent(content []mongostate.Content) interface{} {
	if content == nil {
		return nil
	}
	out := make([]interface{}, len(content))
	for i := range content {
		out[i] = normalize(content[i])
	}
	return out
}

func normalizeMap(m map[string]interface{}) interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = normalize(v)
	}
	return out
}

func normalizeList(l []interface{}) interface{} {
	if l == nil {
		return nil
	}
	out := make([]interface{}, len(l))
	for i := range l {
		out[i] = normalize(l[i])
	}
	return out
}

// violations flattens the validation error tree into its leaves
func violations(err *jsonschema.ValidationError) []mongostate.Violation {
	var out []mongostate.Violation
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			out = append(out, mongostate.Violation{Path: e.InstanceLocation, Message: e.Message})
			return
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(err)

	// causes of patternProperties come out in map order
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Message < out[j].Message
	})

	deduped := make([]mongostate.Violation, 0, len(out))
	for _, v := range out {
		if len(deduped) > 0 && v == deduped[len(deduped)-1] {
			continue
		}
		deduped = append(deduped, v)
	}
	return deduped
}

func buildStateMap(v interface{}) (mongostate.StateMap, bool) {
	switch sm := v.(type) {
	case mongostate.StateMap:
		return sm, true
	case map[string][]mongostate.Content:
		return sm, true
	}

	root, ok := asMap(v)
	if !ok {
		return nil, false
	}

	states := make(mongostate.StateMap, len(root))
	for name, rawState := range root {
		entries, ok := asSlice(rawState)
		if !ok {
			return nil, false
		}

		content := make([]mongostate.Content, 0, len(entries))
		for _, rawEntry := range entries {
			entry, ok := asMap(rawEntry)
			if !ok {
				return nil, false
			}
			collection, ok := entry["collection"].(string)
			if !ok {
				return nil, false
			}
			data, ok := buildData(entry["data"])
			if !ok {
				return nil, false
			}
			content = append(content, mongostate.Content{Collection: collection, Data: data})
		}
		states[name] = content
	}

	return states, true
}

func buildData(v interface{}) (mongostate.Data, bool) {
	if data, ok := v.(mongostate.Data); ok {
		return data, true
	}
	if doc, ok := asMap(v); ok {
		return mongostate.One(doc), true
	}

	items, ok := asSlice(v)
	if !ok {
		return mongostate.Data{}, false
	}
	docs := make([]mongostate.Document, 0, len(items))
	for _, item := range items {
		doc, ok := asMap(item)
		if !ok {
			return mongostate.Data{}, false
		}
		docs = append(docs, doc)
	}
	return mongostate.Many(docs...), true
}

func asMap(v interface{}) (mongostate.Document, bool) {
	switch m := v.(type) {
	case primitive.M:
		return m, true
	case map[string]interface{}:
		return m, true
	case primitive.D:
		return m.Map(), true
	}
	return nil, false
}

func asSlice(v interface{}) ([]interface{}, bool) {
	switch s := v.(type) {
	case []interface{}:
		return s, true
	case primitive.A:
		return s, true
	case []map[string]interface{}:
		out := make([]interface{}, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	case []primitive.M:
		out := make([]interface{}, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	case []primitive.D:
		out := make([]interface{}, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	case []mongostate.Content:
		out := make([]interface{}, len(s))
		for i := range s {
			out[i] = primitive.M{"collection": s[i].Collection, "data": s[i].Data}
		}
		return out, true
	}
	return nil, false
}
