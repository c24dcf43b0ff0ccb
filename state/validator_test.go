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
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mmtracker/mongostate"
)

var validStateMap = map[string]interface{}{
	"myState": []interface{}{
		map[string]interface{}{
			"collection": "users",
			"data": []interface{}{
				map[string]interface{}{"_id": "507f191e810c19729de860ea", "name": "Jane"},
			},
		},
	},
	"single": []interface{}{
		map[string]interface{}{
			"collection": "settings",
			"data":       map[string]interface{}{"theme": "dark"},
		},
	},
}

func Test_Validate_Rejects(t *testing.T) {
	tests := []struct {
		name      string
		candidate interface{}
		wantPath  string
	}{
		{name: "empty map", candidate: map[string]interface{}{}},
		{name: "empty typed map", candidate: mongostate.StateMap{}},
		{name: "not an object", candidate: []interface{}{"a"}},
		{name: "string", candidate: "myState"},
		{
			name: "empty state name",
			candidate: map[string]interface{}{"": []interface{}{
				map[string]interface{}{"collection": "users", "data": map[string]interface{}{"a": 1}},
			}},
		},
		{
			name:      "empty content list",
			candidate: map[string]interface{}{"empty": []interface{}{}},
			wantPath:  "/empty",
		},
		{
			name:      "content list is not a list",
			candidate: map[string]interface{}{"bad": map[string]interface{}{"collection": "users"}},
			wantPath:  "/bad",
		},
		{
			name: "missing collection",
			candidate: map[string]interface{}{"s": []interface{}{
				map[string]interface{}{"data": map[string]interface{}{"a": 1}},
			}},
			wantPath: "/s/0",
		},
		{
			name: "missing data",
			candidate: map[string]interface{}{"s": []interface{}{
				map[string]interface{}{"collection": "users"},
			}},
			wantPath: "/s/0",
		},
		{
			name: "empty collection name",
			candidate: map[string]interface{}{"s": []interface{}{
				map[string]interface{}{"collection": "", "data": map[string]interface{}{"a": 1}},
			}},
			wantPath: "/s/0/collection",
		},
		{
			name: "collection is not a string",
			candidate: map[string]interface{}{"s": []interface{}{
				map[string]interface{}{"collection": 42, "data": map[string]interface{}{"a": 1}},
			}},
			wantPath: "/s/0/collection",
		},
		{
			name: "empty data object",
			candidate: map[string]interface{}{"s": []interface{}{
				map[string]interface{}{"collection": "users", "data": map[string]interface{}{}},
			}},
			wantPath: "/s/0/data",
		},
		{
			name: "empty data list",
			candidate: map[string]interface{}{"s": []interface{}{
				map[string]interface{}{"collection": "users", "data": []interface{}{}},
			}},
			wantPath: "/s/0/data",
		},
		{
			name: "empty document inside data list",
			candidate: map[string]interface{}{"s": []interface{}{
				map[string]interface{}{"collection": "users", "data": []interface{}{
					map[string]interface{}{"a": 1},
					map[string]interface{}{},
				}},
			}},
			wantPath: "/s/0/data",
		},
		{
			name: "data is a scalar",
			candidate: map[string]interface{}{"s": []interface{}{
				map[string]interface{}{"collection": "users", "data": "Jane"},
			}},
			wantPath: "/s/0/data",
		},
		{
			name: "typed content without data",
			candidate: mongostate.StateMap{
				"s": {{Collection: "users"}},
			},
			wantPath: "/s/0/data",
		},
		{
			name:      "typed state without content",
			candidate: mongostate.StateMap{"s": {}},
			wantPath:  "/s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			states, err := Validate(tt.candidate)
			require.Error(t, err)
			assert.Nil(t, states)

			var invalid *mongostate.InvalidStateMapError
			require.True(t, errors.As(err, &invalid), "unexpected error type %T", err)
			require.NotEmpty(t, invalid.Violations)
			if tt.wantPath != "" {
				assert.True(t, hasPathPrefix(invalid.Violations, tt.wantPath),
					"no violation under %s in %v", tt.wantPath, invalid.Violations)
			}
		})
	}
}

func Test_Validate_ReportsEveryViolation(t *testing.T) {
	candidate := map[string]interface{}{
		"first":  []interface{}{},
		"second": []interface{}{map[string]interface{}{"collection": "", "data": map[string]interface{}{"a": 1}}},
	}

	_, err := Validate(candidate)
	var invalid *mongostate.InvalidStateMapError
	require.True(t, errors.As(err, &invalid))
	assert.True(t, hasPathPrefix(invalid.Violations, "/first"))
	assert.True(t, hasPathPrefix(invalid.Violations, "/second/0/collection"))
}

func Test_Validate_IsDeterministic(t *testing.T) {
	candidate := map[string]interface{}{
		"a": []interface{}{},
		"b": []interface{}{},
		"c": []interface{}{map[string]interface{}{"collection": "x"}},
		"d": []interface{}{map[string]interface{}{"data": []interface{}{}}},
	}

	_, first := Validate(candidate)
	require.Error(t, first)
	for i := 0; i < 10; i++ {
		_, err := Validate(candidate)
		assert.Equal(t, first.Error(), err.Error())
	}
}

func Test_Validate_Accepts(t *testing.T) {
	states, err := Validate(validStateMap)
	require.NoError(t, err)

	assert.Equal(t, []string{"myState", "single"}, states.Names())

	content, ok := states.Lookup("myState")
	require.True(t, ok)
	require.Len(t, content, 1)
	assert.Equal(t, "users", content[0].Collection)
	assert.True(t, content[0].Data.IsMany())
	assert.Equal(t, "Jane", content[0].Data.Documents()[0]["name"])

	single, _ := states.Lookup("single")
	assert.False(t, single[0].Data.IsMany())
	assert.Equal(t, mongostate.Document{"theme": "dark"}, single[0].Data.Documents()[0])
}

func Test_Validate_KeepsTypedStateMap(t *testing.T) {
	oid := primitive.NewObjectID()
	typed := mongostate.StateMap{
		"users": {
			{Collection: "users", Data: mongostate.One(mongostate.Document{"_id": oid, "age": 42})},
			{Collection: "groups", Data: mongostate.Many(mongostate.Document{"name": "admins"})},
		},
	}

	states, err := Validate(typed)
	require.NoError(t, err)
	assert.Equal(t, typed, states)
	assert.Equal(t, oid, states["users"][0].Data.Documents()[0]["_id"])
}

func Test_Validate_KeepsBSONValues(t *testing.T) {
	oid := primitive.NewObjectID()
	candidate := primitive.M{
		"s": primitive.A{
			primitive.M{"collection": "users", "data": primitive.A{primitive.M{"_id": oid, "age": int32(7)}}},
		},
	}

	states, err := Validate(candidate)
	require.NoError(t, err)
	doc := states["s"][0].Data.Documents()[0]
	assert.Equal(t, oid, doc["_id"])
	assert.Equal(t, int32(7), doc["age"])
}

func Test_Validate_FallsBackToJSONTree(t *testing.T) {
	type entry struct {
		Collection string                   `json:"collection"`
		Data       []map[string]interface{} `json:"data"`
	}
	candidate := map[string][]entry{
		"s": {{Collection: "users", Data: []map[string]interface{}{{"name": "Jane"}}}},
	}

	states, err := Validate(candidate)
	require.NoError(t, err)
	assert.Equal(t, "users", states["s"][0].Collection)
	assert.Equal(t, "Jane", states["s"][0].Data.Documents()[0]["name"])
}

func Test_Validate_AcceptsBSONDocuments(t *testing.T) {
	oid := primitive.NewObjectID()
	candidate := bson.D{
		{Key: "ordered", Value: bson.A{
			bson.D{
				{Key: "collection", Value: "users"},
				{Key: "data", Value: bson.D{{Key: "_id", Value: oid}, {Key: "name", Value: "Jane"}}},
			},
		}},
		{Key: "nested", Value: []interface{}{
			bson.D{
				{Key: "collection", Value: "posts"},
				{Key: "data", Value: []bson.D{{{Key: "title", Value: "hello"}}}},
			},
		}},
	}

	states, err := Validate(candidate)
	require.NoError(t, err)
	assert.Equal(t, []string{"nested", "ordered"}, states.Names())

	users := states["ordered"][0]
	assert.Equal(t, "users", users.Collection)
	assert.False(t, users.Data.IsMany())
	assert.Equal(t, oid, users.Data.Documents()[0]["_id"])

	posts := states["nested"][0]
	assert.True(t, posts.Data.IsMany())
	assert.Equal(t, "hello", posts.Data.Documents()[0]["title"])
}

func Test_Validate_RejectsEmptyBSONDocument(t *testing.T) {
	candidate := bson.M{"s": bson.A{
		bson.D{{Key: "collection", Value: "users"}, {Key: "data", Value: bson.D{}}},
	}}

	_, err := Validate(candidate)
	var invalid *mongostate.InvalidStateMapError
	require.True(t, errors.As(err, &invalid))
	assert.True(t, hasPathPrefix(invalid.Violations, "/s/0/data"), "%v", invalid.Violations)
}

func Test_Validate_AcceptsNonFiniteNumbers(t *testing.T) {
	candidate := map[string]interface{}{"s": []interface{}{
		map[string]interface{}{"collection": "metrics", "data": []interface{}{
			map[string]interface{}{"value": math.NaN()},
			map[string]interface{}{"value": math.Inf(1), "floor": math.Inf(-1)},
		}},
	}}

	states, err := Validate(candidate)
	require.NoError(t, err)
	docs := states["s"][0].Data.Documents()
	require.Len(t, docs, 2)
	assert.True(t, math.IsNaN(docs[0]["value"].(float64)))
	assert.True(t, math.IsInf(docs[1]["value"].(float64), 1))
}

func Test_Validate_RejectsNonJSONValues(t *testing.T) {
	_, err := Validate(map[string]interface{}{"s": make(chan int)})
	assert.True(t, mongostate.IsInvalidStateMap(err))
}

func hasPathPrefix(violations []mongostate.Violation, prefix string) bool {
	for _, v := range violations {
		if strings.HasPrefix(v.Path, prefix) {
			return true
		}
	}
	return false
}
