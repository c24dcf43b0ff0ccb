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

package mongostate

import (
	"encoding/json"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IDField is the document field holding the identifier.
const IDField = "_id"

// Document is an arbitrary record stored in a collection
type Document = primitive.M

// Data holds either a single document or an ordered list of documents.
// A single document is inserted with insertOne, a list with insertMany.
type Data struct {
	docs []Document
	many bool
}

// One wraps a single document
func One(doc Document) Data {
	return Data{docs: []Document{doc}}
}

// Many wraps an ordered list of documents
func Many(docs ...Document) Data {
	return Data{docs: docs, many: true}
}

// IsMany reports whether the data was given as a list
func (d Data) IsMany() bool {
	return d.many
}

// Documents returns the wrapped documents in input order
func (d Data) Documents() []Document {
	return d.docs
}

// Len returns the number of wrapped documents
func (d Data) Len() int {
	return len(d.docs)
}

// MarshalJSON encodes a single document as an object and a list as an array
func (d Data) MarshalJSON() ([]byte, error) {
	switch {
	case d.many:
		return json.Marshal(d.docs)
	case len(d.docs) == 1:
		return json.Marshal(d.docs[0])
	default:
		return []byte("null"), nil
	}
}

// Content is one unit of seed data for one collection
type Content struct {
	Collection string `json:"collection"`
	Data       Data   `json:"data"`
}

// StateMap maps a state name to the content loaded when that state is applied.
type StateMap map[string][]Content

// Lookup returns the content of the named state
func (sm StateMap) Lookup(name string) ([]Content, bool) {
	content, ok := sm[name]
	return content, ok
}

// Names returns state names in sorted order
func (sm StateMap) Names() []string {
	names := make([]string, 0, len(sm))
	for name := range sm {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DatabaseConfig describes how to reach the database behind a session
type DatabaseConfig struct {
	URI    string `json:"uri"`
	DBName string `json:"dbName"`
	Port   int    `json:"port"`
}
