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
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/mmtracker/mongostate"
)

// fakeDatabase is an in-memory mongostate.Database recording every call
type fakeDatabase struct {
	mu          sync.Mutex
	collections map[string][]mongostate.Document
	calls       []string

	ListErr   error
	DeleteErr error
	InsertErr map[string]error
}

var _ mongostate.Database = (*fakeDatabase)(nil)

func newFakeDatabase() *fakeDatabase {
	return &fakeDatabase{collections: map[string][]mongostate.Document{}}
}

func (f *fakeDatabase) seed(collection string, docs ...mongostate.Document) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.collections[collection] = append(f.collections[collection], docs...)
}

func (f *fakeDatabase) docs(collection string) []mongostate.Document {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.collections[collection]
}

func (f *fakeDatabase) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeDatabase) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeDatabase) CollectionNames(_ context.Context) ([]string, error) {
	f.record("list")
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.collections))
	for name := range f.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (f *fakeDatabase) DeleteAll(_ context.Context, collection string) error {
	f.record("delete:" + collection)
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.collections[collection] = nil
	return nil
}

func (f *fakeDatabase) InsertOne(_ context.Context, collection string, doc mongostate.Document) error {
	f.record("insertOne:" + collection)
	return f.insert(collection, doc)
}

func (f *fakeDatabase) InsertMany(_ context.Context, collection string, docs []mongostate.Document) error {
	f.record("insertMany:" + collection)
	return f.insert(collection, docs...)
}

func (f *fakeDatabase) insert(collection string, docs ...mongostate.Document) error {
	if err := f.InsertErr[collection]; err != nil {
		return err
	}
	f.seed(collection, docs...)
	return nil
}

// fakeServer is a mongostate.Server that never starts anything
type fakeServer struct {
	uri    string
	port   int
	dbName string

	URIErr  error
	stopped int
}

var _ mongostate.Server = (*fakeServer)(nil)

var errFakeServer = errors.New("fake server failure")

func (s *fakeServer) URI(_ context.Context) (string, error) {
	return s.uri, s.URIErr
}

func (s *fakeServer) Port(_ context.Context) (int, error) {
	return s.port, nil
}

func (s *fakeServer) DBName() string {
	return s.dbName
}

func (s *fakeServer) Stop(_ context.Context) (bool, error) {
	s.stopped++
	return s.stopped == 1, nil
}
