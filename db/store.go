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

package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mmtracker/mongostate"
)

// Store adapts a mongo database to mongostate.Database
type Store struct {
	database *mongo.Database
}

var _ mongostate.Database = (*Store)(nil)

// NewStore creates a Store backed by database
func NewStore(database *mongo.Database) *Store {
	return &Store{database: database}
}

// Database returns the underlying mongo database
func (s *Store) Database() *mongo.Database {
	return s.database
}

// CollectionNames lists every collection in the database
func (s *Store) CollectionNames(ctx context.Context) ([]string, error) {
	return CollectionNames(ctx, s.database)
}

// DeleteAll removes every document from the collection
func (s *Store) DeleteAll(ctx context.Context, collection string) error {
	return Truncate(ctx, s.database.Collection(collection))
}

// InsertOne inserts a single document
func (s *Store) InsertOne(ctx context.Context, collection string, doc mongostate.Document) error {
	if _, err := s.database.Collection(collection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert document into %s: %w", collection, err)
	}
	return nil
}

// InsertMany inserts docs in order
func (s *Store) InsertMany(ctx context.Context, collection string, docs []mongostate.Document) error {
	items := make([]interface{}, len(docs))
	for i, doc := range docs {
		items[i] = doc
	}

	opts := options.InsertMany().SetOrdered(true)
	if _, err := s.database.Collection(collection).InsertMany(ctx, items, opts); err != nil {
		return fmt.Errorf("failed to insert %d documents into %s: %w", len(docs), collection, err)
	}
	return nil
}
