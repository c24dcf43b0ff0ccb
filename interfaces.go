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
	"context"
)

// Server is a disposable MongoDB server a session connects to
type Server interface {
	// URI returns the connection string of the running server
	URI(ctx context.Context) (string, error)
	// Port returns the port the server listens on
	Port(ctx context.Context) (int, error)
	// DBName returns the name of the database sessions should use
	DBName() string
	// Stop terminates the server, returns false if it was already stopped
	Stop(ctx context.Context) (bool, error)
}

// Database is the subset of database operations needed to apply a state
type Database interface {
	// CollectionNames lists every existing collection
	CollectionNames(ctx context.Context) ([]string, error)
	// DeleteAll removes every document from the collection
	DeleteAll(ctx context.Context, collection string) error
	// InsertOne inserts a single document
	InsertOne(ctx context.Context, collection string, doc Document) error
	// InsertMany inserts documents preserving their order
	InsertMany(ctx context.Context, collection string, docs []Document) error
}
