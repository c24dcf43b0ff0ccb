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
	"fmt"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mmtracker/mongostate"
)

// Clear removes every document from every collection of the database.
// Deletions run concurrently, the first failure is returned once all of them finished.
func Clear(ctx context.Context, database mongostate.Database) error {
	names, err := database.CollectionNames(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear database: %w", err)
	}

	var g errgroup.Group
	for _, name := range names {
		name := name
		g.Go(func() error {
			return database.DeleteAll(ctx, name)
		})
	}
	if err = g.Wait(); err != nil {
		return fmt.Errorf("failed to clear database: %w", err)
	}

	log.Tracef("cleared %d collections", len(names))
	return nil
}

// ApplyState replaces the database content with the content of the named state.
// An unknown state fails with *mongostate.StateNotFoundError before anything is deleted.
// Partially applied content is not rolled back on failure.
func ApplyState(ctx context.Context, database mongostate.Database, states mongostate.StateMap, name string) error {
	content, ok := states.Lookup(name)
	if !ok {
		return &mongostate.StateNotFoundError{StateName: name}
	}

	if err := Clear(ctx, database); err != nil {
		return err
	}

	var g errgroup.Group
	for _, c := range content {
		c := c
		g.Go(func() error {
			return insertContent(ctx, database, c)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to apply state %s: %w", name, err)
	}

	log.Tracef("applied state %s to %d collections", name, len(content))
	return nil
}

func insertContent(ctx context.Context, database mongostate.Database, c mongostate.Content) error {
	docs := prepareDocuments(c.Data.Documents())
	if len(docs) == 0 {
		return nil
	}

	if c.Data.IsMany() {
		log.Tracef("inserting %d documents into %s", len(docs), c.Collection)
		return database.InsertMany(ctx, c.Collection, docs)
	}

	log.Tracef("inserting document into %s", c.Collection)
	return database.InsertOne(ctx, c.Collection, docs[0])
}
