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

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Truncate removes every document from the collection, the collection itself and its indexes stay
func Truncate(ctx context.Context, col *mongo.Collection) error {
	res, err := col.DeleteMany(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to truncate collection %s: %w", col.Name(), err)
	}
	log.Tracef("truncated collection %s, deleted: %d", col.Name(), res.DeletedCount)
	return nil
}

// CollectionNames lists the names of every collection in the database
func CollectionNames(ctx context.Context, database *mongo.Database) ([]string, error) {
	names, err := database.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to list collections of %s: %w", database.Name(), err)
	}
	return names, nil
}
