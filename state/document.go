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
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mmtracker/mongostate"
)

// PrepareDocument converts a string _id holding a hex ObjectID into a primitive.ObjectID.
// The input is never modified, a shallow copy is returned when a conversion happens.
// Strings that are not valid ObjectIDs are kept as custom identifiers.
func PrepareDocument(doc mongostate.Document) mongostate.Document {
	id, ok := doc[mongostate.IDField].(string)
	if !ok {
		return doc
	}

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		if isHex(id) {
			log.Warnf("_id %q looks like an ObjectID but has %d hex digits instead of 24, keeping it as a string", id, len(id))
		} else {
			log.Debugf("keeping custom string _id %q", id)
		}
		return doc
	}

	prepared := make(mongostate.Document, len(doc))
	for k, v := range doc {
		prepared[k] = v
	}
	prepared[mongostate.IDField] = oid
	return prepared
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}

func prepareDocuments(docs []mongostate.Document) []mongostate.Document {
	prepared := make([]mongostate.Document, len(docs))
	for i, doc := range docs {
		prepared[i] = PrepareDocument(doc)
	}
	return prepared
}
