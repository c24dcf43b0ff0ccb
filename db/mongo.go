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
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var (
	// DefaultConnectTimeout bounds the initial connect including ping retries.
	DefaultConnectTimeout = 30 * time.Second

	// DefaultServerSelectionTimeout is applied to the client options.
	DefaultServerSelectionTimeout = 10 * time.Second

	// DefaultDisconnectTimeout bounds Disconnect when the caller context has no deadline.
	DefaultDisconnectTimeout = 10 * time.Second

	// DefaultPingBackoff is used while a freshly started server warms up
	DefaultPingBackoff = func() backoff.BackOff {
		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = 100 * time.Millisecond
		bo.MaxInterval = 2 * time.Second
		return bo
	}
)

// ErrNoDBName is returned by Connect when no database name is given
var ErrNoDBName = errors.New("no database name")

// Config for the mongo client connection
type Config struct {
	ConnectTimeout         time.Duration
	ServerSelectionTimeout time.Duration
	// PingBackoff builds the retry policy for the initial ping
	PingBackoff func() backoff.BackOff
}

func fixConfig(config *Config) *Config {
	if config == nil {
		config = &Config{}
	}
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = DefaultConnectTimeout
	}
	if config.ServerSelectionTimeout == 0 {
		config.ServerSelectionTimeout = DefaultServerSelectionTimeout
	}
	if config.PingBackoff == nil {
		config.PingBackoff = DefaultPingBackoff
	}
	return config
}

// Connect opens a client to connectURL, waits until the server answers a ping
// and returns the client together with the named database.
func Connect(ctx context.Context, connectURL string, dbName string, config *Config) (*mongo.Client, *mongo.Database, error) {
	if dbName == "" {
		return nil, nil, ErrNoDBName
	}
	config = fixConfig(config)
	log.Tracef("connecting to MongoDB: %s", connectURL)

	opts := options.Client().ApplyURI(connectURL)
	opts.SetServerSelectionTimeout(config.ServerSelectionTimeout)

	ctx, cancel := context.WithTimeout(ctx, config.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	ping := func() error {
		err := client.Ping(ctx, readpref.Primary())
		if err != nil {
			log.Tracef("ping failed, retrying: %v", err)
		}
		return err
	}
	if err = backoff.Retry(ping, backoff.WithContext(config.PingBackoff(), ctx)); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Infof("mongo connection established, database: %s", dbName)

	return client, client.Database(dbName), nil
}

// Disconnect closes the client
func Disconnect(ctx context.Context, client *mongo.Client) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultDisconnectTimeout)
		defer cancel()
	}

	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}
	log.Trace("mongo connection closed")
	return nil
}
