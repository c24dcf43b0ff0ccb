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
	"fmt"
	"reflect"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mmtracker/mongostate"
	"github.com/mmtracker/mongostate/db"
	"github.com/mmtracker/mongostate/server"
)

// DefaultNewServer starts a fresh MongoDB container
var DefaultNewServer = func(ctx context.Context) (mongostate.Server, error) {
	return server.New(ctx)
}

// Config of a session
type Config struct {
	// NewServer is called once per session when no server is supplied
	NewServer func(ctx context.Context) (mongostate.Server, error)
	// Connect configures the client connection
	Connect *db.Config
}

func fixConfig(config *Config) *Config {
	if config == nil {
		config = &Config{}
	}
	if config.NewServer == nil {
		config.NewServer = DefaultNewServer
	}
	return config
}

// Session owns a client connection to a MongoDB server and the states it can apply
type Session struct {
	client *mongo.Client
	store  *db.Store
	server mongostate.Server
	states mongostate.StateMap
	config mongostate.DatabaseConfig
}

// Init validates stateMap and connects a new session to srv.
// When srv is nil a new server is started and owned by the session.
func Init(ctx context.Context, stateMap interface{}, srv mongostate.Server) (*Session, error) {
	return InitWithConfig(ctx, stateMap, srv, nil)
}

// InitWithConfig is Init with explicit configuration
func InitWithConfig(ctx context.Context, stateMap interface{}, srv mongostate.Server, config *Config) (*Session, error) {
	if isNil(stateMap) {
		return nil, mongostate.ErrNoStateMapProvided
	}

	states, err := Validate(stateMap)
	if err != nil {
		return nil, err
	}

	config = fixConfig(config)
	created := false
	if srv == nil {
		srv, err = config.NewServer(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to start mongo server: %w", err)
		}
		created = true
	}

	session, err := connect(ctx, srv, states, config)
	if err != nil {
		if created {
			if _, stopErr := srv.Stop(context.Background()); stopErr != nil {
				log.Errorf("failed to stop mongo server after failed init: %v", stopErr)
			}
		}
		return nil, err
	}

	return session, nil
}

func connect(ctx context.Context, srv mongostate.Server, states mongostate.StateMap, config *Config) (*Session, error) {
	uri, err := srv.URI(ctx)
	if err != nil {
		return nil, err
	}
	port, err := srv.Port(ctx)
	if err != nil {
		return nil, err
	}
	dbName := srv.DBName()

	client, database, err := db.Connect(ctx, uri, dbName, config.Connect)
	if err != nil {
		return nil, err
	}

	log.Infof("state session ready, database %s with %d states", dbName, len(states))

	return &Session{
		client: client,
		store:  db.NewStore(database),
		server: srv,
		states: states,
		config: mongostate.DatabaseConfig{URI: uri, DBName: dbName, Port: port},
	}, nil
}

// SetState replaces the database content with the named state
func (s *Session) SetState(ctx context.Context, name string) error {
	return ApplyState(ctx, s.store, s.states, name)
}

// Clear removes every document from every collection
func (s *Session) Clear(ctx context.Context) error {
	return Clear(ctx, s.store)
}

// Stop closes the client and stops the server. The session must not be used afterwards.
// A server shared with other sessions is stopped for them too.
func (s *Session) Stop(ctx context.Context) (bool, error) {
	disconnectErr := db.Disconnect(ctx, s.client)
	if disconnectErr != nil {
		log.Errorf("failed to disconnect session client: %v", disconnectErr)
	}

	stopped, err := s.server.Stop(ctx)
	return stopped, errors.Join(disconnectErr, err)
}

// Database returns the raw mongo database handle
func (s *Session) Database() *mongo.Database {
	return s.store.Database()
}

// Client returns the session's mongo client
func (s *Session) Client() *mongo.Client {
	return s.client
}

// Config returns the connection details of the session's database
func (s *Session) Config() mongostate.DatabaseConfig {
	return s.config
}

// States returns the validated state map
func (s *Session) States() mongostate.StateMap {
	return s.states
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Pointer, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
