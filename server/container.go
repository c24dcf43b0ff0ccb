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

package server

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"

	"github.com/mmtracker/mongostate"
)

// ImageEnv overrides DefaultImage when set
const ImageEnv = "MONGOSTATE_IMAGE"

// DefaultImage is the MongoDB image started when no image is configured
var DefaultImage = "mongo:7"

// Container is a disposable MongoDB server running in a container
type Container struct {
	container *mongodb.MongoDBContainer
	dbName    string

	mu      sync.Mutex
	stopped bool
}

var _ mongostate.Server = (*Container)(nil)

type settings struct {
	image       string
	dbName      string
	customizers []testcontainers.ContainerCustomizer
}

// Option configures a Container
type Option func(*settings)

// WithImage sets the MongoDB image
func WithImage(image string) Option {
	return func(s *settings) {
		s.image = image
	}
}

// WithDBName fixes the database name instead of generating a random one
func WithDBName(name string) Option {
	return func(s *settings) {
		s.dbName = name
	}
}

// WithCustomizers passes extra customizers to the testcontainers request
func WithCustomizers(customizers ...testcontainers.ContainerCustomizer) Option {
	return func(s *settings) {
		s.customizers = append(s.customizers, customizers...)
	}
}

// New starts a MongoDB container and waits until it is ready
func New(ctx context.Context, opts ...Option) (*Container, error) {
	s := settings{image: DefaultImage}
	if image := os.Getenv(ImageEnv); image != "" {
		s.image = image
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.dbName == "" {
		s.dbName = uuid.NewString()
	}

	log.Tracef("starting mongo container from image: %s", s.image)
	c, err := mongodb.Run(ctx, s.image, s.customizers...)
	if err != nil {
		if c != nil {
			_ = c.Terminate(context.Background())
		}
		return nil, fmt.Errorf("failed to start mongo container: %w", err)
	}

	log.Infof("mongo container started: %s", c.GetContainerID())

	return &Container{container: c, dbName: s.dbName}, nil
}

// URI returns the connection string of the container
func (c *Container) URI(ctx context.Context) (string, error) {
	uri, err := c.container.ConnectionString(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get mongo connection string: %w", err)
	}
	return uri, nil
}

// Port returns the host port mapped to the mongo port
func (c *Container) Port(ctx context.Context) (int, error) {
	uri, err := c.URI(ctx)
	if err != nil {
		return 0, err
	}
	return portFromURI(uri)
}

// DBName returns the database name assigned to this server
func (c *Container) DBName() string {
	return c.dbName
}

// Stop terminates the container. Stopping twice is a no-op returning false.
func (c *Container) Stop(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		log.Trace("mongo container already stopped")
		return false, nil
	}
	if err := c.container.Terminate(ctx); err != nil {
		return false, fmt.Errorf("failed to terminate mongo container: %w", err)
	}
	c.stopped = true
	log.Infof("mongo container stopped: %s", c.container.GetContainerID())
	return true, nil
}

func portFromURI(uri string) (int, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return 0, fmt.Errorf("failed to parse mongo uri: %w", err)
	}
	if u.Port() == "" {
		return 0, fmt.Errorf("no port in mongo uri: %s", u.Redacted())
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		return 0, fmt.Errorf("invalid port in mongo uri %s: %w", u.Redacted(), err)
	}
	return port, nil
}
