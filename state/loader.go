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
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"gopkg.in/yaml.v3"
)

// Extensions are tried in order when a state file is referenced without one
var Extensions = []string{".json", ".yaml", ".yml"}

// InitFromFile loads a state map from the joined path segments and starts a session on a new server
func InitFromFile(ctx context.Context, segments ...string) (*Session, error) {
	return InitFromFileWithConfig(ctx, nil, segments...)
}

// InitFromFileWithConfig is InitFromFile with explicit configuration
func InitFromFileWithConfig(ctx context.Context, config *Config, segments ...string) (*Session, error) {
	candidate, err := LoadFile(segments...)
	if err != nil {
		return nil, err
	}
	return InitWithConfig(ctx, candidate, nil, config)
}

// LoadFile reads an unvalidated state map from a JSON or YAML file.
// JSON files are parsed as MongoDB Extended JSON.
func LoadFile(segments ...string) (interface{}, error) {
	path, err := ResolvePath(segments...)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	log.Tracef("loaded state file: %s", path)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var candidate interface{}
		if err = yaml.Unmarshal(data, &candidate); err != nil {
			return nil, fmt.Errorf("failed to parse state file %s: %w", path, err)
		}
		return candidate, nil
	default:
		var candidate bson.M
		if err = bson.UnmarshalExtJSON(data, false, &candidate); err != nil {
			return nil, fmt.Errorf("failed to parse state file %s: %w", path, err)
		}
		return candidate, nil
	}
}

// ResolvePath joins segments into an absolute path, adding a known extension
// when the joined path does not exist as given.
func ResolvePath(segments ...string) (string, error) {
	path, err := filepath.Abs(filepath.Join(segments...))
	if err != nil {
		return "", fmt.Errorf("failed to resolve state file path: %w", err)
	}

	if isFile(path) {
		return path, nil
	}
	for _, ext := range Extensions {
		if isFile(path + ext) {
			return path + ext, nil
		}
	}

	return "", fmt.Errorf("state file %s: %w", path, fs.ErrNotExist)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Tracef("failed to stat %s: %v", path, err)
		}
		return false
	}
	return !info.IsDir()
}
