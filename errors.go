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
	"errors"
	"fmt"
	"strings"
)

// ErrNoStateMapProvided is returned when a session is requested without any state map
var ErrNoStateMapProvided = errors.New("no state map was provided")

// Violation is a single structural problem found in a state map
type Violation struct {
	// Path is a JSON pointer to the offending value, empty for the root
	Path    string
	Message string
}

func (v Violation) String() string {
	if v.Path == "" {
		return v.Message
	}
	return v.Path + ": " + v.Message
}

// InvalidStateMapError carries every violation found while validating a state map
type InvalidStateMapError struct {
	Violations []Violation
}

func (e *InvalidStateMapError) Error() string {
	if len(e.Violations) == 0 {
		return "state map is not valid"
	}

	lines := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		lines = append(lines, " - "+v.String())
	}
	return "state map is not valid:\n" + strings.Join(lines, "\n")
}

// StateNotFoundError is returned when a state name is absent from the state map
type StateNotFoundError struct {
	StateName string
}

func (e *StateNotFoundError) Error() string {
	return fmt.Sprintf("state %q does not exist", e.StateName)
}

// IsStateNotFound checks whether err is, or wraps, a StateNotFoundError
func IsStateNotFound(err error) bool {
	var e *StateNotFoundError
	return errors.As(err, &e)
}

// IsInvalidStateMap checks whether err is, or wraps, an InvalidStateMapError
func IsInvalidStateMap(err error) bool {
	var e *InvalidStateMapError
	return errors.As(err, &e)
}
