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

package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mmtracker/mongostate"
	"github.com/mmtracker/mongostate/state"
)

func newRootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "mongostate",
		Short: "Seed disposable MongoDB servers with predefined states",
		Long: `mongostate loads a state file (JSON, Extended JSON or YAML) mapping state
names to collection content, validates it and applies states to a
throwaway MongoDB server.

Examples:
  # Check a state file
  mongostate validate fixtures/states.yaml

  # Start a server seeded with the "withUsers" state
  mongostate up fixtures/states.yaml --state withUsers`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level: %w", err)
			}
			log.SetLevel(level)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warning",
		"Log level: trace, debug, info, warning, error")

	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newStatesCmd())
	cmd.AddCommand(newUpCmd())

	return cmd
}

// loadStates reads and validates the state file
func loadStates(path string) (mongostate.StateMap, error) {
	candidate, err := state.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if candidate == nil {
		return nil, mongostate.ErrNoStateMapProvided
	}
	return state.Validate(candidate)
}
