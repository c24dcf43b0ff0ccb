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
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmtracker/mongostate"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a state file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			states, err := loadStates(args[0])
			if err != nil {
				var invalid *mongostate.InvalidStateMapError
				if errors.As(err, &invalid) {
					out := cmd.OutOrStdout()
					fmt.Fprintf(out, "✗ %s\n", args[0])
					for _, v := range invalid.Violations {
						fmt.Fprintf(out, "  ERROR: %s\n", v)
					}
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s (%d states)\n", args[0], len(states))
			return nil
		},
	}
}

func newStatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "states <file>",
		Short: "List the states defined in a state file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			states, err := loadStates(args[0])
			if err != nil {
				return err
			}

			for _, name := range states.Names() {
				content := states[name]
				docs := 0
				for _, c := range content {
					docs += c.Data.Len()
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d collections\t%d documents\n", name, len(content), docs)
			}
			return nil
		},
	}
}
