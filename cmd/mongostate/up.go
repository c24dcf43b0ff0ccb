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
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mmtracker/mongostate"
	"github.com/mmtracker/mongostate/server"
	"github.com/mmtracker/mongostate/state"
)

func newUpCmd() *cobra.Command {
	var (
		stateName string
		image     string
		dbName    string
	)

	cmd := &cobra.Command{
		Use:   "up <file>",
		Short: "Start a MongoDB server seeded with a state and keep it running",
		Long: `Start a disposable MongoDB server, apply a state from the file and print
the connection config as JSON. The server is stopped on SIGINT or SIGTERM.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			states, err := loadStates(args[0])
			if err != nil {
				return err
			}
			if stateName != "" {
				if _, ok := states.Lookup(stateName); !ok {
					return &mongostate.StateNotFoundError{StateName: stateName}
				}
			}

			var opts []server.Option
			if image != "" {
				opts = append(opts, server.WithImage(image))
			}
			if dbName != "" {
				opts = append(opts, server.WithDBName(dbName))
			}
			srv, err := server.New(ctx, opts...)
			if err != nil {
				return err
			}

			session, err := state.Init(ctx, states, srv)
			if err != nil {
				_, _ = srv.Stop(context.Background())
				return err
			}
			defer func() {
				if _, err := session.Stop(context.Background()); err != nil {
					log.Errorf("failed to stop session: %v", err)
				}
			}()

			if stateName != "" {
				if err = session.SetState(ctx, stateName); err != nil {
					return err
				}
				log.Infof("state applied: %s", stateName)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err = enc.Encode(session.Config()); err != nil {
				return fmt.Errorf("failed to print config: %w", err)
			}

			<-ctx.Done()
			log.Info("shutting down")
			return nil
		},
	}

	cmd.Flags().StringVarP(&stateName, "state", "s", "", "State to apply after start")
	cmd.Flags().StringVar(&image, "image", "", "MongoDB image (default "+server.DefaultImage+", env "+server.ImageEnv+")")
	cmd.Flags().StringVar(&dbName, "db", "", "Database name (random when empty)")

	return cmd
}
