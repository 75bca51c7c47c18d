package main

import (
	"fmt"
	"strconv"
	"time"

	"catalog-service/internal/catalog"
	"catalog-service/internal/clients"
	"catalog-service/internal/logging"

	"github.com/spf13/cobra"
)

func newLookupCmd() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "lookup <movie-id>",
		Short: "Fetch a movie from a running service over gRPC",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid movie id %q", args[0])
			}

			client, err := clients.NewMovieLookupClient(addr, timeout, logging.Discard())
			if err != nil {
				return err
			}
			defer client.Close()

			movie, err := client.GetMovie(cmd.Context(), id)
			if err != nil {
				return err
			}
			body, err := catalog.Encode(movie)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(body))
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:9090", "MovieLookup gRPC address")
	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Second, "per-call timeout")
	return cmd
}
