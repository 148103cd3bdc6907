package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var collectionArgs = []string{"products", "categories", "brands", "all"}

func newPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the service and its dependencies are ready",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			if err := newAdminClient().do(ctx, http.MethodGet, "/health/ready", nil); err != nil {
				return err
			}
			fmt.Println("ready")
			return nil
		},
	}
}

func newCollectionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collections",
		Short: "Manage search collections",
	}
	cmd.AddCommand(newStatusCmd(), newCreateCmd(), newDeleteCmd(), newSyncCmd())
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show existence and document counts per collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			var statuses []struct {
				Collection   string `json:"collection"`
				Exists       bool   `json:"exists"`
				NumDocuments int64  `json:"num_documents"`
			}
			if err := newAdminClient().do(ctx, http.MethodGet, "/api/v1/admin/collections", &statuses); err != nil {
				return err
			}

			for _, s := range statuses {
				state := "missing"
				if s.Exists {
					state = fmt.Sprintf("%d documents", s.NumDocuments)
				}
				fmt.Printf("%-12s %s\n", s.Collection, state)
			}
			return nil
		},
	}
}

func newCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "create [products|categories|brands|all]",
		Short:     "Create collections (idempotent)",
		Args:      cobra.ExactArgs(1),
		ValidArgs: collectionArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return forEachCollection(cmd.Context(), args[0], func(ctx context.Context, c *adminClient, name string) error {
				if err := c.do(ctx, http.MethodPost, "/api/v1/admin/collections/"+name, nil); err != nil {
					return err
				}
				fmt.Printf("%s: created\n", name)
				return nil
			})
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "delete [products|categories|brands|all]",
		Short:     "Delete collections (idempotent)",
		Args:      cobra.ExactArgs(1),
		ValidArgs: collectionArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return forEachCollection(cmd.Context(), args[0], func(ctx context.Context, c *adminClient, name string) error {
				if err := c.do(ctx, http.MethodDelete, "/api/v1/admin/collections/"+name, nil); err != nil {
					return err
				}
				fmt.Printf("%s: deleted\n", name)
				return nil
			})
		},
	}
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "sync [products|categories|brands|all]",
		Short:     "Reindex collections from the catalog database",
		Args:      cobra.ExactArgs(1),
		ValidArgs: collectionArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return forEachCollection(cmd.Context(), args[0], func(ctx context.Context, c *adminClient, name string) error {
				var report struct {
					Indexed    int    `json:"indexed"`
					Failed     int    `json:"failed"`
					FirstError string `json:"first_error"`
				}
				if err := c.do(ctx, http.MethodPost, "/api/v1/admin/collections/"+name+"/sync", &report); err != nil {
					return err
				}
				if report.Failed > 0 {
					fmt.Printf("%s: %d indexed, %d failed (first error: %s)\n",
						name, report.Indexed, report.Failed, report.FirstError)
				} else {
					fmt.Printf("%s: %d indexed\n", name, report.Indexed)
				}
				return nil
			})
		},
	}
}

func forEachCollection(ctx context.Context, arg string, fn func(ctx context.Context, c *adminClient, name string) error) error {
	names := []string{arg}
	if arg == "all" {
		names = []string{"products", "categories", "brands"}
	}

	client := newAdminClient()
	for _, name := range names {
		callCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		err := fn(callCtx, client, name)
		cancel()
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
