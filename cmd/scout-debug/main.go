// Package main provides a maintenance CLI for inspecting the on-device store.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/statiq/scout/internal/adapters/storage"
	"github.com/statiq/scout/internal/domain/follow"
	"github.com/statiq/scout/internal/domain/identity"
	"github.com/statiq/scout/internal/domain/model"
	"github.com/statiq/scout/internal/domain/recency"
	"github.com/statiq/scout/internal/domain/vote"
)

var dataDir string

func main() {
	rootCmd := &cobra.Command{
		Use:   "scout-debug",
		Short: "Inspect and repair the scout on-device store",
		Long: `scout-debug opens the on-device store directly and dumps or clears
its contents: device identity, stored votes, the recently-viewed list,
and followed entities. Run it only while the app itself is stopped;
the store takes an exclusive lock.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory of the on-device store")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "device",
		Short: "Print the device identifier, creating it if absent",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(st storage.Store) error {
				fmt.Println(identity.New(st).GetOrCreate(cmd.Context()))
				return nil
			})
		},
	})

	votesCmd := &cobra.Command{
		Use:   "votes",
		Short: "Vote store operations",
	}
	votesCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every stored vote",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(st storage.Store) error {
				ctx := cmd.Context()
				votes := vote.New(st)
				ids := votes.GameIDs(ctx)
				for game, choice := range votes.GetMany(ctx, ids) {
					fmt.Printf("%s\t%s\n", game, choice)
				}
				fmt.Printf("%d vote(s)\n", len(ids))
				return nil
			})
		},
	})
	votesCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete every stored vote",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(st storage.Store) error {
				n, err := vote.New(st).RemoveAll(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Printf("removed %d vote(s)\n", n)
				return nil
			})
		},
	})
	rootCmd.AddCommand(votesCmd)

	recentCmd := &cobra.Command{
		Use:   "recent",
		Short: "Recently-viewed list operations",
	}
	recentCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Dump the recently-viewed list, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(st storage.Store) error {
				for i, e := range recency.New(st).List(cmd.Context()) {
					fmt.Printf("%2d. [%s] %s (%s) %s\n", i+1, e.Kind, e.Name, e.ID, e.Recorded().Format("2006-01-02 15:04:05"))
				}
				return nil
			})
		},
	})
	recentCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Empty the recently-viewed list",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(st storage.Store) error {
				return recency.New(st).Clear(cmd.Context())
			})
		},
	})
	rootCmd.AddCommand(recentCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:       "follows [teams|players]",
		Short:     "List followed entity ids",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"teams", "players"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(st storage.Store) error {
				kind := model.KindTeam
				if args[0] == "players" {
					kind = model.KindPlayer
				}
				for _, id := range follow.New(st).List(cmd.Context(), kind) {
					fmt.Println(id)
				}
				return nil
			})
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// withStore opens the badger store at --data-dir, runs fn, and closes it.
func withStore(fn func(storage.Store) error) error {
	if dataDir == "" {
		dataDir = os.Getenv("SCOUT_DATA_DIR")
	}
	if dataDir == "" {
		return fmt.Errorf("--data-dir is required (or set SCOUT_DATA_DIR)")
	}
	st, err := storage.NewBadgerStore(storage.WithDataDir(dataDir))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	return fn(st)
}
