package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTracePool/pkg/pool"
)

var searchLimit int

var poolCmd = &cobra.Command{
	Use:   "pool",
	Short: "Pool maintenance",
	Long:  `Commands for indexing, searching and packing the pool directory`,
}

var poolIndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the search index",
	Long:  `Indexes every package of the pool by name, manufacturer, tags and pad names.`,
	Args:  cobra.NoArgs,
	RunE:  runPoolIndex,
}

var poolSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the package index",
	Long: `Runs a query string query against the index built by "otp pool index".

Examples:
  otp pool search sot23
  otp pool search "tags:smd -tags:bga"
  otp pool search "+manufacturer:jedec name:qfn"`,
	Args: cobra.ExactArgs(1),
	RunE: runPoolSearch,
}

var poolPackCmd = &cobra.Command{
	Use:   "pack",
	Short: "Pack the pool into a single database file",
	Args:  cobra.NoArgs,
	RunE:  runPoolPack,
}

func init() {
	rootCmd.AddCommand(poolCmd)
	poolCmd.AddCommand(poolIndexCmd)
	poolCmd.AddCommand(poolSearchCmd)
	poolCmd.AddCommand(poolPackCmd)

	poolSearchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 20, "maximum number of results")
}

func runPoolIndex(cmd *cobra.Command, _ []string) error {
	dir, err := openPool()
	if err != nil {
		return err
	}
	defer dir.Close()

	idx, err := pool.OpenIndex(cfg.IndexPath)
	if err != nil {
		return err
	}
	defer idx.Close()

	n, err := idx.Build(dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d package(s) into %s\n", n, cfg.IndexPath)
	return nil
}

func runPoolSearch(cmd *cobra.Command, args []string) error {
	dir, err := openPool()
	if err != nil {
		return err
	}
	defer dir.Close()

	idx, err := pool.OpenIndex(cfg.IndexPath)
	if err != nil {
		return err
	}
	defer idx.Close()

	hits, err := idx.Search(args[0], searchLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Found %d package(s)\n", len(hits))
	for _, h := range hits {
		name := "?"
		if p, err := dir.GetPackage(h.ID); err == nil {
			name = p.Name
		}
		fmt.Fprintf(out, "  %s  %-30s %.3f\n", h.ID, name, h.Score)
	}
	return nil
}

func runPoolPack(cmd *cobra.Command, _ []string) error {
	dir, err := openPool()
	if err != nil {
		return err
	}
	defer dir.Close()

	store, err := pool.OpenStore(cfg.StorePath)
	if err != nil {
		return err
	}
	defer store.Close()

	padstacks, packages, err := pool.Pack(dir, store)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Packed %d padstack(s) and %d package(s) into %s\n", padstacks, packages, cfg.StorePath)
	return nil
}
