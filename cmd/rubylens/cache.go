package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"rubylens/internal/libcache"
	"rubylens/internal/pin"
	"rubylens/internal/workspace"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the library pin cache",
	Long:  "The cache stores pin sets for libraries outside the workspace, so requires can resolve without reparsing the library on every run. All cache commands need --cache.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if flagCache == "" {
			return fmt.Errorf("cache commands require --cache")
		}
		return rootCmd.PersistentPreRunE(cmd, args)
	},
}

func init() {
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheSaveCmd)
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached libraries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cache, err := libcache.Open(flagCache)
		if err != nil {
			return err
		}
		defer cache.Close()
		libs, err := cache.Libraries()
		if err != nil {
			return err
		}
		return outputStrings(os.Stdout, libs)
	},
}

var cacheSaveCmd = &cobra.Command{
	Use:   "save <name> <dir>",
	Short: "Map a library directory and cache its pins under a name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		dir, err := filepath.Abs(args[1])
		if err != nil {
			return fmt.Errorf("resolving directory %q: %w", args[1], err)
		}
		ws, err := workspace.New(dir)
		if err != nil {
			return err
		}
		sources, err := ws.Sources(cmd.Context())
		if err != nil {
			return err
		}
		var pins []*pin.Pin
		for _, src := range sources {
			pins = append(pins, src.Map().Pins...)
		}

		cache, err := libcache.Open(flagCache)
		if err != nil {
			return err
		}
		defer cache.Close()
		if err := cache.Save(name, pins); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Cached %d pins for %s\n", len(pins), name)
		return nil
	},
}
