package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"rubylens"
	"rubylens/internal/libcache"
	"rubylens/internal/workspace"
)

var (
	flagRoot    string
	flagFormat  string
	flagCache   string
	flagVerbose bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "rubylens",
	Short:         "Semantic symbol index and resolver for Ruby",
	Long:          "Rubylens maps Ruby sources with tree-sitter into an immutable pin index and answers method, constant, and type-inference queries over it.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if flagFormat != "json" && flagFormat != "text" {
			return fmt.Errorf("invalid format %q (want json or text)", flagFormat)
		}
		level := slog.LevelWarn
		if flagVerbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return nil
	},
	// No Run; prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", ".", "workspace root directory")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagCache, "cache", "", "library pin cache database path")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "enable debug logging")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(methodsCmd)
	rootCmd.AddCommand(constantsCmd)
	rootCmd.AddCommand(stackCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(docCmd)
	rootCmd.AddCommand(inferCmd)
	rootCmd.AddCommand(cacheCmd)
}

// buildAPI catalogs the workspace under --root and returns the loaded
// ApiMap.
func buildAPI(ctx context.Context) (*rubylens.ApiMap, error) {
	root, err := filepath.Abs(flagRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving root %q: %w", flagRoot, err)
	}
	ws, err := workspace.New(root)
	if err != nil {
		return nil, err
	}
	bundle, err := workspace.NewBundle(ctx, ws)
	if err != nil {
		return nil, err
	}

	var opts []rubylens.Option
	if flagCache != "" {
		cache, err := libcache.Open(flagCache)
		if err != nil {
			return nil, err
		}
		opts = append(opts, rubylens.WithLibraryCache(cache))
	}
	api := rubylens.New(opts...)
	if err := api.Catalog(bundle); err != nil {
		return nil, err
	}
	return api, nil
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Catalog the workspace and report what was indexed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		api, err := buildAPI(cmd.Context())
		if err != nil {
			return err
		}
		paths := api.Search("")
		fmt.Fprintf(os.Stderr, "Cataloged %s in %s\n", flagRoot, time.Since(start).Round(time.Millisecond))
		fmt.Fprintf(os.Stderr, "Paths: %d\n", len(paths))
		if unresolved := api.UnresolvedRequires(); len(unresolved) > 0 {
			fmt.Fprintf(os.Stderr, "Unresolved requires: %v\n", unresolved)
		}
		return nil
	},
}
