package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"rubylens"
)

var (
	flagScope      string
	flagVisibility string
)

func init() {
	methodsCmd.Flags().StringVar(&flagScope, "scope", "instance", "method scope: instance|class")
	methodsCmd.Flags().StringVar(&flagVisibility, "visibility", "public", "comma-separated visibilities: public,protected,private")
	stackCmd.Flags().StringVar(&flagScope, "scope", "instance", "method scope: instance|class")
}

func parseScope(s string) (rubylens.Scope, error) {
	switch s {
	case "instance":
		return rubylens.ScopeInstance, nil
	case "class":
		return rubylens.ScopeClass, nil
	}
	return rubylens.ScopeInstance, fmt.Errorf("invalid scope %q (want instance or class)", s)
}

func parseVisibilities(s string) ([]rubylens.Visibility, error) {
	var out []rubylens.Visibility
	for _, part := range strings.Split(s, ",") {
		switch strings.TrimSpace(part) {
		case "public":
			out = append(out, rubylens.Public)
		case "protected":
			out = append(out, rubylens.Protected)
		case "private":
			out = append(out, rubylens.Private)
		default:
			return nil, fmt.Errorf("invalid visibility %q", part)
		}
	}
	return out, nil
}

var methodsCmd = &cobra.Command{
	Use:   "methods <namespace>",
	Short: "List methods visible on a namespace in resolution order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := parseScope(flagScope)
		if err != nil {
			return err
		}
		vis, err := parseVisibilities(flagVisibility)
		if err != nil {
			return err
		}
		api, err := buildAPI(cmd.Context())
		if err != nil {
			return err
		}
		return outputPins(os.Stdout, api.Methods(args[0], scope, vis...))
	},
}

var constantsCmd = &cobra.Command{
	Use:   "constants [namespace]",
	Short: "List constants and namespaces nested under a namespace",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fqns := ""
		if len(args) > 0 {
			fqns = args[0]
		}
		api, err := buildAPI(cmd.Context())
		if err != nil {
			return err
		}
		return outputPins(os.Stdout, api.Constants(fqns, ""))
	},
}

var stackCmd = &cobra.Command{
	Use:   "stack <namespace> <method>",
	Short: "Show the full shadowing chain for one method name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := parseScope(flagScope)
		if err != nil {
			return err
		}
		api, err := buildAPI(cmd.Context())
		if err != nil {
			return err
		}
		return outputPins(os.Stdout, api.MethodStack(args[0], scope, args[1]))
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search indexed pin paths by substring",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		api, err := buildAPI(cmd.Context())
		if err != nil {
			return err
		}
		return outputStrings(os.Stdout, api.Search(args[0]))
	},
}

var docCmd = &cobra.Command{
	Use:   "doc <path>",
	Short: "Show documentation for a pin path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		api, err := buildAPI(cmd.Context())
		if err != nil {
			return err
		}
		pins := api.Document(args[0])
		if len(pins) == 0 {
			return fmt.Errorf("no documentation for %s", args[0])
		}
		for _, p := range pins {
			fmt.Fprintf(os.Stdout, "%s\n%s\n", p.Path(), p.Docs)
		}
		return nil
	},
}

var inferCmd = &cobra.Command{
	Use:   "infer <file> <line> <col> <expression>",
	Short: "Infer the type of an expression at a file position",
	Long:  "Evaluates an expression under the lexical context at the given position. Line and column numbers are 0-based.",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		line, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid line %q: %w", args[1], err)
		}
		col, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid column %q: %w", args[2], err)
		}
		file, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolving file path %q: %w", args[0], err)
		}
		api, err := buildAPI(cmd.Context())
		if err != nil {
			return err
		}
		clip, err := api.ClipAt(file, rubylens.Position{Line: line, Column: col})
		if err != nil {
			return err
		}
		t := clip.Infer(args[3])
		if !t.Defined() {
			fmt.Fprintln(os.Stdout, "undefined")
			return nil
		}
		fmt.Fprintln(os.Stdout, t.String())
		return nil
	},
}
