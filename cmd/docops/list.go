// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/docops/internal/dispatch"
	"github.com/pdiddy/docops/internal/opserr"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List operation groups, operations and their payload keys",
	Long: `List prints the registry catalog: every operation group, its operations,
and the payload keys each operation requires or accepts. The catalog is
informational and not part of the dispatch contract.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func runList(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("format")
	catalog := newRegistry(appConfig, logger).Catalog()
	w := cmd.OutOrStdout()

	var err error
	switch format {
	case "text", "":
		err = writeCatalogText(w, catalog)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(catalog)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err = enc.Encode(catalog); err == nil {
			err = enc.Close()
		}
	default:
		return opserr.Invalid("unsupported format %q: use text, json or yaml", format)
	}
	if err != nil {
		return opserr.New(opserr.KindInternal, fmt.Sprintf("writing catalog: %v", err), err)
	}
	return nil
}

func writeCatalogText(w io.Writer, catalog []dispatch.Group) error {
	heading := color.New(color.FgCyan, color.Bold)
	name := color.New(color.Bold)

	for i, g := range catalog {
		if i > 0 {
			fmt.Fprintln(w)
		}
		heading.Fprintln(w, g.Target)
		for _, op := range g.Operations {
			fmt.Fprintf(w, "  %s  %s\n", name.Sprint(op.Name), op.Summary)
			fmt.Fprintf(w, "      required: %s\n", strings.Join(op.Required, ", "))
			if len(op.Optional) > 0 {
				fmt.Fprintf(w, "      optional: %s\n", strings.Join(op.Optional, ", "))
			}
		}
	}
	return nil
}

func init() {
	listCmd.Flags().String("format", "text", "output format: text, json, or yaml")

	rootCmd.AddCommand(listCmd)
}
