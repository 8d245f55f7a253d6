package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/abilitygen/internal/ability"
)

func newCatalogCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the curated trigger descriptors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := a.catalog()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if asJSON {
				entries := make([]catalogEntry, 0, reg.Len())
				for _, id := range reg.IDs() {
					d, _ := reg.Lookup(id)
					entries = append(entries, catalogEntry{ID: id, Params: ability.NewParams(d)})
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(catalogListing{Version: reg.Version(), Abilities: entries})
			}

			fmt.Fprintf(out, "catalog version %s, %d entries\n", reg.Version(), reg.Len())
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTRIGGER\tPARAMS")
			for _, id := range reg.IDs() {
				d, _ := reg.Lookup(id)
				params, err := json.Marshal(ability.NewParams(d))
				if err != nil {
					return fmt.Errorf("encoding ability %d: %w", id, err)
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\n", id, d.Kind(), params)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the catalog as JSON")
	return cmd
}

type catalogEntry struct {
	ID     int            `json:"id"`
	Params ability.Params `json:"params"`
}

type catalogListing struct {
	Version   string         `json:"version"`
	Abilities []catalogEntry `json:"abilities"`
}
