package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/pthm/hal"
	"github.com/pthm/hal/lib/reldoc"
)

func newRelsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rels",
		Short: "Inspect registered link relations",
	}
	cmd.AddCommand(newRelsListCmd(a), newRelsShowCmd(a))
	return cmd
}

type relInfo struct {
	Rel         string `json:"rel"`
	Namespace   string `json:"namespace"`
	Description string `json:"description,omitempty"`
	File        string `json:"file,omitempty"`
}

func newRelsListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every registered rel",
		Long: `List prints every rel of every namespace in the route config, ordered by
namespace and rel name.

Examples:
  hal rels list
  hal rels list --namespace mycompany
  hal rels list --json | jq '.[].rel'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, reg, err := a.load()
			if err != nil {
				return err
			}
			only, _ := cmd.Flags().GetString("namespace")

			var rels []relInfo
			for _, rel := range reg.Rels() {
				ns := rel.Namespace()
				if only != "" && ns.Name != only {
					continue
				}
				rels = append(rels, relInfo{Rel: rel.QName(), Namespace: ns.Name, Description: rel.Description, File: rel.File})
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if rels == nil {
					rels = []relInfo{}
				}
				return enc.Encode(rels)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "REL\tDESCRIPTION")
			for _, r := range rels {
				fmt.Fprintf(tw, "%s\t%s\n", r.Rel, r.Description)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringP("namespace", "n", "", "only list rels of this namespace")
	cmd.Flags().Bool("json", false, "print JSON instead of a table")
	return cmd
}

func newRelsShowCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <prefix:rel>",
		Short: "Render the documentation of a rel in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, reg, err := a.load()
			if err != nil {
				return err
			}
			rel, err := reg.ResolveRel(args[0], true)
			if err != nil {
				return err
			}

			src, err := relMarkdown(rel)
			if err != nil {
				return err
			}
			if raw, _ := cmd.Flags().GetBool("raw"); raw {
				_, err = fmt.Fprint(cmd.OutOrStdout(), src)
				return err
			}

			style, _ := cmd.Flags().GetString("style")
			width, _ := cmd.Flags().GetInt("width")
			r, err := glamour.NewTermRenderer(
				glamour.WithStylePath(style),
				glamour.WithWordWrap(width),
			)
			if err != nil {
				return err
			}
			out, err := r.Render(src)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().String("style", "dark", "glamour style (dark, light, notty, ascii)")
	cmd.Flags().Int("width", 80, "word wrap width")
	cmd.Flags().Bool("raw", false, "print the markdown source")
	return cmd
}

// relMarkdown returns the rel's document body, or a heading and the
// description when the rel has no document.
func relMarkdown(rel *hal.Rel) (string, error) {
	if rel.File != "" {
		d, err := reldoc.LoadFile(rel.File)
		if err != nil {
			return "", err
		}
		return string(d.Body), nil
	}
	src := "# " + rel.QName() + "\n"
	if rel.Description != "" {
		src += "\n" + rel.Description + "\n"
	}
	return src, nil
}
