package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/tendr/internal/cascade"
	"github.com/aidanlsb/tendr/internal/ui"
)

type doctypeJSON struct {
	ID      string `json:"id"`
	Path    string `json:"path"`
	Doctype string `json:"doctype"`
}

var doctypeCmd = &cobra.Command{
	Use:   "doctype [id]",
	Short: "Show the doctype of a document, or of every document",
	Long: `Classifies documents with the rules in the doctype file (t.doc.toml by
default). Rules are tried in file order: an id prefix or an attribute
match wins at once, otherwise the rule with the deepest matching
directory. Documents no rule matches are "default".

Examples:
  tendr doctype i.bonsai
  tendr doctype --json`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeDocIDs,
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := openGarden(cmd)
		if err != nil {
			return err
		}
		defer closeGarden(g)

		docs := g.Corpus.Docs
		if len(args) == 1 {
			found, err := g.Find(args[0], false)
			if err != nil {
				return handleDomainError(err)
			}
			if len(found) == 0 {
				return handleDomainError(fmt.Errorf("%w: %q", cascade.ErrNotFound, args[0]))
			}
			docs = found
		}

		items := make([]doctypeJSON, 0, len(docs))
		for _, d := range docs {
			items = append(items, doctypeJSON{ID: d.ID, Path: d.RelPath, Doctype: g.Doctype(d)})
		}

		if isJSONOutput() {
			if len(args) == 1 && len(items) == 1 {
				outputSuccess(items[0], nil)
				return nil
			}
			outputSuccess(map[string]interface{}{
				"items":    items,
				"doctypes": g.Doctypes.Names(),
			}, &Meta{Count: len(items)})
			return nil
		}

		if len(args) == 1 && len(items) == 1 {
			fmt.Println(items[0].Doctype)
			return nil
		}
		rows := make([]ui.RefRow, 0, len(items))
		for _, it := range items {
			rows = append(rows, ui.RefRow{ID: it.ID, Type: it.Doctype})
		}
		fmt.Println(ui.RenderRefs(ui.NewDisplayContext(), rows))
		fmt.Println(ui.Hint("doctypes: " + strings.Join(g.Doctypes.Names(), ", ")))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctypeCmd)
}
