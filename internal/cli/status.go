package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/tendr/internal/rels"
	"github.com/aidanlsb/tendr/internal/ui"
)

var statusKind = newEnumValue("rel", rels.Kinds)

var statusCmd = &cobra.Command{
	Use:     "status <id>",
	Aliases: []string{"list", "ls", "st"},
	Short:   "List the relationships of a document",
	Long: `Lists the tree relationships and references of a document.

Kinds:
  rel                       fam + ref (default)
  fam, ancestor, child      tree relationships from the index documents
  ref, attr, link, embed    references in both directions
  fore, foreattr, ...       references the document makes
  back, backattr, ...       references other documents make to it

A missing document is not an error: references to it are still listed.

Examples:
  tendr status fname-a
  tendr ls fname-a --kind backlink
  tendr st fname-a --kind fam --json`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeDocIDs,
	RunE:              runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	start := time.Now()
	g, err := openGarden(cmd)
	if err != nil {
		return err
	}
	defer closeGarden(g)

	res, err := g.QueryRelationships(cmd.Context(), args[0], statusKind.String())
	if err != nil {
		return handleDomainError(err)
	}

	var warnings []Warning
	if !res.Found {
		msg := fmt.Sprintf("no document named %q; showing references to it", res.ID)
		if len(res.Suggestions) > 0 {
			msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(res.Suggestions, ", "))
		}
		warnings = append(warnings, Warning{Code: WarnNotFound, Message: msg})
	}
	if res.Fam != nil && res.Fam.Error != "" {
		warnings = append(warnings, Warning{Code: WarnTreeInvalid, Message: res.Fam.Error})
	}

	if isJSONOutput() {
		outputSuccessWithWarnings(res, warnings, &Meta{
			Count:       countRelated(res),
			QueryTimeMs: time.Since(start).Milliseconds(),
		})
		return nil
	}

	for _, w := range warnings {
		fmt.Println(ui.Warning(w.Message))
	}
	printStatus(res)
	return nil
}

func countRelated(res *rels.Result) int {
	n := 0
	if res.Fam != nil {
		n += listLen(res.Fam.Ancestors) + listLen(res.Fam.Children)
	}
	for _, refs := range []*rels.Refs{res.Fore, res.Back} {
		if refs == nil {
			continue
		}
		if refs.Attrs != nil {
			for _, g := range refs.Attrs.Groups {
				n += len(g.Items)
			}
		}
		n += listLen(refs.Links) + listLen(refs.Embeds)
	}
	return n
}

func listLen(l *rels.List) int {
	if l == nil {
		return 0
	}
	return len(l.Items)
}

func printStatus(res *rels.Result) {
	title := ui.DocID(res.ID, !res.Found)
	if res.Doctype != "" {
		title += " " + ui.Hint("("+res.Doctype+")")
	}
	fmt.Println(title)

	d := ui.NewDisplayContext()
	if res.Fam != nil {
		printList(d, "ancestors", res.Fam.Ancestors)
		printList(d, "children", res.Fam.Children)
	}
	printRefs(d, "fore", res.Fore)
	printRefs(d, "back", res.Back)
}

func printRefs(d *ui.DisplayContext, dir string, refs *rels.Refs) {
	if refs == nil {
		return
	}
	if refs.Attrs != nil {
		var rows []ui.RefRow
		for _, g := range refs.Attrs.Groups {
			for _, it := range g.Items {
				rows = append(rows, ui.RefRow{ID: it.ID, Type: g.Type, Line: it.Line, Zombie: it.Zombie})
			}
		}
		printRows(d, dir+" attrs", rows)
	}
	printList(d, dir+" links", refs.Links)
	printList(d, dir+" embeds", refs.Embeds)
}

func printList(d *ui.DisplayContext, title string, l *rels.List) {
	if l == nil {
		return
	}
	rows := make([]ui.RefRow, 0, len(l.Items))
	for _, it := range l.Items {
		rows = append(rows, ui.RefRow{ID: it.ID, Type: it.Type, Line: it.Line, Zombie: it.Zombie})
	}
	printRows(d, title, rows)
}

func printRows(d *ui.DisplayContext, title string, rows []ui.RefRow) {
	fmt.Println()
	fmt.Printf("%s %s\n", ui.Header(title), ui.Count(len(rows), "document", "documents"))
	if len(rows) == 0 {
		fmt.Println("  " + ui.Hint("--"))
		return
	}
	fmt.Println(ui.RenderRefs(d, rows))
}

func init() {
	statusCmd.Flags().VarP(statusKind, "kind", "k", "Kind of relationship to list: "+strings.Join(rels.Kinds, ", "))
	_ = statusCmd.RegisterFlagCompletionFunc("kind", statusKind.complete)
	rootCmd.AddCommand(statusCmd)
}
