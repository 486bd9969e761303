package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/tendr/internal/cascade"
	"github.com/aidanlsb/tendr/internal/ui"
)

var findRegex bool

var findCmd = &cobra.Command{
	Use:   "find <id>",
	Short: "Find documents by id",
	Long: `Prints the path of the document with the given id. With --regex the
argument is a regular expression matched against every id.

Examples:
  tendr find fname-a
  tendr find '^fname-' --regex --json`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeDocIDs,
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		g, err := openGarden(cmd)
		if err != nil {
			return err
		}
		defer closeGarden(g)

		docs, err := g.Find(args[0], findRegex)
		if err != nil {
			return handleDomainError(err)
		}
		if len(docs) == 0 {
			suggestion := ""
			if s := g.Corpus.Suggest(args[0]); len(s) > 0 {
				suggestion = "Did you mean: " + strings.Join(s, ", ")
			}
			return handleError(ErrFileNotFound, fmt.Errorf("%w: %q", cascade.ErrNotFound, args[0]), suggestion)
		}

		items := make([]doctypeJSON, 0, len(docs))
		for _, d := range docs {
			items = append(items, doctypeJSON{ID: d.ID, Path: d.RelPath, Doctype: g.Doctype(d)})
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{"items": items}, &Meta{
				Count:       len(items),
				QueryTimeMs: time.Since(start).Milliseconds(),
			})
			return nil
		}
		for _, it := range items {
			fmt.Printf("%s  %s\n", ui.FilePath(it.Path), ui.Hint(it.Doctype))
		}
		return nil
	},
}

func init() {
	findCmd.Flags().BoolVar(&findRegex, "regex", false, "Treat the argument as a regular expression")
	rootCmd.AddCommand(findCmd)
}
