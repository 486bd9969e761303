package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/tendr/internal/cascade"
)

var (
	renameRegex  bool
	renameDryRun bool
	renameYes    bool
)

var renameCmd = &cobra.Command{
	Use:     "rename <old-id> <new-id>",
	Aliases: []string{"rn"},
	Short:   "Rename a document and every reference to it",
	Long: `Renames a document file and rewrites every [[reference]] to it across the
garden. Link labels, embeds, typed links and attribute lists are kept.

With --regex, <old-id> is a regular expression over document ids and
<new-id> is its replacement ($1 and ${name} expand capture groups). Every
matching document is renamed in one cascade.

Nothing is changed when a new id collides with an existing document, when
two documents would get the same id, or when the garden already has
duplicate ids.

Examples:
  tendr rename fname-b fname-c --yes
  tendr rn '^fname-(.)$' 'new-$1' --regex --dry-run`,
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completeDocIDs,
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := openGarden(cmd)
		if err != nil {
			return err
		}
		defer closeGarden(g)

		selector, replacement := args[0], args[1]
		return cascadeRun{
			yes:    renameYes,
			dryRun: renameDryRun,
			verb:   "Renaming",
			args:   renameArgs(selector, replacement),
			run: func(dryRun bool) (*cascade.Result, error) {
				return g.RenameDocument(cmd.Context(), selector, replacement, cascade.RenameOptions{
					Regex:  renameRegex,
					DryRun: dryRun,
				})
			},
			confirm: func(preview *cascade.Result) string {
				return fmt.Sprintf("Rename %d document(s) and update %d?", len(preview.Renamed), len(preview.Changed))
			},
		}.execute()
	},
}

func renameArgs(selector, replacement string) []string {
	args := []string{"tendr", "rename", selector, replacement}
	if renameRegex {
		args = append(args, "--regex")
	}
	return args
}

func init() {
	renameCmd.Flags().BoolVar(&renameRegex, "regex", false, "Treat <old-id> as a regular expression")
	renameCmd.Flags().BoolVar(&renameDryRun, "dry-run", false, "Show what would change without writing")
	renameCmd.Flags().BoolVarP(&renameYes, "yes", "y", false, "Apply without asking for confirmation")
	rootCmd.AddCommand(renameCmd)
}
