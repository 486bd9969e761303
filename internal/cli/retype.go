package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/tendr/internal/cascade"
)

var (
	retypeKind   = newEnumValue("ref", []string{"ref", "attr", "link", "reftype", "attrtype", "linktype"})
	retypeDryRun bool
	retypeYes    bool
)

var retypeCmd = &cobra.Command{
	Use:     "retype <old-type> <new-type>",
	Aliases: []string{"rt"},
	Short:   "Rename a reference type across the garden",
	Long: `Renames the type label of typed references, such as the "reftype" in
:reftype::[[target]], in every document. Targets are not touched.

--kind limits the rename to attributes (attr), typed links (link) or both
(ref, the default).

Examples:
  tendr retype reftype related --yes
  tendr rt attrtype tags --kind attr --dry-run`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := openGarden(cmd)
		if err != nil {
			return err
		}
		defer closeGarden(g)

		oldType, newType := args[0], args[1]
		return cascadeRun{
			yes:    retypeYes,
			dryRun: retypeDryRun,
			verb:   "Retyping",
			args:   []string{"tendr", "retype", oldType, newType, "--kind", retypeKind.String()},
			run: func(dryRun bool) (*cascade.Result, error) {
				return g.RetypeReference(cmd.Context(), oldType, newType, retypeKind.String(), cascade.RetypeOptions{DryRun: dryRun})
			},
			confirm: func(preview *cascade.Result) string {
				return fmt.Sprintf("Retype %q to %q in %d document(s)?", oldType, newType, len(preview.Changed))
			},
		}.execute()
	},
}

func init() {
	retypeCmd.Flags().VarP(retypeKind, "kind", "k", "Kind of reference to retype: ref, attr or link")
	_ = retypeCmd.RegisterFlagCompletionFunc("kind", retypeKind.complete)
	retypeCmd.Flags().BoolVar(&retypeDryRun, "dry-run", false, "Show what would change without writing")
	retypeCmd.Flags().BoolVarP(&retypeYes, "yes", "y", false, "Apply without asking for confirmation")
	rootCmd.AddCommand(retypeCmd)
}
