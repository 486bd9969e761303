package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/tendr/internal/config"
	"github.com/aidanlsb/tendr/internal/ui"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Create config.toml and t.doc.toml in a garden",
	Long: `Writes a default config.toml and doctype file into the garden directory
(the current directory, --garden, or the given path). Existing files are
left alone.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := gardenPathFlag
		if len(args) == 1 {
			root = args[0]
		}
		if root == "" {
			root = "."
		}
		abs, err := filepath.Abs(root)
		if err != nil {
			return handleError(ErrInvalidInput, err, "")
		}
		if err := os.MkdirAll(abs, 0755); err != nil {
			return handleError(ErrFileWriteError, err, "")
		}

		created, err := config.CreateDefault(abs)
		if err != nil {
			return handleError(ErrFileWriteError, err, "")
		}
		if created == nil {
			created = []string{}
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"path":    abs,
				"created": created,
			}, &Meta{Count: len(created)})
			return nil
		}
		if len(created) == 0 {
			fmt.Println(ui.Info("garden already initialized at " + ui.FilePath(abs)))
			return nil
		}
		for _, p := range created {
			fmt.Println(ui.Successf("Created %s", ui.FilePath(p)))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
