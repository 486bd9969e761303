package cli

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/tendr/docs"
	"github.com/aidanlsb/tendr/internal/ui"
)

const guideDir = "guide"

var docsCmd = &cobra.Command{
	Use:   "docs [topic]",
	Short: "Show the bundled guides",
	Long: `Without a topic, lists the available guides. With a topic, prints it.

Examples:
  tendr docs
  tendr docs references`,
	Args: cobra.MaximumNArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		topics, _ := listTopics()
		return topics, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		topics, err := listTopics()
		if err != nil {
			return handleError(ErrInternal, err, "")
		}
		if len(args) == 0 {
			if isJSONOutput() {
				outputSuccess(map[string]interface{}{"topics": topics}, &Meta{Count: len(topics)})
				return nil
			}
			fmt.Println(ui.Header("Topics"))
			for _, t := range topics {
				fmt.Printf("  %s\n", ui.Accent.Render(t))
			}
			return nil
		}

		topic := strings.TrimSuffix(strings.ToLower(args[0]), ".md")
		content, err := fs.ReadFile(docs.FS, path.Join(guideDir, topic+".md"))
		if err != nil {
			return handleErrorMsg(ErrInvalidInput,
				fmt.Sprintf("unknown topic %q", args[0]),
				"Available topics: "+strings.Join(topics, ", "))
		}
		if isJSONOutput() {
			outputSuccess(map[string]interface{}{"topic": topic, "content": string(content)}, nil)
			return nil
		}
		fmt.Print(string(content))
		return nil
	},
}

func listTopics() ([]string, error) {
	entries, err := fs.ReadDir(docs.FS, guideDir)
	if err != nil {
		return nil, err
	}
	var topics []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".md") {
			topics = append(topics, strings.TrimSuffix(e.Name(), ".md"))
		}
	}
	return topics, nil
}

func init() {
	rootCmd.AddCommand(docsCmd)
}
