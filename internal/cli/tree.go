package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/tendr/internal/semtree"
	"github.com/aidanlsb/tendr/internal/ui"
	"github.com/aidanlsb/tendr/internal/vault"
)

var (
	treeRoot string
	treeGlob string
)

type treeNodeJSON struct {
	ID        string   `json:"id"`
	Depth     int      `json:"depth"`
	Ancestors []string `json:"ancestors"`
	Children  []string `json:"children"`
	Index     bool     `json:"index"`
	Zombie    bool     `json:"zombie,omitempty"`
}

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the garden hierarchy",
	Long: `Prints the tree built from the index documents, starting at the root
index (i.bonsai by default). Each index lists its children as a nested
bullet list of [[links]]; a child that is itself an index grafts its own
list underneath.

Index documents are those of doctype "index", or those matching
index_glob in config.toml.

Examples:
  tendr tree
  tendr tree --root i.projects --glob 'index/**'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if treeRoot != "" {
			cfg.Garden.Root = treeRoot
		}
		if treeGlob != "" {
			cfg.Garden.IndexGlob = treeGlob
		}
		g, err := openGarden(cmd)
		if err != nil {
			return err
		}
		defer closeGarden(g)

		tree, err := g.Tree(cmd.Context())
		if err != nil {
			return handleTreeError(err)
		}

		var warnings []Warning
		if len(tree.Unreached) > 0 {
			warnings = append(warnings, Warning{
				Code:    WarnTreeInvalid,
				Message: fmt.Sprintf("index documents not reachable from %s: %v", tree.Root, tree.Unreached),
			})
		}

		if isJSONOutput() {
			nodes := make([]treeNodeJSON, 0, tree.Len())
			tree.Walk(func(n *semtree.Node, depth int) {
				nodes = append(nodes, treeNodeJSON{
					ID:        n.ID,
					Depth:     depth,
					Ancestors: nonNil(n.Ancestors),
					Children:  nonNil(n.Children),
					Index:     n.Trunk,
					Zombie:    !g.Corpus.Has(n.ID),
				})
			})
			outputSuccessWithWarnings(map[string]interface{}{
				"root":      tree.Root,
				"nodes":     nodes,
				"unreached": nonNil(tree.Unreached),
			}, warnings, &Meta{Count: len(nodes)})
			return nil
		}

		fmt.Print(ui.RenderTree(treeItem(tree, tree.Root, g.Corpus)))
		for _, w := range warnings {
			fmt.Println(ui.Warning(w.Message))
		}
		return nil
	},
}

func treeItem(tree *semtree.Tree, id string, corpus *vault.Corpus) *ui.TreeItem {
	n, _ := tree.Node(id)
	label := ui.DocID(id, !corpus.Has(id))
	if n != nil && n.Trunk {
		label = ui.AccentBold.Render(id)
	}
	item := &ui.TreeItem{Label: label}
	if n == nil {
		return item
	}
	for _, c := range n.Children {
		item.Children = append(item.Children, treeItem(tree, c, corpus))
	}
	return item
}

func handleTreeError(err error) error {
	var dup *semtree.DuplicateError
	var indent *semtree.IndentError
	switch {
	case errors.Is(err, semtree.ErrRootNotFound):
		return handleError(ErrFileNotFound, err, "Set garden.root in config.toml or pass --root")
	case errors.As(err, &dup):
		return handleErrorWithDetails(ErrTreeInvalid, err, "Each document may appear only once in the tree", dup)
	case errors.As(err, &indent):
		return handleErrorWithDetails(ErrTreeInvalid, err, "Indent each level by the same amount", indent)
	}
	return handleDomainError(err)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func init() {
	treeCmd.Flags().StringVarP(&treeRoot, "root", "r", "", "Id of the root index document")
	treeCmd.Flags().StringVar(&treeGlob, "glob", "", "Glob selecting index documents")
	rootCmd.AddCommand(treeCmd)
}
