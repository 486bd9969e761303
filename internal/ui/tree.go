package ui

import "strings"

// TreeItem is one node of a rendered hierarchy.
type TreeItem struct {
	Label    string
	Children []*TreeItem
}

const (
	branchMid   = "├── "
	branchLast  = "└── "
	pipeIndent  = "│   "
	spaceIndent = "    "
)

// RenderTree draws root and its descendants with box-drawing connectors:
//
//	i.bonsai
//	├── fname-a
//	│   └── fname-b
//	└── fname-c
func RenderTree(root *TreeItem) string {
	if root == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(root.Label)
	sb.WriteString("\n")
	renderChildren(&sb, root.Children, "")
	return sb.String()
}

func renderChildren(sb *strings.Builder, children []*TreeItem, prefix string) {
	for i, c := range children {
		last := i == len(children)-1
		sb.WriteString(prefix)
		if last {
			sb.WriteString(branchLast)
		} else {
			sb.WriteString(branchMid)
		}
		sb.WriteString(c.Label)
		sb.WriteString("\n")

		next := prefix + pipeIndent
		if last {
			next = prefix + spaceIndent
		}
		renderChildren(sb, c.Children, next)
	}
}
