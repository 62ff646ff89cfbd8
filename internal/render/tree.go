package render

import (
	"sort"
	"strings"
)

type treeNode struct {
	name     string
	children map[string]*treeNode
}

// Tree renders slash-separated paths as an indented directory tree.
// Directories sort before files; each level is indented two spaces and
// directories carry a trailing slash.
func Tree(paths []string) string {
	root := &treeNode{children: map[string]*treeNode{}}
	for _, p := range paths {
		node := root
		parts := strings.Split(strings.Trim(p, "/"), "/")
		for _, part := range parts {
			child, ok := node.children[part]
			if !ok {
				child = &treeNode{name: part, children: map[string]*treeNode{}}
				node.children[part] = child
			}
			node = child
		}
	}

	var b strings.Builder
	writeTree(&b, root, 0)
	return strings.TrimSuffix(b.String(), "\n")
}

func writeTree(b *strings.Builder, node *treeNode, depth int) {
	children := make([]*treeNode, 0, len(node.children))
	for _, c := range node.children {
		children = append(children, c)
	}
	sort.Slice(children, func(i, j int) bool {
		di, dj := len(children[i].children) > 0, len(children[j].children) > 0
		if di != dj {
			return di
		}
		return children[i].name < children[j].name
	})

	for _, c := range children {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(c.name)
		if len(c.children) > 0 {
			b.WriteString("/")
		}
		b.WriteString("\n")
		writeTree(b, c, depth+1)
	}
}
