package tree

// SourceTitle returns the page title a node was generated from.
//
// The node and then its ancestors are searched for a non-empty PageTitle. If
// the walk reaches the root without one, the root's Text stands in, since
// generated maps are named after their source page. It returns false for
// unknown keys or when nothing non-empty is found.
func SourceTitle(ix *Index, key Key) (string, bool) {
	visited := make(map[Key]struct{})
	for k := key; ; {
		if _, seen := visited[k]; seen {
			return "", false
		}
		visited[k] = struct{}{}
		n, ok := ix.Node(k)
		if !ok {
			return "", false
		}
		if n.PageTitle != "" {
			return n.PageTitle, true
		}
		p, ok := n.ParentKey()
		if !ok {
			return n.Text, n.Text != ""
		}
		k = p
	}
}
