package domain

// flattenReplyAuthors collects the set of author DIDs of every reply below
// root, at any nesting level. The root post's own author is not counted.
// Nodes without a hydrated post or author contribute nothing but their
// children are still walked.
//
// The walk uses an explicit stack rather than recursion so an unexpectedly
// deep thread cannot exhaust the call stack. Order is irrelevant since the
// result is a set.
func flattenReplyAuthors(root *ThreadNode) map[string]struct{} {
	dids := make(map[string]struct{})
	if root == nil {
		return dids
	}

	stack := make([]*ThreadNode, 0, len(root.Replies))
	stack = append(stack, root.Replies...)

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == nil {
			continue
		}
		if n.Post != nil && n.Post.AuthorDID != "" {
			dids[n.Post.AuthorDID] = struct{}{}
		}
		stack = append(stack, n.Replies...)
	}
	return dids
}
