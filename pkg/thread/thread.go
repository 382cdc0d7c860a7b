// Package thread builds nested reply trees out of the flat comment list of a post.
//
// Build is a pure function: it keeps no state between calls and never fails.
// The returned forest belongs to the caller and should be treated as read-only;
// when the comment list changes, build a new one.
package thread

import (
	"sort"

	"inkwell/pkg/models"
)

// Node is a comment placed in the reply tree.
type Node struct {
	models.Comment `yaml:",inline"`
	Replies []*Node `json:"replies" yaml:"replies"`
	Level   int     `json:"level" yaml:"level"`
}

// Report lists the anomalies Build worked around. All slices hold comment ids
// in ascending order. An empty report means the input was a well-formed forest.
type Report struct {
	Dangling       []string `json:"dangling,omitempty"`
	SelfReferences []string `json:"self_references,omitempty"`
	Cycles         []string `json:"cycles,omitempty"`
	Duplicates     []string `json:"duplicates,omitempty"`
}

// Empty reports whether nothing unusual was found.
func (r Report) Empty() bool {
	return len(r.Dangling) == 0 && len(r.SelfReferences) == 0 &&
		len(r.Cycles) == 0 && len(r.Duplicates) == 0
}

// Build arranges comments into a forest. Roots are ordered newest first,
// replies oldest first. A comment whose parent is missing from the input
// (or is itself) becomes a root.
func Build(comments []models.Comment) []*Node {
	forest, _ := BuildWithReport(comments)
	return forest
}

// BuildWithReport is Build plus a description of the input problems that
// were silently repaired.
func BuildWithReport(comments []models.Comment) ([]*Node, Report) {
	var report Report

	// pass 1: one node per id
	nodes := make(map[string]*Node, len(comments))
	order := make([]*Node, 0, len(comments))
	for i := range comments {
		c := comments[i]
		if _, dup := nodes[c.ID]; dup {
			report.Duplicates = append(report.Duplicates, c.ID)
			continue
		}
		n := &Node{Comment: c, Replies: []*Node{}, Level: -1}
		nodes[c.ID] = n
		order = append(order, n)
	}

	// pass 2: link
	roots := make([]*Node, 0)
	children := make(map[string][]*Node)
	for _, n := range order {
		if n.ParentID == nil {
			roots = append(roots, n)
			continue
		}
		pid := *n.ParentID
		if pid == n.ID {
			report.SelfReferences = append(report.SelfReferences, n.ID)
			roots = append(roots, n)
			continue
		}
		if _, ok := nodes[pid]; !ok {
			report.Dangling = append(report.Dangling, n.ID)
			roots = append(roots, n)
			continue
		}
		children[pid] = append(children[pid], n)
	}

	for pid, kids := range children {
		sortReplies(kids)
		nodes[pid].Replies = kids
	}
	sortRoots(roots)

	placed := assignLevels(roots)

	// Whatever is still unplaced hangs off a parent chain that never reaches a
	// root, i.e. a cycle. Cut each cycle at its oldest member.
	if placed < len(order) {
		stranded := make([]*Node, 0, len(order)-placed)
		for _, n := range order {
			if n.Level < 0 {
				stranded = append(stranded, n)
			}
		}
		sortReplies(stranded)
		for _, n := range stranded {
			if n.Level >= 0 {
				continue
			}
			cut := oldestInLoop(n, nodes)
			report.Cycles = append(report.Cycles, cut.ID)
			detach(nodes[*cut.ParentID], cut)
			roots = append(roots, cut)
			assignLevels([]*Node{cut})
		}
		sortRoots(roots)
	}

	sort.Strings(report.Dangling)
	sort.Strings(report.SelfReferences)
	sort.Strings(report.Cycles)
	sort.Strings(report.Duplicates)
	return roots, report
}

// assignLevels walks down from the given roots, setting Level on every
// reachable node. Nodes left at -1 afterwards were not reached. It returns
// how many nodes were placed.
func assignLevels(roots []*Node) int {
	placed := 0
	stack := make([]*Node, 0, len(roots))
	for _, r := range roots {
		r.Level = 0
		stack = append(stack, r)
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		placed++
		for _, r := range n.Replies {
			if r.Level >= 0 {
				continue
			}
			r.Level = n.Level + 1
			stack = append(stack, r)
		}
	}
	return placed
}

// oldestInLoop follows parent links from start until it comes back to a node
// it has already seen, then returns the oldest node of that loop. Every node
// passed in has a resolvable parent other than itself.
func oldestInLoop(start *Node, nodes map[string]*Node) *Node {
	seen := make(map[*Node]bool)
	n := start
	for !seen[n] {
		seen[n] = true
		n = nodes[*n.ParentID]
	}
	oldest := n
	for m := nodes[*n.ParentID]; m != n; m = nodes[*m.ParentID] {
		if repliesBefore(m, oldest) {
			oldest = m
		}
	}
	return oldest
}

func detach(parent, child *Node) {
	kept := parent.Replies[:0]
	for _, r := range parent.Replies {
		if r != child {
			kept = append(kept, r)
		}
	}
	parent.Replies = kept
}

// sortReplies orders oldest first; ids break timestamp ties.
func sortReplies(list []*Node) {
	sort.Slice(list, func(i, j int) bool {
		return repliesBefore(list[i], list[j])
	})
}

func repliesBefore(a, b *Node) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// sortRoots orders newest first; ids break timestamp ties.
func sortRoots(list []*Node) {
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}
