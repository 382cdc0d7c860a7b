package thread

// Policy decides how much of a thread a reader sees before asking for more.
type Policy struct {
	// InitialReplies is how many replies are shown under a shallow node.
	InitialReplies int `mapstructure:"initial_replies" json:"initial_replies" yaml:"initial_replies"`
	// DeepReplies is how many replies are shown once Level >= DeepLevel.
	DeepReplies int `mapstructure:"deep_replies" json:"deep_replies" yaml:"deep_replies"`
	DeepLevel   int `mapstructure:"deep_level" json:"deep_level" yaml:"deep_level"`
	// MaxDepth caps the rendered levels; deeper replies are only counted.
	MaxDepth int `mapstructure:"max_depth" json:"max_depth" yaml:"max_depth"`
	// PageSize is how many more replies each "show more" reveals.
	PageSize int `mapstructure:"page_size" json:"page_size" yaml:"page_size"`
}

// DefaultPolicy mirrors what the web client renders out of the box.
func DefaultPolicy() Policy {
	return Policy{
		InitialReplies: 3,
		DeepReplies:    1,
		DeepLevel:      3,
		MaxDepth:       6,
		PageSize:       5,
	}
}

// Validate replaces non-positive settings with their defaults.
func (p Policy) Validate() Policy {
	d := DefaultPolicy()
	if p.InitialReplies <= 0 {
		p.InitialReplies = d.InitialReplies
	}
	if p.DeepReplies <= 0 {
		p.DeepReplies = d.DeepReplies
	}
	if p.DeepLevel <= 0 {
		p.DeepLevel = d.DeepLevel
	}
	if p.MaxDepth <= 0 {
		p.MaxDepth = d.MaxDepth
	}
	if p.PageSize <= 0 {
		p.PageSize = d.PageSize
	}
	return p
}

// View is a node as a reader sees it under a Policy.
type View struct {
	Node    *Node  `json:"comment" yaml:"comment"`
	Replies []View `json:"replies" yaml:"replies"`
	// HiddenReplies counts direct replies behind "show more".
	HiddenReplies int `json:"hidden_replies" yaml:"hidden_replies"`
	// HiddenDescendants counts everything below a node cut off by MaxDepth.
	HiddenDescendants int `json:"hidden_descendants,omitempty" yaml:"hidden_descendants,omitempty"`
}

// Visible returns how many direct replies of n are shown after the given
// number of "show more" expansions.
func (p Policy) Visible(n *Node, expansions int) int {
	if n.Level >= p.MaxDepth-1 {
		return 0
	}
	shown := p.InitialReplies
	if n.Level >= p.DeepLevel {
		shown = p.DeepReplies
	}
	if shown >= len(n.Replies) {
		return len(n.Replies)
	}
	if expansions <= 0 || p.PageSize <= 0 {
		return max(shown, 0)
	}
	// enough pages to show everything; checked first so the product cannot overflow
	if expansions >= (len(n.Replies)-shown+p.PageSize-1)/p.PageSize {
		return len(n.Replies)
	}
	return shown + expansions*p.PageSize
}

// Apply projects the forest through the policy. expansions maps a comment id
// to the number of times "show more" was pressed under it; it may be nil.
// The forest is not modified.
func (p Policy) Apply(forest []*Node, expansions map[string]int) []View {
	p = p.Validate()
	views := make([]View, 0, len(forest))
	for _, n := range forest {
		views = append(views, p.view(n, expansions))
	}
	return views
}

func (p Policy) view(n *Node, expansions map[string]int) View {
	v := View{Node: n, Replies: []View{}}
	if n.Level >= p.MaxDepth-1 {
		v.HiddenDescendants = CountAll(n.Replies)
		return v
	}
	shown := p.Visible(n, expansions[n.ID])
	for _, r := range n.Replies[:shown] {
		v.Replies = append(v.Replies, p.view(r, expansions))
	}
	v.HiddenReplies = len(n.Replies) - shown
	return v
}

// CountViews returns the number of comments a reader sees in views.
func CountViews(views []View) int {
	total := 0
	for _, v := range views {
		total += 1 + CountViews(v.Replies)
	}
	return total
}
