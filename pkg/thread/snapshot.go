package thread

import "time"

// Snapshot is a built thread as served to clients. Exactly one of Comments
// and Views is set, depending on the requested view.
type Snapshot struct {
	PostID   string    `json:"post_id" yaml:"post_id"`
	Total    int       `json:"total" yaml:"total"`
	Depth    int       `json:"depth" yaml:"depth"`
	Comments []*Node   `json:"comments,omitempty" yaml:"comments,omitempty"`
	Views    []View    `json:"views,omitempty" yaml:"views,omitempty"`
	BuiltAt  time.Time `json:"built_at" yaml:"built_at"`
}

// NewSnapshot describes a built forest.
func NewSnapshot(postID string, forest []*Node) *Snapshot {
	return &Snapshot{
		PostID:   postID,
		Total:    CountAll(forest),
		Depth:    Depth(forest),
		Comments: forest,
		BuiltAt:  time.Now().UTC(),
	}
}
