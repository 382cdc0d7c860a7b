package models

import "time"

// LikeTarget names what a like points at
type LikeTarget string

const (
	LikeTargetPost    LikeTarget = "post"
	LikeTargetComment LikeTarget = "comment"
)

// Like is one user's like of a post or comment
type Like struct {
	UserID     string     `json:"user_id" db:"user_id"`
	TargetType LikeTarget `json:"target_type" db:"target_type"`
	TargetID   string     `json:"target_id" db:"target_id"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// LikeResult is returned by the like toggle endpoints
type LikeResult struct {
	TargetType LikeTarget `json:"target_type"`
	TargetID   string     `json:"target_id"`
	Liked      bool       `json:"liked"`
	LikesCount int        `json:"likes_count"`
}
