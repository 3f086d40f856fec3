package models

import "time"

// Vote is one voter's current vote on one target. Exactly one of PostID and
// CommentID is set. The unique indexes make the (voter, target) pair the key:
// Postgres and sqlite both treat NULLs as distinct, so post votes never
// collide with comment votes.
type Vote struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	VoterID   int       `gorm:"not null;uniqueIndex:idx_votes_voter_post;uniqueIndex:idx_votes_voter_comment" json:"voter_id"`
	PostID    *int      `gorm:"uniqueIndex:idx_votes_voter_post" json:"post_id,omitempty"`
	CommentID *int      `gorm:"uniqueIndex:idx_votes_voter_comment" json:"comment_id,omitempty"`
	Direction int       `gorm:"not null" json:"direction"` // +1 or -1
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReputationEvent is an outbox row: a reputation delta owed to an account
// because a vote transition on their content has already committed. Rows are
// deleted once the delta is applied; leftovers are replayed at startup.
type ReputationEvent struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	AccountID int       `gorm:"not null;index" json:"account_id"`
	Delta     int       `gorm:"not null" json:"delta"`
	CreatedAt time.Time `json:"created_at"`
}

type VoteRequest struct {
	Intent string `json:"intent" binding:"required,oneof=up down"`
}
