package models

import (
	"time"

	"gorm.io/datatypes"
)

// ReactionKind is one of the four fixed reaction categories.
type ReactionKind string

const (
	ReactionLike  ReactionKind = "like"
	ReactionLove  ReactionKind = "love"
	ReactionSad   ReactionKind = "sad"
	ReactionAngry ReactionKind = "angry"
)

// ReactionKinds lists every valid kind in a stable order.
var ReactionKinds = []ReactionKind{ReactionLike, ReactionLove, ReactionSad, ReactionAngry}

// Valid reports whether the kind is one of the four fixed values.
func (k ReactionKind) Valid() bool {
	switch k {
	case ReactionLike, ReactionLove, ReactionSad, ReactionAngry:
		return true
	}
	return false
}

// ReactionMap maps each reaction kind to the set of user IDs that chose it.
// A user appears in at most one set per post.
type ReactionMap map[ReactionKind][]uint

// NewReactionMap returns a map with every kind present and empty.
func NewReactionMap() ReactionMap {
	m := make(ReactionMap, len(ReactionKinds))
	for _, kind := range ReactionKinds {
		m[kind] = []uint{}
	}
	return m
}

// Normalized returns a copy with every kind present so that JSON output is
// stable regardless of which kinds have members.
func (m ReactionMap) Normalized() ReactionMap {
	out := NewReactionMap()
	for kind, users := range m {
		if !kind.Valid() {
			continue
		}
		out[kind] = append(out[kind], users...)
	}
	return out
}

// Apply removes the user from every set, then adds it to the chosen kind.
// An empty kind withdraws the reaction. The replace is idempotent.
func (m ReactionMap) Apply(userID uint, kind ReactionKind) {
	for k, users := range m {
		filtered := users[:0]
		for _, id := range users {
			if id != userID {
				filtered = append(filtered, id)
			}
		}
		m[k] = filtered
	}
	if kind != "" {
		m[kind] = append(m[kind], userID)
	}
}

// Contains reports whether the user is recorded under the given kind.
func (m ReactionMap) Contains(kind ReactionKind, userID uint) bool {
	for _, id := range m[kind] {
		if id == userID {
			return true
		}
	}
	return false
}

// Post is an engagement item users can react to and comment on. Posts are
// not subject to the moderation workflow.
type Post struct {
	ID            uint                            `gorm:"primaryKey" json:"id"`
	AuthorID      uint                            `gorm:"index;not null" json:"author_id"`
	Body          string                          `gorm:"type:text;not null" json:"body"`
	Category      string                          `gorm:"size:64;index;not null" json:"category"`
	Link          string                          `gorm:"size:512" json:"link,omitempty"`
	Reactions     datatypes.JSONType[ReactionMap] `gorm:"type:json" json:"reactions"`
	Version       uint                            `gorm:"not null;default:0" json:"-"`
	CommentsCount int64                           `gorm:"not null;default:0" json:"comments_count"`
	Visible       bool                            `gorm:"not null;default:true" json:"visible"`
	CreatedAt     time.Time                       `json:"created_at"`
	UpdatedAt     time.Time                       `json:"updated_at"`
	Author        User                            `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"author"`
}

// Comment is an append-only reply attached to a post.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"index;not null" json:"post_id"`
	AuthorID  uint      `gorm:"index;not null" json:"author_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`
	Author    User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"author"`
}
