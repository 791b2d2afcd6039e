package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MaxBoardRefs bounds both the recently visited and the starred lists.
const MaxBoardRefs = 8

// BoardRef is a snapshot of a board kept on the user document.
type BoardRef struct {
	Board   uuid.UUID   `json:"board"`
	Title   string      `json:"title"`
	Style   *BoardStyle `json:"style,omitempty"`
	Starred bool        `json:"isStarred,omitempty"`
}

type User struct {
	ID             uuid.UUID                     `gorm:"type:uuid;primaryKey" json:"id"`
	Fullname       string                        `gorm:"not null" json:"fullname"`
	Email          string                        `gorm:"uniqueIndex;not null" json:"email"`
	HashedPassword string                        `gorm:"not null" json:"-"`
	Avatar         string                        `json:"avatar"`
	RecentBoards   datatypes.JSONSlice[BoardRef] `json:"recentBoards"`
	StarredBoards  datatypes.JSONSlice[BoardRef] `json:"starredBoards"`
	CreatedAt      time.Time                     `gorm:"autoCreateTime" json:"createdAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.RecentBoards == nil {
		u.RecentBoards = datatypes.JSONSlice[BoardRef]{}
	}
	if u.StarredBoards == nil {
		u.StarredBoards = datatypes.JSONSlice[BoardRef]{}
	}
	return nil
}

// PushBoardRef moves ref to the front of refs, dropping any older entry for
// the same board and anything past MaxBoardRefs.
func PushBoardRef(refs []BoardRef, ref BoardRef) []BoardRef {
	out := make([]BoardRef, 0, MaxBoardRefs)
	out = append(out, ref)
	for _, r := range refs {
		if r.Board == ref.Board {
			continue
		}
		if len(out) == MaxBoardRefs {
			break
		}
		out = append(out, r)
	}
	return out
}

// DropBoardRef removes the entry for board, if any.
func DropBoardRef(refs []BoardRef, board uuid.UUID) []BoardRef {
	out := make([]BoardRef, 0, len(refs))
	for _, r := range refs {
		if r.Board != board {
			out = append(out, r)
		}
	}
	return out
}
