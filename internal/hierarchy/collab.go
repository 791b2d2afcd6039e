package hierarchy

import (
	"context"
	"strings"

	"taskboard/internal/apperr"
	"taskboard/internal/model"

	"github.com/google/uuid"
)

// ShareEntry is one collaborator of a board as shown to its members.
type ShareEntry struct {
	UserID   uuid.UUID `json:"user_id"`
	Email    string    `json:"email"`
	Fullname string    `json:"fullname"`
	Avatar   string    `json:"avatar"`
	Role     string    `json:"role"`
	IsOwner  bool      `json:"is_owner"`
}

// ShareBoard grants the user registered under email a role on the board.
// Sharing again changes the role.
func (m *Manager) ShareBoard(ctx context.Context, actor, boardID uuid.UUID, email, role string) (*ShareEntry, error) {
	if role != model.RoleViewer && role != model.RoleEditor {
		return nil, apperr.Invalid("role must be viewer or editor")
	}
	if err := m.require(ctx, boardID, actor, model.RoleOwner); err != nil {
		return nil, err
	}
	user, err := m.store.Users.FindByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("User")
	}
	if user.ID == actor {
		return nil, apperr.Invalid("You cannot share a board with yourself")
	}

	if err := m.store.Shares.ShareBoard(ctx, boardID, user.ID, role); err != nil {
		return nil, err
	}
	m.record(ctx, boardID, actor, model.EntityBoard, boardID, "shared_board", map[string]string{"user": user.ID.String(), "role": role})
	return &ShareEntry{UserID: user.ID, Email: user.Email, Fullname: user.Fullname, Avatar: user.Avatar, Role: role}, nil
}

func (m *Manager) Unshare(ctx context.Context, actor, boardID, userID uuid.UUID) error {
	if err := m.require(ctx, boardID, actor, model.RoleOwner); err != nil {
		return err
	}
	if err := m.store.Shares.RemoveShare(ctx, boardID, userID); err != nil {
		return err
	}
	m.record(ctx, boardID, actor, model.EntityBoard, boardID, "unshared_board", map[string]string{"user": userID.String()})
	m.forgetBoard(ctx, userID, boardID)
	return nil
}

// BoardShares lists the owner first, then every share.
func (m *Manager) BoardShares(ctx context.Context, actor, boardID uuid.UUID) ([]ShareEntry, error) {
	if err := m.require(ctx, boardID, actor, model.RoleViewer); err != nil {
		return nil, err
	}
	board, err := m.store.Boards.GetByID(ctx, boardID)
	if err != nil {
		return nil, err
	}
	owner, err := m.store.Users.GetByID(ctx, board.OwnerID)
	if err != nil {
		return nil, err
	}
	shares, err := m.store.Shares.GetBoardShares(ctx, boardID)
	if err != nil {
		return nil, err
	}

	out := make([]ShareEntry, 0, len(shares)+1)
	out = append(out, ShareEntry{
		UserID:   owner.ID,
		Email:    owner.Email,
		Fullname: owner.Fullname,
		Avatar:   owner.Avatar,
		Role:     model.RoleOwner,
		IsOwner:  true,
	})
	for _, s := range shares {
		out = append(out, ShareEntry{
			UserID:   s.UserID,
			Email:    s.User.Email,
			Fullname: s.User.Fullname,
			Avatar:   s.User.Avatar,
			Role:     s.Role,
		})
	}
	return out, nil
}

func (m *Manager) SharedBoards(ctx context.Context, actor uuid.UUID) ([]model.Board, error) {
	return m.store.Shares.GetSharedBoards(ctx, actor)
}

func (m *Manager) BoardLabels(ctx context.Context, actor, boardID uuid.UUID) ([]model.Label, error) {
	if err := m.require(ctx, boardID, actor, model.RoleViewer); err != nil {
		return nil, err
	}
	return m.store.Labels.GetByBoardID(ctx, boardID)
}

// AddLabel appends to the board palette.
func (m *Manager) AddLabel(ctx context.Context, actor, boardID uuid.UUID, label model.Label) ([]model.Label, error) {
	return m.editLabels(ctx, actor, boardID, "added_label", func(labels []model.Label) ([]model.Label, error) {
		return append(labels, label), nil
	})
}

func (m *Manager) UpdateLabel(ctx context.Context, actor, boardID uuid.UUID, index int, label model.Label) ([]model.Label, error) {
	return m.editLabels(ctx, actor, boardID, "updated_label", func(labels []model.Label) ([]model.Label, error) {
		if index < 0 || index >= len(labels) {
			return nil, apperr.NotFound("Label")
		}
		labels[index] = label
		return labels, nil
	})
}

func (m *Manager) RemoveLabel(ctx context.Context, actor, boardID uuid.UUID, index int) ([]model.Label, error) {
	return m.editLabels(ctx, actor, boardID, "removed_label", func(labels []model.Label) ([]model.Label, error) {
		if index < 0 || index >= len(labels) {
			return nil, apperr.NotFound("Label")
		}
		return append(labels[:index], labels[index+1:]...), nil
	})
}

func (m *Manager) editLabels(ctx context.Context, actor, boardID uuid.UUID, action string, edit func([]model.Label) ([]model.Label, error)) ([]model.Label, error) {
	if err := m.require(ctx, boardID, actor, model.RoleEditor); err != nil {
		return nil, err
	}
	labels, err := m.store.Labels.GetByBoardID(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if labels, err = edit(labels); err != nil {
		return nil, err
	}
	if err := m.store.Labels.Replace(ctx, boardID, labels); err != nil {
		return nil, err
	}
	m.record(ctx, boardID, actor, model.EntityBoard, boardID, action, map[string]int{"labels": len(labels)})
	m.invalidate(ctx, boardID)
	return labels, nil
}

// VisitBoard records boardID as the actor's most recent board.
func (m *Manager) VisitBoard(ctx context.Context, actor, boardID uuid.UUID) error {
	board, err := m.readableBoard(ctx, actor, boardID)
	if err != nil {
		return err
	}
	m.touchRecent(ctx, actor, board)
	return nil
}

// StarBoard adds the board to, or removes it from, the actor's starred list.
func (m *Manager) StarBoard(ctx context.Context, actor, boardID uuid.UUID, starred bool) error {
	user, err := m.store.Users.GetByID(ctx, actor)
	if err != nil {
		return err
	}
	refs := model.DropBoardRef(user.StarredBoards, boardID)
	if starred {
		board, err := m.readableBoard(ctx, actor, boardID)
		if err != nil {
			return err
		}
		ref := boardRef(board)
		ref.Starred = true
		refs = model.PushBoardRef(refs, ref)
	}
	return m.store.Users.SetStarredBoards(ctx, actor, refs)
}

func (m *Manager) readableBoard(ctx context.Context, actor, boardID uuid.UUID) (*model.Board, error) {
	if err := m.require(ctx, boardID, actor, model.RoleViewer); err != nil {
		return nil, err
	}
	return m.store.Boards.GetByID(ctx, boardID)
}
