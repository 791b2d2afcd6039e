package handler

import (
	"context"
	"net/http"
	"strings"

	"taskboard/internal/auth"
	"taskboard/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the part of the user repository the handler needs.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
}

// Bookmarks keeps the recent and starred board lists on the user.
type Bookmarks interface {
	VisitBoard(ctx context.Context, actor, boardID uuid.UUID) error
	StarBoard(ctx context.Context, actor, boardID uuid.UUID, starred bool) error
}

type UserHandler struct {
	users     UserStore
	tokens    *auth.Tokens
	bookmarks Bookmarks
}

func NewUserHandler(users UserStore, tokens *auth.Tokens, bookmarks Bookmarks) *UserHandler {
	return &UserHandler{users: users, tokens: tokens, bookmarks: bookmarks}
}

type RegisterRequest struct {
	Fullname string `json:"fullname" binding:"required,min=2"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Avatar   string `json:"avatar"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UserResponse struct {
	ID       string `json:"id"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type MeResponse struct {
	UserResponse
	RecentBoards  []model.BoardRef `json:"recentBoards"`
	StarredBoards []model.BoardRef `json:"starredBoards"`
}

type StarRequest struct {
	Board     uuid.UUID `json:"board" binding:"required"`
	IsStarred bool      `json:"isStarred"`
}

type UpdateMeRequest struct {
	LastBoardVisited *uuid.UUID   `json:"lastBoardVisited"`
	StarredBoards    *StarRequest `json:"starredBoards"`
}

func toUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:       u.ID.String(),
		Fullname: u.Fullname,
		Email:    u.Email,
		Avatar:   u.Avatar,
	}
}

// Register godoc
// @Summary Sign up
// @Tags Users
// @Accept json
// @Produce json
// @Param user body RegisterRequest true "Account"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /auth/signup [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	req.Email = strings.ToLower(req.Email)

	existing, err := h.users.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "User with this email already exists"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Hash error"})
		return
	}

	user := &model.User{
		ID:             uuid.New(),
		Email:          req.Email,
		Fullname:       req.Fullname,
		Avatar:         req.Avatar,
		HashedPassword: string(hash),
	}

	if err := h.users.Create(c.Request.Context(), user); err != nil {
		respondError(c, err)
		return
	}

	h.issue(c, http.StatusCreated, user)
}

// Login godoc
// @Summary Log in
// @Tags Users
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /auth/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	user, err := h.users.FindByEmail(c.Request.Context(), strings.ToLower(req.Email))
	if err != nil {
		respondError(c, err)
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	h.issue(c, http.StatusOK, user)
}

func (h *UserHandler) issue(c *gin.Context, status int, user *model.User) {
	token, err := h.tokens.Generate(user.ID.String())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Token error"})
		return
	}
	c.JSON(status, AuthResponse{Token: token, User: toUserResponse(user)})
}

// List godoc
// @Summary All users, for member pickers
// @Tags Users
// @Security BearerAuth
// @Produce json
// @Success 200 {array} UserResponse
// @Router /user [get]
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]UserResponse, len(users))
	for i := range users {
		response[i] = toUserResponse(&users[i])
	}
	c.JSON(http.StatusOK, response)
}

// Me godoc
// @Summary Current user with recent and starred boards
// @Tags Users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} MeResponse
// @Router /user/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	h.writeMe(c, userID)
}

// UpdateMe godoc
// @Summary Record a board visit or toggle a star
// @Tags Users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param update body UpdateMeRequest true "Changes"
// @Success 200 {object} MeResponse
// @Failure 400 {object} map[string]string
// @Router /user/me [put]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req UpdateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	ctx := c.Request.Context()
	if req.LastBoardVisited != nil {
		if err := h.bookmarks.VisitBoard(ctx, userID, *req.LastBoardVisited); err != nil {
			respondError(c, err)
			return
		}
	}
	if req.StarredBoards != nil {
		if err := h.bookmarks.StarBoard(ctx, userID, req.StarredBoards.Board, req.StarredBoards.IsStarred); err != nil {
			respondError(c, err)
			return
		}
	}
	h.writeMe(c, userID)
}

func (h *UserHandler) writeMe(c *gin.Context, userID uuid.UUID) {
	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MeResponse{
		UserResponse:  toUserResponse(user),
		RecentBoards:  user.RecentBoards,
		StarredBoards: user.StarredBoards,
	})
}
