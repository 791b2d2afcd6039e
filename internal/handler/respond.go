package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"taskboard/internal/apperr"
	"taskboard/internal/hierarchy"
	"taskboard/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// retryAfterSeconds is sent with every 503.
const retryAfterSeconds = 5

// currentUserID reads the id stored by the JWT middleware.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return uuid.Nil, false
	}

	id, ok := userID.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user ID format"})
		return uuid.Nil, false
	}
	return id, true
}

// pathID parses the named route parameter, answering 400 on garbage.
func pathID(c *gin.Context, param, entity string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + entity + " ID format"})
		return uuid.Nil, false
	}
	return id, true
}

// respondError writes err in the shape the clients expect. 5xx bodies never
// carry the cause.
func respondError(c *gin.Context, err error) {
	status, code, message, details := apperr.Map(err)
	if status >= http.StatusInternalServerError {
		log.Printf("❌ %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	if status == http.StatusServiceUnavailable {
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
	}

	body := gin.H{"error": message, "code": code}
	if details != nil {
		body["details"] = details
	}
	c.JSON(status, body)
}

func hardDelete(c *gin.Context) bool {
	hard, _ := strconv.ParseBool(c.Query("hard"))
	return hard
}

// fields is an update body kept raw so that a key set to null can be told
// apart from a key that was left out.
type fields map[string]json.RawMessage

// reject fails when any of keys is present.
func (f fields) reject(keys ...string) error {
	for _, k := range keys {
		if _, ok := f[k]; ok {
			return apperr.Invalid("Field " + k + " cannot be updated")
		}
	}
	return nil
}

func (f fields) lookup(keys []string) (string, json.RawMessage, bool) {
	for _, k := range keys {
		if raw, ok := f[k]; ok {
			return k, raw, true
		}
	}
	return "", nil, false
}

// optional decodes the first present key into a pointer. null leaves it nil.
func optional[T any](f fields, keys ...string) (*T, error) {
	key, raw, ok := f.lookup(keys)
	if !ok || string(raw) == "null" {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, apperr.Invalid("Invalid value for " + key)
	}
	return &v, nil
}

// nullable decodes the first present key, keeping an explicit null.
func nullable[T any](f fields, keys ...string) (hierarchy.Nullable[T], error) {
	key, raw, ok := f.lookup(keys)
	if !ok {
		return hierarchy.Nullable[T]{}, nil
	}
	if string(raw) == "null" {
		return hierarchy.Null[T](), nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return hierarchy.Nullable[T]{}, apperr.Invalid("Invalid value for " + key)
	}
	return hierarchy.Value(v), nil
}

// decoder collects the first error of a run of optional/nullable calls.
type decoder struct {
	f   fields
	err error
}

func decodeOptional[T any](d *decoder, dst **T, keys ...string) {
	if d.err != nil {
		return
	}
	*dst, d.err = optional[T](d.f, keys...)
}

func decodeNullable[T any](d *decoder, dst *hierarchy.Nullable[T], keys ...string) {
	if d.err != nil {
		return
	}
	*dst, d.err = nullable[T](d.f, keys...)
}

func bindFields(c *gin.Context) (fields, bool) {
	var f fields
	if err := c.ShouldBindJSON(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return nil, false
	}
	return f, true
}
