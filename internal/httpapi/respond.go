package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/mmynk/dormmess/internal/auth"
	"github.com/mmynk/dormmess/internal/models"
	"github.com/mmynk/dormmess/internal/service"
	"github.com/mmynk/dormmess/internal/storage"
)

// respondError writes the JSON error envelope for err. notFound is the
// message used when err is a storage.ErrNotFound.
func respondError(c *gin.Context, err error, notFound string) {
	status, message := http.StatusInternalServerError, "Internal server error"

	switch {
	case errors.Is(err, service.ErrUserNotFound):
		status, message = http.StatusBadRequest, service.ErrUserNotFound.Error()
	case errors.Is(err, service.ErrInvalidArgument):
		status, message = http.StatusBadRequest, strings.TrimPrefix(err.Error(), service.ErrInvalidArgument.Error()+": ")
	case errors.Is(err, auth.ErrWeakPassword):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, auth.ErrEmailExists):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, auth.ErrInvalidCredentials):
		status, message = http.StatusUnauthorized, err.Error()
	case errors.Is(err, storage.ErrNotFound):
		status, message = http.StatusNotFound, notFound
	}

	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "path", c.Request.URL.Path, "error", err)
		_ = c.Error(err)
		c.JSON(status, gin.H{"message": message, "error": err.Error()})
		return
	}
	c.JSON(status, gin.H{"message": message})
}

// bindJSON decodes the body into req, writing a 400 on failure.
func bindJSON(c *gin.Context, req any) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "All fields are required", "error": err.Error()})
	} else {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body", "error": err.Error()})
	}
	return false
}

// pathID parses a positive integer path parameter, writing a 400 on failure.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid " + name})
		return 0, false
	}
	return id, true
}

// queryUserID parses the optional user_id filter, writing a 400 on failure.
func queryUserID(c *gin.Context) (int64, bool) {
	s := c.Query("user_id")
	if s == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user_id"})
		return 0, false
	}
	return id, true
}

// queryDate parses an optional YYYY-MM-DD query parameter, writing a 400 on failure.
func queryDate(c *gin.Context, name string) (models.Date, bool) {
	s := c.Query(name)
	if s == "" {
		return models.Date{}, true
	}
	d, err := models.ParseDate(s)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid " + name, "error": err.Error()})
		return models.Date{}, false
	}
	return d, true
}
