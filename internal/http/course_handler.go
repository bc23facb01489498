package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"masterlearn/internal/service"
)

// CourseHandler expone el catalogo y los cursos guardados del usuario.
type CourseHandler struct {
	logger    *zap.Logger
	courses   *service.CourseService
	savedServ *service.SavedCourseService
}

func NewCourseHandler(logger *zap.Logger, courses *service.CourseService, savedServ *service.SavedCourseService) *CourseHandler {
	return &CourseHandler{
		logger:    logger,
		courses:   courses,
		savedServ: savedServ,
	}
}

// ListCourses maneja GET /courses.
func (h *CourseHandler) ListCourses(c *gin.Context) {
	courses, err := h.courses.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list courses failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal Server Error"})
		return
	}
	c.JSON(http.StatusOK, courses)
}

// SaveCourse maneja POST /saved-courses.
func (h *CourseHandler) SaveCourse(c *gin.Context) {
	identity, ok := GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication token missing."})
		return
	}
	courseID, err := courseIDFromRequest(c)
	if err != nil {
		h.logger.Warn("invalid save course request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": "Course ID is required"})
		return
	}

	if err := h.savedServ.Save(c.Request.Context(), identity.Username, courseID); err != nil {
		if status, msg, ok := savedCourseError(err); ok {
			c.JSON(status, gin.H{"message": msg})
			return
		}
		h.logger.Error("save course failed", zap.Error(err), zap.String("username", identity.Username))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Course saved successfully!"})
}

// UnsaveCourse maneja DELETE /saved-courses.
func (h *CourseHandler) UnsaveCourse(c *gin.Context) {
	identity, ok := GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication token missing."})
		return
	}
	courseID, err := courseIDFromRequest(c)
	if err != nil {
		h.logger.Warn("invalid unsave course request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": "Course ID is required"})
		return
	}

	if err := h.savedServ.Unsave(c.Request.Context(), identity.Username, courseID); err != nil {
		if status, msg, ok := savedCourseError(err); ok {
			c.JSON(status, gin.H{"message": msg})
			return
		}
		h.logger.Error("unsave course failed", zap.Error(err), zap.String("username", identity.Username))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Course removed from saved courses"})
}

// ListSavedCourses maneja GET /saved-courses.
func (h *CourseHandler) ListSavedCourses(c *gin.Context) {
	identity, ok := GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication token missing."})
		return
	}
	courses, err := h.savedServ.List(c.Request.Context(), identity.Username)
	if err != nil {
		h.logger.Error("list saved courses failed", zap.Error(err), zap.String("username", identity.Username))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal Server Error"})
		return
	}
	c.JSON(http.StatusOK, courses)
}

// courseIDFromRequest lee course_id del body JSON y, si falta, del query string.
func courseIDFromRequest(c *gin.Context) (string, error) {
	var req struct {
		CourseID string `json:"course_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if req.CourseID == "" {
		req.CourseID = c.Query("course_id")
	}
	return req.CourseID, nil
}

func savedCourseError(err error) (int, string, bool) {
	switch {
	case errors.Is(err, service.ErrCourseIDRequired):
		return http.StatusBadRequest, "Course ID is required", true
	case errors.Is(err, service.ErrInvalidCourseID):
		return http.StatusBadRequest, "Invalid course ID", true
	case errors.Is(err, service.ErrAlreadySaved):
		return http.StatusBadRequest, "Course already saved", true
	case errors.Is(err, service.ErrCourseNotFound):
		return http.StatusNotFound, "Course not found", true
	case errors.Is(err, service.ErrSavedCourseNotFound):
		return http.StatusNotFound, "Saved course not found", true
	default:
		return 0, "", false
	}
}
