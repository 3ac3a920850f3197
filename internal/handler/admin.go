package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"campusattend/internal/campus"
	"campusattend/internal/roster"
)

func (h *Handler) registerCampusAdmin(g *gin.RouterGroup) {
	g.GET("/rooms", h.ListRooms)
	g.POST("/rooms", h.CreateRoom)
	g.PUT("/rooms/:id", h.UpdateRoom)
	g.DELETE("/rooms/:id", h.DeleteRoom)

	g.GET("/courses", h.ListCourses)
	g.POST("/courses", h.CreateCourse)
	g.PUT("/courses/:id", h.UpdateCourse)
	g.DELETE("/courses/:id", h.DeleteCourse)

	g.GET("/timetables", h.ListTimetables)
	g.POST("/timetables", h.CreateTimetable)
	g.DELETE("/timetables/:id", h.DeleteTimetable)
}

func (h *Handler) registerRosterAdmin(g *gin.RouterGroup) {
	g.GET("/students", h.ListStudents)
	g.POST("/students", h.CreateStudent)
	g.PUT("/students/:enroll", h.UpdateStudent)
	g.DELETE("/students/:enroll", h.DeleteStudent)
}

// campusError maps campus domain errors onto HTTP statuses.
func (h *Handler) campusError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, campus.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, campus.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.internalError(c, op, err)
	}
}

// ---------- Rooms ----------

type roomRequest struct {
	RoomNumber      string  `json:"room_number" binding:"required"`
	Building        string  `json:"building" binding:"required"`
	Floor           string  `json:"floor"`
	ScannerID       string  `json:"scanner_id" binding:"required"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	GeofenceRadiusM float64 `json:"geofence_radius"`
}

func (r roomRequest) toRoom(id string) campus.Room {
	return campus.Room{
		ID:              id,
		RoomNumber:      r.RoomNumber,
		Building:        r.Building,
		Floor:           r.Floor,
		ScannerID:       r.ScannerID,
		Latitude:        r.Latitude,
		Longitude:       r.Longitude,
		GeofenceRadiusM: r.GeofenceRadiusM,
	}
}

func (h *Handler) ListRooms(c *gin.Context) {
	rooms, err := h.campusRepo.ListRooms(c.Request.Context())
	if err != nil {
		h.internalError(c, "room list", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

func (h *Handler) CreateRoom(c *gin.Context) {
	var req roomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	room, err := h.campusSvc.CreateRoom(c.Request.Context(), req.toRoom(""))
	if err != nil {
		if errors.Is(err, campus.ErrConflict) || errors.Is(err, campus.ErrNotFound) {
			h.campusError(c, "room create", err)
		} else {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"room": room})
}

func (h *Handler) UpdateRoom(c *gin.Context) {
	var req roomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	room, err := h.campusSvc.UpdateRoom(c.Request.Context(), req.toRoom(c.Param("id")))
	if err != nil {
		if errors.Is(err, campus.ErrConflict) || errors.Is(err, campus.ErrNotFound) {
			h.campusError(c, "room update", err)
		} else {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room})
}

func (h *Handler) DeleteRoom(c *gin.Context) {
	if err := h.campusRepo.DeleteRoom(c.Request.Context(), c.Param("id")); err != nil {
		h.campusError(c, "room delete", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ---------- Courses ----------

type courseRequest struct {
	CourseCode     string `json:"course_code" binding:"required"`
	CourseName     string `json:"course_name" binding:"required"`
	InstructorName string `json:"instructor_name"`
}

func (h *Handler) ListCourses(c *gin.Context) {
	courses, err := h.campusRepo.ListCourses(c.Request.Context())
	if err != nil {
		h.internalError(c, "course list", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

func (h *Handler) CreateCourse(c *gin.Context) {
	var req courseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	course, err := h.campusRepo.InsertCourse(c.Request.Context(), campus.Course{
		CourseCode:     req.CourseCode,
		CourseName:     req.CourseName,
		InstructorName: req.InstructorName,
	})
	if err != nil {
		h.campusError(c, "course create", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"course": course})
}

func (h *Handler) UpdateCourse(c *gin.Context) {
	var req courseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	course, err := h.campusRepo.UpdateCourse(c.Request.Context(), campus.Course{
		ID:             c.Param("id"),
		CourseCode:     req.CourseCode,
		CourseName:     req.CourseName,
		InstructorName: req.InstructorName,
	})
	if err != nil {
		h.campusError(c, "course update", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"course": course})
}

func (h *Handler) DeleteCourse(c *gin.Context) {
	if err := h.campusRepo.DeleteCourse(c.Request.Context(), c.Param("id")); err != nil {
		h.campusError(c, "course delete", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ---------- Timetables ----------

func (h *Handler) ListTimetables(c *gin.Context) {
	entries, err := h.campusRepo.ListEntries(c.Request.Context(), c.Query("room_id"), c.Query("course_id"), c.Query("day"))
	if err != nil {
		h.internalError(c, "timetable list", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"timetables": entries})
}

func (h *Handler) CreateTimetable(c *gin.Context) {
	var req struct {
		RoomID    string    `json:"room_id" binding:"required"`
		CourseID  string    `json:"course_id" binding:"required"`
		Day       string    `json:"day" binding:"required"`
		StartTime time.Time `json:"start_time" binding:"required"`
		EndTime   time.Time `json:"end_time" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entry, err := h.campusSvc.CreateTimetable(c.Request.Context(), campus.TimetableEntry{
		RoomID:    req.RoomID,
		CourseID:  req.CourseID,
		Day:       req.Day,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		if errors.Is(err, campus.ErrConflict) || errors.Is(err, campus.ErrNotFound) {
			h.campusError(c, "timetable create", err)
		} else {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"timetable": entry})
}

func (h *Handler) DeleteTimetable(c *gin.Context) {
	if err := h.campusRepo.DeleteEntry(c.Request.Context(), c.Param("id")); err != nil {
		h.campusError(c, "timetable delete", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ---------- Students ----------

type studentRequest struct {
	EnrollNumber string `json:"enroll_number"`
	Name         string `json:"name" binding:"required"`
	CardNumber   string `json:"card_number"`
	Password     string `json:"password"`
	IsActive     *bool  `json:"is_active"`
	IsAdmin      bool   `json:"is_admin"`
}

func (h *Handler) rosterError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, roster.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
	case errors.Is(err, roster.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.internalError(c, op, err)
	}
}

func (h *Handler) ListStudents(c *gin.Context) {
	students, err := h.rosterSvc.List(c.Request.Context())
	if err != nil {
		h.internalError(c, "student list", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

func (h *Handler) CreateStudent(c *gin.Context) {
	var req studentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	student, err := h.rosterSvc.Create(c.Request.Context(), roster.Student{
		EnrollNumber: req.EnrollNumber,
		Name:         req.Name,
		CardNumber:   req.CardNumber,
		IsActive:     active,
		IsAdmin:      req.IsAdmin,
	}, req.Password)
	if err != nil {
		if errors.Is(err, roster.ErrConflict) {
			h.rosterError(c, "student create", err)
		} else {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"student": student})
}

func (h *Handler) UpdateStudent(c *gin.Context) {
	var req studentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	student, err := h.rosterSvc.Update(c.Request.Context(), roster.Student{
		EnrollNumber: c.Param("enroll"),
		Name:         req.Name,
		CardNumber:   req.CardNumber,
		IsActive:     active,
		IsAdmin:      req.IsAdmin,
	}, req.Password)
	if err != nil {
		h.rosterError(c, "student update", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"student": student})
}

func (h *Handler) DeleteStudent(c *gin.Context) {
	if err := h.rosterSvc.Delete(c.Request.Context(), c.Param("enroll")); err != nil {
		h.rosterError(c, "student delete", err)
		return
	}
	c.Status(http.StatusNoContent)
}
