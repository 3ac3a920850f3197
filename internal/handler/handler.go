// Package handler wires the HTTP surface: scan ingestion, the student
// verification flow, login, and the admin CRUD for campus data.
package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"campusattend/internal/attendance"
	"campusattend/internal/auth"
	"campusattend/internal/campus"
	"campusattend/internal/config"
	"campusattend/internal/geo"
	"campusattend/internal/roster"
	"campusattend/internal/store"
)

// Handler carries the services behind the HTTP routes.
type Handler struct {
	cfg        config.App
	campusSvc  *campus.Service
	campusRepo *campus.Repository
	rosterSvc  *roster.Service
	attSvc     *attendance.Service
	attRepo    *attendance.Repository
	db         *store.DB
	redis      *store.Redis
}

// New creates a handler.
func New(cfg config.App, campusSvc *campus.Service, campusRepo *campus.Repository, rosterSvc *roster.Service, attSvc *attendance.Service, attRepo *attendance.Repository, db *store.DB, redis *store.Redis) *Handler {
	return &Handler{
		cfg:        cfg,
		campusSvc:  campusSvc,
		campusRepo: campusRepo,
		rosterSvc:  rosterSvc,
		attSvc:     attSvc,
		attRepo:    attRepo,
		db:         db,
		redis:      redis,
	}
}

// Register mounts all routes on the engine.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/healthz", h.Healthz)

	r.POST("/v1/auth/login", h.Login)
	r.POST("/v1/punch", h.Punch)

	student := r.Group("/v1", auth.Bearer(h.cfg.JWTSigningKey, h.cfg.JWTIssuer))
	student.GET("/attendance/pending", h.PendingClaim)
	student.POST("/attendance/pending", h.SubmitLocation)
	student.GET("/attendance/me", h.MyAttendance)

	admin := r.Group("/v1/admin", auth.Bearer(h.cfg.JWTSigningKey, h.cfg.JWTIssuer), auth.RequireAdmin())
	admin.GET("/attendance", h.ListAttendance)
	admin.GET("/punches", h.PunchHistory)
	h.registerCampusAdmin(admin)
	h.registerRosterAdmin(admin)
}

// ---------- Health ----------

// Healthz reports db and redis reachability.
func (h *Handler) Healthz(c *gin.Context) {
	redisHealthy := h.redis.Healthy(c.Request.Context())
	dbHealthy := h.db != nil && h.db.Client != nil && h.db.Client.PingContext(c.Request.Context()) == nil
	status := http.StatusOK
	if !redisHealthy || !dbHealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
}

// ---------- Auth ----------

// Login exchanges enrollment number + password for a token pair.
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		EnrollNumber string `json:"enroll_number" binding:"required"`
		Password     string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	student, err := h.rosterSvc.Authenticate(c.Request.Context(), req.EnrollNumber, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, roster.ErrNotFound), errors.Is(err, roster.ErrBadCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		case errors.Is(err, roster.ErrInactive):
			c.JSON(http.StatusForbidden, gin.H{"error": "account inactive"})
		default:
			h.internalError(c, "login", err)
		}
		return
	}

	role := auth.RoleStudent
	if student.IsAdmin {
		role = auth.RoleAdmin
	}
	tokens, err := auth.Issue(student.EnrollNumber, role, h.cfg.JWTIssuer, h.cfg.JWTSigningKey, h.cfg.AccessTTL, h.cfg.RefreshTTL)
	if err != nil {
		h.internalError(c, "token issue", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_at":    tokens.AccessExp.Unix(),
		"role":          role,
		"student": gin.H{
			"enroll_number": student.EnrollNumber,
			"name":          student.Name,
		},
	})
}

// ---------- Scan ingestion ----------

// Punch ingests a raw scanner event and stages a claim for verification.
func (h *Handler) Punch(c *gin.Context) {
	var req struct {
		CardNumber string `json:"card_number" binding:"required"`
		ScannerID  string `json:"scanner_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.attSvc.Ingest(c.Request.Context(), req.CardNumber, req.ScannerID)
	if err != nil {
		switch {
		case errors.Is(err, campus.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "invalid scanner_id - room not found"})
		case errors.Is(err, roster.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "student not found with this card_number"})
		case errors.Is(err, roster.ErrInactive):
			c.JSON(http.StatusForbidden, gin.H{"error": "student is inactive"})
		default:
			h.internalError(c, "punch ingest", err)
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "punch recorded and queued for verification",
		"punch_id": result.Record.ID,
		"status":   "queued",
		"student": gin.H{
			"enroll_number": result.Student.EnrollNumber,
			"name":          result.Student.Name,
		},
		"room": gin.H{
			"room_id":     result.Room.ID,
			"room_number": result.Room.RoomNumber,
			"building":    result.Room.Building,
		},
	})
}

// PunchHistory returns a student's recent scans (admin view).
func (h *Handler) PunchHistory(c *gin.Context) {
	enroll := c.Query("enroll_number")
	if enroll == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "enroll_number query parameter is required"})
		return
	}
	records, err := h.attRepo.RecentPunchRecords(c.Request.Context(), enroll, 10)
	if err != nil {
		h.internalError(c, "punch history", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enroll_number": enroll, "recent_punches": records, "count": len(records)})
}

// ---------- Verification flow ----------

// PendingClaim reports whether the logged-in student has a scan waiting for
// location confirmation.
func (h *Handler) PendingClaim(c *gin.Context) {
	enroll := auth.FromContext(c).EnrollNumber

	claim, remaining, err := h.attSvc.Pending(c.Request.Context(), enroll)
	if errors.Is(err, attendance.ErrNoPending) {
		c.JSON(http.StatusOK, gin.H{"has_pending": false, "message": "no pending attendance requests"})
		return
	}
	if err != nil {
		h.internalError(c, "pending lookup", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"has_pending": true,
		"pending_request": gin.H{
			"room_id":            claim.RoomID,
			"scanner_id":         claim.ScannerID,
			"queued_at":          time.UnixMilli(claim.Timestamp).UTC().Format(time.RFC3339),
			"expires_in_seconds": int(remaining.Seconds()),
		},
		"message": "please submit your location to verify attendance",
	})
}

// SubmitLocation consumes the pending claim with the student's coordinates.
func (h *Handler) SubmitLocation(c *gin.Context) {
	// Pointers so a legitimate 0.0 coordinate is not mistaken for a missing
	// field by the required binding.
	var req struct {
		Latitude  *float64 `json:"latitude" binding:"required"`
		Longitude *float64 `json:"longitude" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "latitude and longitude are required numbers"})
		return
	}
	if !geo.ValidCoordinates(*req.Latitude, *req.Longitude) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid latitude or longitude"})
		return
	}

	enroll := auth.FromContext(c).EnrollNumber
	result, err := h.attSvc.Verify(c.Request.Context(), enroll, *req.Latitude, *req.Longitude)
	if err != nil {
		switch {
		case errors.Is(err, attendance.ErrNoPending):
			c.JSON(http.StatusNotFound, gin.H{"error": "no pending attendance request found"})
		case errors.Is(err, campus.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		default:
			h.internalError(c, "verification", err)
		}
		return
	}

	switch result.Status {
	case attendance.StatusRejected:
		c.JSON(http.StatusForbidden, gin.H{
			"message":     "attendance verification failed",
			"status":      result.Status,
			"eligibility": result.Eligibility,
		})
	case attendance.StatusAlreadyMarked:
		c.JSON(http.StatusConflict, gin.H{
			"message": "attendance already marked for today",
			"status":  result.Status,
		})
	default:
		c.JSON(http.StatusOK, gin.H{
			"message":     "attendance marked",
			"status":      result.Status,
			"entry":       result.Entry,
			"eligibility": result.Eligibility,
		})
	}
}

// MyAttendance returns the logged-in student's ledger.
func (h *Handler) MyAttendance(c *gin.Context) {
	enroll := auth.FromContext(c).EnrollNumber
	entries, err := h.attRepo.ListMarks(c.Request.Context(), enroll)
	if err != nil {
		h.internalError(c, "attendance lookup", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"enroll_number": enroll,
		"entries":       entries,
		"total_present": len(entries),
	})
}

// ListAttendance returns ledgers for the admin dashboard, optionally
// filtered to one student.
func (h *Handler) ListAttendance(c *gin.Context) {
	if enroll := c.Query("enroll_number"); enroll != "" {
		entries, err := h.attRepo.ListMarks(c.Request.Context(), enroll)
		if err != nil {
			h.internalError(c, "attendance lookup", err)
			return
		}
		if len(entries) == 0 {
			c.JSON(http.StatusNotFound, gin.H{"message": "no record found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"enroll_number": enroll,
			"entries":       entries,
			"total_present": len(entries),
		})
		return
	}

	summaries, err := h.attRepo.ListSummaries(c.Request.Context())
	if err != nil {
		h.internalError(c, "attendance list", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": summaries})
}

// internalError logs the fault and answers with a generic 500. Storage
// details stay out of responses.
func (h *Handler) internalError(c *gin.Context, op string, err error) {
	log.Printf("%s failed: %v", op, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
