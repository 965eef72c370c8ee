package api

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cafeteria-meals/internal/config"
	"cafeteria-meals/internal/logger"
	"cafeteria-meals/internal/model"
	"cafeteria-meals/internal/report"
	"cafeteria-meals/internal/storage"
	"cafeteria-meals/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type JobProducer interface {
	EnqueueClaim(ctx context.Context, job model.ClaimJob) error
	EnqueueIngestionJob(ctx context.Context, job model.IngestionJob) error
}

type ClaimChecker interface {
	Check(ctx context.Context, studentCode string, slot model.MealSlot, at time.Time) error
}

type RosterFiles interface {
	CreateRosterFile(ctx context.Context, s3Path string, at time.Time) (*model.RosterFile, error)
	GetRosterFile(ctx context.Context, fileID int64) (*model.RosterFile, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	query      *report.Query
	aggregator *report.Aggregator
	claims     ClaimChecker
	rosters    RosterFiles
	storage    storage.Storage
	producer   JobProducer
	queue      Pinger
	cfg        *config.Config
	log        zerolog.Logger
}

func NewHandler(
	cfg *config.Config,
	query *report.Query,
	aggregator *report.Aggregator,
	claims ClaimChecker,
	rosters RosterFiles,
	storage storage.Storage,
	producer JobProducer,
) *Handler {
	return &Handler{
		query:      query,
		aggregator: aggregator,
		claims:     claims,
		rosters:    rosters,
		storage:    storage,
		producer:   producer,
		cfg:        cfg,
		log:        logger.Get(),
	}
}

// WithQueueHealth makes the health check also ping the job queue.
func (h *Handler) WithQueueHealth(queue Pinger) *Handler {
	h.queue = queue
	return h
}

func (h *Handler) HealthCheck(c *gin.Context) {
	status := http.StatusOK
	checks := gin.H{"database": "up"}

	if err := h.query.Health(c.Request.Context()); err != nil {
		h.log.Error().Err(err).Msg("Database health check failed")
		checks["database"] = "down"
		status = http.StatusServiceUnavailable
	}
	if h.queue != nil {
		checks["queue"] = "up"
		if err := h.queue.Ping(c.Request.Context()); err != nil {
			h.log.Error().Err(err).Msg("Queue health check failed")
			checks["queue"] = "down"
			status = http.StatusServiceUnavailable
		}
	}

	health := "healthy"
	if status != http.StatusOK {
		health = "unhealthy"
	}
	c.JSON(status, gin.H{
		"status":  health,
		"service": h.cfg.App.Name,
		"version": h.cfg.App.Version,
		"checks":  checks,
	})
}

func (h *Handler) ListRecentEvents(c *gin.Context) {
	rows, err := h.query.ListRecent(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

func (h *Handler) ListAllEvents(c *gin.Context) {
	rows, err := h.query.ListAll(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

func (h *Handler) ListTodayEvents(c *gin.Context) {
	events, err := h.query.ListToday(c.Request.Context(), strings.TrimSpace(c.Query("student_code")))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *Handler) SearchEvents(c *gin.Context) {
	filter, err := parseEventFilter(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	page, size := parsePagination(c)
	result, err := h.query.Search(c.Request.Context(), filter, page, size)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) ExportEvents(c *gin.Context) {
	filter, err := parseEventFilter(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	filename, data, err := h.query.Export(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.sendWorkbook(c, filename, data)
}

func (h *Handler) ExportAllEvents(c *gin.Context) {
	filename, data, err := h.query.ExportAll(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.sendWorkbook(c, filename, data)
}

func (h *Handler) sendWorkbook(c *gin.Context, filename string, data []byte) {
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (h *Handler) CountStudents(c *gin.Context) {
	total, err := h.query.CountStudents(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total})
}

func (h *Handler) CountStudentsToday(c *gin.Context) {
	total, err := h.query.CountStudentsToday(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total})
}

func (h *Handler) ListStudentsWithPlan(c *gin.Context) {
	students, err := h.query.ListStudentsWithPlan(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(students), "data": students})
}

func (h *Handler) SearchStudents(c *gin.Context) {
	search := model.StudentSearch{
		Code:  c.Query("code"),
		Name:  c.Query("name"),
		Grade: strings.ToUpper(c.Query("grade")),
	}

	students, err := h.query.SearchStudents(c.Request.Context(), search)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(students), "data": students})
}

func (h *Handler) TodayDashboard(c *gin.Context) {
	breakdown, err := h.aggregator.TodayBreakdown(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, breakdown)
}

func (h *Handler) MonthDashboard(c *gin.Context) {
	year, month, status, err := parseMonth(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	consumption, err := h.aggregator.MonthlyConsumption(c.Request.Context(), year, month, status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, consumption)
}

func (h *Handler) PlanDashboard(c *gin.Context) {
	totals, err := h.aggregator.PlanTotals(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

// SubmitClaim checks the claim and queues it for the claim worker.
func (h *Handler) SubmitClaim(c *gin.Context) {
	var req model.ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	slot, ok := model.ParseMealSlot(req.Slot)
	if !ok {
		h.respondError(c, fmt.Errorf("%w: %q", errors.ErrInvalidSlot, req.Slot))
		return
	}

	job := model.ClaimJob{
		RequestID:   c.GetString("request_id"),
		StudentCode: strings.TrimSpace(req.StudentCode),
		Slot:        slot,
		ClaimedAt:   time.Now(),
	}
	if job.RequestID == "" {
		job.RequestID = uuid.NewString()
	}

	if err := h.claims.Check(c.Request.Context(), job.StudentCode, job.Slot, job.ClaimedAt); err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.producer.EnqueueClaim(c.Request.Context(), job); err != nil {
		h.log.Error().Err(err).Str("request_id", job.RequestID).Msg("Failed to enqueue claim")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to queue claim"})
		return
	}

	h.log.Info().
		Str("request_id", job.RequestID).
		Str("student_code", job.StudentCode).
		Str("slot", string(job.Slot)).
		Msg("Claim enqueued")

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Claim queued",
		"job":     job,
	})
}

// RegisterRoster records an uploaded roster file and queues its import.
func (h *Handler) RegisterRoster(c *gin.Context) {
	var req model.RosterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	s3Path := strings.TrimSpace(req.S3Path)

	if h.storage != nil {
		exists, err := h.storage.Exists(c.Request.Context(), s3Path)
		if err != nil {
			h.log.Error().Err(err).Str("s3_path", s3Path).Msg("Failed to check roster file")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Storage unavailable"})
			return
		}
		if !exists {
			c.JSON(http.StatusNotFound, gin.H{"error": "Roster file not found in storage"})
			return
		}
	}

	file, err := h.rosters.CreateRosterFile(c.Request.Context(), s3Path, time.Now())
	if err != nil {
		h.respondError(c, err)
		return
	}

	job := model.IngestionJob{FileID: file.ID, S3Path: file.S3Path}
	if err := h.producer.EnqueueIngestionJob(c.Request.Context(), job); err != nil {
		h.log.Error().Err(err).Int64("file_id", file.ID).Msg("Failed to enqueue roster import")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to queue roster import"})
		return
	}

	h.log.Info().Int64("file_id", file.ID).Str("s3_path", s3Path).Msg("Roster import enqueued")
	c.JSON(http.StatusAccepted, file)
}

func (h *Handler) GetRosterStatus(c *gin.Context) {
	fileID, err := strconv.ParseInt(c.Param("file_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file ID"})
		return
	}

	file, err := h.rosters.GetRosterFile(c.Request.Context(), fileID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, file)
}
