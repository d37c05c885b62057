package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/vertexuniv/admission-workflow/internal/application/port"
	"github.com/vertexuniv/admission-workflow/internal/application/service"
	"github.com/vertexuniv/admission-workflow/internal/domain/workflow"
)

const actorKey = "actor"

// Handlers contains the staff-facing HTTP request handlers
type Handlers struct {
	admissions *service.AdmissionService
	statistics *service.StatisticsService
	notices    port.NotificationRepository
	logger     Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	admissions *service.AdmissionService,
	statistics *service.StatisticsService,
	notices port.NotificationRepository,
	logger Logger,
) *Handlers {
	return &Handlers{
		admissions: admissions,
		statistics: statistics,
		notices:    notices,
		logger:     logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// staffMiddleware resolves the acting staff member from the identity headers
// set by the authenticating gateway
func staffMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.GetHeader("X-Staff-ID"), 10, 64)
		role := workflow.Role(strings.ToUpper(c.GetHeader("X-Staff-Role")))
		if err != nil || id <= 0 || !role.IsValid() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "missing or invalid staff identity",
			})
			return
		}
		c.Set(actorKey, service.Actor{ID: id, Role: role})
		c.Next()
	}
}

func actorFrom(c *gin.Context) service.Actor {
	return c.MustGet(actorKey).(service.Actor)
}

// respondError maps workflow errors onto HTTP status codes for the
// submission and read endpoints, where rejected input is a 422. Typed errors
// carry their structure into the response body so clients can act on it.
func (h *Handlers) respondError(c *gin.Context, err error) {
	h.writeError(c, err, http.StatusUnprocessableEntity)
}

// respondActionError is the mapping for the transition endpoints: a guard or
// input failure against an existing application is a 400 there, like an
// illegal transition.
func (h *Handlers) respondActionError(c *gin.Context, err error) {
	h.writeError(c, err, http.StatusBadRequest)
}

func (h *Handlers) writeError(c *gin.Context, err error, validationStatus int) {
	var (
		transitionErr   *workflow.TransitionError
		forbiddenErr    *workflow.ForbiddenError
		validationErr   *workflow.ValidationError
		provisioningErr *workflow.ProvisioningError
	)

	switch {
	case errors.As(err, &transitionErr):
		allowed := make([]string, 0, len(transitionErr.Allowed))
		for _, a := range transitionErr.Allowed {
			allowed = append(allowed, a.String())
		}
		legalFrom := make([]string, 0, len(transitionErr.LegalFrom))
		for _, s := range transitionErr.LegalFrom {
			legalFrom = append(legalFrom, s.String())
		}
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   transitionErr.Error(),
			Details: gin.H{
				"current_status":  transitionErr.Current.String(),
				"action":          transitionErr.Action.String(),
				"allowed_actions": allowed,
				"legal_from":      legalFrom,
			},
		})

	case errors.As(err, &forbiddenErr):
		c.JSON(http.StatusForbidden, Response{Success: false, Error: forbiddenErr.Error()})

	case errors.As(err, &validationErr):
		c.JSON(validationStatus, Response{
			Success: false,
			Error:   validationErr.Error(),
			Details: gin.H{"field": validationErr.Field, "reason": validationErr.Reason},
		})

	case errors.Is(err, workflow.ErrValidation):
		c.JSON(validationStatus, Response{Success: false, Error: err.Error()})

	case errors.Is(err, workflow.ErrNotFound):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "application not found"})

	case errors.Is(err, workflow.ErrConflict):
		c.JSON(http.StatusConflict, Response{Success: false, Error: "conflicting concurrent update, retry the request"})

	case errors.As(err, &provisioningErr):
		h.logger.Error("Provisioning failed", "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "student account provisioning failed, the approval was rolled back"})

	default:
		h.logger.Error("Request failed", "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "internal error"})
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid application id"})
		return 0, false
	}
	return id, true
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// ApplicationRequest carries a staff-entered application
type ApplicationRequest struct {
	ProgramID       int64    `json:"program_id"`
	ProgramCode     string   `json:"program_code"`
	FullName        string   `json:"full_name" binding:"required"`
	FullNameAr      string   `json:"full_name_ar"`
	Email           string   `json:"email" binding:"required,email"`
	Phone           string   `json:"phone" binding:"required"`
	NationalID      string   `json:"national_id" binding:"required"`
	DateOfBirth     string   `json:"date_of_birth" binding:"required"`
	Gender          string   `json:"gender" binding:"required"`
	Nationality     string   `json:"nationality" binding:"required"`
	Country         string   `json:"country"`
	City            string   `json:"city"`
	Address         string   `json:"address"`
	HighSchoolName  string   `json:"high_school_name"`
	HighSchoolScore *float64 `json:"high_school_score"`
	HighSchoolYear  *int     `json:"high_school_year"`
	Documents       string   `json:"documents"`
	Notes           string   `json:"notes"`
}

func (r *ApplicationRequest) toInput(source string) (service.SubmitInput, error) {
	dob, err := time.Parse("2006-01-02", r.DateOfBirth)
	if err != nil {
		return service.SubmitInput{}, &workflow.ValidationError{Field: "date_of_birth", Reason: "expected YYYY-MM-DD"}
	}
	return service.SubmitInput{
		ProgramID:       r.ProgramID,
		ProgramCode:     r.ProgramCode,
		FullName:        r.FullName,
		FullNameAr:      r.FullNameAr,
		Email:           r.Email,
		Phone:           r.Phone,
		NationalID:      r.NationalID,
		DateOfBirth:     dob,
		Gender:          strings.ToUpper(r.Gender),
		Nationality:     r.Nationality,
		Country:         r.Country,
		City:            r.City,
		Address:         r.Address,
		HighSchoolName:  r.HighSchoolName,
		HighSchoolScore: r.HighSchoolScore,
		HighSchoolYear:  r.HighSchoolYear,
		Documents:       r.Documents,
		Notes:           r.Notes,
		Source:          source,
	}, nil
}

// CreateApplication handles POST /api/applications
func (h *Handlers) CreateApplication(c *gin.Context) {
	var req ApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	in, err := req.toInput("STAFF")
	if err != nil {
		h.respondError(c, err)
		return
	}

	app, err := h.admissions.Submit(c.Request.Context(), in, actorFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: app})
}

// ListApplicationsRequest represents query parameters for listing applications
type ListApplicationsRequest struct {
	Status    string `form:"status"`
	ProgramID int64  `form:"program_id"`
	Awaiting  bool   `form:"awaiting_action"`
	Limit     int    `form:"limit"`
	Offset    int    `form:"offset"`
}

// ListApplications handles GET /api/applications
func (h *Handlers) ListApplications(c *gin.Context) {
	var req ListApplicationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid query parameters"})
		return
	}

	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 15
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	filter := port.ApplicationFilter{
		ProgramID:      req.ProgramID,
		AwaitingAction: req.Awaiting,
		Limit:          req.Limit,
		Offset:         req.Offset,
	}
	if req.Status != "" {
		status := workflow.Status(strings.ToUpper(req.Status))
		if !status.IsValid() {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: "unknown status filter"})
			return
		}
		filter.Status = status
	}

	apps, total, err := h.admissions.List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"items":  apps,
			"total":  total,
			"limit":  req.Limit,
			"offset": req.Offset,
		},
	})
}

// GetApplication handles GET /api/applications/:id
func (h *Handlers) GetApplication(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	app, err := h.admissions.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	allowed := h.admissions.Machine().AllowedActions(app.Status)
	actions := make([]string, 0, len(allowed))
	for _, a := range allowed {
		actions = append(actions, a.String())
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"application":     app,
			"reference":       app.Reference(),
			"allowed_actions": actions,
		},
	})
}

// DeleteApplication handles DELETE /api/applications/:id
func (h *Handlers) DeleteApplication(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.admissions.Delete(c.Request.Context(), id, actorFrom(c)); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// NotesRequest carries an optional note for a transition
type NotesRequest struct {
	Notes string `json:"notes"`
}

// ReasonRequest carries a decision reason
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// StartReview handles POST /api/applications/:id/start-review
func (h *Handlers) StartReview(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	app, err := h.admissions.StartReview(c.Request.Context(), id, actorFrom(c))
	if err != nil {
		h.respondActionError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: app})
}

// VerifyDocuments handles POST /api/applications/:id/verify-documents
func (h *Handlers) VerifyDocuments(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req NotesRequest
	_ = c.ShouldBindJSON(&req)

	app, err := h.admissions.VerifyDocuments(c.Request.Context(), id, req.Notes, actorFrom(c))
	if err != nil {
		h.respondActionError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: app})
}

// RequestPaymentRequest carries the registration fee to charge
type RequestPaymentRequest struct {
	RegistrationFee decimal.Decimal `json:"registration_fee" binding:"required"`
}

// RequestPayment handles POST /api/applications/:id/request-payment
func (h *Handlers) RequestPayment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req RequestPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	app, err := h.admissions.RequestPayment(c.Request.Context(), id, req.RegistrationFee, actorFrom(c))
	if err != nil {
		h.respondActionError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: app})
}

// RecordPaymentRequest carries one fee payment from the finance desk
type RecordPaymentRequest struct {
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	Method        string          `json:"method" binding:"required"`
	BankName      string          `json:"bank_name"`
	ReceiptNumber string          `json:"receipt_number"`
	ReceiptPath   string          `json:"receipt_path"`
	Notes         string          `json:"notes"`
}

// RecordPayment handles POST /api/applications/:id/record-payment
func (h *Handlers) RecordPayment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	payment, app, err := h.admissions.RecordPayment(c.Request.Context(), id, service.RecordPaymentInput{
		Amount:        req.Amount,
		Method:        strings.ToUpper(req.Method),
		BankName:      req.BankName,
		ReceiptNumber: req.ReceiptNumber,
		ReceiptPath:   req.ReceiptPath,
		Notes:         req.Notes,
	}, actorFrom(c))
	if err != nil {
		h.respondActionError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"payment":     payment,
			"application": app,
		},
	})
}

// Approve handles POST /api/applications/:id/approve
func (h *Handlers) Approve(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	app, prov, err := h.admissions.Approve(c.Request.Context(), id, actorFrom(c))
	if err != nil {
		h.respondActionError(c, err)
		return
	}

	data := gin.H{"application": app}
	if prov != nil {
		data["student"] = prov.Student
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// Reject handles POST /api/applications/:id/reject
func (h *Handlers) Reject(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req ReasonRequest
	_ = c.ShouldBindJSON(&req)

	app, err := h.admissions.Reject(c.Request.Context(), id, req.Reason, actorFrom(c))
	if err != nil {
		h.respondActionError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: app})
}

// Waitlist handles POST /api/applications/:id/waitlist
func (h *Handlers) Waitlist(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req ReasonRequest
	_ = c.ShouldBindJSON(&req)

	app, err := h.admissions.Waitlist(c.Request.Context(), id, req.Reason, actorFrom(c))
	if err != nil {
		h.respondActionError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: app})
}

// Reopen handles POST /api/applications/:id/reopen
func (h *Handlers) Reopen(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	app, err := h.admissions.Reopen(c.Request.Context(), id, actorFrom(c))
	if err != nil {
		h.respondActionError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: app})
}

// WorkflowLogs handles GET /api/applications/:id/workflow-logs
func (h *Handlers) WorkflowLogs(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	logs, err := h.admissions.WorkflowLogs(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: logs})
}

// Payments handles GET /api/applications/:id/payments
func (h *Handlers) Payments(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	payments, err := h.admissions.Payments(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: payments})
}

// Statistics handles GET /api/statistics
func (h *Handlers) Statistics(c *gin.Context) {
	stats, err := h.statistics.Snapshot(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: stats})
}

// ListNotifications handles GET /api/notifications
func (h *Handlers) ListNotifications(c *gin.Context) {
	actor := actorFrom(c)
	unreadOnly := c.Query("unread") == "true"

	notices, err := h.notices.ListByRole(c.Request.Context(), actor.Role.String(), unreadOnly, 50)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: notices})
}

// MarkNotificationRead handles POST /api/notifications/:id/read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.notices.MarkRead(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}
