package http

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vertexuniv/admission-workflow/internal/application/service"
)

// WebhookHandlers serves the public intake surface used by the university
// website. It exposes no staff actions and no internal state beyond the
// applicant-facing status.
type WebhookHandlers struct {
	admissions *service.AdmissionService
	apiKey     string
	logger     Logger
}

// NewWebhookHandlers creates the public intake handlers
func NewWebhookHandlers(admissions *service.AdmissionService, apiKey string, logger Logger) *WebhookHandlers {
	return &WebhookHandlers{admissions: admissions, apiKey: apiKey, logger: logger}
}

// authMiddleware checks the static API key shared with the website
func (w *WebhookHandlers) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-API-Key")
		if w.apiKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(w.apiKey)) != 1 {
			w.logger.Warn("Webhook request with invalid API key", "client_ip", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "invalid API key",
			})
			return
		}
		c.Next()
	}
}

// SubmitApplication handles POST /webhook/admission
func (w *WebhookHandlers) SubmitApplication(c *gin.Context) {
	var req ApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	in, err := req.toInput("WEBSITE")
	if err != nil {
		w.respondError(c, err)
		return
	}

	app, err := w.admissions.Submit(c.Request.Context(), in, service.System)
	if err != nil {
		w.respondError(c, err)
		return
	}

	label := w.admissions.StatusLabel(app.Status)
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data: gin.H{
			"reference_number": app.Reference(),
			"status":           app.Status.String(),
			"status_label":     label.EN,
			"status_label_ar":  label.AR,
			"submitted_at":     app.SubmittedAt,
		},
	})
}

// ApplicationStatus handles GET /webhook/admission/status/:reference.
// The path segment accepts a reference number, the applicant's email, or
// their national id.
func (w *WebhookHandlers) ApplicationStatus(c *gin.Context) {
	key := c.Param("reference")
	if key == "" {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "missing lookup key"})
		return
	}

	app, err := w.admissions.GetByLookup(c.Request.Context(), key)
	if err != nil {
		w.respondError(c, err)
		return
	}

	label := w.admissions.StatusLabel(app.Status)
	data := gin.H{
		"reference_number": app.Reference(),
		"full_name":        app.FullName,
		"status":           app.Status.String(),
		"status_label":     label.EN,
		"status_label_ar":  label.AR,
		"submitted_at":     app.SubmittedAt,
	}
	if app.FeeRequested() {
		data["registration_fee"] = app.RegistrationFee.Decimal.StringFixed(2)
	}
	if app.IsProvisioned() {
		data["student_number"] = *app.StudentID
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// ListPrograms handles GET /webhook/programs
func (w *WebhookHandlers) ListPrograms(c *gin.Context) {
	programs, err := w.admissions.Programs(c.Request.Context())
	if err != nil {
		w.respondError(c, err)
		return
	}

	out := make([]gin.H, 0, len(programs))
	for _, p := range programs {
		out = append(out, gin.H{
			"id":             p.ID,
			"code":           p.Code,
			"name_en":        p.NameEn,
			"name_ar":        p.NameAr,
			"degree_type":    p.DegreeType,
			"duration_years": p.DurationYears,
		})
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: out})
}

// respondError reuses the staff handlers' error mapping
func (w *WebhookHandlers) respondError(c *gin.Context, err error) {
	(&Handlers{logger: w.logger}).respondError(c, err)
}
