package preview

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"stitchsense-server-go/internal/domain/orchestrator"
	domainpreview "stitchsense-server-go/internal/domain/preview"
	"stitchsense-server-go/internal/platform/config"
	"stitchsense-server-go/internal/platform/errors"
	"stitchsense-server-go/internal/platform/logging"
	httptransport "stitchsense-server-go/internal/transport/http"
)

// GenerateRequest is the JSON body for one preview call. Image carries the
// original photo as a data URL or bare base64; MimeType is only consulted
// when the data URL has none.
type GenerateRequest struct {
	Image            string `json:"image"`
	MimeType         string `json:"mime_type"`
	IssueDescription string `json:"issue_description"`
}

// PreviewData is the response payload. Available=false means no preview
// could be rendered; the diagnosis stands on its own.
type PreviewData struct {
	RequestID string `json:"request_id"`
	Available bool   `json:"available"`
	Image     string `json:"image,omitempty"`
}

// Service exposes the preview pipeline over HTTP.
type Service struct {
	logger *logging.Logger
	config *config.Config
	orch   *orchestrator.Orchestrator
}

// NewService creates the preview HTTP service.
func NewService(cfg *config.Config, logger *logging.Logger, orch *orchestrator.Orchestrator) (*Service, error) {
	if cfg == nil {
		return nil, errors.New(errors.KindConfig, "preview.new", "config is required")
	}
	if orch == nil {
		return nil, errors.New(errors.KindConfig, "preview.new", "orchestrator is required")
	}
	if logger == nil {
		logger = logging.DefaultLogger
	}

	return &Service{logger: logger, config: cfg, orch: orch}, nil
}

// Register mounts the preview routes.
func (s *Service) Register(ctx context.Context, router *gin.RouterGroup) error {
	router.GET("/preview", s.handleGet)
	router.POST("/preview", s.handlePost)

	s.logger.InfoTag("HTTP", "preview routes registered")
	return nil
}

func (s *Service) handleGet(c *gin.Context) {
	c.String(http.StatusOK, "preview service is running")
}

func (s *Service) handlePost(c *gin.Context) {
	var body GenerateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	data, mime, err := httptransport.DecodeImageField(body.Image)
	if err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if mime == "" {
		mime = body.MimeType
	}

	req := &domainpreview.Request{
		RequestID:        uuid.NewString(),
		Image:            data,
		ImageMime:        mime,
		IssueDescription: body.IssueDescription,
	}

	result, err := s.orch.GeneratePreview(c.Request.Context(), req)
	if err != nil {
		if errors.IsKind(err, errors.KindValidation) {
			httptransport.RespondError(c, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.ErrorTag("Preview", "request %s failed: %v", req.RequestID, err)
		httptransport.RespondError(c, http.StatusInternalServerError, "Failed to generate the preview.")
		return
	}

	httptransport.RespondSuccess(c, http.StatusOK, PreviewData{
		RequestID: req.RequestID,
		Available: result.Available,
		Image:     result.ImageDataOrURL,
	}, "preview complete")
}
