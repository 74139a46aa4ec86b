package diagnose

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domaindiagnose "stitchsense-server-go/internal/domain/diagnose"
	"stitchsense-server-go/internal/domain/orchestrator"
	"stitchsense-server-go/internal/platform/config"
	"stitchsense-server-go/internal/platform/errors"
	"stitchsense-server-go/internal/platform/logging"
	httptransport "stitchsense-server-go/internal/transport/http"
)

// DiagnosisData is the success payload for one diagnosis.
type DiagnosisData struct {
	RequestID      string `json:"request_id"`
	Transcription  string `json:"transcription"`
	VisionAnalysis string `json:"visionAnalysis"`
	Analysis       string `json:"analysis"`
}

// Service exposes the diagnosis pipeline over HTTP.
type Service struct {
	logger *logging.Logger
	config *config.Config
	orch   *orchestrator.Orchestrator
}

// NewService creates the diagnosis HTTP service.
func NewService(cfg *config.Config, logger *logging.Logger, orch *orchestrator.Orchestrator) (*Service, error) {
	if cfg == nil {
		return nil, errors.New(errors.KindConfig, "diagnose.new", "config is required")
	}
	if orch == nil {
		return nil, errors.New(errors.KindConfig, "diagnose.new", "orchestrator is required")
	}
	if logger == nil {
		logger = logging.DefaultLogger
	}

	return &Service{logger: logger, config: cfg, orch: orch}, nil
}

// Register mounts the diagnosis routes.
func (s *Service) Register(ctx context.Context, router *gin.RouterGroup) error {
	router.GET("/diagnose", s.handleGet)
	router.POST("/diagnose", s.handlePost)
	router.GET("/diagnoses", s.handleRecent)

	s.logger.InfoTag("HTTP", "diagnosis routes registered")
	return nil
}

func (s *Service) handleGet(c *gin.Context) {
	c.String(http.StatusOK, "diagnosis service is running")
}

func (s *Service) handleRecent(c *gin.Context) {
	records, err := s.orch.Records().Recent(20)
	if err != nil {
		s.logger.ErrorTag("Diagnose", "list recent diagnoses: %v", err)
		httptransport.RespondError(c, http.StatusInternalServerError, "failed to list diagnoses")
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, records, "")
}

func (s *Service) handlePost(c *gin.Context) {
	req, err := s.parseRequest(c)
	if err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, err.Error())
		s.logger.Warn("diagnosis request rejected: %v", err)
		return
	}

	result, err := s.orch.Diagnose(c.Request.Context(), req)
	if err != nil {
		if errors.IsKind(err, errors.KindValidation) {
			httptransport.RespondError(c, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.ErrorTag("Diagnose", "request %s failed: %v", req.RequestID, err)
		httptransport.RespondError(c, http.StatusInternalServerError, "Failed to analyze the garment.")
		return
	}

	httptransport.RespondSuccess(c, http.StatusOK, DiagnosisData{
		RequestID:      req.RequestID,
		Transcription:  result.Transcription,
		VisionAnalysis: result.VisionAnalysis,
		Analysis:       result.RepairGuide,
	}, "diagnosis complete")
}

// parseRequest accepts multipart form data: a required image (file upload or
// base64/data-URL field), an optional audio file and an optional text field.
func (s *Service) parseRequest(c *gin.Context) (*domaindiagnose.Request, error) {
	if err := c.Request.ParseMultipartForm(s.config.Server.MaxUploadSize); err != nil {
		return nil, errors.Wrap(errors.KindTransport, "diagnose.parse", "failed to parse multipart form", err)
	}

	req := &domaindiagnose.Request{
		RequestID: uuid.NewString(),
		UserText:  c.Request.FormValue("text"),
	}

	if file, header, err := c.Request.FormFile("image"); err == nil {
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, s.config.Server.MaxUploadSize+1))
		if err != nil {
			return nil, errors.Wrap(errors.KindTransport, "diagnose.parse", "failed to read image upload", err)
		}
		req.Image = data
		req.ImageMime = header.Header.Get("Content-Type")
	} else if field := c.Request.FormValue("image"); field != "" {
		data, mime, err := httptransport.DecodeImageField(field)
		if err != nil {
			return nil, errors.Wrap(errors.KindTransport, "diagnose.parse", "invalid image field", err)
		}
		req.Image = data
		req.ImageMime = mime
	} else {
		return nil, errors.New(errors.KindTransport, "diagnose.parse", "image is required")
	}

	if file, header, err := c.Request.FormFile("audio"); err == nil {
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, errors.Wrap(errors.KindTransport, "diagnose.parse", "failed to read audio upload", err)
		}
		req.Audio = data
		req.AudioMime = header.Header.Get("Content-Type")
	}

	return req, nil
}
