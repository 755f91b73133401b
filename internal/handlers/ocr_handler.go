package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/lector/internal/common"
	"github.com/ternarybob/lector/internal/interfaces"
	"github.com/ternarybob/lector/internal/models"
)

// OCRHandler exposes the document ingestion pipeline over HTTP.
type OCRHandler struct {
	pipeline interfaces.PipelineService
	validate *validator.Validate
	logger   arbor.ILogger
}

// NewOCRHandler creates the OCR endpoint handler.
func NewOCRHandler(pipeline interfaces.PipelineService) *OCRHandler {
	return &OCRHandler{
		pipeline: pipeline,
		validate: validator.New(),
		logger:   common.GetLogger(),
	}
}

// ProcessHandler accepts a document reference and returns the full result
// bundle. Input and decode problems map to 4xx; anything else is a 500.
func (h *OCRHandler) ProcessHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req models.OCRRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON request body")
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		h.logger.Warn().Err(err).Msg("Request validation failed")
		WriteError(w, http.StatusBadRequest, "fileUrl must be a valid URL and fileType must be 'pdf' or 'image'")
		return
	}

	result, err := h.pipeline.Process(r.Context(), req)
	if err != nil {
		h.writeProcessError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, models.OCRResponse{
		RawText:     result.RawText,
		CleanedText: result.CleanedText,
		LLMText:     result.LLMText,
		Concepts:    result.Concepts,
	})
}

func (h *OCRHandler) writeProcessError(w http.ResponseWriter, err error) {
	switch {
	case models.IsInputError(err):
		h.logger.Warn().Err(err).Msg("Rejected document request")
		WriteError(w, http.StatusBadRequest, err.Error())
	case models.IsDecodeError(err):
		h.logger.Warn().Err(err).Msg("Undecodable document")
		WriteError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.Error().Err(err).Msg("Pipeline failed")
		WriteError(w, http.StatusInternalServerError, "Document processing failed")
	}
}
