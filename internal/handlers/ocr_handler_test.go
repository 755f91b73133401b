package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/lector/internal/models"
)

// mockPipeline implements interfaces.PipelineService with a func field.
type mockPipeline struct {
	processFunc func(ctx context.Context, req models.OCRRequest) (*models.PipelineResult, error)
}

func (m *mockPipeline) Process(ctx context.Context, req models.OCRRequest) (*models.PipelineResult, error) {
	return m.processFunc(ctx, req)
}

func postOCR(t *testing.T, handler *OCRHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/ocr", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ProcessHandler(rec, req)
	return rec
}

func TestOCRHandler_Success(t *testing.T) {
	handler := NewOCRHandler(&mockPipeline{
		processFunc: func(_ context.Context, req models.OCRRequest) (*models.PipelineResult, error) {
			assert.Equal(t, "pdf", req.FileType)
			return &models.PipelineResult{
				RawText:     "raw",
				CleanedText: "cleaned",
				LLMText:     "refined",
				Concepts:    []string{"Information Storage"},
			}, nil
		},
	})

	rec := postOCR(t, handler, `{"fileUrl":"https://example.com/doc.pdf","fileType":"pdf"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.OCRResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "raw", resp.RawText)
	assert.Equal(t, "cleaned", resp.CleanedText)
	assert.Equal(t, "refined", resp.LLMText)
	assert.Equal(t, []string{"Information Storage"}, resp.Concepts)
}

func TestOCRHandler_Validation(t *testing.T) {
	handler := NewOCRHandler(&mockPipeline{
		processFunc: func(_ context.Context, _ models.OCRRequest) (*models.PipelineResult, error) {
			t.Fatal("pipeline must not run on invalid input")
			return nil, nil
		},
	})

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"fileUrl": `},
		{"missing url", `{"fileType":"pdf"}`},
		{"not a url", `{"fileUrl":"not-a-url","fileType":"pdf"}`},
		{"unsupported type", `{"fileUrl":"https://example.com/a.docx","fileType":"docx"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postOCR(t, handler, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestOCRHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"input error", models.NewInputError("unsupported fileType"), http.StatusBadRequest},
		{"decode error", models.NewDecodeError("unreadable page image", errors.New("bad png")), http.StatusUnprocessableEntity},
		{"internal error", errors.New("tesseract exploded"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewOCRHandler(&mockPipeline{
				processFunc: func(_ context.Context, _ models.OCRRequest) (*models.PipelineResult, error) {
					return nil, tt.err
				},
			})

			rec := postOCR(t, handler, `{"fileUrl":"https://example.com/doc.pdf","fileType":"pdf"}`)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestOCRHandler_MethodNotAllowed(t *testing.T) {
	handler := NewOCRHandler(&mockPipeline{})

	req := httptest.NewRequest(http.MethodGet, "/api/ocr", nil)
	rec := httptest.NewRecorder()
	handler.ProcessHandler(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
