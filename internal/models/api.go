package models

// OCRRequest is the inbound contract for document processing.
// Validated with go-playground/validator before any work starts.
type OCRRequest struct {
	FileURL  string `json:"fileUrl" validate:"required,url"`
	FileType string `json:"fileType" validate:"required,oneof=pdf image"`
}

// OCRResponse mirrors PipelineResult on the wire.
type OCRResponse struct {
	RawText     string   `json:"rawText"`
	CleanedText string   `json:"cleanedText"`
	LLMText     string   `json:"llmText"`
	Concepts    []string `json:"concepts"`
}
