package models

import (
	"fmt"
	"strings"
)

// DocumentType identifies the declared format of a source document.
type DocumentType string

const (
	DocumentTypePDF   DocumentType = "pdf"
	DocumentTypeImage DocumentType = "image"
)

// ParseDocumentType converts a request fileType value into a DocumentType.
// Anything outside {pdf, image} is an input error, rejected before any I/O.
func ParseDocumentType(s string) (DocumentType, error) {
	switch DocumentType(strings.ToLower(strings.TrimSpace(s))) {
	case DocumentTypePDF:
		return DocumentTypePDF, nil
	case DocumentTypeImage:
		return DocumentTypeImage, nil
	default:
		return "", NewInputError(fmt.Sprintf("unsupported fileType '%s': use pdf or image", s))
	}
}

// SourceDocument is the fetched document payload plus its declared type.
// It is immutable after construction and consumed once by the OCR orchestrator.
type SourceDocument struct {
	Bytes []byte
	Type  DocumentType
}

// Page is a single raster page of a source document. An image document has
// exactly one page; a PDF has one per rasterized page, in document order.
type Page struct {
	Index     int
	ImageData []byte
}

// PageText is the OCR output for one page, keyed by the page's ordinal so
// results can be re-ordered after parallel recognition.
type PageText struct {
	PageIndex int    `json:"pageIndex"`
	Text      string `json:"text"`
}

// RejectionReason explains why a refinement result fell back to its input.
type RejectionReason string

const (
	RejectionNone             RejectionReason = ""
	RejectionDisabled         RejectionReason = "refinement disabled or unconfigured"
	RejectionEmptyInput       RejectionReason = "empty input text"
	RejectionNoCandidates     RejectionReason = "no candidates returned"
	RejectionTruncatedStop    RejectionReason = "candidate cut off for non-length reason"
	RejectionNoText           RejectionReason = "candidate has no extractable text"
	RejectionExpansion        RejectionReason = "excessive length expansion"
	RejectionLowCoverage      RejectionReason = "keyword coverage below threshold"
	RejectionPermanentFailure RejectionReason = "permanent provider failure"
	RejectionRetriesExhausted RejectionReason = "retry attempts exhausted"
)

// RefinementResult carries either an accepted rewrite or the verbatim fallback
// text together with the reason the rewrite was rejected. Fallback is an
// explicit branch here, never a nil check at the caller.
type RefinementResult struct {
	Text            string
	Accepted        bool
	RejectionReason RejectionReason
}

// ConceptTier records which extraction rule produced a candidate. Tiers order
// the final concept list; they never re-admit a rejected phrase.
type ConceptTier int

const (
	TierHeading ConceptTier = iota
	TierEmphasis
	TierBullet
	TierColonHeading
	TierStatistical
)

// ConceptCandidate is a study concept phrase before final admission.
// NormalizedKey (case-folded, whitespace-collapsed) is the dedup identity.
type ConceptCandidate struct {
	DisplayPhrase string
	NormalizedKey string
	SourceTier    ConceptTier
}

// PipelineResult is the externally visible output bundle. LLMText is always
// populated: either a validated external rewrite or CleanedText verbatim.
type PipelineResult struct {
	RawText     string   `json:"rawText"`
	CleanedText string   `json:"cleanedText"`
	LLMText     string   `json:"llmText"`
	Concepts    []string `json:"concepts"`
}
