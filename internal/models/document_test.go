package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDocumentType(t *testing.T) {
	tests := []struct {
		input   string
		want    DocumentType
		wantErr bool
	}{
		{"pdf", DocumentTypePDF, false},
		{"image", DocumentTypeImage, false},
		{"PDF", DocumentTypePDF, false},
		{" image ", DocumentTypeImage, false},
		{"docx", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDocumentType(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, IsInputError(err))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
