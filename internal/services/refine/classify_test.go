package refine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyProviderError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errorClass
	}{
		{"http 429", errors.New("googleapi: Error 429: rate limit exceeded"), errTransient},
		{"resource exhausted", errors.New("rpc error: code = RESOURCE_EXHAUSTED desc = quota exceeded"), errTransient},
		{"service unavailable", errors.New("503 Service Unavailable"), errTransient},
		{"overloaded", errors.New("Overloaded, please retry"), errTransient},
		{"model not found", errors.New("404: model not found"), errPermanent},
		{"invalid api key", errors.New("401: invalid API key"), errPermanent},
		{"unclassified", errors.New("something odd happened"), errPermanent},
		{"nil", nil, errPermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyProviderError(tt.err))
		})
	}
}
