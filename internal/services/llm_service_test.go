package services

import (
	"errors"
	"fmt"
	"math"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestClassifyModelError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantFiltered bool
	}{
		{
			"content filter code",
			&openai.APIError{Code: "content_filter", Message: "filtered"},
			true,
		},
		{
			"content filter in message",
			&openai.APIError{Code: "400", Message: "The response was filtered: content_filter"},
			true,
		},
		{
			"jailbreak detection",
			&openai.APIError{Code: "400", Message: "jailbreak attempt detected"},
			true,
		},
		{
			"ordinary api error",
			&openai.APIError{Code: "429", Message: "rate limited"},
			false,
		},
		{
			"transport error",
			errors.New("connection refused"),
			false,
		},
		{
			"wrapped filter error",
			fmt.Errorf("call failed: %w", &openai.APIError{Code: "content_filter", Message: ""}),
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyModelError(tt.err)
			if filtered := errors.Is(got, ErrContentFiltered); filtered != tt.wantFiltered {
				t.Errorf("classifyModelError(%v) filtered = %v, want %v", tt.err, filtered, tt.wantFiltered)
			}
		})
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1.0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"opposite", []float32{0, 2}, []float32{0, -2}, -1.0},
		{"length mismatch", []float32{1}, []float32{1, 2}, 0.0},
		{"empty", nil, nil, 0.0},
		{"zero vector", []float32{0, 0}, []float32{3, 4}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity = %f, want %f", got, tt.want)
			}
		})
	}
}
