package assignment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		in      string
		want    Type
		wantErr error
	}{
		{in: "mcq", want: TypeMCQ},
		{in: " MCQ ", want: TypeMCQ},
		{in: "descriptive", want: TypeDescriptive},
		{in: "description", want: TypeDescriptive},
		{in: "file", want: TypeFile},
		{in: "problem", want: TypeProblem},
		{in: "prob", want: TypeProblem},
		{in: "essay", wantErr: ErrInvalidType},
		{in: "", wantErr: ErrInvalidType},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseType(tt.in)
			assert.Equal(t, tt.wantErr, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeOptions(t *testing.T) {
	assert.Equal(t, []string{"A", "B"}, DecodeOptions(`["A","B"]`))
	assert.Equal(t, []string{}, DecodeOptions(""))
	assert.Equal(t, []string{}, DecodeOptions("A, B"))
	assert.Equal(t, []string{}, DecodeOptions(`{"a": 1}`))
}
