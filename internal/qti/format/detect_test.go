package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Format
	}{
		{"xml", `<assessmentItem identifier="a"/>`, XML},
		{"json object", `{"@type":"assessmentItem"}`, JSON},
		{"padded json", "\n  {\"a\": 1}\n", JSON},
		{"broken json", `{"a": }`, XML},
		{"array", `[1,2]`, XML},
		{"empty", "", XML},
		{"text", "hello", XML},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.in))
			assert.Equal(t, tt.want == JSON, IsJSON(tt.in))
		})
	}
}
