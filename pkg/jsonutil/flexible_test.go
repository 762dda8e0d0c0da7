package jsonutil

import (
	"encoding/json"
	"testing"
)

func TestFlexibleStringValue(t *testing.T) {
	tests := []struct {
		name  string
		input json.RawMessage
		want  string
	}{
		{
			name:  "string value",
			input: json.RawMessage(`"guns"`),
			want:  "guns",
		},
		{
			name:  "integer value",
			input: json.RawMessage(`42`),
			want:  "42",
		},
		{
			name:  "float value",
			input: json.RawMessage(`3.14`),
			want:  "3.14",
		},
		{
			name:  "boolean value",
			input: json.RawMessage(`true`),
			want:  "true",
		},
		{
			name:  "null value",
			input: json.RawMessage(`null`),
			want:  "",
		},
		{
			name:  "empty raw message",
			input: json.RawMessage{},
			want:  "",
		},
		{
			name:  "nil raw message",
			input: nil,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FlexibleStringValue(tt.input)
			if got != tt.want {
				t.Errorf("FlexibleStringValue(%s) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFlexibleStringSlice(t *testing.T) {
	tests := []struct {
		name  string
		input json.RawMessage
		want  []string
	}{
		{
			name:  "string array",
			input: json.RawMessage(`["firearm regulation", "gun control"]`),
			want:  []string{"firearm regulation", "gun control"},
		},
		{
			name:  "single string",
			input: json.RawMessage(`"gun control"`),
			want:  []string{"gun control"},
		},
		{
			name:  "comma separated string",
			input: json.RawMessage(`"gun control, firearm safety"`),
			want:  []string{"gun control", "firearm safety"},
		},
		{
			name:  "mixed type array",
			input: json.RawMessage(`["second amendment", 2, null]`),
			want:  []string{"second amendment", "2"},
		},
		{
			name:  "null value",
			input: json.RawMessage(`null`),
			want:  nil,
		},
		{
			name:  "whitespace only entries dropped",
			input: json.RawMessage(`["  ", "valid"]`),
			want:  []string{"valid"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FlexibleStringSlice(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("FlexibleStringSlice(%s) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("FlexibleStringSlice(%s)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFlexibleScore(t *testing.T) {
	tests := []struct {
		name  string
		input json.RawMessage
		want  float64
	}{
		{
			name:  "unit float",
			input: json.RawMessage(`0.92`),
			want:  0.92,
		},
		{
			name:  "percentage integer",
			input: json.RawMessage(`85`),
			want:  0.85,
		},
		{
			name:  "numeric string",
			input: json.RawMessage(`"0.5"`),
			want:  0.5,
		},
		{
			name:  "percentage string",
			input: json.RawMessage(`"75"`),
			want:  0.75,
		},
		{
			name:  "negative clamps to zero",
			input: json.RawMessage(`-0.3`),
			want:  0,
		},
		{
			name:  "over 100 clamps to one",
			input: json.RawMessage(`250`),
			want:  1,
		},
		{
			name:  "garbage returns zero",
			input: json.RawMessage(`"very relevant"`),
			want:  0,
		},
		{
			name:  "null returns zero",
			input: json.RawMessage(`null`),
			want:  0,
		},
		{
			name:  "exactly one stays one",
			input: json.RawMessage(`1`),
			want:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FlexibleScore(tt.input)
			if got != tt.want {
				t.Errorf("FlexibleScore(%s) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
