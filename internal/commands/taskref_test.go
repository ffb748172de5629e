package commands

import (
	"errors"
	"testing"
)

func TestParseTaskID_Numeric(t *testing.T) {
	id, err := ParseTaskID([]string{"5"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 5 {
		t.Errorf("expected id 5, got %d", id)
	}
}

func TestParseTaskID_HashPrefix(t *testing.T) {
	id, err := ParseTaskID([]string{"#128"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 128 {
		t.Errorf("expected id 128, got %d", id)
	}
}

func TestParseTaskID_Missing(t *testing.T) {
	_, err := ParseTaskID(nil)
	if !errors.Is(err, ErrTaskIDRequired) {
		t.Errorf("expected ErrTaskIDRequired, got %v", err)
	}
}

func TestParseTaskID_Invalid(t *testing.T) {
	tests := []struct {
		args     []string
		expected string
	}{
		{[]string{"abc"}, "invalid task id: abc"},
		{[]string{"#"}, "invalid task id: #"},
		{[]string{"0"}, "invalid task id: 0"},
		{[]string{"-3"}, "invalid task id: -3"},
		{[]string{"١٢"}, "invalid task id: ١٢"},
		{[]string{"99999999999999999999"}, "invalid task id: 99999999999999999999"},
		{[]string{"1", "2"}, "unexpected argument: 2"},
	}
	for _, tt := range tests {
		_, err := ParseTaskID(tt.args)
		if err == nil {
			t.Errorf("ParseTaskID(%q): expected error", tt.args)
			continue
		}
		if err.Error() != tt.expected {
			t.Errorf("ParseTaskID(%q): expected %q, got %q", tt.args, tt.expected, err.Error())
		}
	}
}

func TestIsAllDigits(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"", false},
		{"0", true},
		{"123", true},
		{"12a", false},
		{" 1", false},
	}
	for _, tt := range tests {
		if got := isAllDigits(tt.input); got != tt.expected {
			t.Errorf("isAllDigits(%q) = %v, expected %v", tt.input, got, tt.expected)
		}
	}
}
