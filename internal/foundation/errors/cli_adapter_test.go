package errors

import (
	"log/slog"
	"strings"
	"testing"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: 0,
		},
		{
			name: "classified validation error",
			err: NewError(CategoryValidation, "invalid input").
				WithSeverity(SeverityError).
				Build(),
			expected: 2,
		},
		{
			name:     "config error",
			err:      ConfigError("bad config").Build(),
			expected: 7,
		},
		{
			name:     "network error",
			err:      NetworkError("port already in use").Build(),
			expected: 8,
		},
		{
			name:     "window error",
			err:      WindowError("no chrome runtime").Build(),
			expected: 9,
		},
		{
			name:     "filesystem error",
			err:      FileSystemError("asset directory missing").Build(),
			expected: 11,
		},
		{
			name:     "launch error",
			err:      LaunchError("already running").Build(),
			expected: 12,
		},
		{
			name:     "unclassified error",
			err:      &customError{msg: "unknown error"},
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := adapter.ExitCodeFor(tt.err)
			if got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		contains string
	}{
		{
			name:     "nil error",
			err:      nil,
			contains: "",
		},
		{
			name: "classified error in non-verbose mode",
			err: NewError(CategoryNetwork, "service startup failed").
				WithSeverity(SeverityFatal).
				Build(),
			contains: "service startup failed",
		},
		{
			name: "classified error with cause",
			err: WrapError(&customError{msg: "bind: address already in use"},
				CategoryNetwork, "service startup failed").Build(),
			contains: "address already in use",
		},
		{
			name:     "unclassified error",
			err:      &customError{msg: "unknown error"},
			contains: "Error: unknown error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := adapter.FormatError(tt.err)
			if tt.contains == "" {
				if got != "" {
					t.Errorf("FormatError() = %q, want empty string", got)
				}
				return
			}
			if !strings.Contains(got, tt.contains) {
				t.Errorf("FormatError() = %q, want to contain %q", got, tt.contains)
			}
		})
	}
}

func TestCLIErrorAdapter_VerboseFormat(t *testing.T) {
	adapter := NewCLIErrorAdapter(true, slog.Default())

	err := NetworkError("bind failed").Build()
	got := adapter.FormatError(err)
	if !strings.Contains(got, "[network:error]") {
		t.Errorf("verbose FormatError() = %q, want classification prefix", got)
	}
}

// customError is a test helper for unclassified errors
type customError struct {
	msg string
}

func (e *customError) Error() string {
	return e.msg
}
