package exitcode

import (
	"testing"
)

func TestExitCodeConstants(t *testing.T) {
	if Success != 0 {
		t.Errorf("Success = %v, expected 0", Success)
	}
	if GeneralError != 1 {
		t.Errorf("GeneralError = %v, expected 1", GeneralError)
	}
	if ConfigError != 2 {
		t.Errorf("ConfigError = %v, expected 2", ConfigError)
	}
	if ValidationError != 3 {
		t.Errorf("ValidationError = %v, expected 3", ValidationError)
	}
	if FileSystemError != 4 {
		t.Errorf("FileSystemError = %v, expected 4", FileSystemError)
	}
	if NetworkError != 5 {
		t.Errorf("NetworkError = %v, expected 5", NetworkError)
	}
	if PublishBlocked != 6 {
		t.Errorf("PublishBlocked = %v, expected 6", PublishBlocked)
	}
	if TimeoutError != 7 {
		t.Errorf("TimeoutError = %v, expected 7", TimeoutError)
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{Success, "Success"},
		{GeneralError, "General error"},
		{ConfigError, "Configuration error"},
		{ValidationError, "Validation error"},
		{FileSystemError, "File system error"},
		{NetworkError, "Network error"},
		{PublishBlocked, "Publish blocked"},
		{TimeoutError, "Timeout error"},
		{42, "Unknown error"},
	}

	for _, test := range tests {
		if result := String(test.code); result != test.expected {
			t.Errorf("String(%d) = %q, expected %q", test.code, result, test.expected)
		}
	}
}
