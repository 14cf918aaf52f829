package errors

import "testing"

func TestErrorString(t *testing.T) {
	err := &Error{Type: ErrorTypeRateLimit, Message: "slow down", Code: 429}
	want := "rate_limit error (code 429): slow down"
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}
}

func TestNew(t *testing.T) {
	err := New(ErrorTypeValidation, "cursor must be positive")
	if err.Type != ErrorTypeValidation {
		t.Errorf("Expected validation type, got %s", err.Type)
	}
	if err.Code != 0 {
		t.Errorf("Expected zero code, got %d", err.Code)
	}
}

func TestIsRetryable(t *testing.T) {
	retryable := []ErrorType{ErrorTypeNetwork, ErrorTypeTimeout, ErrorTypeRateLimit, ErrorTypeServerError}
	for _, errType := range retryable {
		if !IsRetryable(errType) {
			t.Errorf("Expected %s to be retryable", errType)
		}
	}

	permanent := []ErrorType{ErrorTypeAuth, ErrorTypeParsing, ErrorTypeValidation, ErrorTypeStorage, ErrorTypeUnknown}
	for _, errType := range permanent {
		if IsRetryable(errType) {
			t.Errorf("Expected %s to not be retryable", errType)
		}
	}
}

func TestIsRetryableStatusCode(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{0, true},
		{429, true},
		{500, true},
		{502, true},
		{503, true},
		{504, true},
		{599, true},
		{401, false},
		{403, false},
		{404, false},
		{200, false},
		{418, false},
	}

	for _, tt := range tests {
		if got := IsRetryableStatusCode(tt.code); got != tt.want {
			t.Errorf("IsRetryableStatusCode(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
}
