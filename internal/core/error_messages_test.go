package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil error", nil, ""},
		{"file too large", fmt.Errorf("%w: 12MB exceeds 10MB", ErrFileTooLarge), "FILE001"},
		{"unreadable workbook", fmt.Errorf("%w: zip: not a valid zip file", ErrUnreadableFile), "FILE002"},
		{"legacy xls wins over unreadable", fmt.Errorf("%w: legacy .xls workbooks are not supported", ErrUnreadableFile), "FILE006"},
		{"too few rows", ErrTooFewRows, "FILE003"},
		{"empty file", ErrEmptyFile, "FILE005"},
		{"missing header", fmt.Errorf("sheet %q: %w: Client ID", "Clients", ErrMissingHeader), "VAL001"},
		{"service not allowed", ErrServiceNotAllowed, "VAL004"},
		{"busy", ErrTooManyImports, "UPL001"},
		{"cancelled", fmt.Errorf("import: %w", context.Canceled), "UPL002"},
		{"deadline", context.DeadlineExceeded, "UPL003"},
		{"empty selection", errors.New("quote: empty selection"), "PRC001"},
		{"case insensitive", errors.New("EMPTY FILE"), "FILE005"},
		{"unknown", errors.New("some random internal error"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, MapError(tt.err).Code)
		})
	}
}

func TestFormatUserError(t *testing.T) {
	assert.Equal(t, "", FormatUserError(nil))
	assert.Equal(t,
		"The uploaded file is empty (Code: FILE005). Download the template and fill in your clients",
		FormatUserError(ErrEmptyFile))
}

func TestIsUserFacing(t *testing.T) {
	assert.False(t, IsUserFacing(nil))
	assert.False(t, IsUserFacing(errors.New("boom")))
	assert.True(t, IsUserFacing(ErrTooFewRows))
}

func TestErrorCodesAreUnique(t *testing.T) {
	seen := make(map[string]string)
	for _, ep := range errorPatterns {
		if prev, ok := seen[ep.msg.Code]; ok {
			t.Errorf("code %s used by %q and %q", ep.msg.Code, prev, ep.pattern)
		}
		seen[ep.msg.Code] = ep.pattern
	}
}
