package core

// error_messages.go maps technical errors to user-facing messages with a
// support code. Users quote the code; support looks it up here.
//
// # File Errors (FILE001-FILE006)
//
//	FILE001 - File too large            Patterns: "file too large"
//	FILE002 - Unreadable file           Patterns: "unreadable file"
//	FILE003 - No data rows              Patterns: "too few rows"
//	FILE004 - No file selected          Patterns: "no file provided"
//	FILE005 - Empty file                Patterns: "empty file"
//	FILE006 - Legacy workbook           Patterns: "legacy .xls"
//
// # Validation Errors (VAL001-VAL004)
//
//	VAL001 - Missing column             Patterns: "missing required column"
//	VAL002 - Invalid date               Patterns: "invalid date"
//	VAL003 - Invalid number             Patterns: "invalid number"
//	VAL004 - Service not allowed        Patterns: "must use the filing service"
//
// # Upload Errors (UPL001-UPL005)
//
//	UPL001 - System busy                Patterns: "too many concurrent imports"
//	UPL002 - Request cancelled          Patterns: "context canceled"
//	UPL003 - Request timeout            Patterns: "context deadline exceeded"
//	UPL004 - Malformed request          Patterns: "malformed request"
//	UPL005 - Unknown template           Patterns: "unknown template variant"
//
// # Pricing Errors (PRC001-PRC002)
//
//	PRC001 - Nothing selected           Patterns: "empty selection"
//	PRC002 - Unknown service            Patterns: "unknown service type"
//
// # Default (ERR000)
//
// Anything else. Check the logs for the technical error.
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns go before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// File errors. "legacy .xls" is wrapped in "unreadable file" and must come first.
	{"file too large", UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the clients across several files",
		Code:    "FILE001",
	}},
	{"legacy .xls", UserMessage{
		Message: "Legacy .xls workbooks are not supported",
		Action:  "Open the file and save it as .xlsx or .csv",
		Code:    "FILE006",
	}},
	{"unreadable file", UserMessage{
		Message: "The file could not be read",
		Action:  "Upload a .csv, .tsv or .xlsx file exported from your spreadsheet",
		Code:    "FILE002",
	}},
	{"too few rows", UserMessage{
		Message: "The file has no client rows",
		Action:  "Keep the header row and add at least one client below it",
		Code:    "FILE003",
	}},
	{"no file provided", UserMessage{
		Message: "No file was selected",
		Action:  "Choose a client file to upload",
		Code:    "FILE004",
	}},
	{"empty file", UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Download the template and fill in your clients",
		Code:    "FILE005",
	}},

	// Validation errors.
	{"missing required column", UserMessage{
		Message: "A required column is missing",
		Action:  "Compare your headers with the downloadable template",
		Code:    "VAL001",
	}},
	{"invalid date", UserMessage{
		Message: "Invalid date format detected",
		Action:  "Use YYYY-MM-DD, MM/DD/YYYY, or Jan 15, 2024",
		Code:    "VAL002",
	}},
	{"invalid number", UserMessage{
		Message: "Invalid number format detected",
		Action:  "Enter ownership as a plain number such as 25 or 25%",
		Code:    "VAL003",
	}},
	{"must use the filing service", UserMessage{
		Message: "Foreign entities can only be filed, not monitored",
		Action:  "Keep the filing service for entities formed outside the United States",
		Code:    "VAL004",
	}},

	// Upload errors.
	{"too many concurrent imports", UserMessage{
		Message: "System is busy processing other uploads",
		Action:  "Please wait a moment and try again",
		Code:    "UPL001",
	}},
	{"context canceled", UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL002",
	}},
	{"context deadline exceeded", UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or check your connection",
		Code:    "UPL003",
	}},
	{"malformed request", UserMessage{
		Message: "The request could not be understood",
		Action:  "Reload the page and try again",
		Code:    "UPL004",
	}},
	{"unknown template variant", UserMessage{
		Message: "That template does not exist",
		Action:  "Download the v1 or v2 template",
		Code:    "UPL005",
	}},

	// Pricing errors.
	{"empty selection", UserMessage{
		Message: "No entities are selected",
		Action:  "Select at least one entity before checking out",
		Code:    "PRC001",
	}},
	{"unknown service type", UserMessage{
		Message: "Unknown service level",
		Action:  "Choose monitoring or filing",
		Code:    "PRC002",
	}},
}

// defaultMessage is returned when no pattern matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// A nil error maps to the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
