package core

// error_messages.go maps pipeline failures to user-facing messages.
//
// # Error Codes Reference
//
// When a dashboard request fails, the user sees a short message, a
// suggested action and a code they can quote when reporting the problem.
//
// # Source Errors (SRC001-SRC099)
//
//	SRC001 - Workbook missing: the configured export workbook does not exist
//	         Action: Check SOURCE_PATH points at the statistics workbook
//	         Matches: loader.ErrSourceNotFound
//
//	SRC002 - Sheet missing: the workbook has no sheet with the configured name
//	         Action: Check SOURCE_SHEET matches the worksheet name
//	         Matches: loader.ErrSheetNotFound
//
//	SRC003 - Workbook unreadable: the file exists but could not be parsed
//	         Action: Re-save the workbook as .xlsx and reload
//	         Matches: loader.ErrSourceUnreadable
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Bad selection: a filter parameter could not be understood
//	         Action: Use currency usd or egp and a numeric top value
//	         Matches: ErrInvalidSelection
//
//	REQ002 - Unknown name: the region or country is not in the data
//	         Action: Pick a value offered by the filter controls
//	         Matches: ErrUnknownRegion, ErrUnknownCountry
//
//	REQ003 - Request cancelled or timed out
//	         Action: Please try again
//	         Matches: context.Canceled, context.DeadlineExceeded
//
// # Capacity Errors (RATE001-RATE099)
//
//	RATE001 - Too many requests from one client (written by the rate limiter)
//
//	RATE002 - Busy: every render slot stayed occupied for the wait period
//	          Action: Please wait a moment and reload
//	          Matches: ErrTooManyRenders
//
// # Default Error (SYS001)
//
//	SYS001 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// # Matching
//
// Rules are checked in order with errors.Is, so wrapped errors match. The
// first matching rule wins.

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/cable-exports/internal/loader"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

type errorRule struct {
	targets []error
	msg     UserMessage
}

var errorRules = []errorRule{
	{
		targets: []error{loader.ErrSourceNotFound},
		msg: UserMessage{
			Message: "The export statistics workbook was not found",
			Action:  "Check SOURCE_PATH points at the statistics workbook",
			Code:    "SRC001",
		},
	},
	{
		targets: []error{loader.ErrSheetNotFound},
		msg: UserMessage{
			Message: "The workbook has no sheet with the configured name",
			Action:  "Check SOURCE_SHEET matches the worksheet name",
			Code:    "SRC002",
		},
	},
	{
		targets: []error{loader.ErrSourceUnreadable},
		msg: UserMessage{
			Message: "The export statistics workbook could not be read",
			Action:  "Re-save the workbook as .xlsx and reload",
			Code:    "SRC003",
		},
	},
	{
		targets: []error{ErrInvalidSelection},
		msg: UserMessage{
			Message: "The filter selection could not be understood",
			Action:  "Use currency usd or egp and a numeric top value",
			Code:    "REQ001",
		},
	},
	{
		targets: []error{ErrUnknownRegion, ErrUnknownCountry},
		msg: UserMessage{
			Message: "No data for the requested region or country",
			Action:  "Pick a value offered by the filter controls",
			Code:    "REQ002",
		},
	},
	{
		targets: []error{ErrTooManyRenders},
		msg: UserMessage{
			Message: "The dashboard is busy",
			Action:  "Please wait a moment and reload",
			Code:    "RATE002",
		},
	},
	{
		targets: []error{context.Canceled, context.DeadlineExceeded},
		msg: UserMessage{
			Message: "The request was cancelled or timed out",
			Action:  "Please try again",
			Code:    "REQ003",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "SYS001",
}

// MapError converts a technical error to a user-friendly message.
// A nil error yields the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, rule := range errorRules {
		for _, target := range rule.targets {
			if errors.Is(err, target) {
				return rule.msg
			}
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the SYS001 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// IsLoadFailure reports whether err means the workbook could not be loaded.
func IsLoadFailure(err error) bool {
	return errors.Is(err, loader.ErrSourceNotFound) ||
		errors.Is(err, loader.ErrSheetNotFound) ||
		errors.Is(err, loader.ErrSourceUnreadable)
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
