// Package handlers defines the error codes carried in the `code` field of
// every ErrorResponse. The chat client branches on these instead of parsing
// messages, so values are stable, lowercase snake_case strings. Generic codes
// mirror the HTTP status; the domain codes cover outcomes the status alone
// cannot distinguish (an email collision is a 400, but not the same 400 as a
// malformed payload).
//
// Example:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "email_taken",
//	  "message": "email already registered"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeEmailTaken   = "email_taken"
	ErrCodeReplyFailed  = "reply_failed"
	ErrCodeUpstreamDown = "service_unavailable"
	ErrCodeCreateFailed = "create_failed"
	ErrCodeListFailed   = "list_failed"
)
