package flow

import "fmt"

// AuthPageFormatError means the login page did not contain a csrf token,
// usually because the upstream markup changed.
type AuthPageFormatError struct {
	StatusCode int
}

func (e *AuthPageFormatError) Error() string {
	return fmt.Sprintf("flow scraper: could not find csrf token on login page (status %d)", e.StatusCode)
}

// AuthenticationError means the login form was rejected.
type AuthenticationError struct {
	StatusCode int
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("flow scraper: login failed with status %d", e.StatusCode)
}

// ReportFormatError means the report response did not have the expected shape.
// Field holds the dotted path of the missing field when that is the cause.
type ReportFormatError struct {
	Field      string
	StatusCode int
	Err        error
}

func (e *ReportFormatError) Error() string {
	switch {
	case e.Field != "":
		return fmt.Sprintf("flow scraper: report response is missing field %q", e.Field)
	case e.Err != nil:
		return fmt.Sprintf("flow scraper: report response (status %d): %s", e.StatusCode, e.Err.Error())
	default:
		return fmt.Sprintf("flow scraper: unexpected report response status %d", e.StatusCode)
	}
}

func (e *ReportFormatError) Unwrap() error {
	return e.Err
}
