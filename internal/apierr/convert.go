package apierr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Adapters wrap lower-level failures into the taxonomy. None of them set
// Message: the public text comes from the precedence rules.

// FromDB wraps a database driver error. Handlers that want a 404 for
// mongo.ErrNoDocuments check for it before calling FromDB.
func FromDB(err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: DbError, Cause: err}
}

// FromTimeParse wraps a date/time parse failure (time.Parse and friends).
func FromTimeParse(err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: ParseError, Cause: err}
}

// FromURLParse wraps a URL parse failure (url.Parse, url.ParseQuery).
func FromURLParse(err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: ParseError, Cause: err}
}

// FromValidator wraps a go-playground/validator result. Field errors are
// flattened into a single cause string so it can serve as the public message.
func FromValidator(err error) *Error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &Error{Kind: ValidationError, Cause: fieldErrors(verrs)}
	}
	return &Error{Kind: ValidationError, Cause: err}
}

func fieldErrors(verrs validator.ValidationErrors) error {
	lines := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			lines = append(lines, fmt.Sprintf("%s: failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag()))
	}
	return errors.New(strings.Join(lines, "\n"))
}
