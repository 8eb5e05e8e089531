package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKinds = []Kind{DbError, ValidationError, NotFoundError, ParseError, Rejected, InternalError}

func TestPublicMessage_MessageWinsForEveryKind(t *testing.T) {
	for _, k := range allKinds {
		e := &Error{Kind: k, Message: "User-facing message", Cause: errors.New("driver said no")}
		assert.Equal(t, "User-facing message", e.PublicMessage(), k.String())
	}
}

func TestPublicMessage_Defaults(t *testing.T) {
	cases := []struct {
		name string
		err  *Error
		want string
	}{
		{"db error default", &Error{Kind: DbError}, MsgUnexpected},
		{"db error hides cause", &Error{Kind: DbError, Cause: errors.New("socket closed")}, MsgUnexpected},
		{"not found default", &Error{Kind: NotFoundError}, MsgNotFound},
		{"not found ignores cause", &Error{Kind: NotFoundError, Cause: errors.New("no docs")}, MsgNotFound},
		{"validation shows cause", &Error{Kind: ValidationError, Cause: errors.New("X")}, "X"},
		{"validation without cause", &Error{Kind: ValidationError}, MsgUnexpected},
		{"parse hides cause", &Error{Kind: ParseError, Cause: errors.New("bad month")}, MsgUnexpected},
		{"rejected default", &Error{Kind: Rejected}, MsgUnexpected},
		{"internal default", &Error{Kind: InternalError}, MsgUnexpected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.err.PublicMessage())
		})
	}
}

func TestStatusCode_TotalAndStable(t *testing.T) {
	want := map[Kind]int{
		DbError:         http.StatusInternalServerError,
		ValidationError: http.StatusBadRequest,
		NotFoundError:   http.StatusNotFound,
		ParseError:      http.StatusInternalServerError,
		Rejected:        http.StatusNotAcceptable,
		InternalError:   http.StatusInternalServerError,
	}
	for _, k := range allKinds {
		assert.Equal(t, want[k], StatusCode(k), k.String())
		assert.Equal(t, want[k], (&Error{Kind: k}).StatusCode(), k.String())
	}
	assert.Equal(t, http.StatusInternalServerError, StatusCode(Kind(99)))
	assert.Equal(t, "InternalError", Kind(99).String())
}

func TestConstructors(t *testing.T) {
	v := Validation("name is required")
	assert.Equal(t, ValidationError, v.Kind)
	assert.Equal(t, "name is required", v.Message)
	assert.Nil(t, v.Cause)

	r := New("not acceptable here", Rejected)
	assert.Equal(t, Rejected, r.Kind)
	assert.Equal(t, "not acceptable here", r.PublicMessage())
	assert.Equal(t, http.StatusNotAcceptable, r.StatusCode())
}

func TestResponse_JSONShape(t *testing.T) {
	e := &Error{Kind: DbError, Cause: errors.New("connection reset by peer")}
	b, err := json.Marshal(e.Response())
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"An unexpected error has occurred"}`, string(b))
	assert.NotContains(t, string(b), "connection reset")
}

func TestError_LogStringAndUnwrap(t *testing.T) {
	cause := errors.New("boom")
	e := &Error{Kind: ParseError, Message: "bad input", Cause: cause}
	assert.Equal(t, "ParseError: bad input: boom", e.Error())
	assert.ErrorIs(t, e, cause)
	assert.Equal(t, "NotFoundError", (&Error{Kind: NotFoundError}).Error())
}

func TestAs(t *testing.T) {
	assert.Nil(t, As(nil))

	orig := Validation("nope")
	wrapped := fmt.Errorf("handler: %w", orig)
	assert.Same(t, orig, As(wrapped))

	plain := errors.New("unclassified")
	got := As(plain)
	require.NotNil(t, got)
	assert.Equal(t, InternalError, got.Kind)
	assert.Equal(t, plain, got.Cause)
	assert.Equal(t, MsgUnexpected, got.PublicMessage())
}

func TestAdapters_SetCauseNotMessage(t *testing.T) {
	_, timeErr := time.Parse(time.RFC3339, "yesterday")
	require.Error(t, timeErr)
	_, urlErr := url.Parse("http://[::1")
	require.Error(t, urlErr)
	dbErr := errors.New("server selection error")

	cases := []struct {
		name string
		got  *Error
		kind Kind
	}{
		{"db", FromDB(dbErr), DbError},
		{"time", FromTimeParse(timeErr), ParseError},
		{"url", FromURLParse(urlErr), ParseError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.NotNil(t, tc.got)
			assert.Equal(t, tc.kind, tc.got.Kind)
			assert.Empty(t, tc.got.Message)
			assert.NotNil(t, tc.got.Cause)
			assert.Equal(t, MsgUnexpected, tc.got.PublicMessage())
			assert.Equal(t, http.StatusInternalServerError, tc.got.StatusCode())
		})
	}

	assert.Nil(t, FromDB(nil))
	assert.Nil(t, FromTimeParse(nil))
	assert.Nil(t, FromURLParse(nil))
	assert.Nil(t, FromValidator(nil))
}

func TestFromValidator_CauseBecomesMessage(t *testing.T) {
	type payload struct {
		Name string `validate:"required"`
		Age  int    `validate:"gte=18"`
	}
	err := validator.New().Struct(payload{Age: 3})
	require.Error(t, err)

	got := FromValidator(err)
	assert.Equal(t, ValidationError, got.Kind)
	assert.Empty(t, got.Message)
	assert.Equal(t, "Name: failed required\nAge: failed gte=18", got.PublicMessage())
	assert.Equal(t, http.StatusBadRequest, got.StatusCode())

	other := FromValidator(errors.New("not a validator error"))
	assert.Equal(t, "not a validator error", other.PublicMessage())
}
