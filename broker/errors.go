package broker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/deemkeen/dodo/domain"
)

// AuthRequiredError is raised whenever the broker reports that our
// credential is invalid, expired or missing. It carries everything the
// caller needs to restart the authorization flow and is always
// recoverable by re-authenticating.
type AuthRequiredError struct {
	Service      string
	AuthorizeUrl string
	State        string
	Message      string
}

func (e *AuthRequiredError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("authorization required for %s: %s", e.Service, e.Message)
	}
	return fmt.Sprintf("authorization required for %s", e.Service)
}

// Prompt converts the error into the structured payload handed to
// callers driving a re-authentication flow.
func (e *AuthRequiredError) Prompt() domain.AuthPrompt {
	msg := e.Message
	if msg == "" {
		msg = "Your authorization has expired. Please re-connect your account."
	}
	return domain.AuthPrompt{
		Service:      e.Service,
		AuthorizeUrl: e.AuthorizeUrl,
		State:        e.State,
		Message:      msg,
	}
}

// AsAuthRequired unwraps an AuthRequiredError if err carries one.
func AsAuthRequired(err error) (*AuthRequiredError, bool) {
	var authErr *AuthRequiredError
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}

// LooksLikeAuthFailure is a secondary heuristic for brokers that only
// report auth problems in free-form error text. The typed error channel
// above is authoritative; this exists for responses that bypass it.
func LooksLikeAuthFailure(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, needle := range []string{"unauthorized", "not authorized", "auth required", "token expired", "invalid credential"} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}
