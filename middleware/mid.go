package middleware

import (
	"fmt"

	"rradiant-backend/internal/auth"
)

// Mid bundles the auth keys needed by the middleware handlers.
type Mid struct {
	keys *auth.Keys
}

func NewMid(keys *auth.Keys) (*Mid, error) {
	if keys == nil {
		return nil, fmt.Errorf("auth keys are nil")
	}
	return &Mid{keys: keys}, nil
}
