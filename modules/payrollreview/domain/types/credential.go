package types

// Credential is the caller's bearer token plus the identity claims the
// pipeline needs. It is passed into every operation; nothing reads it
// from ambient state.
type Credential struct {
	Token         string
	CompanyID     string
	CompanyUserID string
	Role          Role
}

func (c Credential) Present() bool {
	return c.Token != ""
}
