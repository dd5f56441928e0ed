package server

import (
	"context"

	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/domain/types"
)

type credentialContextKey struct{}

func withCredential(ctx context.Context, c types.Credential) context.Context {
	return context.WithValue(ctx, credentialContextKey{}, c)
}

func currentCredential(ctx context.Context) (types.Credential, bool) {
	v := ctx.Value(credentialContextKey{})
	if v == nil {
		return types.Credential{}, false
	}
	c, ok := v.(types.Credential)
	return c, ok
}
