// Package scope carries the tenant identity (for example a school code
// such as "SCH001") on a context.Context.
//
// The engine captures the tenant at enqueue time into Job.Tenant and the
// Scope middleware restores it before the handler runs, so handlers see
// the same tenant as the caller that submitted the job.
package scope

import "context"

type tenantKey struct{}

// WithTenant returns a copy of ctx carrying tenant. An empty tenant
// returns ctx unchanged.
func WithTenant(ctx context.Context, tenant string) context.Context {
	if tenant == "" {
		return ctx
	}
	return context.WithValue(ctx, tenantKey{}, tenant)
}

// Tenant returns the tenant carried by ctx, if any.
func Tenant(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(tenantKey{}).(string)
	return t, ok && t != ""
}

// Capture extracts the tenant from the context, or "" when absent.
func Capture(ctx context.Context) string {
	t, _ := Tenant(ctx)
	return t
}

// Restore attaches tenant to the context. It is a no-op for "".
func Restore(ctx context.Context, tenant string) context.Context {
	return WithTenant(ctx, tenant)
}
