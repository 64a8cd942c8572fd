package settings

import "context"

type runKey struct{}

// IntoContext stores the run options in ctx.
func IntoContext(ctx context.Context, r *Run) context.Context {
	return context.WithValue(ctx, runKey{}, r)
}

// FromContext returns the run options stored by IntoContext.
func FromContext(ctx context.Context) (*Run, bool) {
	r, ok := ctx.Value(runKey{}).(*Run)
	return r, ok && r != nil
}

// FromContextOrDefault returns the stored run options or NewCliParams.
func FromContextOrDefault(ctx context.Context) *Run {
	if r, ok := FromContext(ctx); ok {
		return r
	}
	return NewCliParams()
}
