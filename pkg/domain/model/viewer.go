package model

import "context"

// Viewer describes who is reading ranking data. Privileged viewers see the admin view.
type Viewer struct {
	Subject    string
	Privileged bool
}

// PublicViewer is the anonymous, non-privileged caller
var PublicViewer = Viewer{}

type viewerCtxKey struct{}

// ContextWithViewer stores the viewer in the context
func ContextWithViewer(ctx context.Context, v Viewer) context.Context {
	return context.WithValue(ctx, viewerCtxKey{}, v)
}

// ViewerFromContext returns the viewer of the context, or PublicViewer if unset
func ViewerFromContext(ctx context.Context) Viewer {
	if v, ok := ctx.Value(viewerCtxKey{}).(Viewer); ok {
		return v
	}
	return PublicViewer
}
