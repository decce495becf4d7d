package provisioner

import "context"

// ResolutionContext describes who is asking for a namespace. It is built by the
// caller for a single request and never modified here.
type ResolutionContext struct {
	// UserID identifies the requesting user. Required by every resolver.
	UserID string

	// UserName is the human readable login, used for name templating.
	UserName string

	// Attributes carries optional intent used by name templates.
	Attributes map[string]string
}

// RuntimeIdentity addresses a namespace for a single owner. WorkspaceID is left
// empty while provisioning because no workspace has been assigned yet.
type RuntimeIdentity struct {
	WorkspaceID string
	OwnerID     string
	Namespace   string

	// OwnerName is the owner's login, recorded on the namespace when known.
	OwnerName string
}

// Namespace is a live handle to a namespace returned by GetOrCreate.
type Namespace struct {
	Name string
}

// NamespaceMeta is a snapshot of a namespace's cluster-side state.
type NamespaceMeta struct {
	Name       string
	Attributes map[string]string
}

// NamespaceFactory resolves, creates and looks up namespaces.
type NamespaceFactory interface {
	// EvaluateNamespaceName returns the namespace name for the context. It must
	// return the same name for equal contexts.
	EvaluateNamespaceName(ctx context.Context, rc ResolutionContext) (string, error)

	// GetOrCreate returns the namespace for the identity, creating it when absent.
	// Concurrent calls for the same name must converge on a single namespace.
	// The handle is non-nil whenever err is nil.
	GetOrCreate(ctx context.Context, identity RuntimeIdentity) (*Namespace, error)

	// FetchNamespace returns nil and no error when the namespace does not exist.
	FetchNamespace(ctx context.Context, name string) (*NamespaceMeta, error)
}

// Configurator applies one piece of user-scoped configuration to the namespace
// resolved for the context.
type Configurator interface {
	// Name identifies the configuration stage in errors and metrics.
	Name() string
	Configure(ctx context.Context, rc ResolutionContext) error
}
