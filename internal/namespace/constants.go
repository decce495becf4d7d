package namespace

// Keys and defaults used to mark and resolve provisioned namespaces.

const (
	// ManagedLabel marks namespaces created by the provisioner.
	// Used by the controller to select the namespaces it keeps configured.
	ManagedLabel = "namespace-provisioner/managed"

	// ManagedLabelSelector selects every namespace carrying ManagedLabel.
	ManagedLabelSelector = ManagedLabel + "=true"

	// OwnerAnnotation stores the id of the user owning the namespace.
	OwnerAnnotation = "namespace-provisioner/owner"

	// UsernameAnnotation stores the login of the owning user.
	UsernameAnnotation = "namespace-provisioner/username"

	// DefaultNameTemplate is used when no template is configured.
	DefaultNameTemplate = "<username>-che"

	// PhaseAttribute is the NamespaceMeta attribute carrying the namespace phase.
	PhaseAttribute = "phase"
)
