// Package namespace resolves user namespaces and gets or creates them in the
// cluster.
package namespace

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/util/retry"

	"github.com/bryanpaget/namespace-provisioner/internal/provisioner"
)

// ErrOwnedByAnotherUser is returned when the resolved namespace already exists
// and belongs to a different user.
var ErrOwnedByAnotherUser = errors.New("namespace is owned by another user")

// KubernetesNamespaceFactory implements provisioner.NamespaceFactory against
// the Kubernetes API.
type KubernetesNamespaceFactory struct {
	k8sClient kubernetes.Interface // Kubernetes API client
	template  string               // Namespace name template
	backoff   wait.Backoff         // Retry policy for transient API errors
	log       logr.Logger
}

// NewKubernetesNamespaceFactory creates a factory. An empty template selects
// DefaultNameTemplate.
func NewKubernetesNamespaceFactory(
	k8sClient kubernetes.Interface,
	template string,
	log logr.Logger,
) *KubernetesNamespaceFactory {
	if template == "" {
		template = DefaultNameTemplate
	}
	return &KubernetesNamespaceFactory{
		k8sClient: k8sClient,
		template:  template,
		backoff:   retry.DefaultBackoff,
		log:       log,
	}
}

// EvaluateNamespaceName resolves the namespace name from the configured template.
func (f *KubernetesNamespaceFactory) EvaluateNamespaceName(_ context.Context, rc provisioner.ResolutionContext) (string, error) {
	if rc.UserID == "" {
		return "", errors.New("user id is required to resolve a namespace")
	}
	return evaluateTemplate(f.template, rc)
}

// GetOrCreate returns the namespace named by identity, creating it if needed.
// A create that loses a race to a concurrent request reads the winner back, so
// every caller observes the same namespace. Transient API errors are retried.
func (f *KubernetesNamespaceFactory) GetOrCreate(ctx context.Context, identity provisioner.RuntimeIdentity) (*provisioner.Namespace, error) {
	var ns *corev1.Namespace
	err := retry.OnError(f.backoff, isTransient, func() error {
		var err error
		ns, err = f.getOrCreate(ctx, identity)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &provisioner.Namespace{Name: ns.Name}, nil
}

func (f *KubernetesNamespaceFactory) getOrCreate(ctx context.Context, identity provisioner.RuntimeIdentity) (*corev1.Namespace, error) {
	log := f.log.WithValues("namespace", identity.Namespace)

	ns, err := f.k8sClient.CoreV1().Namespaces().Get(ctx, identity.Namespace, metav1.GetOptions{})
	if err == nil {
		return ns, checkOwner(ns, identity.OwnerID)
	}
	if !apierrors.IsNotFound(err) {
		return nil, fmt.Errorf("failed to get namespace %s: %w", identity.Namespace, err)
	}

	ns, err = f.k8sClient.CoreV1().Namespaces().Create(ctx, newNamespace(identity), metav1.CreateOptions{})
	if apierrors.IsAlreadyExists(err) {
		log.V(1).Info("Namespace created concurrently, reading it back")
		ns, err = f.k8sClient.CoreV1().Namespaces().Get(ctx, identity.Namespace, metav1.GetOptions{})
		if err != nil {
			return nil, fmt.Errorf("failed to get namespace %s: %w", identity.Namespace, err)
		}
		return ns, checkOwner(ns, identity.OwnerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create namespace %s: %w", identity.Namespace, err)
	}

	log.Info("Created namespace", "owner", identity.OwnerID)
	return ns, nil
}

// FetchNamespace returns the namespace metadata, or nil if it does not exist.
func (f *KubernetesNamespaceFactory) FetchNamespace(ctx context.Context, name string) (*provisioner.NamespaceMeta, error) {
	ns, err := f.k8sClient.CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch namespace %s: %w", name, err)
	}
	return toMeta(ns), nil
}

func newNamespace(identity provisioner.RuntimeIdentity) *corev1.Namespace {
	ns := &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{
			Name: identity.Namespace,
			Labels: map[string]string{
				ManagedLabel: "true",
			},
			Annotations: map[string]string{
				OwnerAnnotation: identity.OwnerID,
			},
		},
	}
	if identity.OwnerName != "" {
		ns.Annotations[UsernameAnnotation] = identity.OwnerName
	}
	return ns
}

// checkOwner rejects namespaces annotated with a different owner. Namespaces
// without an owner annotation were not created by us and are accepted as is.
func checkOwner(ns *corev1.Namespace, ownerID string) error {
	owner, ok := ns.Annotations[OwnerAnnotation]
	if !ok || owner == ownerID {
		return nil
	}
	return fmt.Errorf("%w: %s belongs to %s", ErrOwnedByAnotherUser, ns.Name, owner)
}

func toMeta(ns *corev1.Namespace) *provisioner.NamespaceMeta {
	attrs := make(map[string]string, len(ns.Labels)+len(ns.Annotations)+1)
	for k, v := range ns.Labels {
		attrs[k] = v
	}
	for k, v := range ns.Annotations {
		attrs[k] = v
	}
	attrs[PhaseAttribute] = string(ns.Status.Phase)
	return &provisioner.NamespaceMeta{Name: ns.Name, Attributes: attrs}
}

func isTransient(err error) bool {
	return apierrors.IsServerTimeout(err) ||
		apierrors.IsTimeout(err) ||
		apierrors.IsTooManyRequests(err) ||
		apierrors.IsServiceUnavailable(err) ||
		apierrors.IsInternalError(err)
}
