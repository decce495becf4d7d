// Package configurator contains the steps that configure a provisioned user
// namespace.
package configurator

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/bryanpaget/namespace-provisioner/internal/provisioner"
)

const (
	// MountToWorkspaceLabel makes the dev workspace controller mount the secret.
	MountToWorkspaceLabel = "controller.devfile.io/mount-to-devworkspace"

	// WatchSecretLabel lets the dev workspace controller watch the secret.
	WatchSecretLabel = "controller.devfile.io/watch-secret"

	// MountAsAnnotation selects how the secret is mounted.
	MountAsAnnotation = "controller.devfile.io/mount-as"

	// MountPathAnnotation is the directory the secret is mounted into.
	MountPathAnnotation = "controller.devfile.io/mount-path"
)

// NameEvaluator resolves the namespace a context maps to.
type NameEvaluator interface {
	EvaluateNamespaceName(ctx context.Context, rc provisioner.ResolutionContext) (string, error)
}

func newMountedSecret(namespace, name, mountPath string, data map[string][]byte) *corev1.Secret {
	return &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
			Labels: map[string]string{
				MountToWorkspaceLabel: "true",
				WatchSecretLabel:      "true",
			},
			Annotations: map[string]string{
				MountAsAnnotation:   "file",
				MountPathAnnotation: mountPath,
			},
		},
		Data: data,
		Type: corev1.SecretTypeOpaque,
	}
}

// applySecret creates the secret or replaces the content of an existing one.
func applySecret(ctx context.Context, k8sClient kubernetes.Interface, secret *corev1.Secret) error {
	secrets := k8sClient.CoreV1().Secrets(secret.Namespace)

	_, err := secrets.Create(ctx, secret, metav1.CreateOptions{})
	if err == nil {
		return nil
	}
	if !apierrors.IsAlreadyExists(err) {
		return fmt.Errorf("failed to create secret %s/%s: %w", secret.Namespace, secret.Name, err)
	}

	existing, err := secrets.Get(ctx, secret.Name, metav1.GetOptions{})
	if err != nil {
		return fmt.Errorf("failed to get secret %s/%s: %w", secret.Namespace, secret.Name, err)
	}
	existing.Labels = secret.Labels
	existing.Annotations = secret.Annotations
	existing.Data = secret.Data
	existing.Type = secret.Type
	if _, err := secrets.Update(ctx, existing, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("failed to update secret %s/%s: %w", secret.Namespace, secret.Name, err)
	}
	return nil
}
