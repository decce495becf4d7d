package v1

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/builder"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/handler"
	"sigs.k8s.io/controller-runtime/pkg/predicate"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"

	"github.com/bryanpaget/namespace-provisioner/internal/configurator"
	"github.com/bryanpaget/namespace-provisioner/internal/namespace"
	"github.com/bryanpaget/namespace-provisioner/internal/provisioner"
)

// Provisioner provisions and configures the namespace of a user.
type Provisioner interface {
	Provision(ctx context.Context, rc provisioner.ResolutionContext) (*provisioner.NamespaceMeta, error)
}

// NameEvaluator resolves the namespace a context maps to.
type NameEvaluator interface {
	EvaluateNamespaceName(ctx context.Context, rc provisioner.ResolutionContext) (string, error)
}

// NamespaceReconciler re-provisions managed namespaces so that the user
// configuration written into them is restored after drift.
type NamespaceReconciler struct {
	client.Client
	Log         logr.Logger
	Scheme      *runtime.Scheme
	Provisioner Provisioner
	Names       NameEvaluator
}

func (r *NamespaceReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	log := r.Log.WithValues("namespace", req.Name)

	ns := &corev1.Namespace{}
	if err := r.Get(ctx, req.NamespacedName, ns); err != nil {
		if errors.IsNotFound(err) {
			return reconcile.Result{}, nil
		}
		return reconcile.Result{}, err
	}

	if ns.DeletionTimestamp != nil {
		log.Info("Namespace is being deleted, skipping")
		return reconcile.Result{}, nil
	}

	// Secret events are mapped without looking at the namespace.
	if ns.Labels[namespace.ManagedLabel] != "true" {
		return reconcile.Result{}, nil
	}

	owner := ns.Annotations[namespace.OwnerAnnotation]
	if owner == "" {
		return reconcile.Result{}, nil
	}

	rc := provisioner.ResolutionContext{
		UserID:   owner,
		UserName: ns.Annotations[namespace.UsernameAnnotation],
	}

	// Only reconcile namespaces the current template still resolves to.
	name, err := r.Names.EvaluateNamespaceName(ctx, rc)
	if err != nil {
		log.Info("Cannot resolve namespace for owner, skipping", "owner", owner, "reason", err.Error())
		return reconcile.Result{}, nil
	}
	if name != ns.Name {
		log.Info("Owner resolves to a different namespace, skipping", "owner", owner, "resolved", name)
		return reconcile.Result{}, nil
	}

	if _, err := r.Provisioner.Provision(ctx, rc); err != nil {
		log.Error(err, "Failed to provision namespace")
		return reconcile.Result{}, fmt.Errorf("failed to provision namespace %s: %w", ns.Name, err)
	}

	log.V(1).Info("Namespace configuration applied")
	return reconcile.Result{}, nil
}

// SetupWithManager watches managed namespaces and the user secrets written
// into them, so deleting or editing either secret re-provisions its namespace.
func (r *NamespaceReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&corev1.Namespace{}, builder.WithPredicates(predicate.NewPredicateFuncs(func(obj client.Object) bool {
			return obj.GetLabels()[namespace.ManagedLabel] == "true"
		}))).
		Watches(&corev1.Secret{}, handler.EnqueueRequestsFromMapFunc(r.secretToNamespace)).
		Complete(r)
}

// secretToNamespace maps the profile and preferences secrets to a request for
// the namespace holding them.
func (r *NamespaceReconciler) secretToNamespace(_ context.Context, obj client.Object) []reconcile.Request {
	switch obj.GetName() {
	case configurator.UserProfileSecretName, configurator.UserPreferencesSecretName:
		return []reconcile.Request{{NamespacedName: types.NamespacedName{Name: obj.GetNamespace()}}}
	default:
		return nil
	}
}
