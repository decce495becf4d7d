// Package provisioner provisions the namespace of a user and configures it
// with user-scoped settings before handing its metadata back to the caller.
package provisioner

import (
	"context"
	"errors"
	"time"

	"github.com/go-logr/logr"
)

// NamespaceProvisioner gets or creates the namespace of a user, verifies it
// exists and then runs its configurators in order.
//
// It keeps no state between calls. Concurrent provisioning of the same
// namespace is made safe by the NamespaceFactory, not by this type.
type NamespaceProvisioner struct {
	factory       NamespaceFactory
	configurators []Configurator
	log           logr.Logger
}

// NewNamespaceProvisioner creates a provisioner. Configurators run in the order
// given; the standard order is user profile first, then user preferences.
func NewNamespaceProvisioner(
	factory NamespaceFactory,
	log logr.Logger,
	configurators ...Configurator,
) *NamespaceProvisioner {
	return &NamespaceProvisioner{
		factory:       factory,
		configurators: configurators,
		log:           log,
	}
}

// Provision returns the metadata of the namespace resolved for rc. The metadata
// reflects the namespace right after creation or lookup; configuration side
// effects are not re-fetched.
func (p *NamespaceProvisioner) Provision(ctx context.Context, rc ResolutionContext) (*NamespaceMeta, error) {
	start := time.Now()
	meta, err := p.provision(ctx, rc)
	recordProvisionMetric(err, time.Since(start).Seconds())
	return meta, err
}

var errNoNamespace = errors.New("resolver returned no namespace")

func (p *NamespaceProvisioner) provision(ctx context.Context, rc ResolutionContext) (*NamespaceMeta, error) {
	name, err := p.factory.EvaluateNamespaceName(ctx, rc)
	if err != nil {
		return nil, &ResolutionError{UserID: rc.UserID, Err: err}
	}
	log := p.log.WithValues("namespace", name, "user", rc.UserID)

	ns, err := p.factory.GetOrCreate(ctx, RuntimeIdentity{
		OwnerID:   rc.UserID,
		OwnerName: rc.UserName,
		Namespace: name,
	})
	if err != nil {
		return nil, &CreationError{Namespace: name, Err: err}
	}
	if ns == nil {
		return nil, &CreationError{Namespace: name, Err: errNoNamespace}
	}

	meta, err := p.factory.FetchNamespace(ctx, ns.Name)
	if err != nil {
		return nil, &CreationError{Namespace: ns.Name, Err: err}
	}
	if meta == nil {
		return nil, &NamespaceNotFoundError{Name: ns.Name}
	}

	if err := p.configure(ctx, rc, ns.Name); err != nil {
		return nil, err
	}

	log.V(1).Info("Provisioned namespace")
	return meta, nil
}

func (p *NamespaceProvisioner) configure(ctx context.Context, rc ResolutionContext, namespace string) error {
	for _, c := range p.configurators {
		if err := c.Configure(ctx, rc); err != nil {
			recordConfiguratorFailureMetric(c.Name())
			return &ConfigurationError{Stage: c.Name(), Namespace: namespace, Err: err}
		}
	}
	return nil
}
