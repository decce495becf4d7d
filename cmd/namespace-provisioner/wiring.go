package main

import (
	"github.com/go-logr/logr"
	"k8s.io/client-go/kubernetes"

	"github.com/bryanpaget/namespace-provisioner/internal/configurator"
	"github.com/bryanpaget/namespace-provisioner/internal/namespace"
	"github.com/bryanpaget/namespace-provisioner/internal/preferences"
	"github.com/bryanpaget/namespace-provisioner/internal/provisioner"
)

// buildProvisioner wires the factory and the configurators in their required
// order: the profile must exist before preferences are written.
func buildProvisioner(
	cfg *config,
	k8sClient kubernetes.Interface,
	profiles configurator.ProfileSource,
	log logr.Logger,
) (*provisioner.NamespaceProvisioner, *namespace.KubernetesNamespaceFactory) {
	factory := namespace.NewKubernetesNamespaceFactory(k8sClient, cfg.namespaceTemplate, log.WithName("factory"))

	userProfile := configurator.NewUserProfileConfigurator(
		k8sClient, factory, profiles, log.WithName("user-profile"))
	userPreferences := configurator.NewUserPreferencesConfigurator(
		k8sClient, factory, preferences.NewFileStore(cfg.preferencesFile), log.WithName("user-preferences"))

	return provisioner.NewNamespaceProvisioner(factory, log.WithName("provisioner"), userProfile, userPreferences), factory
}
