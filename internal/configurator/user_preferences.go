package configurator

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"github.com/go-logr/logr"
	"k8s.io/client-go/kubernetes"

	"github.com/bryanpaget/namespace-provisioner/internal/provisioner"
)

const (
	// UserPreferencesSecretName is the secret holding the user's preferences.
	UserPreferencesSecretName = "user-preferences"

	// UserPreferencesMountPath is where preferences are mounted in workspaces.
	UserPreferencesMountPath = "/config/user/preferences"
)

// Secret data keys may only contain alphanumerics, '-', '_' and '.'.
var invalidKeyChars = regexp.MustCompile(`[^-._a-zA-Z0-9]+`)

// PreferenceSource returns the stored preferences of a user.
type PreferenceSource interface {
	GetPreferences(ctx context.Context, userID string) (map[string]string, error)
}

// UserPreferencesConfigurator writes the user's preferences into the namespace.
// It does not read the profile secret; buildProvisioner in
// cmd/namespace-provisioner/wiring.go registers it after UserProfileConfigurator.
type UserPreferencesConfigurator struct {
	k8sClient   kubernetes.Interface
	names       NameEvaluator
	preferences PreferenceSource
	log         logr.Logger
}

// NewUserPreferencesConfigurator creates a configurator for the user-preferences secret.
func NewUserPreferencesConfigurator(
	k8sClient kubernetes.Interface,
	names NameEvaluator,
	preferences PreferenceSource,
	log logr.Logger,
) *UserPreferencesConfigurator {
	return &UserPreferencesConfigurator{
		k8sClient:   k8sClient,
		names:       names,
		preferences: preferences,
		log:         log,
	}
}

// Name implements provisioner.Configurator.
func (c *UserPreferencesConfigurator) Name() string {
	return "user-preferences"
}

// Configure implements provisioner.Configurator.
func (c *UserPreferencesConfigurator) Configure(ctx context.Context, rc provisioner.ResolutionContext) error {
	namespace, err := c.names.EvaluateNamespaceName(ctx, rc)
	if err != nil {
		return fmt.Errorf("failed to evaluate namespace name: %w", err)
	}

	prefs, err := c.preferences.GetPreferences(ctx, rc.UserID)
	if err != nil {
		return fmt.Errorf("failed to get preferences of user %s: %w", rc.UserID, err)
	}

	data, err := secretData(prefs)
	if err != nil {
		return fmt.Errorf("invalid preferences of user %s: %w", rc.UserID, err)
	}

	secret := newMountedSecret(namespace, UserPreferencesSecretName, UserPreferencesMountPath, data)
	if err := applySecret(ctx, c.k8sClient, secret); err != nil {
		return err
	}

	c.log.V(1).Info("Applied user preferences", "namespace", namespace, "user", rc.UserID, "count", len(data))
	return nil
}

// secretData maps preference names onto secret keys. Two preferences that
// normalize to the same key are rejected rather than one silently winning.
func secretData(prefs map[string]string) (map[string][]byte, error) {
	names := make([]string, 0, len(prefs))
	for k := range prefs {
		names = append(names, k)
	}
	sort.Strings(names)

	data := make(map[string][]byte, len(prefs))
	sources := make(map[string]string, len(prefs))
	for _, name := range names {
		key := invalidKeyChars.ReplaceAllString(name, "-")
		if prev, ok := sources[key]; ok {
			return nil, fmt.Errorf("preferences %q and %q both map to secret key %q", prev, name, key)
		}
		sources[key] = name
		data[key] = []byte(prefs[name])
	}
	return data, nil
}
