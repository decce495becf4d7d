package configurator

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"k8s.io/client-go/kubernetes"

	"github.com/bryanpaget/namespace-provisioner/internal/provisioner"
)

const (
	// UserProfileSecretName is the secret holding the user's profile.
	UserProfileSecretName = "user-profile"

	// UserProfileMountPath is where the profile is mounted in workspaces.
	UserProfileMountPath = "/config/user/profile"
)

// Profile describes a user as known to the identity directory.
type Profile struct {
	ID    string
	Name  string
	Email string
}

// ProfileSource looks up user profiles (e.g., Microsoft Entra ID).
type ProfileSource interface {
	GetProfile(ctx context.Context, userID string) (*Profile, error)
}

// UserProfileConfigurator writes the user's profile into the namespace.
type UserProfileConfigurator struct {
	k8sClient kubernetes.Interface
	names     NameEvaluator
	profiles  ProfileSource
	log       logr.Logger
}

// NewUserProfileConfigurator creates a configurator for the user-profile secret.
func NewUserProfileConfigurator(
	k8sClient kubernetes.Interface,
	names NameEvaluator,
	profiles ProfileSource,
	log logr.Logger,
) *UserProfileConfigurator {
	return &UserProfileConfigurator{
		k8sClient: k8sClient,
		names:     names,
		profiles:  profiles,
		log:       log,
	}
}

// Name implements provisioner.Configurator.
func (c *UserProfileConfigurator) Name() string {
	return "user-profile"
}

// Configure implements provisioner.Configurator.
func (c *UserProfileConfigurator) Configure(ctx context.Context, rc provisioner.ResolutionContext) error {
	namespace, err := c.names.EvaluateNamespaceName(ctx, rc)
	if err != nil {
		return fmt.Errorf("failed to evaluate namespace name: %w", err)
	}

	profile, err := c.profiles.GetProfile(ctx, rc.UserID)
	if err != nil {
		return fmt.Errorf("failed to get profile of user %s: %w", rc.UserID, err)
	}

	secret := newMountedSecret(namespace, UserProfileSecretName, UserProfileMountPath, map[string][]byte{
		"id":    []byte(profile.ID),
		"name":  []byte(profile.Name),
		"email": []byte(profile.Email),
	})
	if err := applySecret(ctx, c.k8sClient, secret); err != nil {
		return err
	}

	c.log.V(1).Info("Applied user profile", "namespace", namespace, "user", rc.UserID)
	return nil
}
