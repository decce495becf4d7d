package configurator

import (
	"context"
	"errors"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/bryanpaget/namespace-provisioner/internal/provisioner"
)

type staticNames struct {
	err error
}

func (s staticNames) EvaluateNamespaceName(_ context.Context, rc provisioner.ResolutionContext) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "ns-" + rc.UserID, nil
}

// MockProfileSource implements ProfileSource for testing
type MockProfileSource struct {
	Profiles map[string]*Profile
	Err      error
}

func (m *MockProfileSource) GetProfile(_ context.Context, userID string) (*Profile, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	p, ok := m.Profiles[userID]
	if !ok {
		return nil, errors.New("user not found")
	}
	return p, nil
}

// MockPreferenceSource implements PreferenceSource for testing
type MockPreferenceSource struct {
	Preferences map[string]map[string]string
	Err         error
}

func (m *MockPreferenceSource) GetPreferences(_ context.Context, userID string) (map[string]string, error) {
	return m.Preferences[userID], m.Err
}

var testRC = provisioner.ResolutionContext{UserID: "u1", UserName: "jdoe"}

func getSecret(t *testing.T, client *fake.Clientset, name string) *corev1.Secret {
	secret, err := client.CoreV1().Secrets("ns-u1").Get(context.TODO(), name, metav1.GetOptions{})
	require.NoError(t, err)
	return secret
}

func TestUserProfileConfigurator(t *testing.T) {
	client := fake.NewSimpleClientset()
	profiles := &MockProfileSource{Profiles: map[string]*Profile{
		"u1": {ID: "u1", Name: "John Doe", Email: "jdoe@example.com"},
	}}
	c := NewUserProfileConfigurator(client, staticNames{}, profiles, logr.Discard())

	require.Equal(t, "user-profile", c.Name())
	require.NoError(t, c.Configure(context.TODO(), testRC))

	secret := getSecret(t, client, UserProfileSecretName)
	require.Equal(t, "u1", string(secret.Data["id"]))
	require.Equal(t, "John Doe", string(secret.Data["name"]))
	require.Equal(t, "jdoe@example.com", string(secret.Data["email"]))
	require.Equal(t, "true", secret.Labels[MountToWorkspaceLabel])
	require.Equal(t, UserProfileMountPath, secret.Annotations[MountPathAnnotation])
}

func TestUserProfileConfiguratorUpdatesExisting(t *testing.T) {
	stale := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Name: UserProfileSecretName, Namespace: "ns-u1"},
		Data:       map[string][]byte{"name": []byte("Old Name")},
	}
	client := fake.NewSimpleClientset(stale)
	profiles := &MockProfileSource{Profiles: map[string]*Profile{
		"u1": {ID: "u1", Name: "New Name", Email: "new@example.com"},
	}}
	c := NewUserProfileConfigurator(client, staticNames{}, profiles, logr.Discard())

	require.NoError(t, c.Configure(context.TODO(), testRC))

	secret := getSecret(t, client, UserProfileSecretName)
	require.Equal(t, "New Name", string(secret.Data["name"]))
	require.Equal(t, "true", secret.Labels[WatchSecretLabel])
}

func TestUserProfileConfiguratorErrors(t *testing.T) {
	testCases := []struct {
		name     string
		names    NameEvaluator
		profiles *MockProfileSource
		contains string
	}{
		{
			name:     "name evaluation fails",
			names:    staticNames{err: errors.New("no user")},
			profiles: &MockProfileSource{},
			contains: "failed to evaluate namespace name",
		},
		{
			name:     "profile lookup fails",
			names:    staticNames{},
			profiles: &MockProfileSource{Err: errors.New("graph unavailable")},
			contains: "failed to get profile of user u1",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client := fake.NewSimpleClientset()
			c := NewUserProfileConfigurator(client, tc.names, tc.profiles, logr.Discard())

			err := c.Configure(context.TODO(), testRC)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.contains)

			list, err := client.CoreV1().Secrets("ns-u1").List(context.TODO(), metav1.ListOptions{})
			require.NoError(t, err)
			require.Empty(t, list.Items)
		})
	}
}

func TestUserPreferencesConfigurator(t *testing.T) {
	client := fake.NewSimpleClientset()
	prefs := &MockPreferenceSource{Preferences: map[string]map[string]string{
		"u1": {
			"theme":            "dark",
			"editor/font size": "14",
		},
	}}
	c := NewUserPreferencesConfigurator(client, staticNames{}, prefs, logr.Discard())

	require.Equal(t, "user-preferences", c.Name())
	require.NoError(t, c.Configure(context.TODO(), testRC))

	secret := getSecret(t, client, UserPreferencesSecretName)
	require.Equal(t, "dark", string(secret.Data["theme"]))
	require.Equal(t, "14", string(secret.Data["editor-font-size"]))
	require.Equal(t, UserPreferencesMountPath, secret.Annotations[MountPathAnnotation])
}

func TestUserPreferencesConfiguratorNoPreferences(t *testing.T) {
	client := fake.NewSimpleClientset()
	c := NewUserPreferencesConfigurator(client, staticNames{}, &MockPreferenceSource{}, logr.Discard())

	require.NoError(t, c.Configure(context.TODO(), testRC))

	secret := getSecret(t, client, UserPreferencesSecretName)
	require.Empty(t, secret.Data)
}

func TestUserPreferencesConfiguratorSourceError(t *testing.T) {
	client := fake.NewSimpleClientset()
	c := NewUserPreferencesConfigurator(client, staticNames{}, &MockPreferenceSource{Err: errors.New("disk")}, logr.Discard())

	err := c.Configure(context.TODO(), testRC)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to get preferences of user u1")
}

func TestUserPreferencesConfiguratorRejectsKeyCollision(t *testing.T) {
	client := fake.NewSimpleClientset()
	prefs := &MockPreferenceSource{Preferences: map[string]map[string]string{
		"u1": {
			"editor/font": "A",
			"editor-font": "B",
			"editor font": "C",
		},
	}}
	c := NewUserPreferencesConfigurator(client, staticNames{}, prefs, logr.Discard())

	for i := 0; i < 10; i++ {
		err := c.Configure(context.TODO(), testRC)
		require.Error(t, err)
		require.Contains(t, err.Error(), `preferences "editor font" and "editor-font" both map to secret key "editor-font"`)
	}

	list, err := client.CoreV1().Secrets("ns-u1").List(context.TODO(), metav1.ListOptions{})
	require.NoError(t, err)
	require.Empty(t, list.Items)
}
