// internal/azure/client.go
package azure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"

	"github.com/bryanpaget/namespace-provisioner/internal/configurator"
)

// DefaultEndpoint is the Microsoft Graph API root.
const DefaultEndpoint = "https://graph.microsoft.com"

var graphScopes = []string{"https://graph.microsoft.com/.default"}

// ErrUserNotFound is returned when the directory has no such user.
var ErrUserNotFound = errors.New("user not found in directory")

// TokenCredential is the interface we require
type TokenCredential interface {
	GetToken(ctx context.Context, options policy.TokenRequestOptions) (azcore.AccessToken, error)
}

// GraphClient reads user profiles from Microsoft Graph.
type GraphClient struct {
	cred       TokenCredential
	endpoint   string
	httpClient *http.Client
}

// NewGraphClient creates a GraphClient authenticated with a client secret.
// An empty endpoint selects DefaultEndpoint.
func NewGraphClient(tenantID, clientID, clientSecret, endpoint string) (*GraphClient, error) {
	cred, err := azidentity.NewClientSecretCredential(
		tenantID,
		clientID,
		clientSecret,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credentials: %w", err)
	}
	return newGraphClient(cred, endpoint, http.DefaultClient), nil
}

func newGraphClient(cred TokenCredential, endpoint string, httpClient *http.Client) *GraphClient {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &GraphClient{
		cred:       cred,
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: httpClient,
	}
}

type graphUser struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
}

// GetProfile implements configurator.ProfileSource.
func (g *GraphClient) GetProfile(ctx context.Context, userID string) (*configurator.Profile, error) {
	// Get OAuth2 token for Microsoft Graph API
	token, err := g.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: graphScopes})
	if err != nil {
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}

	userURL := fmt.Sprintf("%s/v1.0/users/%s?$select=id,displayName,mail,userPrincipalName",
		g.endpoint, url.PathEscape(userID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.Token)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	default:
		return nil, fmt.Errorf("unexpected API response: %d %s",
			resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var user graphUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user %s: %w", userID, err)
	}

	email := user.Mail
	if email == "" {
		email = user.UserPrincipalName
	}
	return &configurator.Profile{
		ID:    user.ID,
		Name:  user.DisplayName,
		Email: email,
	}, nil
}
