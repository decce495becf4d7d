package main

import (
	"errors"
	"os"
)

type config struct {
	namespaceTemplate string
	preferencesFile   string
	azureTenantID     string
	azureClientID     string
	azureClientSecret string
	graphEndpoint     string
}

func loadConfig() *config {
	return &config{
		namespaceTemplate: os.Getenv("NAMESPACE_TEMPLATE"),
		preferencesFile:   os.Getenv("PREFERENCES_FILE"),
		azureTenantID:     os.Getenv("AZURE_TENANT_ID"),
		azureClientID:     os.Getenv("AZURE_CLIENT_ID"),
		azureClientSecret: os.Getenv("AZURE_CLIENT_SECRET"),
		graphEndpoint:     os.Getenv("GRAPH_ENDPOINT"),
	}
}

func (c *config) validate() error {
	if c.azureTenantID == "" || c.azureClientID == "" || c.azureClientSecret == "" {
		return errors.New("AZURE_TENANT_ID, AZURE_CLIENT_ID, and AZURE_CLIENT_SECRET must be set")
	}
	return nil
}
