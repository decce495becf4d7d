package provisioner

import (
	"context"
	"errors"
	"testing"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestResultLabel(t *testing.T) {
	testCases := []struct {
		err  error
		want string
	}{
		{nil, "success"},
		{&ResolutionError{Err: errors.New("x")}, "resolution_error"},
		{&CreationError{Err: errors.New("x")}, "creation_error"},
		{&NamespaceNotFoundError{Name: "ns"}, "consistency_error"},
		{&ConfigurationError{Stage: "user-profile", Err: errors.New("x")}, "configuration_error"},
		{errors.New("other"), "error"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, resultLabel(tc.err))
	}
}

func TestProvisionRecordsMetrics(t *testing.T) {
	provisionTotal.Reset()
	configuratorFailuresTotal.Reset()

	factory := newMockFactory()
	failing := &recordingConfigurator{name: "user-preferences", factory: factory, err: errors.New("boom")}
	p := NewNamespaceProvisioner(factory, logr.Discard(), failing)

	_, _ = p.Provision(context.Background(), ResolutionContext{UserID: "u1"})
	_, _ = p.Provision(context.Background(), ResolutionContext{})

	assert.Equal(t, float64(1), testutil.ToFloat64(provisionTotal.WithLabelValues("configuration_error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(provisionTotal.WithLabelValues("resolution_error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(configuratorFailuresTotal.WithLabelValues("user-preferences")))
}
