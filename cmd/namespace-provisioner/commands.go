package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"k8s.io/client-go/kubernetes"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"

	v1 "github.com/bryanpaget/namespace-provisioner/api/v1"
	"github.com/bryanpaget/namespace-provisioner/internal/azure"
	"github.com/bryanpaget/namespace-provisioner/internal/provisioner"
)

func newRootCommand() *cobra.Command {
	cfg := loadConfig()
	opts := zap.Options{}

	cmd := &cobra.Command{
		Use:          "namespace-provisioner",
		Short:        "Provision and configure user namespaces",
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			ctrl.SetLogger(zap.New(zap.UseFlagOptions(&opts)))
		},
	}

	goFlags := flag.NewFlagSet("zap", flag.ContinueOnError)
	opts.BindFlags(goFlags)
	cmd.PersistentFlags().AddGoFlagSet(goFlags)
	cmd.PersistentFlags().StringVar(&cfg.namespaceTemplate, "namespace-template", cfg.namespaceTemplate,
		"Namespace name template, e.g. <username>-che (env NAMESPACE_TEMPLATE)")
	cmd.PersistentFlags().StringVar(&cfg.preferencesFile, "preferences-file", cfg.preferencesFile,
		"YAML file with user preferences (env PREFERENCES_FILE)")

	cmd.AddCommand(newProvisionCommand(cfg), newServeCommand(cfg))
	return cmd
}

func newProvisionCommand(cfg *config) *cobra.Command {
	var (
		rc         provisioner.ResolutionContext
		attributes map[string]string
	)

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Provision and configure the namespace of a single user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rc.Attributes = attributes
			return runProvision(cmd, cfg, rc)
		},
	}

	cmd.Flags().StringVar(&rc.UserID, "user-id", "", "Id of the user owning the namespace")
	cmd.Flags().StringVar(&rc.UserName, "user-name", "", "Login of the user owning the namespace")
	cmd.Flags().StringToStringVar(&attributes, "attribute", nil, "Extra template attributes (key=value)")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}

func runProvision(cmd *cobra.Command, cfg *config, rc provisioner.ResolutionContext) error {
	if err := cfg.validate(); err != nil {
		return err
	}

	graphClient, err := azure.NewGraphClient(cfg.azureTenantID, cfg.azureClientID, cfg.azureClientSecret, cfg.graphEndpoint)
	if err != nil {
		return err
	}

	restConfig, err := ctrl.GetConfig()
	if err != nil {
		return fmt.Errorf("failed to get cluster config: %w", err)
	}
	k8sClient, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return fmt.Errorf("failed to create Kubernetes client: %w", err)
	}

	p, _ := buildProvisioner(cfg, k8sClient, graphClient, ctrl.Log)
	meta, err := p.Provision(cmd.Context(), rc)
	if err != nil {
		return err
	}
	return printMeta(cmd.OutOrStdout(), meta)
}

type metaOutput struct {
	Name       string            `yaml:"name"`
	Attributes map[string]string `yaml:"attributes,omitempty"`
}

func printMeta(w io.Writer, meta *provisioner.NamespaceMeta) error {
	out, err := yaml.Marshal(metaOutput{Name: meta.Name, Attributes: meta.Attributes})
	if err != nil {
		return fmt.Errorf("failed to encode namespace metadata: %w", err)
	}
	_, err = w.Write(out)
	return err
}

func newServeCommand(cfg *config) *cobra.Command {
	var (
		metricsAddr          string
		probeAddr            string
		enableLeaderElection bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the controller keeping managed namespaces configured",
		RunE: func(*cobra.Command, []string) error {
			return runServe(cfg, metricsAddr, probeAddr, enableLeaderElection)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-bind-address", ":8080", "The address the metric endpoint binds to.")
	cmd.Flags().StringVar(&probeAddr, "health-probe-bind-address", ":8081", "The address the probe endpoint binds to.")
	cmd.Flags().BoolVar(&enableLeaderElection, "leader-elect", false, "Enable leader election for controller manager.")
	return cmd
}

func runServe(cfg *config, metricsAddr, probeAddr string, enableLeaderElection bool) error {
	if err := cfg.validate(); err != nil {
		setupLog.Error(err, "Invalid configuration")
		return err
	}

	graphClient, err := azure.NewGraphClient(cfg.azureTenantID, cfg.azureClientID, cfg.azureClientSecret, cfg.graphEndpoint)
	if err != nil {
		setupLog.Error(err, "Failed to create Azure credential")
		return err
	}

	mgr, err := ctrl.NewManager(ctrl.GetConfigOrDie(), ctrl.Options{
		Scheme: scheme,
		Metrics: metricsserver.Options{
			BindAddress: metricsAddr,
		},
		HealthProbeBindAddress: probeAddr,
		LeaderElection:         enableLeaderElection,
		LeaderElectionID:       "namespace-provisioner",
	})
	if err != nil {
		setupLog.Error(err, "Unable to start manager")
		return err
	}

	k8sClient, err := kubernetes.NewForConfig(mgr.GetConfig())
	if err != nil {
		setupLog.Error(err, "Unable to create Kubernetes client")
		return err
	}
	p, factory := buildProvisioner(cfg, k8sClient, graphClient, ctrl.Log)

	reconciler := &v1.NamespaceReconciler{
		Client:      mgr.GetClient(),
		Log:         ctrl.Log.WithName("controllers").WithName("Namespace"),
		Scheme:      mgr.GetScheme(),
		Provisioner: p,
		Names:       factory,
	}
	if err := reconciler.SetupWithManager(mgr); err != nil {
		setupLog.Error(err, "Unable to create controller", "controller", "Namespace")
		return err
	}

	if err := mgr.AddHealthzCheck("healthz", healthz.Ping); err != nil {
		setupLog.Error(err, "Unable to set up health check")
		return err
	}
	if err := mgr.AddReadyzCheck("readyz", healthz.Ping); err != nil {
		setupLog.Error(err, "Unable to set up ready check")
		return err
	}

	setupLog.Info("Starting manager")
	if err := mgr.Start(ctrl.SetupSignalHandler()); err != nil {
		setupLog.Error(err, "Problem running manager")
		return err
	}
	return nil
}
