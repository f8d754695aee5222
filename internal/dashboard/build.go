package dashboard

import (
	"fmt"

	"telemachus-dash/internal/config"
	"telemachus-dash/internal/status"
	"telemachus-dash/internal/telemetry"
	"telemachus-dash/internal/view"
)

// FromConfig fills the configuration-derived parts of Options: URL,
// Registry, Reconciler, Machine, StatusVar and Resources. The caller adds
// the transport, sink and observability.
func FromConfig(cfg *config.Config) (Options, error) {
	table, err := status.TableFromNames(cfg.Status.Codes, cfg.Status.HelpURL)
	if err != nil {
		return Options{}, fmt.Errorf("status table: %w", err)
	}

	resources := make([]view.Resource, 0, len(cfg.Resources))
	names := make([]string, 0, len(cfg.Resources))
	for _, r := range cfg.Resources {
		resources = append(resources, view.Resource{Name: r.Name, ID: r.ID, Label: r.Label})
		names = append(names, r.Name)
	}

	v := cfg.Variables
	vars := telemetry.DashboardProfile(telemetry.ProfileNames{
		MissionTime:     telemetry.VariableName(v.MissionTime),
		Body:            telemetry.VariableName(v.Body),
		Status:          telemetry.VariableName(v.Status),
		ResourceCurrent: v.ResourceCurrent,
		ResourceMax:     v.ResourceMax,
	}, names)
	reg, err := telemetry.NewRegistry(cfg.Feed.RateMs, vars)
	if err != nil {
		return Options{}, fmt.Errorf("subscription: %w", err)
	}

	rc := view.NewReconciler(view.Rules{
		MissionTime:     telemetry.VariableName(v.MissionTime),
		Body:            telemetry.VariableName(v.Body),
		ResourceCurrent: v.ResourceCurrent,
		ResourceMax:     v.ResourceMax,
		Resources:       resources,
		Bodies:          cfg.Bodies.Display,
		UnknownLabel:    cfg.Bodies.UnknownLabel,
	})

	return Options{
		URL:        cfg.Feed.URL,
		Registry:   reg,
		Reconciler: rc,
		Machine:    status.NewMachine(table),
		StatusVar:  telemetry.VariableName(v.Status),
		Resources:  resources,
	}, nil
}
