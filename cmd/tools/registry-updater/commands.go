package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"franchise-onboarding/pkg/registry"
)

const defaultRegistryPath = "configs/activity-registry.json"

var now = time.Now

func newRootCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:           "registry-updater",
		Short:         "Maintain the onboarding activity registry",
		SilenceUsage:  true,
	}
	cmd.PersistentFlags().StringVar(&path, "path", defaultRegistryPath, "Path to registry file")
	cmd.AddCommand(newAddCmd(&path), newUpdateCmd(&path), newValidateCmd(&path))
	return cmd
}

func newAddCmd(path *string) *cobra.Command {
	a := registry.Activity{
		InputSchema:  map[string]interface{}{},
		OutputSchema: map[string]interface{}{},
		ErrorCodes:   []string{},
		Workflows:    []string{},
		Tags:         []string{},
	}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new activity to the registry",
		Example: "registry-updater add --id lookup-registry --displayName \"Lookup Registry\" " +
			"--description \"CPF, CNPJ and CEP lookups\" --category enrichment --taskType lookup-registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadOrCreate(*path, now())
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}
			if err := reg.Add(a, now()); err != nil {
				return err
			}
			if err := reg.Validate(); err != nil {
				return err
			}
			if err := registry.Save(reg, *path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added activity: %s\n", a.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&a.ID, "id", "", "Activity ID (e.g., submit-onboarding)")
	f.StringVar(&a.DisplayName, "displayName", "", "Display name")
	f.StringVar(&a.Description, "description", "", "Description")
	f.StringVar(&a.Category, "category", "", "Category (e.g., onboarding)")
	f.StringVar(&a.TaskType, "taskType", "", "Zeebe task type")
	f.StringVar(&a.Route, "route", "", "HTTP route serving the same operation")
	f.StringVar(&a.Version, "version", "1.0.0", "Version")
	f.StringVar(&a.ImplementationStatus, "status", registry.StatusPlanned, "planned, in-progress, completed or verified")
	f.StringVar(&a.Timeout, "timeout", "10s", "Job timeout")
	f.IntVar(&a.Retries, "retries", 3, "Job retries")
	for _, name := range []string{"id", "displayName", "description", "category", "taskType"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newUpdateCmd(path *string) *cobra.Command {
	var id, field, value string
	cmd := &cobra.Command{
		Use:     "update",
		Short:   "Update an existing activity's field",
		Example: "registry-updater update --id lookup-registry --field status --value verified",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(*path)
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}
			if err := reg.Update(id, field, value, now()); err != nil {
				return err
			}
			if err := registry.Save(reg, *path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated activity %s, field %s to %s\n", id, field, value)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Activity ID to update")
	cmd.Flags().StringVar(&field, "field", "", "Field to update (status, version, timeout, retries, ...)")
	cmd.Flags().StringVar(&value, "value", "", "New value for the field")
	for _, name := range []string{"id", "field", "value"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newValidateCmd(path *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the registry file",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(*path)
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}
			if err := reg.Validate(); err != nil {
				return fmt.Errorf("registry validation failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registry validation passed. Found %d activities.\n", len(reg.Activities))
			return nil
		},
	}
}
