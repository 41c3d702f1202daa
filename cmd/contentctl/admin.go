package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/studyvault-backend/internal/service/workspace"
)

func newWorkspaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspace",
		Short: "Manage tenant workspaces",
	}

	var name string
	create := &cobra.Command{
		Use:   "create <id>",
		Short: "Create a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, rt *runtime) error {
				ws, err := workspace.NewService(rt.logger, rt.store).CreateWorkspace(ctx, workspace.CreateWorkspaceInput{
					ID:          args[0],
					DisplayName: name,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), ws)
			})
		},
	}
	create.Flags().StringVar(&name, "name", "", "display name")

	list := &cobra.Command{
		Use:   "list",
		Short: "List workspaces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, func(ctx context.Context, rt *runtime) error {
				list, err := workspace.NewService(rt.logger, rt.store).ListWorkspaces(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), list)
			})
		},
	}

	deactivate := &cobra.Command{
		Use:   "deactivate <id>",
		Short: "Deactivate a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, rt *runtime) error {
				ws, err := workspace.NewService(rt.logger, rt.store).DeactivateWorkspace(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), ws)
			})
		},
	}

	var (
		school   string
		subjects []string
	)
	assign := &cobra.Command{
		Use:   "assign-school <id>",
		Short: "Attach a workspace to a school and enable subjects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, rt *runtime) error {
				ws, err := workspace.NewService(rt.logger, rt.store).AssignWorkspaceSchool(ctx, workspace.AssignSchoolInput{
					TenantID:   args[0],
					SchoolID:   school,
					SubjectIDs: subjects,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), ws)
			})
		},
	}
	assign.Flags().StringVar(&school, "school", "", "school ID")
	assign.Flags().StringSliceVar(&subjects, "subjects", nil, "enabled subject IDs")
	_ = assign.MarkFlagRequired("school")

	cmd.AddCommand(create, list, deactivate, assign)
	return cmd
}

func newSchoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "school",
		Short: "Manage schools",
	}

	var (
		name     string
		subjects []string
	)
	create := &cobra.Command{
		Use:   "create <id>",
		Short: "Register a school with its subjects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := workspace.CreateSchoolInput{ID: args[0], Name: name}
			parsed, err := parseSubjects(subjects)
			if err != nil {
				return err
			}
			input.Subjects = parsed

			return withStore(cmd, func(ctx context.Context, rt *runtime) error {
				school, err := workspace.NewService(rt.logger, rt.store).CreateSchool(ctx, input)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), school)
			})
		},
	}
	create.Flags().StringVar(&name, "name", "", "school name")
	create.Flags().StringArrayVar(&subjects, "subject", nil, "subject as id=label (repeatable)")

	cmd.AddCommand(create)
	return cmd
}

// parseSubjects turns "econ=经济学" flags into subject inputs. The label
// defaults to the ID.
func parseSubjects(raw []string) ([]workspace.SubjectInput, error) {
	out := make([]workspace.SubjectInput, 0, len(raw))
	for _, r := range raw {
		id, label, _ := strings.Cut(r, "=")
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("subject %q: empty id", r)
		}
		label = strings.TrimSpace(label)
		if label == "" {
			label = id
		}
		out = append(out, workspace.SubjectInput{ID: id, Label: label})
	}
	return out, nil
}
