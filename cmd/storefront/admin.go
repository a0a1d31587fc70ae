package main

import (
	"errors"
	"fmt"
	"net/mail"
	"os"
	"text/tabwriter"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/sagarc03/storefront"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage admin accounts",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an admin account interactively",
	Long: `Create an admin account.

You will be prompted for:
  - Name
  - Email
  - Password (entered twice)
  - Role (admin or superadmin)

This is the only way to create a superadmin; the HTTP register route always
creates plain admins.`,
	RunE: runAdminCreate,
}

var adminListCmd = &cobra.Command{
	Use:   "list",
	Short: "List admin accounts",
	RunE:  runAdminList,
}

var adminDeactivateCmd = &cobra.Command{
	Use:   "deactivate <email>",
	Short: "Deactivate an admin account",
	Long: `Deactivate an admin account. The admin can no longer log in and
tokens already issued are rejected once the server's admin cache expires.`,
	Args: cobra.ExactArgs(1),
	RunE: runSetActive(false),
}

var adminActivateCmd = &cobra.Command{
	Use:   "activate <email>",
	Short: "Reactivate a deactivated admin account",
	Args:  cobra.ExactArgs(1),
	RunE:  runSetActive(true),
}

var adminListSearch string

func init() {
	adminListCmd.Flags().StringVarP(&adminListSearch, "search", "s", "", "filter by name or email")

	adminCmd.AddCommand(adminCreateCmd, adminListCmd, adminDeactivateCmd, adminActivateCmd)
	rootCmd.AddCommand(adminCmd)
}

func runAdminCreate(cmd *cobra.Command, args []string) error {
	namePrompt := promptui.Prompt{
		Label: "Name",
		Validate: func(input string) error {
			if len(input) < 2 {
				return errors.New("name must be at least 2 characters")
			}
			return nil
		},
	}
	name, err := namePrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}

	emailPrompt := promptui.Prompt{
		Label: "Email",
		Validate: func(input string) error {
			if _, parseErr := mail.ParseAddress(input); parseErr != nil {
				return errors.New("invalid email address")
			}
			return nil
		},
	}
	email, err := emailPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}

	passwordPrompt := promptui.Prompt{
		Label: "Password",
		Mask:  '*',
		Validate: func(input string) error {
			if len(input) < 8 {
				return errors.New("password must be at least 8 characters")
			}
			return nil
		},
	}
	password, err := passwordPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}

	confirmPrompt := promptui.Prompt{
		Label: "Confirm password",
		Mask:  '*',
		Validate: func(input string) error {
			if input != password {
				return errors.New("passwords do not match")
			}
			return nil
		},
	}
	if _, err = confirmPrompt.Run(); err != nil {
		return handlePromptError(err)
	}

	rolePrompt := promptui.Select{
		Label: "Role",
		Items: []storefront.Role{storefront.RoleAdmin, storefront.RoleSuperAdmin},
	}
	_, role, err := rolePrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}

	a, err := appFromCommand(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.admins.Register(cmd.Context(), storefront.RegisterInput{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     storefront.Role(role),
	}, nil)
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s (%s)\n", result.Admin.Role, result.Admin.Email, result.Admin.ID)
	return nil
}

func runAdminList(cmd *cobra.Command, args []string) error {
	a, err := appFromCommand(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	admins, err := allAdmins(cmd, a.db.AdminRepo(), storefront.AdminQuery{Search: adminListSearch})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEMAIL\tNAME\tROLE\tACTIVE\tPICTURE")
	for _, admin := range admins {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%s\n", admin.ID, admin.Email, admin.Name, admin.Role, admin.IsActive, admin.Picture.Storage)
	}
	return w.Flush()
}

func runSetActive(active bool) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := appFromCommand(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		admin, err := a.db.AdminRepo().FindByEmail(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("find admin %s: %w", args[0], err)
		}

		updated, err := a.admins.SetActive(cmd.Context(), admin.ID, active)
		if err != nil {
			return err
		}

		state := "deactivated"
		if updated.IsActive {
			state = "active"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is %s\n", updated.Email, state)
		return nil
	}
}

// allAdmins pages through every admin matching q.
func allAdmins(cmd *cobra.Command, repo storefront.AdminRepo, q storefront.AdminQuery) ([]storefront.Admin, error) {
	q.Page = 1
	q.Limit = storefront.MaxPageLimit

	var admins []storefront.Admin
	for {
		page, err := repo.List(cmd.Context(), q)
		if err != nil {
			return nil, fmt.Errorf("list admins: %w", err)
		}
		admins = append(admins, page.Items...)
		if len(page.Items) < q.Limit || len(admins) >= page.Total {
			return admins, nil
		}
		q.Page++
	}
}

func handlePromptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) {
		fmt.Println("\nCancelled.")
		os.Exit(0)
	}
	if errors.Is(err, promptui.ErrAbort) {
		fmt.Println("Cancelled.")
		return nil
	}
	return err
}
