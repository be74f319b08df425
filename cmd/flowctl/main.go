// Command flowctl is the operator tool for tasks that have no HTTP caller: granting platform
// super-admin access and bootstrapping the first tenants.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"flowproject-backend-go/internal/config"
	"flowproject-backend-go/internal/core"
	"flowproject-backend-go/internal/db"
	"flowproject-backend-go/internal/events"
	"flowproject-backend-go/internal/identity"
	"flowproject-backend-go/internal/logging"
	"flowproject-backend-go/internal/models"
)

const operatorName = "flowctl"

func main() {
	if err := logging.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "Warning: Error loading .env file:", err)
	}
	if err := rootCmd(connectFirebase).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// backend is what the commands need from the environment.
type backend struct {
	platformUsers db.PlatformUserRepository
	provisioning  core.ProvisioningService
	close         func()
}

type connectFunc func(ctx context.Context) (*backend, error)

func rootCmd(connect connectFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "flowctl",
		Short:         "FlowProject operator tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(superAdminCmd(connect), companyCmd(connect))
	return cmd
}

func superAdminCmd(connect connectFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "superadmin",
		Short: "Grant or revoke platform super-admin access",
	}
	set := func(active bool) func(*cobra.Command, []string) error {
		return func(c *cobra.Command, args []string) error {
			b, err := connect(c.Context())
			if err != nil {
				return err
			}
			defer b.close()
			if err := setSuperAdmin(c.Context(), b.platformUsers, args[0], active); err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "platformUsers/%s active=%t\n", args[0], active)
			return nil
		}
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "grant <uid>",
			Short: "Make an existing Firebase user an active super-admin",
			Args:  cobra.ExactArgs(1),
			RunE:  set(true),
		},
		&cobra.Command{
			Use:   "revoke <uid>",
			Short: "Deactivate a super-admin",
			Args:  cobra.ExactArgs(1),
			RunE:  set(false),
		},
	)
	return cmd
}

// setSuperAdmin writes platformUsers/{uid}. Revoking keeps the document with active=false.
func setSuperAdmin(ctx context.Context, repo db.PlatformUserRepository, uid string, active bool) error {
	if uid == "" {
		return fmt.Errorf("uid cannot be empty")
	}
	return repo.Set(ctx, &models.PlatformUser{UID: uid, Role: models.RoleSuperAdmin, Active: active})
}

func companyCmd(connect connectFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "company",
		Short: "Manage tenants",
	}

	var req models.CreateCompanyRequest
	var adminInactive bool
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a company and its first admin",
		RunE: func(c *cobra.Command, _ []string) error {
			if adminInactive {
				active := false
				req.Admin.Active = &active
			}
			b, err := connect(c.Context())
			if err != nil {
				return err
			}
			defer b.close()
			result, err := b.provisioning.BootstrapCompany(c.Context(), operatorName, req)
			if err != nil {
				return err
			}
			return printJSON(c.OutOrStdout(), result)
		},
	}
	f := create.Flags()
	f.StringVar(&req.CompanyID, "id", "", "company slug, also its document id")
	f.StringVar(&req.CompanyName, "name", "", "company display name")
	f.StringVar(&req.CNPJ, "cnpj", "", "company CNPJ, any formatting")
	f.StringVar(&req.Admin.Name, "admin-name", "", "first admin's name")
	f.StringVar(&req.Admin.Email, "admin-email", "", "first admin's email")
	f.StringVar(&req.Admin.Phone, "admin-phone", "", "first admin's phone")
	f.BoolVar(&adminInactive, "admin-inactive", false, "create the admin profile inactive")
	for _, name := range []string{"id", "name", "admin-name", "admin-email"} {
		_ = create.MarkFlagRequired(name)
	}

	cmd.AddCommand(create)
	return cmd
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func connectFirebase(ctx context.Context) (*backend, error) {
	appConfig, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(appConfig.IsRelease())
	if err != nil {
		return nil, err
	}

	initCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	clients, err := db.InitFirebase(initCtx, appConfig, logger)
	if err != nil {
		return nil, err
	}

	closers := []func(){func() { _ = clients.Close() }, func() { _ = logger.Sync() }}
	var publisher core.EventPublisher
	if appConfig.RabbitMQURL != "" {
		p, err := events.NewPublisher(appConfig.RabbitMQURL, appConfig.ProvisioningQueue, logger)
		if err != nil {
			logger.Warn("RabbitMQ unavailable, welcome email will not be sent", zap.Error(err))
		} else {
			publisher = p
			closers = append([]func(){func() { _ = p.Close() }}, closers...)
		}
	}

	fs := clients.Firestore
	platformUsers := db.NewFirestorePlatformUserRepository(fs)
	companyUsers := db.NewFirestoreCompanyUserRepository(fs)
	sessions := core.NewSessionService(platformUsers, db.NewFirestoreMembershipRepository(fs), companyUsers, nil, logger)
	provisioning := core.NewProvisioningService(
		sessions,
		db.NewFirestoreCompanyRepository(fs),
		companyUsers,
		db.NewFirestoreTeamRepository(fs),
		identity.NewFirebaseProvider(clients.Auth),
		core.NewAuditService(db.NewFirestoreAuditRepository(fs)),
		publisher,
		nil,
		logger,
	)
	return &backend{
		platformUsers: platformUsers,
		provisioning:  provisioning,
		close: func() {
			for _, c := range closers {
				c()
			}
		},
	}, nil
}
