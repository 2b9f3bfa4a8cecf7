package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gosuda/isoflow/internal/auth"
	"github.com/gosuda/isoflow/internal/domain"
	"github.com/gosuda/isoflow/internal/service"
	"github.com/gosuda/isoflow/internal/stats"
	"github.com/gosuda/isoflow/internal/store/postgres"
)

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending PostgreSQL schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closeStore, err := openStore(cmd.Context(), c.cfg, false)
			if err != nil {
				return err
			}
			defer closeStore()

			pg, ok := store.(*postgres.Store)
			if !ok {
				return errors.New("migrate: store is not PostgreSQL")
			}
			version, err := pg.Migrate(cmd.Context())
			if err != nil {
				return err
			}
			log.Info().Int("version", version).Msg("isoflow: schema up to date")
			_, err = fmt.Fprintf(c.out, "schema version %d\n", version)
			return err
		},
	}
}

func (c *cli) seedClausesCmd() *cobra.Command {
	var orgFlag, standardFlag string
	cmd := &cobra.Command{
		Use:   "seed-clauses",
		Short: "Insert the built-in ISO clause catalog into an organization",
		RunE: func(cmd *cobra.Command, _ []string) error {
			orgID, err := uuid.Parse(orgFlag)
			if err != nil {
				return fmt.Errorf("seed-clauses: invalid --org: %w", err)
			}
			std, err := parseStandard(standardFlag)
			if err != nil {
				return err
			}

			store, closeStore, err := openStore(cmd.Context(), c.cfg, false)
			if err != nil {
				return err
			}
			defer closeStore()

			res, err := buildServices(c.cfg, store, nil).Catalog.Seed(cmd.Context(), operator(), &orgID, std)
			if err != nil {
				return err
			}
			return renderSeedResults(c.out, res)
		},
	}
	cmd.Flags().StringVar(&orgFlag, "org", "", "organization id")
	cmd.Flags().StringVar(&standardFlag, "standard", "", "ISO_9001 or ISO_27001 (default: both)")
	_ = cmd.MarkFlagRequired("org")
	return cmd
}

func (c *cli) tokenCmd() *cobra.Command {
	var userFlag, orgFlag, roleFlag string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for an existing user (development)",
		RunE: func(_ *cobra.Command, _ []string) error {
			u, err := tokenUser(userFlag, orgFlag, roleFlag)
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = c.cfg.JWT.AccessTTL
			}
			tok, err := auth.IssueToken(c.cfg.JWT.Secret, u, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.out, tok)
			return err
		},
	}
	cmd.Flags().StringVar(&userFlag, "user", "", "user id")
	cmd.Flags().StringVar(&orgFlag, "org", "", "organization id (omit for SUPER_ADMIN)")
	cmd.Flags().StringVar(&roleFlag, "role", string(domain.RoleUser), "SUPER_ADMIN, ACCOUNT_ADMIN or USER")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default: configured access TTL)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func (c *cli) reportCmd() *cobra.Command {
	report := &cobra.Command{Use: "report", Short: "Print compliance reports"}

	var orgFlag string
	var asJSON bool
	tasks := &cobra.Command{
		Use:   "tasks",
		Short: "Summarize the tasks of an organization",
		RunE: func(cmd *cobra.Command, _ []string) error {
			orgID, err := uuid.Parse(orgFlag)
			if err != nil {
				return fmt.Errorf("report tasks: invalid --org: %w", err)
			}

			store, closeStore, err := openStore(cmd.Context(), c.cfg, false)
			if err != nil {
				return err
			}
			defer closeStore()

			s, err := buildServices(c.cfg, store, nil).Tasks.Stats(cmd.Context(), operator(), &orgID)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(c.out, s)
			}
			renderTaskStats(c.out, s)
			return nil
		},
	}
	tasks.Flags().StringVar(&orgFlag, "org", "", "organization id")
	tasks.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	_ = tasks.MarkFlagRequired("org")

	report.AddCommand(tasks)
	return report
}

func parseStandard(v string) (*domain.Standard, error) {
	if v == "" {
		return nil, nil
	}
	s := domain.Standard(strings.ToUpper(v))
	if !s.Valid() {
		return nil, fmt.Errorf("unknown standard %q", v)
	}
	return &s, nil
}

func tokenUser(userFlag, orgFlag, roleFlag string) (*domain.User, error) {
	id, err := uuid.Parse(userFlag)
	if err != nil {
		return nil, fmt.Errorf("token: invalid --user: %w", err)
	}
	role := domain.Role(strings.ToUpper(roleFlag))
	if !role.Valid() {
		return nil, fmt.Errorf("token: unknown role %q", roleFlag)
	}
	u := &domain.User{ID: id, Role: role, IsActive: true}
	if orgFlag != "" {
		orgID, parseErr := uuid.Parse(orgFlag)
		if parseErr != nil {
			return nil, fmt.Errorf("token: invalid --org: %w", parseErr)
		}
		u.OrganizationID = &orgID
	}
	if role != domain.RoleSuperAdmin && u.OrganizationID == nil {
		return nil, fmt.Errorf("token: role %s requires --org", role)
	}
	return u, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderSeedResults(w io.Writer, res []service.SeedResult) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Standard", "Inserted", "Skipped"})
	for _, r := range res {
		tw.AppendRow(table.Row{r.Standard, r.Inserted, r.Skipped})
	}
	tw.Render()
	return nil
}

func renderTaskStats(w io.Writer, s stats.TaskStats) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Metric", "Value"})
	tw.AppendRows([]table.Row{
		{"Total", s.Total},
		{"Completed", s.Completed},
		{"Completion rate", fmt.Sprintf("%.1f%%", s.CompletionRate)},
		{"Overdue", s.Overdue},
		{"Due today", s.DueToday},
		{"Due this week", s.DueThisWeek},
		{"Avg. days to complete", fmt.Sprintf("%.1f", s.AverageDaysToComplete)},
	})
	tw.AppendSeparator()
	for _, st := range domain.ValidTaskStatuses {
		tw.AppendRow(table.Row{"Status " + string(st), s.ByStatus[st]})
	}
	priorities := make([]int, 0, len(s.ByPriority))
	for p := range s.ByPriority {
		priorities = append(priorities, p)
	}
	slices.Sort(priorities)
	for _, p := range priorities {
		tw.AppendRow(table.Row{fmt.Sprintf("Priority %d", p), s.ByPriority[p]})
	}
	tw.Render()
}
