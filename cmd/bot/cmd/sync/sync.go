package sync

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"racebot/internal/app/bot"
)

type contextKey string

// AppKey carries the initialized bot application through the command context.
const AppKey contextKey = "app"

var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "One-shot sync commands",
	Long: `Run a single sync against the team site and exit. Snapshots are
taken over the Discord REST API; no gateway connection is opened.`,
}

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "Sync all guild roles once",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := appFrom(cmd)
		if err != nil {
			return err
		}

		start := time.Now()
		res, err := app.Service().SyncGuildRoles(cmd.Context(), actingUserID(app.Session()))
		if err != nil {
			return fmt.Errorf("role sync failed: %w", err)
		}

		color.Green("Roles synced in %v", time.Since(start).Round(time.Millisecond))
		fmt.Printf("  created: %d\n  updated: %d\n  deleted: %d\n  total:   %d\n",
			res.Created, res.Updated, res.Deleted, res.Total)
		return nil
	},
}

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "Sync the full member roster once",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := appFrom(cmd)
		if err != nil {
			return err
		}

		start := time.Now()
		res, err := app.Service().SyncGuildMembers(cmd.Context(), actingUserID(app.Session()))
		if err != nil {
			return fmt.Errorf("member sync failed: %w", err)
		}

		color.Green("Members synced in %v", time.Since(start).Round(time.Millisecond))
		fmt.Printf("  created:  %d\n  updated:  %d\n  rejoined: %d\n  left:     %d\n  linked:   %d\n  active:   %d\n",
			res.Created, res.Updated, res.Rejoined, res.Left, res.Linked, res.TotalActive)
		return nil
	},
}

var memberCmd = &cobra.Command{
	Use:   "member <discord-id>",
	Short: "Sync a single member's roles once",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := appFrom(cmd)
		if err != nil {
			return err
		}

		memberID := args[0]
		member, err := app.Session().GuildMember(app.Service().GuildID(), memberID)
		if err != nil {
			return fmt.Errorf("fetch member %s: %w", memberID, err)
		}

		res, err := app.Service().SyncMemberRoles(cmd.Context(), memberID, member.Roles)
		if err != nil {
			return fmt.Errorf("member role sync failed: %w", err)
		}

		if !res.Linked {
			color.Yellow("Member %s has no linked account, nothing to sync", memberID)
			return nil
		}

		color.Green("Synced %d roles for member %s", res.RolesSynced, memberID)
		for id, name := range res.Roles {
			fmt.Printf("  %s  %s\n", id, name)
		}
		return nil
	},
}

type userFetcher interface {
	User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error)
}

// actingUserID resolves the bot's own user over the REST API; no gateway
// session exists in one-shot mode. The acting user header defaults to the
// bot account, same as syncs the bot initiates itself.
func actingUserID(s userFetcher) string {
	u, err := s.User("@me")
	if err != nil || u == nil {
		return ""
	}
	return u.ID
}

func appFrom(cmd *cobra.Command) (*bot.App, error) {
	app, ok := cmd.Context().Value(AppKey).(*bot.App)
	if !ok || app == nil {
		return nil, fmt.Errorf("application not initialized")
	}
	return app, nil
}

func init() {
	SyncCmd.AddCommand(rolesCmd)
	SyncCmd.AddCommand(membersCmd)
	SyncCmd.AddCommand(memberCmd)
}
