package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/exp/slog"

	"racebot/internal/app/bot/apiclient"
	"racebot/internal/app/bot/config"
	"racebot/internal/domain/sync"
)

// divToCat maps ZwiftPower division codes to display categories.
var divToCat = map[int]string{
	5:  "A+",
	10: "A",
	20: "B",
	30: "C",
	40: "D",
	50: "E",
}

type commandHandlers struct {
	service *sync.Service
	api     *apiclient.Client
	cfg     *config.Config
	log     *slog.Logger
	ctx     context.Context
}

func newCommandHandlers(ctx context.Context, service *sync.Service, api *apiclient.Client, cfg *config.Config, log *slog.Logger) *commandHandlers {
	return &commandHandlers{
		service: service,
		api:     api,
		cfg:     cfg,
		log:     log.With(slog.String("component", "commands")),
		ctx:     ctx,
	}
}

func (c *commandHandlers) definitions() []*discordgo.ApplicationCommand {
	adminPerm := int64(discordgo.PermissionAdministrator)

	cmds := []*discordgo.ApplicationCommand{
		{
			Name:                     "sync_roles",
			Description:              "Sync all guild roles to the team site",
			DefaultMemberPermissions: &adminPerm,
		},
		{
			Name:                     "sync_members",
			Description:              "Sync the full member roster to the team site",
			DefaultMemberPermissions: &adminPerm,
		},
		{
			Name:        "sync_my_roles",
			Description: "Sync your own Discord roles to the team site",
		},
		{
			Name:        "team_links",
			Description: "Get a magic link to your team site account",
		},
		{
			Name:        "my_profile",
			Description: "View your Zwift racing profile",
		},
		{
			Name:        "teammate_profile",
			Description: "View a teammate's Zwift racing profile",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionString,
					Name:         "name",
					Description:  "Search for a teammate by name",
					Required:     true,
					Autocomplete: true,
				},
			},
		},
		{
			Name:                     "update_zp_team",
			Description:              "Update team roster from ZwiftPower",
			DefaultMemberPermissions: &adminPerm,
		},
		{
			Name:                     "update_zp_results",
			Description:              "Update team results from ZwiftPower",
			DefaultMemberPermissions: &adminPerm,
		},
		{
			Name:        "help",
			Description: "Show available commands",
		},
	}

	if c.cfg.Debug {
		cmds = append(cmds, &discordgo.ApplicationCommand{
			Name:                     "diag",
			Description:              "Show bot diagnostics",
			DefaultMemberPermissions: &adminPerm,
		})
	}

	return cmds
}

func (c *commandHandlers) register(s *discordgo.Session) {
	s.AddHandler(c.onInteractionCreate)
}

func (c *commandHandlers) registerCommands(s *discordgo.Session) error {
	_, err := s.ApplicationCommandBulkOverwrite(s.State.User.ID, c.cfg.GuildID, c.definitions())
	if err != nil {
		return fmt.Errorf("register application commands: %w", err)
	}
	c.log.Info("application commands registered", slog.String("guild_id", c.cfg.GuildID))
	return nil
}

func (c *commandHandlers) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		c.handleCommand(s, i)
	case discordgo.InteractionApplicationCommandAutocomplete:
		c.handleAutocomplete(s, i)
	}
}

func (c *commandHandlers) handleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	name := i.ApplicationCommandData().Name
	c.log.Debug("command received",
		slog.String("command", name),
		slog.String("user_id", interactionUserID(i)),
	)

	switch name {
	case "sync_roles":
		c.handleSyncRoles(s, i)
	case "sync_members":
		c.handleSyncMembers(s, i)
	case "sync_my_roles":
		c.handleSyncMyRoles(s, i)
	case "team_links":
		c.handleTeamLinks(s, i)
	case "my_profile":
		c.handleMyProfile(s, i)
	case "teammate_profile":
		c.handleTeammateProfile(s, i)
	case "update_zp_team":
		c.handleTrigger(s, i, "roster", c.api.TriggerTeamUpdate)
	case "update_zp_results":
		c.handleTrigger(s, i, "results", c.api.TriggerResultsUpdate)
	case "diag":
		c.handleDiag(s, i)
	case "help":
		c.handleHelp(s, i)
	}
}

func (c *commandHandlers) handleSyncRoles(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !c.deferEphemeral(s, i) {
		return
	}

	res, err := c.service.SyncGuildRoles(c.ctx, interactionUserID(i))
	if errors.Is(err, sync.ErrSyncDeferred) {
		c.edit(s, i, "A sync is already running. Your request will be applied right after it finishes.")
		return
	}
	if err != nil {
		c.edit(s, i, syncFailureMessage(err))
		return
	}

	c.edit(s, i, fmt.Sprintf(
		"Roles synced: %d created, %d updated, %d deleted (%d total).",
		res.Created, res.Updated, res.Deleted, res.Total,
	))
}

func (c *commandHandlers) handleSyncMembers(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !c.deferEphemeral(s, i) {
		return
	}

	res, err := c.service.SyncGuildMembers(c.ctx, interactionUserID(i))
	if errors.Is(err, sync.ErrSyncDeferred) {
		c.edit(s, i, "A sync is already running. Your request will be applied right after it finishes.")
		return
	}
	if err != nil {
		c.edit(s, i, syncFailureMessage(err))
		return
	}

	c.edit(s, i, fmt.Sprintf(
		"Members synced: %d created, %d updated, %d rejoined, %d left, %d linked (%d active).",
		res.Created, res.Updated, res.Rejoined, res.Left, res.Linked, res.TotalActive,
	))
}

func (c *commandHandlers) handleSyncMyRoles(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !c.deferEphemeral(s, i) {
		return
	}
	if i.Member == nil {
		c.edit(s, i, "This command only works inside the guild.")
		return
	}

	res, err := c.service.SyncMemberRoles(c.ctx, i.Member.User.ID, i.Member.Roles)
	if err != nil {
		c.edit(s, i, syncFailureMessage(err))
		return
	}
	if !res.Linked {
		c.edit(s, i, "Your Discord account is not linked to the team site yet. Use /team_links to link it.")
		return
	}

	names := make([]string, 0, len(res.Roles))
	for _, n := range res.Roles {
		names = append(names, n)
	}
	msg := fmt.Sprintf("Synced %d roles.", res.RolesSynced)
	if len(names) > 0 {
		msg += " Roles: " + strings.Join(names, ", ")
	}
	c.edit(s, i, msg)
}

func (c *commandHandlers) handleTeamLinks(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !c.deferEphemeral(s, i) {
		return
	}

	links, err := c.api.TeamLinks(c.ctx, interactionUserID(i))
	if err != nil {
		c.edit(s, i, syncFailureMessage(err))
		return
	}
	if links == nil {
		c.edit(s, i, "Your Discord account is not linked to the team site yet.")
		return
	}

	minutes := links.ExpiresInSeconds / 60
	c.edit(s, i, fmt.Sprintf(
		"Here is your sign-in link (valid for %d minutes):\n%s", minutes, links.MagicLinkURL,
	))
}

func (c *commandHandlers) handleMyProfile(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !c.deferEphemeral(s, i) {
		return
	}

	profile, err := c.api.MyProfile(c.ctx, interactionUserID(i))
	if err != nil {
		c.edit(s, i, syncFailureMessage(err))
		return
	}
	if profile == nil {
		c.edit(s, i, "Profile not found. Link your account with /team_links first.")
		return
	}

	c.editEmbed(s, i, buildProfileEmbed(profile, displayName(i)))
}

func (c *commandHandlers) handleTeammateProfile(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !c.deferEphemeral(s, i) {
		return
	}

	opts := i.ApplicationCommandData().Options
	if len(opts) == 0 {
		c.edit(s, i, "Please select a teammate from the autocomplete suggestions.")
		return
	}

	// Autocomplete choices carry the Zwift id as the option value.
	zwid, err := strconv.Atoi(opts[0].StringValue())
	if err != nil {
		c.edit(s, i, "Please select a teammate from the autocomplete suggestions.")
		return
	}

	profile, err := c.api.TeammateProfile(c.ctx, interactionUserID(i), zwid)
	if err != nil {
		c.edit(s, i, syncFailureMessage(err))
		return
	}
	if profile == nil {
		c.edit(s, i, "Teammate not found.")
		return
	}

	c.editEmbed(s, i, buildProfileEmbed(profile, ""))
}

func (c *commandHandlers) handleAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	query := ""
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Focused {
			query = opt.StringValue()
		}
	}

	var choices []*discordgo.ApplicationCommandOptionChoice
	if len(query) >= 2 {
		results, err := c.api.SearchTeammates(c.ctx, interactionUserID(i), query)
		if err != nil {
			// Autocomplete is best-effort; an empty list is a valid answer.
			c.log.Debug("teammate search failed", slog.Any("error", err))
		}
		for _, r := range results {
			name := r.Name
			if r.Flag != "" {
				name = fmt.Sprintf("%s (%s)", r.Name, r.Flag)
			}
			choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
				Name:  name,
				Value: strconv.Itoa(r.Zwid),
			})
		}
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	})
	if err != nil {
		c.log.Debug("autocomplete response failed", slog.Any("error", err))
	}
}

func (c *commandHandlers) handleTrigger(s *discordgo.Session, i *discordgo.InteractionCreate, what string, trigger func(context.Context, string) (*apiclient.TriggerResult, error)) {
	if !c.deferEphemeral(s, i) {
		return
	}

	res, err := trigger(c.ctx, interactionUserID(i))
	if err != nil {
		c.edit(s, i, syncFailureMessage(err))
		return
	}

	c.edit(s, i, fmt.Sprintf("ZwiftPower %s update started (status: %s).", what, res.Status))
}

func (c *commandHandlers) handleDiag(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !c.deferEphemeral(s, i) {
		return
	}

	st := c.service.Status()
	lastSync := "never"
	if !st.LastFullSyncAt.IsZero() {
		lastSync = st.LastFullSyncAt.UTC().Format("2006-01-02 15:04:05 UTC")
	}

	c.edit(s, i, fmt.Sprintf(
		"Guild: %s\nSync in progress: %t\nLast full sync: %s\nEnvironment: %s",
		st.GuildID, st.InProgress, lastSync, c.cfg.Env,
	))
}

func (c *commandHandlers) handleHelp(s *discordgo.Session, i *discordgo.InteractionCreate) {
	help := strings.Join([]string{
		"**Available commands**",
		"`/sync_my_roles` - sync your Discord roles to the team site",
		"`/team_links` - get a sign-in link for the team site",
		"`/my_profile` - view your Zwift racing profile",
		"`/teammate_profile` - view a teammate's profile",
		"",
		"**Admin commands**",
		"`/sync_roles` - sync all guild roles",
		"`/sync_members` - sync the full member roster",
		"`/update_zp_team` - refresh the roster from ZwiftPower",
		"`/update_zp_results` - refresh race results from ZwiftPower",
	}, "\n")

	c.respondEphemeral(s, i, help)
}

func (c *commandHandlers) deferEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		c.log.Error("failed to defer interaction", slog.Any("error", err))
		return false
	}
	return true
}

func (c *commandHandlers) respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		c.log.Error("failed to respond to interaction", slog.Any("error", err))
	}
}

func (c *commandHandlers) edit(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	_, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &content})
	if err != nil {
		c.log.Error("failed to edit interaction response", slog.Any("error", err))
	}
}

func (c *commandHandlers) editEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	embeds := []*discordgo.MessageEmbed{embed}
	_, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Embeds: &embeds})
	if err != nil {
		c.log.Error("failed to edit interaction response", slog.Any("error", err))
	}
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func displayName(i *discordgo.InteractionCreate) string {
	if i.Member != nil {
		if i.Member.Nick != "" {
			return i.Member.Nick
		}
		if i.Member.User != nil {
			return i.Member.User.Username
		}
	}
	if i.User != nil {
		return i.User.Username
	}
	return ""
}

func syncFailureMessage(err error) string {
	if f, ok := sync.AsFailure(err); ok {
		switch f.Reason {
		case sync.ReasonTimeout:
			return "The team site took too long to respond. Please try again later."
		case sync.ReasonConnection:
			return "Could not reach the team site. Please try again later."
		case sync.ReasonRemoteRejected:
			if f.Body != "" {
				return "The team site rejected the request: " + f.Body
			}
			return fmt.Sprintf("The team site rejected the request (status %d).", f.StatusCode)
		}
	}
	return "Something went wrong. Please try again later."
}
