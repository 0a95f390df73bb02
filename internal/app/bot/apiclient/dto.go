package apiclient

import (
	"time"

	"racebot/internal/domain/guild"
)

type rolePayload struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Color       int    `json:"color"`
	Position    int    `json:"position"`
	Managed     bool   `json:"managed"`
	Mentionable bool   `json:"mentionable"`
}

type roleSyncRequest struct {
	Roles []rolePayload `json:"roles"`
}

type roleSyncResponse struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
	Total   int `json:"total"`
}

type memberPayload struct {
	DiscordID   string   `json:"discord_id"`
	Username    string   `json:"username"`
	DisplayName string   `json:"display_name"`
	Nickname    string   `json:"nickname"`
	AvatarHash  string   `json:"avatar_hash"`
	Roles       []string `json:"roles"`
	JoinedAt    *string  `json:"joined_at"`
	IsBot       bool     `json:"is_bot"`
}

type memberSyncRequest struct {
	Members []memberPayload `json:"members"`
}

type memberSyncResponse struct {
	Created     int `json:"created"`
	Updated     int `json:"updated"`
	Rejoined    int `json:"rejoined"`
	Left        int `json:"left"`
	Linked      int `json:"linked"`
	TotalActive int `json:"total_active"`
}

type userRoleSyncRequest struct {
	RoleIDs []string `json:"role_ids"`
}

type userRoleSyncResponse struct {
	RolesSynced int               `json:"roles_synced"`
	Roles       map[string]string `json:"roles"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// TeamLinks is the short-lived account linking response.
type TeamLinks struct {
	MagicLinkURL     string `json:"magic_link_url"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
}

// TriggerResult acknowledges a remotely started roster or results update.
type TriggerResult struct {
	Status string `json:"status"`
}

// TeammateResult is one autocomplete hit from the teammate search.
type TeammateResult struct {
	Zwid int    `json:"zwid"`
	Name string `json:"name"`
	Flag string `json:"flag"`
}

type searchResponse struct {
	Results []TeammateResult `json:"results"`
}

// Profile is the combined racing profile for a linked member. All sections
// are optional; a missing section means the upstream source has no data.
type Profile struct {
	Zwid         int                     `json:"zwid"`
	Account      *ProfileAccount         `json:"account"`
	ZwiftPower   *ZwiftPowerStats        `json:"zwiftpower"`
	ZwiftRacing  *ZwiftRacingStats       `json:"zwiftracing"`
	Verification map[string]Verification `json:"verification"`
}

type ProfileAccount struct {
	DiscordUsername string `json:"discord_username"`
	DiscordNickname string `json:"discord_nickname"`
	ZwidVerified    bool   `json:"zwid_verified"`
}

type ZwiftPowerStats struct {
	Name       string  `json:"name"`
	Div        int     `json:"div"`
	Rank       float64 `json:"r"`
	FTP        float64 `json:"ftp"`
	Weight     float64 `json:"weight"`
	H15Watts   float64 `json:"h_15_watts"`
	H15Wkg     float64 `json:"h_15_wkg"`
	H1200Watts float64 `json:"h_1200_watts"`
	H1200Wkg   float64 `json:"h_1200_wkg"`
	DistanceKm float64 `json:"distance_km"`
	ClimbedM   int     `json:"climbed_m"`
	TimeHours  float64 `json:"time_hours"`
}

type ZwiftRacingStats struct {
	Name                string  `json:"name"`
	RaceCurrentCategory string  `json:"race_current_category"`
	RaceCurrentRating   float64 `json:"race_current_rating"`
	RaceMax30Rating     float64 `json:"race_max30_rating"`
	RaceMax30Category   string  `json:"race_max30_category"`
	RaceMax90Rating     float64 `json:"race_max90_rating"`
	RaceMax90Category   string  `json:"race_max90_category"`
	RaceFinishes        int     `json:"race_finishes"`
	RaceWins            int     `json:"race_wins"`
	RacePodiums         int     `json:"race_podiums"`
	PowerCP             float64 `json:"power_cp"`
	PowerWkg5           float64 `json:"power_wkg5"`
	PowerWkg15          float64 `json:"power_wkg15"`
	PowerWkg60          float64 `json:"power_wkg60"`
	PowerWkg300         float64 `json:"power_wkg300"`
	PowerWkg1200        float64 `json:"power_wkg1200"`
	PhenotypeValue      string  `json:"phenotype_value"`
}

type Verification struct {
	Verified      bool `json:"verified"`
	IsExpired     bool `json:"is_expired"`
	DaysRemaining *int `json:"days_remaining"`
}

func toRolePayloads(roles []guild.RoleSnapshot) []rolePayload {
	out := make([]rolePayload, 0, len(roles))
	for _, r := range roles {
		out = append(out, rolePayload{
			ID:          r.ID,
			Name:        r.Name,
			Color:       r.Color,
			Position:    r.Position,
			Managed:     r.Managed,
			Mentionable: r.Mentionable,
		})
	}
	return out
}

func toMemberPayloads(members []guild.MemberSnapshot) []memberPayload {
	out := make([]memberPayload, 0, len(members))
	for _, m := range members {
		p := memberPayload{
			DiscordID:   m.DiscordID,
			Username:    m.Username,
			DisplayName: m.DisplayName,
			Nickname:    m.Nickname,
			AvatarHash:  m.AvatarHash,
			Roles:       m.RoleIDs,
			IsBot:       m.IsBot,
		}
		if m.JoinedAt != nil {
			joined := m.JoinedAt.UTC().Format(time.RFC3339)
			p.JoinedAt = &joined
		}
		out = append(out, p)
	}
	return out
}
