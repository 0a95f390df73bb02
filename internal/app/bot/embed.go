package bot

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"racebot/internal/app/bot/apiclient"
)

const embedColor = 0xFC6719

// buildProfileEmbed renders a combined ZwiftPower and ZwiftRacing profile.
// Sections with no upstream data are omitted.
func buildProfileEmbed(p *apiclient.Profile, fallbackName string) *discordgo.MessageEmbed {
	name := fallbackName
	if p.ZwiftPower != nil && p.ZwiftPower.Name != "" {
		name = p.ZwiftPower.Name
	} else if p.ZwiftRacing != nil && p.ZwiftRacing.Name != "" {
		name = p.ZwiftRacing.Name
	}

	embed := &discordgo.MessageEmbed{
		Title:  name,
		Color:  embedColor,
		Footer: &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Zwift ID: %d", p.Zwid)},
	}

	if p.Account != nil {
		discordName := p.Account.DiscordNickname
		if discordName == "" {
			discordName = p.Account.DiscordUsername
		}
		if discordName != "" {
			verified := ""
			if p.Account.ZwidVerified {
				verified = " ✓"
			}
			embed.Description = fmt.Sprintf("Discord: **%s**%s", discordName, verified)
		}
	}

	if f := zwiftPowerField(p.ZwiftPower, p.Zwid); f != nil {
		embed.Fields = append(embed.Fields, f)
	}
	if f := zwiftRacingField(p.ZwiftRacing, p.Zwid); f != nil {
		embed.Fields = append(embed.Fields, f)
	}
	if f := powerCurveField(p.ZwiftRacing); f != nil {
		embed.Fields = append(embed.Fields, f)
	}
	if f := verificationField(p.Verification); f != nil {
		embed.Fields = append(embed.Fields, f)
	}

	return embed
}

func zwiftPowerField(zp *apiclient.ZwiftPowerStats, zwid int) *discordgo.MessageEmbedField {
	if zp == nil {
		return nil
	}

	var lines []string
	if zp.Div != 0 {
		cat, ok := divToCat[zp.Div]
		if !ok {
			cat = fmt.Sprintf("%d", zp.Div)
		}
		lines = append(lines, "**Cat:** "+cat)
	}
	if zp.Rank != 0 {
		lines = append(lines, fmt.Sprintf("**Rank:** %.0f", zp.Rank))
	}
	if zp.FTP != 0 {
		lines = append(lines, fmt.Sprintf("**FTP:** %.0fW", zp.FTP))
	}
	if zp.Weight != 0 {
		lines = append(lines, fmt.Sprintf("**Weight:** %.1fkg", zp.Weight))
	}

	var power []string
	if zp.H15Watts != 0 {
		wkg := ""
		if zp.H15Wkg != 0 {
			wkg = fmt.Sprintf(" (%.1fw/kg)", zp.H15Wkg)
		}
		power = append(power, fmt.Sprintf("15s: %.0fW%s", zp.H15Watts, wkg))
	}
	if zp.H1200Watts != 0 {
		wkg := ""
		if zp.H1200Wkg != 0 {
			wkg = fmt.Sprintf(" (%.1fw/kg)", zp.H1200Wkg)
		}
		power = append(power, fmt.Sprintf("20m: %.0fW%s", zp.H1200Watts, wkg))
	}
	if len(power) > 0 {
		lines = append(lines, "**Power:** "+strings.Join(power, ", "))
	}

	var totals []string
	if zp.DistanceKm != 0 {
		totals = append(totals, fmt.Sprintf("%.0fkm", zp.DistanceKm))
	}
	if zp.ClimbedM != 0 {
		totals = append(totals, fmt.Sprintf("%dm climbed", zp.ClimbedM))
	}
	if zp.TimeHours != 0 {
		totals = append(totals, fmt.Sprintf("%.0fhrs", zp.TimeHours))
	}
	if len(totals) > 0 {
		lines = append(lines, "**Totals:** "+strings.Join(totals, ", "))
	}

	if len(lines) == 0 {
		return nil
	}

	link := fmt.Sprintf("[View on ZwiftPower ↗](https://zwiftpower.com/profile.php?z=%d)", zwid)
	return &discordgo.MessageEmbedField{
		Name:   "ZwiftPower",
		Value:  strings.Join(lines, "\n") + "\n" + link,
		Inline: true,
	}
}

func zwiftRacingField(zr *apiclient.ZwiftRacingStats, zwid int) *discordgo.MessageEmbedField {
	if zr == nil {
		return nil
	}

	var lines []string
	if zr.RaceCurrentCategory != "" {
		rating := ""
		if zr.RaceCurrentRating != 0 {
			rating = fmt.Sprintf(" (%.0f)", zr.RaceCurrentRating)
		}
		lines = append(lines, "**Category:** "+zr.RaceCurrentCategory+rating)
	}
	if zr.PowerCP != 0 {
		lines = append(lines, fmt.Sprintf("**Critical Power:** %.0fW", zr.PowerCP))
	}
	if zr.RaceMax30Rating != 0 {
		lines = append(lines, fmt.Sprintf("**Max 30d:** %.0f (%s)", zr.RaceMax30Rating, zr.RaceMax30Category))
	}
	if zr.RaceMax90Rating != 0 {
		lines = append(lines, fmt.Sprintf("**Max 90d:** %.0f (%s)", zr.RaceMax90Rating, zr.RaceMax90Category))
	}

	var races []string
	if zr.RaceFinishes != 0 {
		races = append(races, fmt.Sprintf("%d races", zr.RaceFinishes))
	}
	if zr.RaceWins != 0 {
		races = append(races, fmt.Sprintf("%d wins", zr.RaceWins))
	}
	if zr.RacePodiums != 0 {
		races = append(races, fmt.Sprintf("%d podiums", zr.RacePodiums))
	}
	if len(races) > 0 {
		lines = append(lines, "**Stats:** "+strings.Join(races, ", "))
	}

	if zr.PhenotypeValue != "" {
		lines = append(lines, "**Phenotype:** "+zr.PhenotypeValue)
	}

	if len(lines) == 0 {
		return nil
	}

	link := fmt.Sprintf("[View on ZwiftRacing ↗](https://www.zwiftracing.app/riders/%d)", zwid)
	return &discordgo.MessageEmbedField{
		Name:   "ZwiftRacing",
		Value:  strings.Join(lines, "\n") + "\n" + link,
		Inline: true,
	}
}

func powerCurveField(zr *apiclient.ZwiftRacingStats) *discordgo.MessageEmbedField {
	if zr == nil {
		return nil
	}

	var curve []string
	for _, p := range []struct {
		label string
		value float64
	}{
		{"5s", zr.PowerWkg5},
		{"15s", zr.PowerWkg15},
		{"1m", zr.PowerWkg60},
		{"5m", zr.PowerWkg300},
		{"20m", zr.PowerWkg1200},
	} {
		if p.value != 0 {
			curve = append(curve, fmt.Sprintf("%s: %.2f", p.label, p.value))
		}
	}

	if len(curve) == 0 {
		return nil
	}

	return &discordgo.MessageEmbedField{
		Name:   "Power Curve (w/kg)",
		Value:  strings.Join(curve, " | "),
		Inline: false,
	}
}

func verificationField(verification map[string]apiclient.Verification) *discordgo.MessageEmbedField {
	if len(verification) == 0 {
		return nil
	}

	labels := []struct {
		key   string
		label string
	}{
		{"weight_full", "Weight (Full)"},
		{"weight_light", "Weight (Light)"},
		{"height", "Height"},
		{"power", "Power"},
	}

	var lines []string
	for _, l := range labels {
		v, ok := verification[l.key]
		switch {
		case !ok || !v.Verified:
			lines = append(lines, fmt.Sprintf("**%s:** No record", l.label))
		case v.IsExpired:
			lines = append(lines, fmt.Sprintf("**%s:** ❌ Expired", l.label))
		case v.DaysRemaining != nil:
			lines = append(lines, fmt.Sprintf("**%s:** ✅ %d days", l.label, *v.DaysRemaining))
		default:
			lines = append(lines, fmt.Sprintf("**%s:** ✅ Never expires", l.label))
		}
	}

	return &discordgo.MessageEmbedField{
		Name:   "Race Ready Status",
		Value:  strings.Join(lines, "\n"),
		Inline: false,
	}
}
