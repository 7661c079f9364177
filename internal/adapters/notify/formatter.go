package notify

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/mooot/league/internal/domain/awards"
	"github.com/mooot/league/internal/domain/model"
	"github.com/mooot/league/internal/domain/scoring"
)

// Formatter builds the HTML messages the league posts in chats.
type Formatter struct {
	policy awards.Policy
}

// NewFormatter creates a formatter that names tiers according to policy.
func NewFormatter(policy awards.Policy) *Formatter {
	return &Formatter{policy: policy}
}

var medals = [...]string{"🥇", "🥈", "🥉"}

const (
	participationMedal = "🎖"
	positionMark       = "🏅"
	characterMark      = "🤖"
)

// Medal returns the emoji for a trophy tier.
func (f *Formatter) Medal(tier int) string {
	if !f.policy.IsPositional(tier) {
		return participationMedal
	}
	if tier < len(medals) {
		return medals[tier]
	}
	return positionMark
}

// Ranking renders a leaderboard with a title.
func (f *Formatter) Ranking(title string, ranking []model.LeaderboardEntry) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n\n", html.EscapeString(title))
	if len(ranking) == 0 {
		b.WriteString("Nobody has played yet.")
		return Message{Text: b.String(), ParseMode: ParseModeHTML}
	}
	for i, e := range ranking {
		fmt.Fprintf(&b, "%d. %s%s - %d pts\n", i+1, playerMark(e.Player), html.EscapeString(e.PlayerName), e.TotalPoints)
	}
	return Message{Text: strings.TrimRight(b.String(), "\n"), ParseMode: ParseModeHTML}
}

// NewAwards renders the grants of a closed period next to the final ranking.
func (f *Formatter) NewAwards(ranking []model.LeaderboardEntry, grants []model.AwardGrant) Message {
	var b strings.Builder
	b.WriteString("<b>🏆 The league is over!</b>\n\n")
	if len(grants) == 0 {
		b.WriteString("Nobody played this month, so there are no trophies.")
		return Message{Text: b.String(), ParseMode: ParseModeHTML}
	}
	for i, g := range grants {
		_, tier := awards.SplitTrophyID(g.TrophyID)
		name, points := g.Player.String(), 0
		if i < len(ranking) && ranking[i].Player == g.Player {
			name, points = ranking[i].PlayerName, ranking[i].TotalPoints
		}
		fmt.Fprintf(&b, "%s %s%s (%d pts)\n", f.Medal(tier), playerMark(g.Player), html.EscapeString(name), points)
	}
	b.WriteString("\nA new league starts tomorrow. Good luck!")
	return Message{Text: b.String(), ParseMode: ParseModeHTML}
}

// FinalAdvise warns that the league ends soon.
func (f *Formatter) FinalAdvise(daysRemaining int) Message {
	var when string
	switch daysRemaining {
	case 0:
		when = "today"
	case 1:
		when = "tomorrow"
	default:
		when = fmt.Sprintf("in %d days", daysRemaining)
	}
	return Message{
		Text:      fmt.Sprintf("<b>⏳ The league ends %s!</b>\nLast chance to climb the ranking.", when),
		ParseMode: ParseModeHTML,
	}
}

// CharacterAction announces a simulated play.
func (f *Formatter) CharacterAction(name string, points, seconds int) Message {
	return Message{
		Text: fmt.Sprintf("%s <b>%s</b> played today: %d pts in %s",
			characterMark, html.EscapeString(name), points, scoring.FormatClock(seconds)),
		ParseMode: ParseModeHTML,
	}
}

// AwardsHistory lists the trophies of a chat.
func (f *Formatter) AwardsHistory(records []model.AwardRecord) Message {
	var b strings.Builder
	b.WriteString("<b>🏆 Trophy cabinet</b>\n\n")
	if len(records) == 0 {
		b.WriteString("No trophies yet.")
		return Message{Text: b.String(), ParseMode: ParseModeHTML}
	}
	for _, r := range records {
		period, tier := awards.SplitTrophyID(r.TrophyID)
		fmt.Fprintf(&b, "%s %s - %s %d\n", f.Medal(tier), html.EscapeString(r.PlayerName), monthName(period), r.GrantedAt.Year())
	}
	return Message{Text: strings.TrimRight(b.String(), "\n"), ParseMode: ParseModeHTML}
}

func playerMark(p model.PlayerID) string {
	if p.Kind == model.KindCharacter {
		return characterMark + " "
	}
	return ""
}

func monthName(period int) string {
	if period < 1 || period > 12 {
		return fmt.Sprintf("period %d", period)
	}
	return time.Month(period).String()
}
