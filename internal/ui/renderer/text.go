package renderer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mitchelldurbincs/BattleDiceRL/internal/dice"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/game"
)

// -----------------------------------------------------------------------------
// Colour definitions
// -----------------------------------------------------------------------------

// SeatColors are the ANSI colours of the two seats
var SeatColors = [2]lipgloss.Color{
	lipgloss.Color("9"),  // Red
	lipgloss.Color("12"), // Blue
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	rerollStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	bustStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	boxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
	bannerStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("13")).
			Foreground(lipgloss.Color("0")).
			Padding(1, 2)
)

// -----------------------------------------------------------------------------
// Turns
// -----------------------------------------------------------------------------

// Faces renders faces against their dice like "d4=2 d8=5 d12=6"
func Faces(diceSides, faces []int) string {
	parts := make([]string, len(faces))
	for i, f := range faces {
		sides := 0
		if i < len(diceSides) {
			sides = diceSides[i]
		}
		parts[i] = fmt.Sprintf("d%d=%d", sides, f)
	}
	return strings.Join(parts, " ")
}

// Turn narrates a turn step by step and finishes with the final sum scored
// against c's target
func Turn(c dice.Collection, player string, turn game.TurnResult) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s rolls %s", player, c.String())))
	b.WriteString("\n")

	for i, step := range turn.Log {
		if step.Reroll != nil {
			b.WriteString(rerollStyle.Render(fmt.Sprintf("  reroll d%d: %d -> %d",
				c.Dice[step.Reroll.Index], step.Reroll.Old, step.Reroll.New)))
			b.WriteString("\n")
		}
		label := "roll"
		if i > 0 {
			label = fmt.Sprintf("step %d", i)
		}
		fmt.Fprintf(&b, "  %-7s %s  sum %d  (%d rerolls left)\n",
			label, Faces(step.Dice, step.Rolls), step.Sum, step.RerollsLeft)
	}

	b.WriteString(boxStyle.Render(finalLine(turn.Sum, c.Target)))
	return b.String()
}

func finalLine(sum, target int) string {
	if dice.IsBust(sum, target) {
		return bustStyle.Render(fmt.Sprintf("final %d > %d: BUST", sum, target))
	}
	return okStyle.Render(fmt.Sprintf("final %d (target %d, %d short)", sum, target, target-sum))
}

// -----------------------------------------------------------------------------
// Matches
// -----------------------------------------------------------------------------

// Match renders a round-by-round table of a finished match
func Match(c dice.Collection, result game.MatchResult) string {
	var b strings.Builder
	seat := func(i int) string {
		return lipgloss.NewStyle().Foreground(SeatColors[i]).Render(result.Players[i])
	}
	fmt.Fprintf(&b, "%s  %s vs %s  (%s)\n", titleStyle.Render("Match "+shortID(result.ID)), seat(0), seat(1), c.String())

	for _, r := range result.Rounds {
		winner := "draw"
		if r.Winner >= 0 {
			winner = result.Players[r.Winner]
		}
		fmt.Fprintf(&b, "  round %d  first %-10s  %3d - %-3d  %s\n",
			r.Number, result.Players[r.FirstMover], r.Turns[0].Sum, r.Turns[1].Sum, winner)
	}
	fmt.Fprintf(&b, "  final score %d - %d\n", result.Points[0], result.Points[1])
	return b.String()
}

// Winner renders the banner for a finished match
func Winner(result game.MatchResult) string {
	if result.Winner < 0 {
		return bannerStyle.Render(fmt.Sprintf("*** DRAW %d - %d ***", result.Points[0], result.Points[1]))
	}
	return bannerStyle.Render(fmt.Sprintf("*** %s WINS %d - %d ***",
		strings.ToUpper(result.Players[result.Winner]), result.Points[0], result.Points[1]))
}

// -----------------------------------------------------------------------------
// Evaluation summaries
// -----------------------------------------------------------------------------

// SummaryRow is one line of an evaluation table
type SummaryRow struct {
	Collection  string
	Matches     int
	Wins        int
	Losses      int
	Draws       int
	BustRate    float64
	MeanSum     float64
	MeanRerolls float64
}

// Summary renders evaluation rows as a bordered table
func Summary(title string, rows []SummaryRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-10s %7s %5s %6s %5s %7s %6s %6s %7s\n",
		"collection", "matches", "wins", "losses", "draws", "win%", "bust%", "sum", "rerolls")
	for _, r := range rows {
		winRate := 0.0
		if r.Matches > 0 {
			winRate = 100 * float64(r.Wins) / float64(r.Matches)
		}
		fmt.Fprintf(&b, "%-10s %7d %5d %6d %5d %6.1f%% %5.1f%% %6.2f %7.2f\n",
			r.Collection, r.Matches, r.Wins, r.Losses, r.Draws, winRate, 100*r.BustRate, r.MeanSum, r.MeanRerolls)
	}
	return titleStyle.Render(title) + "\n" + boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
