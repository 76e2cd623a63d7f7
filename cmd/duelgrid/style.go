package main

import (
	"fmt"

	"github.com/pterm/pterm"

	"github.com/duelgrid/duelgrid/domain/state"
)

// printState renders the whole table: opponent panel, the board grid,
// own panel and the recent action log.
func printState(g *state.Game, self state.Slot, history []string) {
	opponent := playerPanel(g.Players[self.Opponent()], string(self.Opponent()), false)
	own := playerPanel(g.Players[self], string(self), true)

	panels := [][]pterm.Panel{
		{{Data: opponent}},
		{{Data: boardGrid(g)}},
		{{Data: own}},
	}
	if len(history) > 0 {
		panels = append(panels, []pterm.Panel{{Data: historyBox(history)}})
	}
	pterm.DefaultPanel.WithPanels(panels).Render()
}

func playerPanel(p *state.PlayerState, title string, main bool) string {
	hpadding := 4
	if main {
		hpadding = 10
	}
	pbox := pterm.DefaultBox.WithHorizontalPadding(hpadding).WithTopPadding(1).WithBottomPadding(1)
	name := p.Nickname
	if name == "" {
		name = title
	}
	thresholds := fmt.Sprintf("A:%d E:%d F:%d W:%d",
		p.Thresholds.Air, p.Thresholds.Earth, p.Thresholds.Fire, p.Thresholds.Water)
	body := pterm.Sprintf("Life: %s   Mana: %d/%d\nThresholds: %s\nHand: %d   Sites: %d   Spells: %d   Grave: %d",
		pterm.LightRed(fmt.Sprint(p.Life)), p.Mana, p.ManaTotal, thresholds,
		len(p.Hand), len(p.SiteDeck), len(p.SpellDeck), len(p.Graveyard))
	return pbox.WithTitle(pterm.LightCyan(name)).WithTitleTopLeft().Sprint(body)
}

func boardGrid(g *state.Game) string {
	rows := make([][]string, 0, state.BoardRows)
	for r := 0; r < state.BoardRows; r++ {
		row := make([]string, 0, state.BoardCols)
		for c := 0; c < state.BoardCols; c++ {
			row = append(row, cellText(&g.Board[r][c]))
		}
		rows = append(rows, row)
	}
	table, _ := pterm.DefaultTable.WithData(rows).WithBoxed().Srender()
	return table
}

func cellText(site *state.Site) string {
	text := "."
	if site.SiteCard != nil {
		text = cardLabel(site.SiteCard)
	}
	if n := len(site.Units); n > 0 {
		text += pterm.Sprintf(" %s", pterm.LightYellow(fmt.Sprintf("[%s+%d]", cardLabel(site.Units[0]), n-1)))
	}
	if n := len(site.Tucked); n > 0 {
		text += pterm.Gray(fmt.Sprintf(" (%d tucked)", n))
	}
	return text
}

func cardLabel(c *state.CardInstance) string {
	if c == nil {
		return "."
	}
	if c.Def == nil || c.Def.Name == "" {
		return "??"
	}
	label := c.Def.Name
	if c.Rotation == state.Tapped {
		label = pterm.Gray(label + "*")
	}
	if c.FaceDown {
		label = pterm.Gray("(down)")
	}
	if c.Counter > 0 {
		label += fmt.Sprintf(" +%d", c.Counter)
	}
	if len(c.Attached) > 0 {
		label += fmt.Sprintf(" <%d>", len(c.Attached))
	}
	return label
}

// printHand lists the player's hand with ids so they can be played by id.
func printHand(p *state.PlayerState) {
	if len(p.Hand) == 0 {
		pterm.Info.Println("Hand is empty")
		return
	}
	rows := [][]string{{"Id", "Card", "Deck"}}
	for _, c := range p.Hand {
		name := "??"
		if c.Def != nil {
			name = c.Def.Name
		}
		rows = append(rows, []string{c.ID, name, string(c.SourceDeck)})
	}
	pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func historyBox(history []string) string {
	tail := history
	if len(tail) > 5 {
		tail = tail[len(tail)-5:]
	}
	body := ""
	for _, line := range tail {
		body += line + "\n"
	}
	pbox := pterm.DefaultBox.WithHorizontalPadding(4).WithTopPadding(1).WithBottomPadding(1)
	return pbox.WithTitle(pterm.LightYellow("|LOG|")).WithTitleTopCenter().Sprint(body)
}
