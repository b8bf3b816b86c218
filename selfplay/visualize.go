// visualize.go - Console rendering of match states for debugging.
//
// RenderBoard draws the grid with player one in upper case and player two in
// lower case, followed by a per-unit roster with HP and active buffs.
package selfplay

import (
	"fmt"
	"log"
	"strings"

	"github.com/brensch/tactics/game"
)

var heroGlyph = map[game.HeroClass]byte{
	game.Warrior:  'W',
	game.Mage:     'M',
	game.Rogue:    'R',
	game.Huntress: 'H',
	game.Duelist:  'D',
	game.Cleric:   'C',
}

var minionGlyph = map[game.MinionType]byte{
	game.Tank:     'T',
	game.Archer:   'A',
	game.Assassin: 'S',
}

func unitGlyph(u game.Unit) byte {
	g := byte('U')
	switch {
	case u.Temporary:
		g = 'X'
	case u.Category == game.Hero:
		if c, ok := heroGlyph[u.HeroClass]; ok {
			g = c
		}
	default:
		if c, ok := minionGlyph[u.MinionType]; ok {
			g = c
		}
	}
	if u.Owner == game.P2 {
		g += 'a' - 'A'
	}
	return g
}

// RenderBoard returns a multi-line picture of s. Row zero is printed last.
func RenderBoard(s *game.GameState) string {
	w, h := s.Board.Width, s.Board.Height
	grid := make([][]byte, h)
	for y := range grid {
		grid[y] = []byte(strings.Repeat(".", w))
	}
	put := func(p game.Position, c byte) {
		if s.Board.Contains(p) {
			grid[p.Y][p.X] = c
		}
	}

	for _, t := range s.BuffTiles {
		if !t.Triggered {
			put(t.Position, '+')
		}
	}
	for _, o := range s.Obstacles {
		put(o.Position, '#')
	}
	for i := range s.Units {
		if b := s.Units[i].Beacon(); b != nil {
			put(b.Position, '*')
		}
	}
	for _, u := range s.Units {
		if u.Alive {
			put(u.Position, unitGlyph(u))
		}
	}

	var sb strings.Builder
	status := fmt.Sprintf("%s to act", s.CurrentPlayer)
	if s.GameOver {
		status = "game over, winner " + string(s.Winner)
		if s.Winner == "" {
			status = "game over, draw"
		}
	} else if dc := s.PendingDeathChoice(); dc != nil {
		status = fmt.Sprintf("%s owes a death choice for %s", dc.Owner, dc.DeadUnitID)
	}
	fmt.Fprintf(&sb, "=== Round %d | %s ===\n", s.Round, status)
	for y := h - 1; y >= 0; y-- {
		fmt.Fprintf(&sb, "%2d ", y)
		for x := 0; x < w; x++ {
			sb.WriteByte(grid[y][x])
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("   ")
	for x := 0; x < w; x++ {
		fmt.Fprintf(&sb, "%d ", x%10)
	}
	sb.WriteByte('\n')

	for _, u := range s.Units {
		if !u.Alive {
			continue
		}
		fmt.Fprintf(&sb, "%c %-12s %s hp=%d/%d (%d,%d) acted=%d", unitGlyph(u), u.ID, u.Owner, u.HP, u.MaxHP, u.Position.X, u.Position.Y, u.ActionsUsed)
		if u.SkillID != "" {
			fmt.Fprintf(&sb, " skill=%s cd=%d", u.SkillID, u.SkillCooldown)
		}
		if u.Shield > 0 {
			fmt.Fprintf(&sb, " shield=%d", u.Shield)
		}
		if u.Preparing {
			sb.WriteString(" preparing")
		}
		if buffs := s.Buffs[u.ID]; len(buffs) > 0 {
			names := make([]string, 0, len(buffs))
			for _, b := range buffs {
				names = append(names, fmt.Sprintf("%s:%d", b.Type, b.Duration))
			}
			sb.WriteString(" [" + strings.Join(names, " ") + "]")
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// PrintBoard logs RenderBoard(s).
func PrintBoard(s *game.GameState) {
	log.Print("\n" + RenderBoard(s))
}
