package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lguibr/bombgrid/game"
)

// Glyphs used for each cell, two columns wide so the board reads square.
var glyphs = map[game.Cell]string{
	game.Empty:       "  ",
	game.Wall:        "██",
	game.Crate:       "▒▒",
	game.Bomb:        "()",
	game.Explosion:   "**",
	game.PowerupFire: "F+",
	game.PowerupBomb: "B+",
}

const (
	playerGlyph = "@@"
	deadGlyph   = "xx"
	ansiReset   = "\033[0m"
)

// Options tune the renderer.
type Options struct {
	Color bool // Paint players with their hex color using 24-bit ANSI codes
}

// RenderState renders a full-state message.
func RenderState(state *game.InitMessage, opts Options) string {
	if state == nil {
		return ""
	}
	return RenderGrid(state.Grid, state.Players, opts)
}

// RenderGrid draws rows with living players on top. Eliminated players are
// drawn only on tiles that are otherwise empty.
func RenderGrid(rows [][]game.Cell, players []game.PlayerState, opts Options) string {
	type mark struct {
		glyph string
		color string
	}
	marks := make(map[game.Position]mark, len(players))
	for _, p := range players {
		pos := game.Position{X: p.X, Y: p.Y}
		if p.Alive {
			marks[pos] = mark{glyph: playerGlyph, color: p.Color}
		} else if _, taken := marks[pos]; !taken {
			marks[pos] = mark{glyph: deadGlyph, color: p.Color}
		}
	}

	var sb strings.Builder
	for y, row := range rows {
		for x, cell := range row {
			m, ok := marks[game.Position{X: x, Y: y}]
			if ok && (m.glyph == playerGlyph || cell == game.Empty) {
				if ansi, valid := hexToAnsi(m.color); opts.Color && valid {
					sb.WriteString(ansi + m.glyph + ansiReset)
				} else {
					sb.WriteString(m.glyph)
				}
				continue
			}
			g, known := glyphs[cell]
			if !known {
				g = "??"
			}
			sb.WriteString(g)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// RenderScores lists kills/deaths per player, ordered as given.
func RenderScores(players []game.PlayerState, scores map[string]game.Score) string {
	var sb strings.Builder
	for _, p := range players {
		s := scores[p.ID]
		id := p.ID
		if len(id) > 8 {
			id = id[:8]
		}
		fmt.Fprintf(&sb, "%-8s  kills %3d  deaths %3d\n", id, s.Kills, s.Deaths)
	}
	return sb.String()
}

// hexToAnsi converts "#rrggbb" to an ANSI escape code for that color.
func hexToAnsi(hex string) (string, bool) {
	if len(hex) != 7 || hex[0] != '#' {
		return "", false
	}
	v, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("\033[38;2;%d;%d;%dm", v>>16&0xff, v>>8&0xff, v&0xff), true
}
