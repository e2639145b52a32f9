package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wricardo/mcp-training/game2048/game/engine"
)

var keyDirections = map[string]engine.Direction{
	"up":    engine.Up,
	"w":     engine.Up,
	"k":     engine.Up,
	"down":  engine.Down,
	"s":     engine.Down,
	"j":     engine.Down,
	"left":  engine.Left,
	"a":     engine.Left,
	"h":     engine.Left,
	"right": engine.Right,
	"d":     engine.Right,
	"l":     engine.Right,
}

// Model is the Bubble Tea model for a single local game
type Model struct {
	engine  *engine.GameEngine
	title   string
	status  string
	lastErr error
}

// New wraps an engine in a playable model
func New(eng *engine.GameEngine) Model {
	cfg := eng.GetConfig()
	return Model{
		engine: eng,
		title:  cfg.Name,
		status: cfg.Messages.Welcome,
	}
}

// State returns a snapshot of the game being played
func (m Model) State() *engine.GameState {
	return m.engine.GetState()
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	key := keyMsg.String()
	switch key {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "r":
		m.engine.Reset()
		m.status = "New game. " + m.engine.GetConfig().Messages.Welcome
		m.lastErr = nil
		return m, nil
	}

	dir, ok := keyDirections[key]
	if !ok {
		return m, nil
	}

	// A finished game only takes restart or quit
	if m.engine.GetState().Terminal {
		return m, nil
	}

	turn, err := m.engine.Play(dir)
	if err != nil {
		m.lastErr = err
		return m, nil
	}
	m.lastErr = nil
	m.status = m.engine.GetState().Message
	if !turn.Changed {
		m.status = fmt.Sprintf("Nothing moved %s", dir)
	}
	return m, nil
}

func (m Model) View() string {
	state := m.engine.GetState()

	var b strings.Builder
	b.WriteString(titleStyle.Render("2048 · " + m.title))
	b.WriteString("\n")
	b.WriteString(scoreStyle.Render(fmt.Sprintf("Score: %d", state.Score)))
	b.WriteString("  ")
	b.WriteString(scoreStyle.Render(fmt.Sprintf("Best tile: %d", state.MaxTile)))
	b.WriteString("\n\n")
	b.WriteString(renderGrid(state.Board))
	b.WriteString("\n")

	switch {
	case state.Terminal:
		b.WriteString(renderPanel(state))
	case m.lastErr != nil && !errors.Is(m.lastErr, engine.ErrGameOver):
		b.WriteString(messageStyle.Render("Error: " + m.lastErr.Error()))
	case m.status != "":
		b.WriteString(messageStyle.Render(m.status))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("←↑↓→ / wasd / hjkl move • r restart • q quit"))
	b.WriteString("\n")
	return b.String()
}

func renderGrid(board engine.Board) string {
	width := len(fmt.Sprint(engine.MaxTile(board))) + 2
	if width < 6 {
		width = 6
	}

	rows := make([]string, 0, len(board))
	for _, row := range board {
		cells := make([]string, 0, len(row))
		for _, v := range row {
			label := ""
			if v != 0 {
				label = fmt.Sprint(v)
			}
			cells = append(cells, tileStyle(v, width).MarginRight(1).Render(label))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return gridStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func renderPanel(state *engine.GameState) string {
	heading := "Game Over!"
	if state.Won {
		heading = "You win!"
	}
	body := heading
	if state.Message != "" {
		body += "\n" + state.Message
	}
	body += "\n\n[r] Restart   [q] Exit"
	return panelStyle.Render(body)
}

// Run plays the game in the terminal until the player quits or ctx is done
func Run(ctx context.Context, eng *engine.GameEngine) error {
	program := tea.NewProgram(New(eng), tea.WithContext(ctx), tea.WithAltScreen())
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
