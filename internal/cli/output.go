package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/mcoot/tictacnet/internal/model"
	"github.com/mcoot/tictacnet/internal/protocol"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// NameResult is the reply to GET_MY_NAME
type NameResult struct {
	Name string `json:"name"`
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == FormatJSON {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == FormatJSON {
		o.printJSON(map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		})
	} else {
		fmt.Fprintf(o.w, "Error: %s\n", err)
	}
}

// PrintRaw writes a reply exactly as the server sent it
func (o *Output) PrintRaw(reply []byte) {
	_, _ = o.w.Write(reply)
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case NameResult:
		fmt.Fprintln(o.w, v.Name)
	case []protocol.ServerListEntry:
		o.printList(v)
	case protocol.ServerState:
		o.printState(v)
	case protocol.CreateResponse:
		o.printStatus(v.Status, v.Name, v.Players, v.Msg)
	case protocol.JoinResponse:
		o.printStatus(v.Status, v.Name, v.Players, v.Message)
	case protocol.MessageResponse:
		o.printStatus(v.Status, "", nil, v.Message)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printList(entries []protocol.ServerListEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(o.w, "No sessions")
		return
	}
	fmt.Fprintf(o.w, "Sessions (%d):\n", len(entries))
	for _, e := range entries {
		state := "waiting"
		if e.HasStarted {
			state = "playing"
		}
		fmt.Fprintf(o.w, "  - %s [%s] %s\n", e.Name, state, strings.Join(e.Players, ", "))
	}
}

func (o *Output) printStatus(status, name string, players []string, message string) {
	line := status
	if name != "" {
		line += ": " + name
	}
	if message != "" {
		line += " (" + message + ")"
	}
	fmt.Fprintln(o.w, line)
	if len(players) > 0 {
		fmt.Fprintf(o.w, "Players: %s\n", strings.Join(players, ", "))
	}
}

func (o *Output) printState(s protocol.ServerState) {
	if s.Status != protocol.StatusSuccess {
		fmt.Fprintf(o.w, "%s: %s\n", s.Status, s.Message)
		if len(s.Board) == 0 {
			return
		}
	}

	fmt.Fprintf(o.w, "Session: %s\n", s.Name)
	fmt.Fprintf(o.w, "Players: %s\n", o.playerList(s))

	switch {
	case !s.HasStarted:
		fmt.Fprintln(o.w, "Waiting for the host to start")
		return
	case s.Winner.Symbol != 0:
		fmt.Fprintf(o.w, "Winner: %s (%s)\n", holderOf(s, s.Winner.Symbol), glyph(s.Winner.Symbol))
	case s.Draw:
		fmt.Fprintln(o.w, "Draw")
	case s.CurrentPlayerName != "":
		fmt.Fprintf(o.w, "Turn: %s (%s)\n", s.CurrentPlayerName, glyph(s.CurrentPlayer))
	default:
		fmt.Fprintf(o.w, "Turn: %s\n", glyph(s.CurrentPlayer))
	}

	fmt.Fprintln(o.w)
	o.printBoard(s.Board, s.Winner.Cells)
}

func (o *Output) playerList(s protocol.ServerState) string {
	parts := make([]string, len(s.Players))
	for i, name := range s.Players {
		if symbol, ok := s.Symbols[name]; ok {
			parts[i] = fmt.Sprintf("%s (%s)", name, glyph(symbol))
		} else {
			parts[i] = name
		}
	}
	return strings.Join(parts, ", ")
}

// printBoard draws the grid, bracketing the cells of a winning line
func (o *Output) printBoard(board [][]int, highlight []model.Position) {
	size := len(board)
	if size == 0 {
		return
	}

	// Column headers
	fmt.Fprint(o.w, "    ")
	for col := range size {
		fmt.Fprintf(o.w, " %d ", col)
	}
	fmt.Fprintln(o.w)

	border := "   +" + strings.Repeat("---", size) + "+"
	fmt.Fprintln(o.w, border)
	for row := range size {
		fmt.Fprintf(o.w, " %d |", row)
		for col := range size {
			cell := "."
			if board[row][col] != 0 {
				cell = glyph(board[row][col])
			}
			if slices.Contains(highlight, model.Position{Row: row, Col: col}) {
				fmt.Fprintf(o.w, "[%s]", cell)
			} else {
				fmt.Fprintf(o.w, " %s ", cell)
			}
		}
		fmt.Fprintln(o.w, "|")
	}
	fmt.Fprintln(o.w, border)
}

// extraGlyphs labels symbols from 3 on; X and O are taken by the first two
const extraGlyphs = "ABCDEFGHIJKLMNPQRSTUVWYZ"

// glyph maps symbol 1 to X, 2 to O and later symbols to letters
func glyph(symbol int) string {
	switch {
	case symbol <= 0:
		return "-"
	case symbol == 1:
		return "X"
	case symbol == 2:
		return "O"
	case symbol-3 < len(extraGlyphs):
		return string(extraGlyphs[symbol-3])
	default:
		return strconv.Itoa(symbol)
	}
}

func holderOf(s protocol.ServerState, symbol int) string {
	for name, sym := range s.Symbols {
		if sym == symbol {
			return name
		}
	}
	return "player " + glyph(symbol)
}
