package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jaminalder/tictactoe-timeline/internal/app"
	"github.com/jaminalder/tictactoe-timeline/internal/config"
	"github.com/jaminalder/tictactoe-timeline/internal/domain"
	"github.com/jaminalder/tictactoe-timeline/internal/obslog"
)

const playHelp = `Commands:
  <0-8> | move <0-8>   place a mark (cells are numbered row by row)
  jump <n>             go back (or forward) to move n
  history              show the move list
  order                toggle ascending/descending move list
  new                  start a new game
  help                 show this help
  quit                 leave`

func newPlayCmd(configPath *string) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := zap.NewNop()
			if verbose {
				cfg, err := config.Load(*configPath)
				if err != nil {
					return err
				}
				logger = obslog.NewWithWriter(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
			}
			defer func() { _ = logger.Sync() }()

			return RunPlay(cmd.InOrStdin(), cmd.OutOrStdout(), app.NewService(logger))
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log game events to stderr")

	return cmd
}

// terminal drives a single session from a line-oriented reader.
type terminal struct {
	svc  *app.Service
	out  io.Writer
	id   string
	desc bool
}

// RunPlay runs an interactive game until quit or end of input.
func RunPlay(in io.Reader, out io.Writer, svc *app.Service) error {
	t := &terminal{svc: svc, out: out}
	if err := t.newGame(); err != nil {
		return err
	}
	fmt.Fprintln(out, playHelp)
	t.show()

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		quit, err := t.exec(strings.Fields(sc.Text()))
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
	}
}

func (t *terminal) newGame() error {
	if t.id != "" {
		_ = t.svc.Delete(t.id)
	}
	gs, err := t.svc.CreateGame()
	if err != nil {
		return fmt.Errorf("create game: %w", err)
	}
	t.id = gs.ID
	return nil
}

// exec handles one command line. Bad input is reported and the loop goes on.
func (t *terminal) exec(fields []string) (quit bool, err error) {
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	if _, convErr := strconv.Atoi(cmd); convErr == nil {
		cmd, args = "move", fields
	}

	switch cmd {
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		fmt.Fprintln(t.out, playHelp)
	case "new":
		if err := t.newGame(); err != nil {
			return false, err
		}
		t.show()
	case "order":
		t.desc = !t.desc
		if t.desc {
			fmt.Fprintln(t.out, "History order: descending")
		} else {
			fmt.Fprintln(t.out, "History order: ascending")
		}
	case "history":
		t.history()
	case "move":
		n, ok := t.intArg(args)
		if !ok {
			return false, nil
		}
		if _, err := t.svc.Play(t.id, n); err != nil {
			t.reportErr(err)
			return false, nil
		}
		t.show()
	case "jump":
		n, ok := t.intArg(args)
		if !ok {
			return false, nil
		}
		if _, err := t.svc.JumpTo(t.id, n); err != nil {
			t.reportErr(err)
			return false, nil
		}
		t.show()
	default:
		fmt.Fprintf(t.out, "unknown command %q, try help\n", fields[0])
	}
	return false, nil
}

func (t *terminal) intArg(args []string) (int, bool) {
	if len(args) != 1 {
		fmt.Fprintln(t.out, "expected exactly one number")
		return 0, false
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(t.out, "not a number: %q\n", args[0])
		return 0, false
	}
	return n, true
}

func (t *terminal) reportErr(err error) {
	switch {
	case errors.Is(err, app.ErrIllegalMove):
		fmt.Fprintln(t.out, "That cell is taken, off the board, or the game is over.")
	case errors.Is(err, app.ErrPositionOutOfRange):
		fmt.Fprintln(t.out, "No such move in the history.")
	default:
		fmt.Fprintf(t.out, "error: %v\n", err)
	}
}

func (t *terminal) view() app.GameView {
	gs, ok := t.svc.Get(t.id)
	if !ok {
		// the session is owned by this terminal and is only replaced by newGame
		panic("cli: terminal session vanished")
	}
	return *gs
}

func (t *terminal) show() {
	v := t.view()
	fmt.Fprint(t.out, RenderBoard(v))
	fmt.Fprintln(t.out, v.Status)
}

func (t *terminal) history() {
	for _, m := range t.view().MovesInOrder(t.desc) {
		marker := " "
		if m.Current {
			marker = ">"
		}
		fmt.Fprintf(t.out, "%s %d. %s\n", marker, m.Number, m.Description)
	}
}

// RenderBoard draws the board as text. Playable cells show their index;
// the winning line is bracketed.
func RenderBoard(v app.GameView) string {
	var b strings.Builder
	for r := 0; r < 3; r++ {
		if r > 0 {
			b.WriteString("---+---+---\n")
		}
		for c := 0; c < 3; c++ {
			if c > 0 {
				b.WriteString("|")
			}
			i := r*3 + c
			b.WriteString(cellText(v, i))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func cellText(v app.GameView, i int) string {
	switch {
	case v.Highlighted(i):
		return "[" + v.Board[i].String() + "]"
	case v.Board[i] != domain.Empty:
		return " " + v.Board[i].String() + " "
	case v.Playable(i):
		return " " + strconv.Itoa(i) + " "
	default:
		return "   "
	}
}
