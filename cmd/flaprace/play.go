package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/flaprace/internal/config"
	"github.com/vovakirdan/flaprace/internal/core"
	"github.com/vovakirdan/flaprace/internal/identity"
	"github.com/vovakirdan/flaprace/internal/platform/tui"
	"github.com/vovakirdan/flaprace/internal/storage"
	"github.com/vovakirdan/flaprace/internal/theme"
)

var (
	flagTheme string
	flagSeed  int32
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a solo round",
	Long: `Start a single-player round directly, without the menu.

Controls:
  Space/Up/W - Flap
  R          - Restart (after crashing)
  Esc        - Exit (after crashing)
  Q/Ctrl+C   - Quit

Examples:
  flaprace play
  flaprace play --theme arctic
  flaprace play --seed 12345
  flaprace play --config ./my-race.yaml`,
	Run: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagTheme, "theme", theme.DefaultID, "Course theme")
	playCmd.Flags().Int32Var(&flagSeed, "seed", 0, "Course seed (0 = random)")
}

func runPlay(cmd *cobra.Command, args []string) {
	if !theme.Exists(flagTheme) {
		fmt.Fprintf(os.Stderr, "Error: unknown theme %q\n", flagTheme)
		fmt.Fprintln(os.Stderr, "Run 'flaprace themes' to see available themes.")
		os.Exit(1)
	}

	rt := terminalRuntime()
	cfg := loadRaceConfig()
	user := currentUser()

	scores, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open scores database: %v\n", err)
		// Continue without storage - the round still works
		scores = nil
	}

	runErr := tui.RunSolo(cfg, rt, scores, user, flagTheme, flagSeed)

	if scores != nil {
		scores.Close()
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error running game: %v\n", runErr)
		os.Exit(1)
	}
}

// terminalRuntime probes the terminal size, falling back to 80x24.
func terminalRuntime() core.RuntimeConfig {
	width, height := 80, 24
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width = w
		height = h
	}
	return core.RuntimeConfig{
		ScreenW:  width,
		ScreenH:  height,
		TickRate: flagFPS,
	}
}

func loadRaceConfig() config.RaceConfig {
	cfg, err := config.LoadRace(flagConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func currentUser() identity.User {
	provider := &identity.Local{}
	user, err := provider.Current()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving identity: %v\n", err)
		os.Exit(1)
	}
	return user
}
