package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/flaprace/internal/identity"
	"github.com/vovakirdan/flaprace/internal/platform/tui"
	"github.com/vovakirdan/flaprace/internal/storage"
	"github.com/vovakirdan/flaprace/internal/store"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Interactive menu",
	Long: `Start the interactive menu: solo flight, multiplayer race, and the
leaderboard.

Races started from a local menu use an in-process lobby store, so only
players inside this process can join them. For races between machines, run
'flaprace serve' and have everyone connect over SSH.`,
	Run: runMenu,
}

func runMenu(_ *cobra.Command, _ []string) {
	rt := terminalRuntime()
	cfg := loadRaceConfig()
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "flaprace"})

	provider := &identity.Local{}
	user, err := provider.Current()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving identity: %v\n", err)
		os.Exit(1)
	}

	scores, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open scores database: %v\n", err)
		scores = nil
	}

	runErr := tui.Run(store.NewMemory(), cfg, rt, scores, user, provider, logger)

	if scores != nil {
		scores.Close()
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}
}
