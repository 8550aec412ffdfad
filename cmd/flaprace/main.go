// flaprace is a terminal game: steer a bird through pipe gaps, solo or in a
// multiplayer race over SSH.
//
// Usage:
//
//	flaprace play            - Play a solo round directly
//	flaprace menu            - Interactive menu (solo, race, leaderboard)
//	flaprace serve           - Start SSH server for multiplayer races
//	flaprace scores          - Show the leaderboard
//	flaprace themes          - List course themes
//
// Global flags:
//
//	--fps <rate>    - Set tick rate (default: 60)
//	--db <path>     - Set database path (default: ~/.flaprace/scores.db)
//	--config <path> - Custom race config YAML
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	flagFPS    int
	flagDBPath string
	flagConfig string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "flaprace",
	Short: "Flaprace - flap through pipe gaps in your terminal",
	Long: `Flaprace is a terminal arcade game. Tap to flap, slip through the
gaps, and outlast your friends in a shared-seed multiplayer race.

Available commands:
  play     - Play a solo round directly
  menu     - Interactive menu (solo, race, leaderboard)
  serve    - Start SSH server for multiplayer races
  scores   - View the leaderboard
  themes   - List course themes

Examples:
  flaprace play
  flaprace play --theme space
  flaprace menu
  flaprace serve --ssh :2222
  flaprace scores`,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().IntVar(&flagFPS, "fps", 60, "Tick rate (frames per second)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "~/.flaprace/scores.db", "Path to scores database")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to custom race config YAML")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(menuCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(themesCmd)
}
