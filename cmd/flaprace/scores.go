package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/flaprace/internal/storage"
)

var flagRaces bool

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Show the leaderboard",
	Long: `Display the top 10 players by best score.

Examples:
  flaprace scores
  flaprace scores --races   # show recent race results instead`,
	Run: runScores,
}

func init() {
	scoresCmd.Flags().BoolVar(&flagRaces, "races", false, "Show recent multiplayer race results")
}

func runScores(cmd *cobra.Command, args []string) {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening scores database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if flagRaces {
		printRecentRaces(store)
		return
	}
	printLeaderboard(store)
}

func printLeaderboard(store *storage.Store) {
	entries, err := store.TopPlayers(10)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving scores: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Leaderboard")
	fmt.Println()

	if len(entries) == 0 {
		fmt.Println("No scores recorded yet.")
		fmt.Println()
		fmt.Println("Play 'flaprace play' to set the first high score!")
		return
	}

	fmt.Printf("  %-4s  %-20s  %-6s  %s\n", "Rank", "Player", "Best", "Updated")
	fmt.Printf("  %-4s  %-20s  %-6s  %s\n", "----", "------", "----", "-------")
	for i, e := range entries {
		fmt.Printf("  %-4d  %-20s  %-6d  %s\n",
			i+1, e.DisplayName, e.BestScore, e.UpdatedAt.Format("2006-01-02 15:04"))
	}
}

func printRecentRaces(store *storage.Store) {
	results, err := store.RecentRaces(30)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving race results: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Recent races")
	fmt.Println()

	if len(results) == 0 {
		fmt.Println("No races recorded yet.")
		return
	}

	fmt.Printf("  %-6s  %-4s  %-20s  %-6s  %s\n", "Lobby", "Rank", "Player", "Score", "Date")
	fmt.Printf("  %-6s  %-4s  %-20s  %-6s  %s\n", "-----", "----", "------", "-----", "----")
	for _, r := range results {
		fmt.Printf("  %-6s  %-4d  %-20s  %-6d  %s\n",
			r.LobbyCode, r.Rank, r.DisplayName, r.Score, r.CreatedAt.Format("2006-01-02 15:04"))
	}
}
