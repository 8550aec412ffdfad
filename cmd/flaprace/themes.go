package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/flaprace/internal/theme"
)

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List course themes",
	Long:  `Shows every registered course theme. Themes are purely visual; the obstacle layout is the same for all of them.`,
	Run:   runThemes,
}

func runThemes(cmd *cobra.Command, args []string) {
	infos := theme.List()

	fmt.Println("Available themes:")
	fmt.Println()

	maxIDLen := 2
	for _, t := range infos {
		if len(t.ID) > maxIDLen {
			maxIDLen = len(t.ID)
		}
	}

	fmt.Printf("  %-*s  %s\n", maxIDLen, "ID", "Title")
	fmt.Printf("  %-*s  %s\n", maxIDLen, "--", "-----")
	for _, t := range infos {
		marker := ""
		if t.ID == theme.DefaultID {
			marker = "  (default)"
		}
		fmt.Printf("  %-*s  %s%s\n", maxIDLen, t.ID, t.Title, marker)
	}

	fmt.Println()
	fmt.Println("Run 'flaprace play --theme <id>' to use a theme.")
}
