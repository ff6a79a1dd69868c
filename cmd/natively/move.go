package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/natively/natively-cli/internal/collection"
)

// moveCmd represents the move command
var moveCmd = &cobra.Command{
	Use:   "move <id> <up|down>",
	Short: "Move a link up or down on your page",
	Long: `Swap a link with its neighbor. Moving the first link up or the last link
down does nothing.

Examples:
  natively move 123 up
  natively move 123 down`,
	Args: cobra.ExactArgs(2),
	RunE: runMove,
}

func init() {
	rootCmd.AddCommand(moveCmd)
}

func runMove(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid link ID: %s (must be a number)", args[0])
	}

	var direction collection.Direction
	switch args[1] {
	case "up":
		direction = collection.Up
	case "down":
		direction = collection.Down
	default:
		return fmt.Errorf("invalid direction: %s (must be 'up' or 'down')", args[1])
	}

	a, err := newApp(true)
	if err != nil {
		return err
	}

	if err := a.manager.Load(cmd.Context()); err != nil {
		return errReported
	}

	links := a.manager.Links()
	found := false
	for i, link := range links {
		if link.ID != id {
			continue
		}
		found = true
		if direction == collection.Up && i == 0 {
			fmt.Println("Link is already at the top")
			return nil
		}
		if direction == collection.Down && i == len(links)-1 {
			fmt.Println("Link is already at the bottom")
			return nil
		}
	}
	if !found {
		return fmt.Errorf("no link with ID %d on your page", id)
	}

	if err := a.manager.Move(cmd.Context(), id, direction); err != nil {
		return errReported
	}

	fmt.Printf("✓ Link %d moved %s\n", id, direction)
	return nil
}
