package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var weekShowCmd = LeafCommand{
	Use:   "show <week>",
	Short: "Show the attendance of a program week",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		homeDir, err := getContextPaths()
		if err != nil {
			return err
		}
		n, err := parseWeekArg(args[0])
		if err != nil {
			return err
		}
		return runStatus(cmd, homeDir, n, time.Now)
	},
}.Build()

func parseWeekArg(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid week %q (expected a positive number)", s)
	}
	return n, nil
}
