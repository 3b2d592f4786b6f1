package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ppiankov/proofgate/internal/audit"
)

var (
	replayCircuit string
	replayKind    string
	replayFrom    uint64
	replayTo      uint64
	replayRebuild bool
)

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().StringVar(&replayCircuit, "circuit", "", "Only events for this circuit id")
	replayCmd.Flags().StringVar(&replayKind, "kind", "", "Only events of this kind")
	replayCmd.Flags().Uint64Var(&replayFrom, "from", 0, "Lowest sequence position (inclusive)")
	replayCmd.Flags().Uint64Var(&replayTo, "to", 0, "Highest sequence position (inclusive)")
	replayCmd.Flags().BoolVar(&replayRebuild, "rebuild", false, "Rebuild per-circuit projections from the full log")
}

var replayCmd = &cobra.Command{
	Use:   "replay <path>",
	Short: "Replay the decision-event log",
	Long: "Filters the event log and prints matching entries with a summary.\n" +
		"With --rebuild, folds the full log into per-circuit reliability\n" +
		"projections — the same state the gateway holds in memory.",
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func runReplay(cmd *cobra.Command, args []string) error {
	path := args[0]

	if replayRebuild {
		circuits, level, err := audit.Rebuild(path)
		if err != nil {
			return err
		}

		ids := make([]string, 0, len(circuits))
		for id := range circuits {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			pretty, err := json.MarshalIndent(circuits[id], "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(pretty))
		}
		if level != 0 {
			fmt.Printf("containment level: %d\n", level)
		}
		return nil
	}

	result, err := audit.Replay(path, audit.ReplayFilter{
		CircuitID: replayCircuit,
		Kind:      audit.Kind(replayKind),
		FromSeq:   replayFrom,
		ToSeq:     replayTo,
	})
	if err != nil {
		return err
	}

	for _, entry := range result.Entries {
		line, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		fmt.Println(string(line))
	}

	summary, err := json.MarshalIndent(result.Summary, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(summary))
	return nil
}
