package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vifino/nvmetctl/pkg/metrics"
	"github.com/vifino/nvmetctl/pkg/state"
)

func newStateCmd(root, outputFmt *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Snapshot or reconcile the entire nvmet configuration",
	}
	cmd.AddCommand(newStateSaveCmd(root))
	cmd.AddCommand(newStateRestoreCmd(root))
	cmd.AddCommand(newStateClearCmd(root))
	return cmd
}

func newStateSaveCmd(root *string) *cobra.Command {
	return &cobra.Command{
		Use:   "save <file>",
		Short: "Gather the live configuration and write it to a snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ex := newExecutor(*root)
			s, err := ex.GatherState()
			if err != nil {
				return fmt.Errorf("gather state: %w", err)
			}
			data, err := state.Marshal(s)
			if err != nil {
				return fmt.Errorf("marshal snapshot: %w", err)
			}
			if err := os.WriteFile(args[0], data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", args[0], err)
			}
			return nil
		},
	}
}

func newStateRestoreCmd(root *string) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file>",
		Short: "Reconcile the live configuration to match a snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desired, err := loadSnapshot(args[0])
			if err != nil {
				return err
			}
			ex := newExecutor(*root)
			current, err := ex.GatherState()
			if err != nil {
				return fmt.Errorf("gather state: %w", err)
			}
			deltas := current.DeltasTo(desired)
			for _, d := range deltas {
				metrics.RecordDeltaComputed(deltaMetricLabel(d.Kind))
			}
			if len(deltas) == 0 {
				return nil
			}
			return ex.ApplyDelta(cmd.Context(), deltas)
		},
	}
}

func newStateClearCmd(root *string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every port and subsystem, leaving an empty configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ex := newExecutor(*root)
			current, err := ex.GatherState()
			if err != nil {
				return fmt.Errorf("gather state: %w", err)
			}
			deltas := current.DeltasTo(state.NewState())
			for _, d := range deltas {
				metrics.RecordDeltaComputed(deltaMetricLabel(d.Kind))
			}
			if len(deltas) == 0 {
				return nil
			}
			return ex.ApplyDelta(cmd.Context(), deltas)
		},
	}
}

func loadSnapshot(path string) (state.State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return state.State{}, fmt.Errorf("read %s: %w", path, err)
	}
	s, err := state.Unmarshal(data)
	if err != nil {
		return state.State{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return s, nil
}
