package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/vifino/nvmetctl/pkg/metrics"
	"github.com/vifino/nvmetctl/pkg/state"
)

func newDiffCmd(root, outputFmt *string) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <file>",
		Short: "Show the changes needed to reconcile the live configuration to a snapshot file, without applying them",
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
			timer := metrics.NewOperationTimer(metrics.OpDiff)
			deltas := current.DeltasTo(desired)
			for _, d := range deltas {
				metrics.RecordDeltaComputed(deltaMetricLabel(d.Kind))
			}
			timer.ObserveSuccess()

			if *outputFmt != "table" {
				return renderStructured(*outputFmt, deltas)
			}

			if len(deltas) == 0 {
				fmt.Println("no changes")
				return nil
			}
			t := newStyledTable()
			t.AppendHeader(table.Row{"#", "Change", "Target"})
			for i, d := range deltas {
				t.AppendRow(table.Row{i + 1, deltaKindLabel(d.Kind), deltaTarget(d)})
			}
			renderTable(t)
			return nil
		},
	}
}

func deltaKindLabel(k state.StateDeltaKind) string {
	switch k {
	case state.KindAddPort:
		return "add port"
	case state.KindUpdatePort:
		return "update port"
	case state.KindRemovePort:
		return "remove port"
	case state.KindAddSubsystem:
		return "add subsystem"
	case state.KindUpdateSubsystem:
		return "update subsystem"
	case state.KindRemoveSubsystem:
		return "remove subsystem"
	default:
		return "unknown"
	}
}

func deltaMetricLabel(k state.StateDeltaKind) string {
	switch k {
	case state.KindAddPort:
		return metrics.DeltaAddPort
	case state.KindUpdatePort:
		return metrics.DeltaUpdatePort
	case state.KindRemovePort:
		return metrics.DeltaRemovePort
	case state.KindAddSubsystem:
		return metrics.DeltaAddSubsystem
	case state.KindUpdateSubsystem:
		return metrics.DeltaUpdateSubsystem
	case state.KindRemoveSubsystem:
		return metrics.DeltaRemoveSubsystem
	default:
		return "unknown"
	}
}

func deltaTarget(d state.StateDelta) string {
	switch d.Kind {
	case state.KindAddPort, state.KindUpdatePort, state.KindRemovePort:
		return fmt.Sprintf("port %d", d.PortID)
	default:
		return d.SubsystemNQN
	}
}
