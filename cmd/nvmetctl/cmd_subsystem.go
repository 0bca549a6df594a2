package main

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/vifino/nvmetctl/pkg/state"
	"github.com/vifino/nvmetctl/pkg/validate"
)

func newSubsystemCmd(root, outputFmt *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "subsystem",
		Aliases: []string{"subsys"},
		Short:   "Inspect and modify nvmet subsystems",
	}
	cmd.AddCommand(newSubsystemListCmd(root, outputFmt))
	cmd.AddCommand(newSubsystemShowCmd(root, outputFmt))
	cmd.AddCommand(newSubsystemAddCmd(root))
	cmd.AddCommand(newSubsystemRemoveCmd(root))
	cmd.AddCommand(newSubsystemListHostsCmd(root, outputFmt))
	cmd.AddCommand(newSubsystemAddHostCmd(root))
	cmd.AddCommand(newSubsystemRemoveHostCmd(root))
	return cmd
}

func newSubsystemListCmd(root, outputFmt *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured subsystems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ex := newExecutor(*root)
			s, err := ex.GatherState()
			if err != nil {
				return fmt.Errorf("gather state: %w", err)
			}
			if *outputFmt != "table" {
				return renderStructured(*outputFmt, s.Subsystems)
			}
			t := newStyledTable()
			t.AppendHeader(table.Row{"NQN", "Model", "Serial", "Hosts", "Namespaces"})
			for _, nqn := range sortedSubsystemNQNs(s.Subsystems) {
				t.AppendRow(subsystemTableRow(nqn, s.Subsystems[nqn]))
			}
			renderTable(t)
			return nil
		},
	}
}

func newSubsystemShowCmd(root, outputFmt *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <nqn>",
		Short: "Show one subsystem's configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ex := newExecutor(*root)
			s, err := ex.GatherState()
			if err != nil {
				return fmt.Errorf("gather state: %w", err)
			}
			sub, ok := s.Subsystems[args[0]]
			if !ok {
				return fmt.Errorf("subsystem %q not found", args[0])
			}
			if *outputFmt != "table" {
				return renderStructured(*outputFmt, sub)
			}
			t := newStyledTable()
			t.AppendHeader(table.Row{"NSID", "Enabled", "Device", "UUID", "NGUID"})
			for _, nsid := range sortedNamespaceIDs(sub.Namespaces) {
				ns := sub.Namespaces[nsid]
				t.AppendRow(table.Row{nsid, enabledBadge(ns.Enabled), ns.DevicePath, uuidOrDash(ns.DeviceUUID), uuidOrDash(ns.DeviceNGUID)})
			}
			renderTable(t)
			return nil
		},
	}
}

func newSubsystemAddCmd(root *string) *cobra.Command {
	var model, serial string
	cmd := &cobra.Command{
		Use:   "add <nqn>",
		Short: "Create a subsystem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nqn := args[0]
			if err := validate.SubsystemNQN(nqn); err != nil {
				return err
			}
			sub := state.NewSubsystem()
			if model != "" {
				sub.Model = &model
			}
			if serial != "" {
				sub.Serial = &serial
			}
			ex := newExecutor(*root)
			return ex.ApplyDelta(cmd.Context(), []state.StateDelta{state.AddSubsystem(nqn, sub)})
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "Model string reported by the subsystem")
	cmd.Flags().StringVar(&serial, "serial", "", "Serial number reported by the subsystem")
	return cmd
}

func newSubsystemRemoveCmd(root *string) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <nqn>",
		Short: "Remove a subsystem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ex := newExecutor(*root)
			return ex.ApplyDelta(cmd.Context(), []state.StateDelta{state.RemoveSubsystem(args[0])})
		},
	}
}

func newSubsystemListHostsCmd(root, outputFmt *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list-hosts <nqn>",
		Short: "List hosts allowed to connect to a subsystem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ex := newExecutor(*root)
			s, err := ex.GatherState()
			if err != nil {
				return fmt.Errorf("gather state: %w", err)
			}
			sub, ok := s.Subsystems[args[0]]
			if !ok {
				return fmt.Errorf("subsystem %q not found", args[0])
			}
			if *outputFmt != "table" {
				return renderStructured(*outputFmt, sub.AllowedHosts)
			}
			t := newStyledTable()
			t.AppendHeader(table.Row{"Host NQN"})
			for _, h := range sortedStringSet(sub.AllowedHosts) {
				t.AppendRow(table.Row{h})
			}
			renderTable(t)
			return nil
		},
	}
}

func newSubsystemAddHostCmd(root *string) *cobra.Command {
	return &cobra.Command{
		Use:   "add-host <nqn> <host-nqn>",
		Short: "Allow a host to connect to a subsystem",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validate.NQN(args[1]); err != nil {
				return err
			}
			ex := newExecutor(*root)
			return ex.ApplyDelta(cmd.Context(), []state.StateDelta{
				state.UpdateSubsystem(args[0], []state.SubsystemDelta{state.AddHost(args[1])}),
			})
		},
	}
}

func newSubsystemRemoveHostCmd(root *string) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-host <nqn> <host-nqn>",
		Short: "Disallow a host from connecting to a subsystem",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ex := newExecutor(*root)
			return ex.ApplyDelta(cmd.Context(), []state.StateDelta{
				state.UpdateSubsystem(args[0], []state.SubsystemDelta{state.RemoveHost(args[1])}),
			})
		},
	}
}

func sortedSubsystemNQNs(m map[string]state.Subsystem) []string {
	nqns := make([]string, 0, len(m))
	for nqn := range m {
		nqns = append(nqns, nqn)
	}
	sort.Strings(nqns)
	return nqns
}

func sortedNamespaceIDs(m map[uint32]state.Namespace) []uint32 {
	ids := make([]uint32, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedStringSet(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func subsystemTableRow(nqn string, sub state.Subsystem) table.Row {
	model, serial := "", ""
	if sub.Model != nil {
		model = *sub.Model
	}
	if sub.Serial != nil {
		serial = *sub.Serial
	}
	return table.Row{nqn, model, serial, len(sub.AllowedHosts), len(sub.Namespaces)}
}

func uuidOrDash(id *uuid.UUID) string {
	if id == nil {
		return "-"
	}
	return id.String()
}
