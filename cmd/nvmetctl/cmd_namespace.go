package main

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/vifino/nvmetctl/pkg/state"
)

func newNamespaceCmd(root, outputFmt *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "namespace",
		Aliases: []string{"ns"},
		Short:   "Inspect and modify subsystem namespaces",
	}
	cmd.AddCommand(newNamespaceListCmd(root, outputFmt))
	cmd.AddCommand(newNamespaceAddCmd(root))
	cmd.AddCommand(newNamespaceUpdateCmd(root))
	cmd.AddCommand(newNamespaceRemoveCmd(root))
	return cmd
}

func newNamespaceListCmd(root, outputFmt *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list <nqn>",
		Short: "List a subsystem's namespaces",
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
				return renderStructured(*outputFmt, sub.Namespaces)
			}
			t := newStyledTable()
			t.AppendHeader(namespaceTableHeader())
			for _, nsid := range sortedNamespaceIDs(sub.Namespaces) {
				t.AppendRow(namespaceTableRow(nsid, sub.Namespaces[nsid]))
			}
			renderTable(t)
			return nil
		},
	}
}

func namespaceTableHeader() table.Row {
	return table.Row{"NSID", "Enabled", "Device", "UUID", "NGUID"}
}

func namespaceTableRow(nsid uint32, ns state.Namespace) table.Row {
	return table.Row{nsid, enabledBadge(ns.Enabled), ns.DevicePath, uuidOrDash(ns.DeviceUUID), uuidOrDash(ns.DeviceNGUID)}
}

func newNamespaceAddCmd(root *string) *cobra.Command {
	var (
		devicePath string
		enable     bool
		devUUID    string
		devNGUID   string
	)
	cmd := &cobra.Command{
		Use:   "add <nqn> <nsid>",
		Short: "Create a namespace on a subsystem",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			nsid, err := parseNSID(args[1])
			if err != nil {
				return err
			}
			ns := state.Namespace{Enabled: enable, DevicePath: devicePath}
			if devUUID != "" {
				u, err := uuid.Parse(devUUID)
				if err != nil {
					return fmt.Errorf("invalid --device-uuid: %w", err)
				}
				ns.DeviceUUID = &u
			}
			if devNGUID != "" {
				u, err := uuid.Parse(devNGUID)
				if err != nil {
					return fmt.Errorf("invalid --device-nguid: %w", err)
				}
				ns.DeviceNGUID = &u
			}
			ex := newExecutor(*root)
			return ex.ApplyDelta(cmd.Context(), []state.StateDelta{
				state.UpdateSubsystem(args[0], []state.SubsystemDelta{state.AddNamespace(nsid, ns)}),
			})
		},
	}
	cmd.Flags().StringVar(&devicePath, "device-path", "", "Backing block device path")
	cmd.Flags().BoolVar(&enable, "enable", true, "Enable the namespace immediately")
	cmd.Flags().StringVar(&devUUID, "device-uuid", "", "Namespace UUID to report")
	cmd.Flags().StringVar(&devNGUID, "device-nguid", "", "Namespace NGUID to report")
	_ = cmd.MarkFlagRequired("device-path")
	return cmd
}

func newNamespaceUpdateCmd(root *string) *cobra.Command {
	var (
		devicePath string
		enable     bool
		devUUID    string
		devNGUID   string
	)
	cmd := &cobra.Command{
		Use:   "update <nqn> <nsid>",
		Short: "Reconfigure an existing namespace",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			nsid, err := parseNSID(args[1])
			if err != nil {
				return err
			}
			ex := newExecutor(*root)
			s, err := ex.GatherState()
			if err != nil {
				return fmt.Errorf("gather state: %w", err)
			}
			sub, ok := s.Subsystems[args[0]]
			if !ok {
				return fmt.Errorf("subsystem %q not found", args[0])
			}
			ns, ok := sub.Namespaces[nsid]
			if !ok {
				return fmt.Errorf("namespace %d not found on %q", nsid, args[0])
			}
			if cmd.Flags().Changed("device-path") {
				ns.DevicePath = devicePath
			}
			if cmd.Flags().Changed("enable") {
				ns.Enabled = enable
			}
			if devUUID != "" {
				u, err := uuid.Parse(devUUID)
				if err != nil {
					return fmt.Errorf("invalid --device-uuid: %w", err)
				}
				ns.DeviceUUID = &u
			}
			if devNGUID != "" {
				u, err := uuid.Parse(devNGUID)
				if err != nil {
					return fmt.Errorf("invalid --device-nguid: %w", err)
				}
				ns.DeviceNGUID = &u
			}
			return ex.ApplyDelta(cmd.Context(), []state.StateDelta{
				state.UpdateSubsystem(args[0], []state.SubsystemDelta{state.UpdateNamespaceDelta(nsid, ns)}),
			})
		},
	}
	cmd.Flags().StringVar(&devicePath, "device-path", "", "Backing block device path")
	cmd.Flags().BoolVar(&enable, "enable", true, "Namespace enable state")
	cmd.Flags().StringVar(&devUUID, "device-uuid", "", "Namespace UUID to report")
	cmd.Flags().StringVar(&devNGUID, "device-nguid", "", "Namespace NGUID to report")
	return cmd
}

func newNamespaceRemoveCmd(root *string) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <nqn> <nsid>",
		Short: "Remove a namespace",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			nsid, err := parseNSID(args[1])
			if err != nil {
				return err
			}
			ex := newExecutor(*root)
			return ex.ApplyDelta(cmd.Context(), []state.StateDelta{
				state.UpdateSubsystem(args[0], []state.SubsystemDelta{state.RemoveNamespace(nsid)}),
			})
		},
	}
}

func parseNSID(s string) (uint32, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid nsid %q: %w", s, err)
	}
	return uint32(id), nil
}
