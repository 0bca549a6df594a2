package main

import (
	"fmt"
	"net/netip"
	"sort"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/vifino/nvmetctl/pkg/state"
)

func newPortCmd(root, outputFmt *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "port",
		Short: "Inspect and modify nvmet ports",
	}
	cmd.AddCommand(newPortListCmd(root, outputFmt))
	cmd.AddCommand(newPortShowCmd(root, outputFmt))
	cmd.AddCommand(newPortAddCmd(root))
	cmd.AddCommand(newPortRemoveCmd(root))
	cmd.AddCommand(newPortAddSubsystemCmd(root))
	cmd.AddCommand(newPortRemoveSubsystemCmd(root))
	return cmd
}

func newPortListCmd(root, outputFmt *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured ports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ex := newExecutor(*root)
			s, err := ex.GatherState()
			if err != nil {
				return fmt.Errorf("gather state: %w", err)
			}
			return printPortList(s, *outputFmt)
		},
	}
}

func printPortList(s state.State, format string) error {
	if format != "table" {
		return renderStructured(format, s.Ports)
	}

	t := newStyledTable()
	t.AppendHeader(portTableHeader())
	for _, id := range sortedPortIDs(s.Ports) {
		p := s.Ports[id]
		t.AppendRow(portTableRow(id, p))
	}
	renderTable(t)
	return nil
}

func newPortShowCmd(root, outputFmt *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one port's configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePortID(args[0])
			if err != nil {
				return err
			}
			ex := newExecutor(*root)
			s, err := ex.GatherState()
			if err != nil {
				return fmt.Errorf("gather state: %w", err)
			}
			p, ok := s.Ports[id]
			if !ok {
				return fmt.Errorf("port %d not found", id)
			}
			if *outputFmt != "table" {
				return renderStructured(*outputFmt, p)
			}
			t := newStyledTable()
			t.AppendHeader(portTableHeader())
			t.AppendRow(portTableRow(id, p))
			renderTable(t)
			return nil
		},
	}
}

func newPortAddCmd(root *string) *cobra.Command {
	var (
		portType string
		addr     string
	)
	cmd := &cobra.Command{
		Use:   "add <id>",
		Short: "Create a port",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePortID(args[0])
			if err != nil {
				return err
			}
			pt, err := parsePortType(portType, addr)
			if err != nil {
				return err
			}
			ex := newExecutor(*root)
			return ex.ApplyDelta(cmd.Context(), []state.StateDelta{
				state.AddPort(id, state.NewPort(pt, nil)),
			})
		},
	}
	cmd.Flags().StringVar(&portType, "type", "loop", "Port transport type: loop, tcp, rdma, fc")
	cmd.Flags().StringVar(&addr, "addr", "", "Address for tcp/rdma (host:port) or fc (nn-...:pn-...)")
	return cmd
}

func newPortRemoveCmd(root *string) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a port",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePortID(args[0])
			if err != nil {
				return err
			}
			ex := newExecutor(*root)
			return ex.ApplyDelta(cmd.Context(), []state.StateDelta{state.RemovePort(id)})
		},
	}
}

func newPortAddSubsystemCmd(root *string) *cobra.Command {
	return &cobra.Command{
		Use:   "add-subsystem <id> <nqn>",
		Short: "Expose a subsystem through a port",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePortID(args[0])
			if err != nil {
				return err
			}
			ex := newExecutor(*root)
			return ex.ApplyDelta(cmd.Context(), []state.StateDelta{
				state.UpdatePort(id, []state.PortDelta{state.PortAddSubsystem(args[1])}),
			})
		},
	}
}

func newPortRemoveSubsystemCmd(root *string) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-subsystem <id> <nqn>",
		Short: "Stop exposing a subsystem through a port",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePortID(args[0])
			if err != nil {
				return err
			}
			ex := newExecutor(*root)
			return ex.ApplyDelta(cmd.Context(), []state.StateDelta{
				state.UpdatePort(id, []state.PortDelta{state.PortRemoveSubsystem(args[1])}),
			})
		},
	}
}

func parsePortID(s string) (uint16, error) {
	id, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid port id %q: %w", s, err)
	}
	return uint16(id), nil
}

func parsePortType(kind, addr string) (state.PortType, error) {
	switch kind {
	case "loop":
		return state.LoopPortType, nil
	case "tcp", "rdma":
		ap, err := netip.ParseAddrPort(addr)
		if err != nil {
			return state.PortType{}, fmt.Errorf("invalid --addr %q: %w", addr, err)
		}
		if kind == "tcp" {
			return state.TCPPortType(ap), nil
		}
		return state.RDMAPortType(ap), nil
	case "fc":
		fc, err := state.ParseFcAddr(addr)
		if err != nil {
			return state.PortType{}, err
		}
		return state.FCPortType(fc), nil
	default:
		return state.PortType{}, fmt.Errorf("unsupported port type %q", kind)
	}
}

func sortedPortIDs(m map[uint16]state.Port) []uint16 {
	ids := make([]uint16, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func portTableHeader() table.Row {
	return table.Row{"ID", "Type", "Address", "Subsystems"}
}

func portTableRow(id uint16, p state.Port) table.Row {
	addr := ""
	switch p.PortType.Kind {
	case state.PortTCP, state.PortRDMA:
		addr = p.PortType.Addr.String()
	case state.PortFC:
		addr = p.PortType.FC.String()
	}
	return table.Row{id, portKindBadge(p.PortType.Kind.String()), addr, len(p.Subsystems)}
}
