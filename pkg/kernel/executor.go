package kernel

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"sort"

	"github.com/google/uuid"

	"github.com/vifino/nvmetctl/pkg/metrics"
	"github.com/vifino/nvmetctl/pkg/nvmeterr"
	"github.com/vifino/nvmetctl/pkg/retry"
	"github.com/vifino/nvmetctl/pkg/state"
	"github.com/vifino/nvmetctl/pkg/validate"
)

// Executor is the reconciliation engine: it owns every side effect
// against the configfs tree, reachable only through the FS it is
// bound to.
type Executor struct {
	fs FS
}

// NewExecutor binds an Executor to fs.
func NewExecutor(fs FS) *Executor {
	return &Executor{fs: fs}
}

// GatherState scans the bound tree into a state.State. Ports with an
// unsupported addr_trtype are silently dropped, matching observable
// kernel behavior: they cannot be represented in the state model.
func (e *Executor) GatherState() (state.State, error) {
	timer := metrics.NewOperationTimer(metrics.OpGather)
	s, err := e.gatherState()
	if err != nil {
		timer.ObserveError()
		return state.State{}, err
	}
	timer.ObserveSuccess()
	metrics.SetGatheredCounts(len(s.Ports), len(s.Subsystems))
	return s, nil
}

func (e *Executor) gatherState() (state.State, error) {
	if err := e.fs.CheckRoot(); err != nil {
		return state.State{}, err
	}

	s := state.NewState()

	portIDs, err := e.fs.ListPorts()
	if err != nil {
		return state.State{}, fmt.Errorf("list ports: %w", err)
	}
	for _, id := range portIDs {
		pt, ok, err := e.gatherPortType(id)
		if err != nil {
			return state.State{}, fmt.Errorf("gather port %d: %w", id, err)
		}
		if !ok {
			continue
		}
		subNames, err := e.fs.ListPortSubsystems(id)
		if err != nil {
			return state.State{}, fmt.Errorf("list subsystems of port %d: %w", id, err)
		}
		subs := make(map[string]struct{}, len(subNames))
		for _, nqn := range subNames {
			subs[nqn] = struct{}{}
		}
		s.Ports[id] = state.NewPort(pt, subs)
	}

	nqns, err := e.fs.ListSubsystems()
	if err != nil {
		return state.State{}, fmt.Errorf("list subsystems: %w", err)
	}
	for _, nqn := range nqns {
		sub, err := e.gatherSubsystem(nqn)
		if err != nil {
			return state.State{}, fmt.Errorf("gather subsystem %s: %w", nqn, err)
		}
		s.Subsystems[nqn] = sub
	}

	return s, nil
}

func (e *Executor) gatherPortType(id uint16) (state.PortType, bool, error) {
	trtype, err := e.fs.ReadPortAttr(id, AttrTrType)
	if err != nil {
		return state.PortType{}, false, fmt.Errorf("read %s: %w", AttrTrType, err)
	}

	switch trtype {
	case "loop":
		return state.LoopPortType, true, nil
	case "tcp", "rdma":
		traddr, err := e.fs.ReadPortAttr(id, AttrTrAddr)
		if err != nil {
			return state.PortType{}, false, fmt.Errorf("read %s: %w", AttrTrAddr, err)
		}
		trsvcid, err := e.fs.ReadPortAttr(id, AttrTrSvcID)
		if err != nil {
			return state.PortType{}, false, fmt.Errorf("read %s: %w", AttrTrSvcID, err)
		}
		ap, err := netip.ParseAddrPort(net.JoinHostPort(traddr, trsvcid))
		if err != nil {
			return state.PortType{}, false, fmt.Errorf("parse %s address: %w", trtype, err)
		}
		if trtype == "tcp" {
			return state.TCPPortType(ap), true, nil
		}
		return state.RDMAPortType(ap), true, nil
	case "fc":
		traddr, err := e.fs.ReadPortAttr(id, AttrTrAddr)
		if err != nil {
			return state.PortType{}, false, fmt.Errorf("read %s: %w", AttrTrAddr, err)
		}
		fc, err := state.ParseFcAddr(traddr)
		if err != nil {
			return state.PortType{}, false, fmt.Errorf("parse fc address: %w", err)
		}
		return state.FCPortType(fc), true, nil
	default:
		// Unknown transport type: drop the port, per spec's lenient
		// gather_state behavior.
		return state.PortType{}, false, nil
	}
}

func (e *Executor) gatherSubsystem(nqn string) (state.Subsystem, error) {
	sub := state.NewSubsystem()

	model, err := e.fs.ReadSubsystemAttr(nqn, AttrModel)
	if err != nil {
		return state.Subsystem{}, fmt.Errorf("read %s: %w", AttrModel, err)
	}
	sub.Model = &model

	serial, err := e.fs.ReadSubsystemAttr(nqn, AttrSerial)
	if err != nil {
		return state.Subsystem{}, fmt.Errorf("read %s: %w", AttrSerial, err)
	}
	sub.Serial = &serial

	hosts, err := e.fs.ListSubsystemHosts(nqn)
	if err != nil {
		return state.Subsystem{}, fmt.Errorf("list allowed hosts: %w", err)
	}
	for _, h := range hosts {
		sub.AllowedHosts[h] = struct{}{}
	}

	nsids, err := e.fs.ListNamespaces(nqn)
	if err != nil {
		return state.Subsystem{}, fmt.Errorf("list namespaces: %w", err)
	}
	for _, nsid := range nsids {
		ns, err := e.gatherNamespace(nqn, nsid)
		if err != nil {
			return state.Subsystem{}, fmt.Errorf("gather namespace %d: %w", nsid, err)
		}
		sub.Namespaces[nsid] = ns
	}

	return sub, nil
}

func (e *Executor) gatherNamespace(nqn string, nsid uint32) (state.Namespace, error) {
	enable, err := e.fs.ReadNamespaceAttr(nqn, nsid, AttrEnable)
	if err != nil {
		return state.Namespace{}, fmt.Errorf("read %s: %w", AttrEnable, err)
	}
	var enabled bool
	switch enable {
	case "0":
		enabled = false
	case "1":
		enabled = true
	default:
		return state.Namespace{}, fmt.Errorf("namespace %d: unexpected enable value %q", nsid, enable)
	}

	devicePath, err := e.fs.ReadNamespaceAttr(nqn, nsid, AttrDevicePath)
	if err != nil {
		return state.Namespace{}, fmt.Errorf("read %s: %w", AttrDevicePath, err)
	}

	deviceUUID, err := readDeviceUUID(e.fs, nqn, nsid, AttrDeviceUUID)
	if err != nil {
		return state.Namespace{}, err
	}
	deviceNGUID, err := readDeviceUUID(e.fs, nqn, nsid, AttrDeviceNGUID)
	if err != nil {
		return state.Namespace{}, err
	}

	return state.Namespace{
		Enabled:     enabled,
		DevicePath:  devicePath,
		DeviceUUID:  deviceUUID,
		DeviceNGUID: deviceNGUID,
	}, nil
}

// readDeviceUUID reads a namespace's device_uuid/device_nguid
// attribute. The kernel assigns both as soon as a namespace is
// created, so an empty scan is surfaced as an error rather than
// silently coerced to absent.
func readDeviceUUID(fs FS, nqn string, nsid uint32, attr string) (*uuid.UUID, error) {
	raw, err := fs.ReadNamespaceAttr(nqn, nsid, attr)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", attr, err)
	}
	if raw == "" {
		return nil, nvmeterr.MissingDeviceIdentifier(nsid, nqn, attr)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("namespace %d: invalid %s %q: %w", nsid, attr, raw, err)
	}
	return &id, nil
}

// ApplyDelta applies changes in order against the bound tree. There is
// no rollback: a failure mid-list leaves the kernel partially
// reconciled and the caller should re-gather and re-apply to converge.
func (e *Executor) ApplyDelta(ctx context.Context, deltas []state.StateDelta) error {
	timer := metrics.NewOperationTimer(metrics.OpApply)
	if err := e.fs.CheckRoot(); err != nil {
		timer.ObserveError()
		return err
	}
	for i, d := range deltas {
		if err := e.applyOne(ctx, d); err != nil {
			metrics.RecordDeltaApplied(deltaMetricKind(d.Kind), "error")
			timer.ObserveError()
			return fmt.Errorf("delta %d (%s): %w", i, describeDelta(d), err)
		}
		metrics.RecordDeltaApplied(deltaMetricKind(d.Kind), "success")
	}
	timer.ObserveSuccess()
	return nil
}

func deltaMetricKind(k state.StateDeltaKind) string {
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

func describeDelta(d state.StateDelta) string {
	switch d.Kind {
	case state.KindAddPort:
		return fmt.Sprintf("AddPort(%d)", d.PortID)
	case state.KindUpdatePort:
		return fmt.Sprintf("UpdatePort(%d)", d.PortID)
	case state.KindRemovePort:
		return fmt.Sprintf("RemovePort(%d)", d.PortID)
	case state.KindAddSubsystem:
		return fmt.Sprintf("AddSubsystem(%s)", d.SubsystemNQN)
	case state.KindUpdateSubsystem:
		return fmt.Sprintf("UpdateSubsystem(%s)", d.SubsystemNQN)
	case state.KindRemoveSubsystem:
		return fmt.Sprintf("RemoveSubsystem(%s)", d.SubsystemNQN)
	default:
		return "unknown"
	}
}

func (e *Executor) applyOne(ctx context.Context, d state.StateDelta) error {
	switch d.Kind {
	case state.KindAddPort:
		return e.applyAddPort(d.PortID, d.Port)
	case state.KindUpdatePort:
		return e.applyUpdatePort(d.PortID, d.PortOps)
	case state.KindRemovePort:
		return e.applyRemovePort(ctx, d.PortID)
	case state.KindAddSubsystem:
		return e.applyAddSubsystem(d.SubsystemNQN, d.Subsystem)
	case state.KindUpdateSubsystem:
		return e.applyUpdateSubsystem(ctx, d.SubsystemNQN, d.SubsystemOps)
	case state.KindRemoveSubsystem:
		return e.applyRemoveSubsystem(ctx, d.SubsystemNQN)
	default:
		return fmt.Errorf("unknown delta kind %d", d.Kind)
	}
}

func (e *Executor) applyAddPort(id uint16, p state.Port) error {
	if err := e.fs.CreatePort(id); err != nil {
		return fmt.Errorf("create port: %w", err)
	}
	if err := e.setPortType(id, p.PortType); err != nil {
		return fmt.Errorf("set port type: %w", err)
	}
	for _, nqn := range sortedSubsystemSet(p.Subsystems) {
		if err := validate.NQN(nqn); err != nil {
			return fmt.Errorf("subsystem %s: %w", nqn, err)
		}
		if err := e.fs.LinkPortSubsystem(id, nqn); err != nil {
			return fmt.Errorf("link subsystem %s: %w", nqn, err)
		}
	}
	return nil
}

func (e *Executor) applyUpdatePort(id uint16, ops []state.PortDelta) error {
	exists, err := e.fs.PortExists(id)
	if err != nil {
		return fmt.Errorf("check port existence: %w", err)
	}
	if !exists {
		return nvmeterr.NoSuchPort(id)
	}

	for _, op := range ops {
		switch op.Kind {
		case state.KindPortRemoveSubsystem:
			if err := e.fs.UnlinkPortSubsystem(id, op.SubsystemNQN); err != nil {
				return fmt.Errorf("unlink subsystem %s: %w", op.SubsystemNQN, err)
			}
		case state.KindUpdatePortType:
			if err := e.applyUpdatePortType(id, op.PortType); err != nil {
				return err
			}
		case state.KindPortAddSubsystem:
			if err := validate.NQN(op.SubsystemNQN); err != nil {
				return fmt.Errorf("subsystem %s: %w", op.SubsystemNQN, err)
			}
			if err := e.fs.LinkPortSubsystem(id, op.SubsystemNQN); err != nil {
				return fmt.Errorf("link subsystem %s: %w", op.SubsystemNQN, err)
			}
		}
	}
	return nil
}

// applyUpdatePortType unlinks every currently linked subsystem,
// rewrites the transport attributes, then restores exactly the
// subsystems that were linked before the change. The kernel refuses a
// transport type change while any subsystem remains linked.
func (e *Executor) applyUpdatePortType(id uint16, pt state.PortType) error {
	linked, err := e.fs.ListPortSubsystems(id)
	if err != nil {
		return fmt.Errorf("list linked subsystems: %w", err)
	}
	for _, nqn := range linked {
		if err := e.fs.UnlinkPortSubsystem(id, nqn); err != nil {
			return fmt.Errorf("unlink subsystem %s before port type change: %w", nqn, err)
		}
	}
	if err := e.setPortType(id, pt); err != nil {
		return fmt.Errorf("update port type: %w", err)
	}
	for _, nqn := range linked {
		if err := e.fs.LinkPortSubsystem(id, nqn); err != nil {
			return fmt.Errorf("restore subsystem %s after port type change: %w", nqn, err)
		}
	}
	return nil
}

func (e *Executor) setPortType(id uint16, pt state.PortType) error {
	switch pt.Kind {
	case state.PortLoop:
		return e.fs.WritePortAttr(id, AttrTrType, "loop")
	case state.PortTCP, state.PortRDMA:
		trtype := "tcp"
		if pt.Kind == state.PortRDMA {
			trtype = "rdma"
		}
		if err := e.fs.WritePortAttr(id, AttrTrType, trtype); err != nil {
			return err
		}
		adrfam := "ipv4"
		if pt.IsIPv6() {
			adrfam = "ipv6"
		}
		if err := e.fs.WritePortAttr(id, AttrAdrFam, adrfam); err != nil {
			return err
		}
		if err := e.fs.WritePortAttr(id, AttrTrAddr, pt.Addr.Addr().String()); err != nil {
			return err
		}
		return e.fs.WritePortAttr(id, AttrTrSvcID, fmt.Sprintf("%d", pt.Addr.Port()))
	case state.PortFC:
		if err := e.fs.WritePortAttr(id, AttrTrType, "fc"); err != nil {
			return err
		}
		if err := e.fs.WritePortAttr(id, AttrAdrFam, "fc"); err != nil {
			return err
		}
		if err := e.fs.WritePortAttr(id, AttrTrAddr, pt.FC.String()); err != nil {
			return err
		}
		return e.fs.WritePortAttr(id, AttrTrSvcID, "none")
	default:
		return fmt.Errorf("unsupported port type kind %d", pt.Kind)
	}
}

func (e *Executor) applyRemovePort(ctx context.Context, id uint16) error {
	linked, err := e.fs.ListPortSubsystems(id)
	if err != nil {
		return fmt.Errorf("list linked subsystems: %w", err)
	}
	for _, nqn := range linked {
		if err := e.fs.UnlinkPortSubsystem(id, nqn); err != nil {
			return fmt.Errorf("unlink subsystem %s: %w", nqn, err)
		}
	}
	return retry.WithRetryNoResult(ctx, retry.EBusyConfig(fmt.Sprintf("remove-port-%d", id)), func() error {
		return e.fs.RemovePort(id)
	})
}

func (e *Executor) applyAddSubsystem(nqn string, sub state.Subsystem) error {
	exists, err := e.fs.SubsystemExists(nqn)
	if err != nil {
		return fmt.Errorf("check subsystem existence: %w", err)
	}
	if exists {
		return nvmeterr.ExistingSubsystem(nqn)
	}

	if err := e.fs.CreateSubsystem(nqn); err != nil {
		return fmt.Errorf("create subsystem: %w", err)
	}
	if sub.Model != nil {
		if err := e.fs.WriteSubsystemAttr(nqn, AttrModel, *sub.Model); err != nil {
			return fmt.Errorf("set model: %w", err)
		}
	}
	if sub.Serial != nil {
		if err := e.fs.WriteSubsystemAttr(nqn, AttrSerial, *sub.Serial); err != nil {
			return fmt.Errorf("set serial: %w", err)
		}
	}
	for _, nsid := range sortedNamespaceIDs(sub.Namespaces) {
		if err := e.installNamespace(nqn, nsid, sub.Namespaces[nsid]); err != nil {
			return fmt.Errorf("install namespace %d: %w", nsid, err)
		}
	}
	if err := e.setAllowAnyHost(nqn, len(sub.AllowedHosts) == 0); err != nil {
		return fmt.Errorf("set allow_any_host: %w", err)
	}
	for _, host := range sortedSubsystemSet(sub.AllowedHosts) {
		if err := e.attachHost(nqn, host); err != nil {
			return fmt.Errorf("attach host %s: %w", host, err)
		}
	}
	return nil
}

func (e *Executor) applyUpdateSubsystem(ctx context.Context, nqn string, ops []state.SubsystemDelta) error {
	exists, err := e.fs.SubsystemExists(nqn)
	if err != nil {
		return fmt.Errorf("check subsystem existence: %w", err)
	}
	if !exists {
		return nvmeterr.NoSuchSubsystem(nqn)
	}

	for _, op := range ops {
		switch op.Kind {
		case state.KindUpdateModel:
			if err := e.fs.WriteSubsystemAttr(nqn, AttrModel, op.Model); err != nil {
				return fmt.Errorf("update model: %w", err)
			}
		case state.KindUpdateSerial:
			if err := e.fs.WriteSubsystemAttr(nqn, AttrSerial, op.Serial); err != nil {
				return fmt.Errorf("update serial: %w", err)
			}
		case state.KindAddHost:
			// attr_allow_any_host must be cleared before the symlink is
			// added: the kernel refuses to link a host while the flag
			// is set (nvmet_allowed_hosts_allow_link: -EPERM).
			if err := e.setAllowAnyHost(nqn, false); err != nil {
				return fmt.Errorf("clear allow_any_host before add host %s: %w", op.Host, err)
			}
			if err := e.attachHost(nqn, op.Host); err != nil {
				return fmt.Errorf("add host %s: %w", op.Host, err)
			}
		case state.KindRemoveHost:
			if err := e.fs.UnlinkSubsystemHost(nqn, op.Host); err != nil {
				return fmt.Errorf("remove host %s: %w", op.Host, err)
			}
			if err := e.refreshAllowAnyHost(nqn); err != nil {
				return err
			}
		case state.KindAddNamespace:
			if err := e.installNamespace(nqn, op.NSID, op.Namespace); err != nil {
				return fmt.Errorf("add namespace %d: %w", op.NSID, err)
			}
		case state.KindUpdateNamespace:
			if err := e.reconfigureNamespace(nqn, op.NSID, op.Namespace); err != nil {
				return fmt.Errorf("update namespace %d: %w", op.NSID, err)
			}
		case state.KindRemoveNamespace:
			if err := e.removeNamespace(ctx, nqn, op.NSID); err != nil {
				return fmt.Errorf("remove namespace %d: %w", op.NSID, err)
			}
		}
	}
	return nil
}

func (e *Executor) applyRemoveSubsystem(ctx context.Context, nqn string) error {
	exists, err := e.fs.SubsystemExists(nqn)
	if err != nil {
		return fmt.Errorf("check subsystem existence: %w", err)
	}
	if !exists {
		return nvmeterr.NoSuchSubsystem(nqn)
	}

	ourHosts, err := e.fs.ListSubsystemHosts(nqn)
	if err != nil {
		return fmt.Errorf("list subsystem hosts: %w", err)
	}

	portIDs, err := e.fs.ListPorts()
	if err != nil {
		return fmt.Errorf("list ports: %w", err)
	}
	for _, id := range portIDs {
		linked, err := e.fs.ListPortSubsystems(id)
		if err != nil {
			return fmt.Errorf("list subsystems of port %d: %w", id, err)
		}
		for _, linkedNQN := range linked {
			if linkedNQN == nqn {
				if err := e.fs.UnlinkPortSubsystem(id, nqn); err != nil {
					return fmt.Errorf("unlink from port %d: %w", id, err)
				}
			}
		}
	}

	for _, host := range ourHosts {
		if err := e.fs.UnlinkSubsystemHost(nqn, host); err != nil {
			return fmt.Errorf("unlink host %s before removal: %w", host, err)
		}
	}

	nsids, err := e.fs.ListNamespaces(nqn)
	if err != nil {
		return fmt.Errorf("list namespaces: %w", err)
	}
	for _, nsid := range nsids {
		if err := e.removeNamespace(ctx, nqn, nsid); err != nil {
			return fmt.Errorf("remove namespace %d before subsystem removal: %w", nsid, err)
		}
	}

	if err := retry.WithRetryNoResult(ctx, retry.EBusyConfig("remove-subsystem-"+nqn), func() error {
		return e.fs.RemoveSubsystem(nqn)
	}); err != nil {
		return fmt.Errorf("remove subsystem: %w", err)
	}

	remainingNQNs, err := e.fs.ListSubsystems()
	if err != nil {
		return fmt.Errorf("list subsystems after removal: %w", err)
	}
	referenced, err := e.hostsReferencedBy(remainingNQNs)
	if err != nil {
		return err
	}
	for _, host := range ourHosts {
		if _, stillReferenced := referenced[host]; stillReferenced {
			continue
		}
		if err := e.fs.RemoveHost(host); err != nil {
			return fmt.Errorf("remove orphaned host %s: %w", host, err)
		}
	}

	return nil
}

// hostsReferencedBy returns the set of host NQNs allowed by any of the
// given subsystems, used to decide whether a host a removed subsystem
// used is now an orphan.
func (e *Executor) hostsReferencedBy(nqns []string) (map[string]struct{}, error) {
	referenced := make(map[string]struct{})
	for _, nqn := range nqns {
		hosts, err := e.fs.ListSubsystemHosts(nqn)
		if err != nil {
			return nil, fmt.Errorf("list hosts of subsystem %s: %w", nqn, err)
		}
		for _, h := range hosts {
			referenced[h] = struct{}{}
		}
	}
	return referenced, nil
}

func (e *Executor) attachHost(nqn, host string) error {
	hosts, err := e.fs.ListHosts()
	if err != nil {
		return fmt.Errorf("list hosts: %w", err)
	}
	if _, ok := toSet(hosts)[host]; !ok {
		if err := e.fs.CreateHost(host); err != nil {
			return fmt.Errorf("create host: %w", err)
		}
	}
	return e.fs.LinkSubsystemHost(nqn, host)
}

func (e *Executor) setAllowAnyHost(nqn string, allowAny bool) error {
	value := "0"
	if allowAny {
		value = "1"
	}
	return e.fs.WriteSubsystemAttr(nqn, AttrAllowAnyHost, value)
}

func (e *Executor) refreshAllowAnyHost(nqn string) error {
	hosts, err := e.fs.ListSubsystemHosts(nqn)
	if err != nil {
		return fmt.Errorf("list subsystem hosts: %w", err)
	}
	return e.setAllowAnyHost(nqn, len(hosts) == 0)
}

func (e *Executor) installNamespace(nqn string, nsid uint32, ns state.Namespace) error {
	if err := e.fs.CreateNamespace(nqn, nsid); err != nil {
		return fmt.Errorf("create: %w", err)
	}
	if err := e.writeNamespaceDeviceFields(nqn, nsid, ns); err != nil {
		return err
	}
	return e.writeNamespaceEnable(nqn, nsid, ns.Enabled)
}

// reconfigureNamespace implements the disable-before-edit rule: the
// kernel refuses attribute writes on an enabled namespace.
func (e *Executor) reconfigureNamespace(nqn string, nsid uint32, ns state.Namespace) error {
	if err := e.writeNamespaceEnable(nqn, nsid, false); err != nil {
		return fmt.Errorf("disable before reconfigure: %w", err)
	}
	if err := e.writeNamespaceDeviceFields(nqn, nsid, ns); err != nil {
		return err
	}
	return e.writeNamespaceEnable(nqn, nsid, ns.Enabled)
}

func (e *Executor) removeNamespace(ctx context.Context, nqn string, nsid uint32) error {
	if err := e.writeNamespaceEnable(nqn, nsid, false); err != nil {
		return fmt.Errorf("disable before removal: %w", err)
	}
	return retry.WithRetryNoResult(ctx, retry.EBusyConfig(fmt.Sprintf("remove-namespace-%d-%s", nsid, nqn)), func() error {
		return e.fs.RemoveNamespace(nqn, nsid)
	})
}

func (e *Executor) writeNamespaceDeviceFields(nqn string, nsid uint32, ns state.Namespace) error {
	if ns.DevicePath != "" {
		resolved, err := e.fs.ResolveDevicePath(ns.DevicePath)
		if err != nil {
			return fmt.Errorf("resolve device path: %w", err)
		}
		if err := e.fs.WriteNamespaceAttr(nqn, nsid, AttrDevicePath, resolved); err != nil {
			return fmt.Errorf("set device_path: %w", err)
		}
	}
	if ns.DeviceUUID != nil {
		if err := e.fs.WriteNamespaceAttr(nqn, nsid, AttrDeviceUUID, ns.DeviceUUID.String()); err != nil {
			return fmt.Errorf("set device_uuid: %w", err)
		}
	}
	if ns.DeviceNGUID != nil {
		if err := e.fs.WriteNamespaceAttr(nqn, nsid, AttrDeviceNGUID, ns.DeviceNGUID.String()); err != nil {
			return fmt.Errorf("set device_nguid: %w", err)
		}
	}
	return nil
}

func (e *Executor) writeNamespaceEnable(nqn string, nsid uint32, enabled bool) error {
	value := "0"
	if enabled {
		value = "1"
	}
	return e.fs.WriteNamespaceAttr(nqn, nsid, AttrEnable, value)
}

func sortedSubsystemSet(m map[string]struct{}) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func sortedNamespaceIDs(m map[uint32]state.Namespace) []uint32 {
	ids := make([]uint32, 0, len(m))
	for k := range m {
		ids = append(ids, k)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func toSet(names []string) map[string]struct{} {
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		out[n] = struct{}{}
	}
	return out
}
