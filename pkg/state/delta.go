package state

// StateDeltaKind tags which variant a StateDelta carries. Only the
// StateDelta fields relevant to its Kind are meaningful; the shape
// mirrors a tagged union the way the rest of this codebase represents
// one (see PortType), since Go has no algebraic sum types.
type StateDeltaKind int

// StateDelta kinds, in no particular order - ordering of the *emitted
// slice* is what matters and is governed by State.DeltasTo, not by
// these constant values.
const (
	KindAddPort StateDeltaKind = iota
	KindUpdatePort
	KindRemovePort
	KindAddSubsystem
	KindUpdateSubsystem
	KindRemoveSubsystem
)

// StateDelta is a single top-level change: add/update/remove a port or
// subsystem.
type StateDelta struct {
	Kind StateDeltaKind

	PortID   uint16
	Port     Port
	PortOps  []PortDelta

	SubsystemNQN   string
	Subsystem      Subsystem
	SubsystemOps   []SubsystemDelta
}

// AddPort builds a StateDelta creating a new port.
func AddPort(id uint16, p Port) StateDelta {
	return StateDelta{Kind: KindAddPort, PortID: id, Port: p}
}

// UpdatePort builds a StateDelta carrying an ordered list of per-port
// sub-deltas.
func UpdatePort(id uint16, ops []PortDelta) StateDelta {
	return StateDelta{Kind: KindUpdatePort, PortID: id, PortOps: ops}
}

// RemovePort builds a StateDelta removing a port by ID.
func RemovePort(id uint16) StateDelta {
	return StateDelta{Kind: KindRemovePort, PortID: id}
}

// AddSubsystem builds a StateDelta creating a new subsystem.
func AddSubsystem(nqn string, s Subsystem) StateDelta {
	return StateDelta{Kind: KindAddSubsystem, SubsystemNQN: nqn, Subsystem: s}
}

// UpdateSubsystem builds a StateDelta carrying an ordered list of
// per-subsystem sub-deltas.
func UpdateSubsystem(nqn string, ops []SubsystemDelta) StateDelta {
	return StateDelta{Kind: KindUpdateSubsystem, SubsystemNQN: nqn, SubsystemOps: ops}
}

// RemoveSubsystem builds a StateDelta removing a subsystem by NQN.
func RemoveSubsystem(nqn string) StateDelta {
	return StateDelta{Kind: KindRemoveSubsystem, SubsystemNQN: nqn}
}

// PortDeltaKind tags a per-port sub-delta.
type PortDeltaKind int

// PortDelta kinds.
const (
	KindUpdatePortType PortDeltaKind = iota
	KindPortAddSubsystem
	KindPortRemoveSubsystem
)

// PortDelta is one change to an existing port: its transport type, or
// one subsystem reference added/removed.
type PortDelta struct {
	Kind         PortDeltaKind
	PortType     PortType
	SubsystemNQN string
}

// UpdatePortType builds a PortDelta changing the port's transport type.
func UpdatePortType(pt PortType) PortDelta {
	return PortDelta{Kind: KindUpdatePortType, PortType: pt}
}

// PortAddSubsystem builds a PortDelta linking a subsystem to the port.
func PortAddSubsystem(nqn string) PortDelta {
	return PortDelta{Kind: KindPortAddSubsystem, SubsystemNQN: nqn}
}

// PortRemoveSubsystem builds a PortDelta unlinking a subsystem from the port.
func PortRemoveSubsystem(nqn string) PortDelta {
	return PortDelta{Kind: KindPortRemoveSubsystem, SubsystemNQN: nqn}
}

// SubsystemDeltaKind tags a per-subsystem sub-delta.
type SubsystemDeltaKind int

// SubsystemDelta kinds.
const (
	KindUpdateModel SubsystemDeltaKind = iota
	KindUpdateSerial
	KindAddHost
	KindRemoveHost
	KindAddNamespace
	KindUpdateNamespace
	KindRemoveNamespace
)

// SubsystemDelta is one change to an existing subsystem.
type SubsystemDelta struct {
	Kind SubsystemDeltaKind

	Model  string
	Serial string
	Host   string

	NSID      uint32
	Namespace Namespace
}

// UpdateModel builds a SubsystemDelta setting the subsystem's model.
func UpdateModel(model string) SubsystemDelta {
	return SubsystemDelta{Kind: KindUpdateModel, Model: model}
}

// UpdateSerial builds a SubsystemDelta setting the subsystem's serial.
func UpdateSerial(serial string) SubsystemDelta {
	return SubsystemDelta{Kind: KindUpdateSerial, Serial: serial}
}

// AddHost builds a SubsystemDelta allowing a host NQN.
func AddHost(nqn string) SubsystemDelta {
	return SubsystemDelta{Kind: KindAddHost, Host: nqn}
}

// RemoveHost builds a SubsystemDelta disallowing a host NQN.
func RemoveHost(nqn string) SubsystemDelta {
	return SubsystemDelta{Kind: KindRemoveHost, Host: nqn}
}

// AddNamespace builds a SubsystemDelta creating a namespace.
func AddNamespace(nsid uint32, ns Namespace) SubsystemDelta {
	return SubsystemDelta{Kind: KindAddNamespace, NSID: nsid, Namespace: ns}
}

// UpdateNamespaceDelta builds a SubsystemDelta reconfiguring a namespace.
func UpdateNamespaceDelta(nsid uint32, ns Namespace) SubsystemDelta {
	return SubsystemDelta{Kind: KindUpdateNamespace, NSID: nsid, Namespace: ns}
}

// RemoveNamespace builds a SubsystemDelta removing a namespace.
func RemoveNamespace(nsid uint32) SubsystemDelta {
	return SubsystemDelta{Kind: KindRemoveNamespace, NSID: nsid}
}

// DeltasTo computes the ordered list of StateDeltas that, applied in
// order to a copy of s, yields a state equal to other. The ordering is
// fixed by spec: removals before adds (so a renamed entity frees its
// slot), subsystems added before ports that reference them.
func (s State) DeltasTo(other State) []StateDelta {
	var deltas []StateDelta

	// 1. RemovePort for every port-id in s but not in other.
	for _, id := range sortedUint16Keys(s.Ports) {
		if _, ok := other.Ports[id]; !ok {
			deltas = append(deltas, RemovePort(id))
		}
	}

	// 2. RemoveSubsystem for every NQN in s but not in other.
	for _, nqn := range sortedStringKeys(s.Subsystems) {
		if _, ok := other.Subsystems[nqn]; !ok {
			deltas = append(deltas, RemoveSubsystem(nqn))
		}
	}

	// 3. UpdateSubsystem for every NQN present in both with differing value.
	for _, nqn := range sortedStringKeys(s.Subsystems) {
		newSub, ok := other.Subsystems[nqn]
		if !ok {
			continue
		}
		oldSub := s.Subsystems[nqn]
		if oldSub.Equal(newSub) {
			continue
		}
		ops := oldSub.deltasTo(newSub)
		if len(ops) == 0 {
			continue
		}
		deltas = append(deltas, UpdateSubsystem(nqn, ops))
	}

	// 4. AddSubsystem for every NQN in other but not in s.
	for _, nqn := range sortedStringKeys(other.Subsystems) {
		if _, ok := s.Subsystems[nqn]; !ok {
			deltas = append(deltas, AddSubsystem(nqn, other.Subsystems[nqn]))
		}
	}

	// 5. UpdatePort for every port-id present in both with differing value.
	for _, id := range sortedUint16Keys(s.Ports) {
		newPort, ok := other.Ports[id]
		if !ok {
			continue
		}
		oldPort := s.Ports[id]
		if oldPort.Equal(newPort) {
			continue
		}
		ops := oldPort.deltasTo(newPort)
		if len(ops) == 0 {
			continue
		}
		deltas = append(deltas, UpdatePort(id, ops))
	}

	// 6. AddPort for every port-id in other but not in s.
	for _, id := range sortedUint16Keys(other.Ports) {
		if _, ok := s.Ports[id]; !ok {
			deltas = append(deltas, AddPort(id, other.Ports[id]))
		}
	}

	return deltas
}

// deltasTo computes the per-port sub-delta list: subsystem removals,
// then the port type change, then subsystem additions. The kernel
// refuses to change a port's transport type while any subsystem is
// linked, hence this order.
func (p Port) deltasTo(other Port) []PortDelta {
	var ops []PortDelta

	for _, nqn := range sortedStringSet(p.Subsystems) {
		if _, ok := other.Subsystems[nqn]; !ok {
			ops = append(ops, PortRemoveSubsystem(nqn))
		}
	}

	if p.PortType != other.PortType {
		ops = append(ops, UpdatePortType(other.PortType))
	}

	for _, nqn := range sortedStringSet(other.Subsystems) {
		if _, ok := p.Subsystems[nqn]; !ok {
			ops = append(ops, PortAddSubsystem(nqn))
		}
	}

	return ops
}

// deltasTo computes the per-subsystem sub-delta list: model/serial
// updates, host additions, namespace removals/updates/additions, then
// host removals. A transition to a nil model/serial emits nothing - the
// kernel has no notion of unsetting those attributes.
func (s Subsystem) deltasTo(other Subsystem) []SubsystemDelta {
	var ops []SubsystemDelta

	if !equalStringPtr(s.Model, other.Model) && other.Model != nil {
		ops = append(ops, UpdateModel(*other.Model))
	}
	if !equalStringPtr(s.Serial, other.Serial) && other.Serial != nil {
		ops = append(ops, UpdateSerial(*other.Serial))
	}

	for _, nqn := range sortedStringSet(other.AllowedHosts) {
		if _, ok := s.AllowedHosts[nqn]; !ok {
			ops = append(ops, AddHost(nqn))
		}
	}

	for _, nsid := range sortedUint32Keys(s.Namespaces) {
		if _, ok := other.Namespaces[nsid]; !ok {
			ops = append(ops, RemoveNamespace(nsid))
		}
	}
	for _, nsid := range sortedUint32Keys(s.Namespaces) {
		newNS, ok := other.Namespaces[nsid]
		if !ok {
			continue
		}
		if namespaceDiffers(s.Namespaces[nsid], newNS) {
			ops = append(ops, UpdateNamespaceDelta(nsid, newNS))
		}
	}
	for _, nsid := range sortedUint32Keys(other.Namespaces) {
		if _, ok := s.Namespaces[nsid]; !ok {
			ops = append(ops, AddNamespace(nsid, other.Namespaces[nsid]))
		}
	}

	for _, nqn := range sortedStringSet(s.AllowedHosts) {
		if _, ok := other.AllowedHosts[nqn]; !ok {
			ops = append(ops, RemoveHost(nqn))
		}
	}

	return ops
}

// namespaceDiffers reports whether applying other's explicit fields to
// old would change observable kernel state. A nil DeviceUUID/DeviceNGUID
// in other means "do not write" (see equalStringPtr's Model/Serial
// handling above) and must not be diffed against whatever value old
// carries, or a namespace whose identifiers the kernel auto-assigned
// would never converge.
func namespaceDiffers(old, other Namespace) bool {
	if old.Enabled != other.Enabled || old.DevicePath != other.DevicePath {
		return true
	}
	if other.DeviceUUID != nil && !equalUUIDPtr(old.DeviceUUID, other.DeviceUUID) {
		return true
	}
	if other.DeviceNGUID != nil && !equalUUIDPtr(old.DeviceNGUID, other.DeviceNGUID) {
		return true
	}
	return false
}
