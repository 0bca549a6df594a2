package state

import (
	"net/netip"
	"testing"
)

func strPtr(s string) *string { return &s }

// TestDeltasToIdentity covers property 2: for all S, S.DeltasTo(S) == [].
func TestDeltasToIdentity(t *testing.T) {
	s := NewState()
	s.Ports[1] = NewPort(LoopPortType, nil)
	sub := NewSubsystem()
	sub.Model = strPtr("model")
	s.Subsystems["nqn.2023-11.sh.tty:unit"] = sub

	if got := s.DeltasTo(s); len(got) != 0 {
		t.Errorf("expected no deltas for identical states, got %v", got)
	}
}

// TestS1AddLoopPort mirrors spec.md S1.
func TestS1AddLoopPort(t *testing.T) {
	base := NewState()
	desired := NewState()
	desired.Ports[1] = NewPort(LoopPortType, nil)

	deltas := base.DeltasTo(desired)
	if len(deltas) != 1 {
		t.Fatalf("expected 1 delta, got %d: %+v", len(deltas), deltas)
	}
	if deltas[0].Kind != KindAddPort || deltas[0].PortID != 1 {
		t.Errorf("expected AddPort(1, ...), got %+v", deltas[0])
	}
	if deltas[0].Port.PortType != LoopPortType {
		t.Errorf("expected loop port type, got %+v", deltas[0].Port.PortType)
	}
}

// TestS2UpdatePortType mirrors spec.md S2.
func TestS2UpdatePortType(t *testing.T) {
	base := NewState()
	base.Ports[1] = NewPort(LoopPortType, nil)

	desired := NewState()
	addr := netip.MustParseAddrPort("127.0.0.1:4420")
	desired.Ports[1] = NewPort(TCPPortType(addr), nil)

	deltas := base.DeltasTo(desired)
	if len(deltas) != 1 || deltas[0].Kind != KindUpdatePort {
		t.Fatalf("expected single UpdatePort delta, got %+v", deltas)
	}
	ops := deltas[0].PortOps
	if len(ops) != 1 || ops[0].Kind != KindUpdatePortType || ops[0].PortType != TCPPortType(addr) {
		t.Errorf("expected single UpdatePortType op, got %+v", ops)
	}
}

// TestS3AddHost mirrors spec.md S3.
func TestS3AddHost(t *testing.T) {
	base := NewState()
	base.Subsystems["nqn.test"] = NewSubsystem()

	desired := NewState()
	sub := NewSubsystem()
	sub.AllowedHosts["nqn.init"] = struct{}{}
	desired.Subsystems["nqn.test"] = sub

	deltas := base.DeltasTo(desired)
	if len(deltas) != 1 || deltas[0].Kind != KindUpdateSubsystem {
		t.Fatalf("expected single UpdateSubsystem delta, got %+v", deltas)
	}
	ops := deltas[0].SubsystemOps
	if len(ops) != 1 || ops[0].Kind != KindAddHost || ops[0].Host != "nqn.init" {
		t.Errorf("expected single AddHost op, got %+v", ops)
	}
}

// S5 is covered by TestFcAddrRoundTrip and TestFcAddrShortForm in
// fcaddr_test.go.

// S6 is covered by TestSubsystemNQN in pkg/validate.

func TestDeltasToPortSubsystemOrdering(t *testing.T) {
	base := NewState()
	base.Ports[1] = NewPort(LoopPortType, map[string]struct{}{"nqn.a": {}})

	desired := NewState()
	desired.Ports[1] = NewPort(LoopPortType, nil)

	deltas := base.DeltasTo(desired)
	if len(deltas) != 1 || deltas[0].Kind != KindUpdatePort {
		t.Fatalf("expected single UpdatePort delta, got %+v", deltas)
	}
	ops := deltas[0].PortOps
	if len(ops) != 1 || ops[0].Kind != KindPortRemoveSubsystem || ops[0].SubsystemNQN != "nqn.a" {
		t.Errorf("expected single RemoveSubsystem op, got %+v", ops)
	}
}

// TestDeltasToTopLevelOrdering asserts property 4: no AddPort references
// a subsystem whose AddSubsystem appears later in the same list.
func TestDeltasToTopLevelOrdering(t *testing.T) {
	base := NewState()

	desired := NewState()
	desired.Subsystems["nqn.sub"] = NewSubsystem()
	desired.Ports[1] = NewPort(LoopPortType, map[string]struct{}{"nqn.sub": {}})

	deltas := base.DeltasTo(desired)

	var subIdx, portIdx = -1, -1
	for i, d := range deltas {
		if d.Kind == KindAddSubsystem && d.SubsystemNQN == "nqn.sub" {
			subIdx = i
		}
		if d.Kind == KindAddPort && d.PortID == 1 {
			portIdx = i
		}
	}
	if subIdx == -1 || portIdx == -1 {
		t.Fatalf("expected both AddSubsystem and AddPort in %+v", deltas)
	}
	if subIdx > portIdx {
		t.Errorf("AddSubsystem must precede AddPort that references it: sub at %d, port at %d", subIdx, portIdx)
	}
}

// TestSubsystemRemovalWithSharedHost checks only the emitted delta; the
// orphan host cleanup itself is exercised by TestOrphanHostGC in
// pkg/kernel.
func TestSubsystemRemovalWithSharedHost(t *testing.T) {
	base := NewState()
	subA := NewSubsystem()
	subA.AllowedHosts["nqn.h"] = struct{}{}
	subB := NewSubsystem()
	subB.AllowedHosts["nqn.h"] = struct{}{}
	base.Subsystems["nqn.a"] = subA
	base.Subsystems["nqn.b"] = subB

	desired := NewState()
	desired.Subsystems["nqn.b"] = subB

	deltas := base.DeltasTo(desired)
	if len(deltas) != 1 || deltas[0].Kind != KindRemoveSubsystem || deltas[0].SubsystemNQN != "nqn.a" {
		t.Fatalf("expected single RemoveSubsystem(nqn.a), got %+v", deltas)
	}
}

func TestModelSerialTransitionToNilEmitsNothing(t *testing.T) {
	base := NewState()
	sub := NewSubsystem()
	sub.Model = strPtr("a-model")
	sub.Serial = strPtr("a-serial")
	base.Subsystems["nqn.test"] = sub

	desired := NewState()
	desired.Subsystems["nqn.test"] = NewSubsystem()

	deltas := base.DeltasTo(desired)
	if len(deltas) != 0 {
		t.Errorf("expected no deltas for model/serial->nil transition, got %+v", deltas)
	}
}
