package state

import (
	"net/netip"
	"testing"

	"github.com/google/uuid"
)

func TestSnapshotRoundTripEmpty(t *testing.T) {
	s := NewState()
	data, err := Marshal(s)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if len(got.Subsystems) != 0 || len(got.Ports) != 0 {
		t.Errorf("expected empty state, got %+v", got)
	}
}

func TestSnapshotRoundTripFull(t *testing.T) {
	s := NewState()
	s.Ports[1] = NewPort(LoopPortType, map[string]struct{}{"nqn.test": {}})
	s.Ports[2] = NewPort(TCPPortType(netip.MustParseAddrPort("10.0.0.1:4420")), nil)
	s.Ports[3] = NewPort(FCPortType(FcAddr{WWNN: 0x1000000044001123, WWPN: 0x2000000055001123}), nil)

	id := uuid.MustParse("39cd48a6-dee4-4eaa-a415-4e21e7a789f9")
	sub := NewSubsystem()
	sub.Model = strPtr("Dumb-O-Tron")
	sub.Serial = strPtr("1001")
	sub.AllowedHosts["nqn.init"] = struct{}{}
	sub.Namespaces[1] = Namespace{Enabled: true, DevicePath: "/dev/zvol/test", DeviceUUID: &id}
	s.Subsystems["nqn.test"] = sub

	data, err := Marshal(s)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}

	if len(got.Ports) != 3 || len(got.Subsystems) != 1 {
		t.Fatalf("unexpected round-trip shape: %+v", got)
	}
	if !got.Ports[1].Equal(s.Ports[1]) {
		t.Errorf("port 1 mismatch: got %+v, want %+v", got.Ports[1], s.Ports[1])
	}
	if !got.Ports[2].Equal(s.Ports[2]) {
		t.Errorf("port 2 mismatch: got %+v, want %+v", got.Ports[2], s.Ports[2])
	}
	if !got.Ports[3].Equal(s.Ports[3]) {
		t.Errorf("port 3 mismatch: got %+v, want %+v", got.Ports[3], s.Ports[3])
	}
	if !got.Subsystems["nqn.test"].Equal(s.Subsystems["nqn.test"]) {
		t.Errorf("subsystem mismatch: got %+v, want %+v", got.Subsystems["nqn.test"], s.Subsystems["nqn.test"])
	}
}

func TestSnapshotRejectsUnsupportedVersion(t *testing.T) {
	_, err := Unmarshal([]byte("version: 2\nsubsystems: {}\nports: {}\n"))
	if err == nil {
		t.Fatal("expected error for non-zero version")
	}
}

func TestSnapshotAcceptsZeroVersion(t *testing.T) {
	_, err := Unmarshal([]byte("version: 0\nsubsystems: {}\nports: {}\n"))
	if err != nil {
		t.Fatalf("expected zero version to be accepted, got %v", err)
	}
}
