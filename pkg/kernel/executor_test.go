package kernel_test

import (
	"context"
	"net/netip"
	"testing"

	"github.com/vifino/nvmetctl/pkg/kernel"
	"github.com/vifino/nvmetctl/pkg/kernel/fakefs"
	"github.com/vifino/nvmetctl/pkg/state"
)

func TestGatherStateEmpty(t *testing.T) {
	fs := fakefs.New()
	ex := kernel.NewExecutor(fs)

	got, err := ex.GatherState()
	if err != nil {
		t.Fatalf("GatherState: %v", err)
	}
	if len(got.Ports) != 0 || len(got.Subsystems) != 0 {
		t.Errorf("expected empty state, got %+v", got)
	}
}

func TestGatherStateMissingRoot(t *testing.T) {
	fs := fakefs.New()
	fs.RootMissing = true
	ex := kernel.NewExecutor(fs)

	if _, err := ex.GatherState(); err == nil {
		t.Fatal("expected error when nvmet root is missing")
	}
}

// TestApplySoundness covers property 3: applying base.DeltasTo(desired)
// to a copy of base yields desired.
func TestApplySoundness(t *testing.T) {
	fs := fakefs.New()
	ex := kernel.NewExecutor(fs)
	ctx := context.Background()

	base, err := ex.GatherState()
	if err != nil {
		t.Fatalf("GatherState: %v", err)
	}

	desired := state.NewState()
	desired.Ports[1] = state.NewPort(state.LoopPortType, map[string]struct{}{"nqn.test": {}})
	sub := state.NewSubsystem()
	model := "Dumb-O-Tron"
	sub.Model = &model
	desired.Subsystems["nqn.test"] = sub

	deltas := base.DeltasTo(desired)
	if err := ex.ApplyDelta(ctx, deltas); err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}

	got, err := ex.GatherState()
	if err != nil {
		t.Fatalf("GatherState after apply: %v", err)
	}

	if len(got.Ports) != 1 || len(got.Subsystems) != 1 {
		t.Fatalf("unexpected state after apply: %+v", got)
	}
	if !got.Ports[1].Equal(desired.Ports[1]) {
		t.Errorf("port mismatch: got %+v, want %+v", got.Ports[1], desired.Ports[1])
	}
	if got.Subsystems["nqn.test"].Model == nil || *got.Subsystems["nqn.test"].Model != model {
		t.Errorf("model mismatch: got %+v", got.Subsystems["nqn.test"])
	}
}

// TestApplyIdempotence covers property 8: re-gathering and re-diffing
// against the same desired state yields an empty delta.
func TestApplyIdempotence(t *testing.T) {
	fs := fakefs.New()
	ex := kernel.NewExecutor(fs)
	ctx := context.Background()

	desired := state.NewState()
	desired.Ports[1] = state.NewPort(state.TCPPortType(netip.MustParseAddrPort("10.0.0.1:4420")), nil)

	base, err := ex.GatherState()
	if err != nil {
		t.Fatalf("GatherState: %v", err)
	}
	if err := ex.ApplyDelta(ctx, base.DeltasTo(desired)); err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}

	reGathered, err := ex.GatherState()
	if err != nil {
		t.Fatalf("re-GatherState: %v", err)
	}
	if deltas := reGathered.DeltasTo(desired); len(deltas) != 0 {
		t.Errorf("expected empty delta on reconverge, got %+v", deltas)
	}
}

// TestOrphanHostGC mirrors spec.md S4: a host shared by two subsystems
// survives removal of one, and is garbage-collected when the other goes too.
func TestOrphanHostGC(t *testing.T) {
	fs := fakefs.New()
	ex := kernel.NewExecutor(fs)
	ctx := context.Background()

	desired := state.NewState()
	subA := state.NewSubsystem()
	subA.AllowedHosts["nqn.host"] = struct{}{}
	subB := state.NewSubsystem()
	subB.AllowedHosts["nqn.host"] = struct{}{}
	desired.Subsystems["nqn.a"] = subA
	desired.Subsystems["nqn.b"] = subB

	base, err := ex.GatherState()
	if err != nil {
		t.Fatalf("GatherState: %v", err)
	}
	if err := ex.ApplyDelta(ctx, base.DeltasTo(desired)); err != nil {
		t.Fatalf("ApplyDelta (install): %v", err)
	}

	// Remove subsystem A only; host must survive since B still refers to it.
	afterRemoveA := state.NewState()
	afterRemoveA.Subsystems["nqn.b"] = subB

	afterInstall, err := ex.GatherState()
	if err != nil {
		t.Fatalf("GatherState: %v", err)
	}
	if err := ex.ApplyDelta(ctx, afterInstall.DeltasTo(afterRemoveA)); err != nil {
		t.Fatalf("ApplyDelta (remove A): %v", err)
	}

	hosts, err := fs.ListHosts()
	if err != nil {
		t.Fatalf("ListHosts: %v", err)
	}
	if len(hosts) != 1 || hosts[0] != "nqn.host" {
		t.Fatalf("expected host to survive removal of A, got %v", hosts)
	}

	// Now remove subsystem B too; host must be garbage collected.
	afterRemoveA2, err := ex.GatherState()
	if err != nil {
		t.Fatalf("GatherState: %v", err)
	}
	if err := ex.ApplyDelta(ctx, afterRemoveA2.DeltasTo(state.NewState())); err != nil {
		t.Fatalf("ApplyDelta (remove B): %v", err)
	}

	hosts, err = fs.ListHosts()
	if err != nil {
		t.Fatalf("ListHosts: %v", err)
	}
	if len(hosts) != 0 {
		t.Errorf("expected host to be garbage collected, got %v", hosts)
	}
}

func TestApplyAddSubsystemWithNamespace(t *testing.T) {
	fs := fakefs.New()
	fs.Devices["/dev/zvol/tank/vol1"] = "/dev/zvol/tank/vol1"
	ex := kernel.NewExecutor(fs)
	ctx := context.Background()

	desired := state.NewState()
	sub := state.NewSubsystem()
	sub.Namespaces[1] = state.Namespace{Enabled: true, DevicePath: "/dev/zvol/tank/vol1"}
	desired.Subsystems["nqn.test"] = sub

	base, err := ex.GatherState()
	if err != nil {
		t.Fatalf("GatherState: %v", err)
	}
	if err := ex.ApplyDelta(ctx, base.DeltasTo(desired)); err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}

	got, err := ex.GatherState()
	if err != nil {
		t.Fatalf("re-GatherState: %v", err)
	}
	ns, ok := got.Subsystems["nqn.test"].Namespaces[1]
	if !ok {
		t.Fatal("expected namespace 1 to exist")
	}
	if !ns.Enabled || ns.DevicePath != "/dev/zvol/tank/vol1" {
		t.Errorf("unexpected namespace state: %+v", ns)
	}
}
