package validate

import (
	"strings"
	"testing"
)

func TestNQN(t *testing.T) {
	tests := []struct {
		name    string
		nqn     string
		wantErr bool
	}{
		{"valid", "nqn.2023-11.sh.tty:unit-tests", false},
		{"not ascii", "nqn.2023-11.\xc3\xa9:invalid-nqn-unicode", true},
		{"too long", "nqn." + strings.Repeat("a", 300), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NQN(tt.nqn)
			if (err != nil) != tt.wantErr {
				t.Errorf("NQN(%q) error = %v, wantErr %v", tt.nqn, err, tt.wantErr)
			}
		})
	}
}

func TestSubsystemNQN(t *testing.T) {
	if err := SubsystemNQN("nqn.2023-11.sh.tty:unit-tests"); err != nil {
		t.Errorf("expected valid NQN to pass, got %v", err)
	}

	// S6: the discovery NQN is accepted by NQN but rejected by SubsystemNQN.
	const discovery = "nqn.2014-08.org.nvmexpress.discovery"
	if err := NQN(discovery); err != nil {
		t.Errorf("NQN(discovery) should succeed, got %v", err)
	}
	if err := SubsystemNQN(discovery); err == nil {
		t.Error("SubsystemNQN(discovery) should fail")
	}
}

func TestCompliantNQN(t *testing.T) {
	valid := "nqn.2023-11.sh.tty:unit-tests"
	if err := CompliantNQN(valid); err != nil {
		t.Errorf("expected compliant NQN to pass, got %v", err)
	}

	if err := CompliantNQN("blergh"); err == nil {
		t.Error("expected non-'nqn.'-prefixed string to fail")
	}

	if err := CompliantNQN("nqn.2014-08.org.nvmexpress:uuid:42"); err == nil {
		t.Error("expected invalid UUID suffix to fail")
	}

	if err := CompliantNQN("nqn.2014-08.org.nvmexpress:uuid:39cd48a6-dee4-4eaa-a415-4e21e7a789f9"); err != nil {
		t.Errorf("expected valid UUID-form NQN to pass, got %v", err)
	}

	if err := CompliantNQN("nqn.2023-11.org.nvmexpress:something"); err == nil {
		t.Error("expected org.nvmexpress reverse-domain (non-UUID form) to fail")
	}

	if err := CompliantNQN("nqn.2023-11.sh.tty:"); err == nil {
		t.Error("expected empty identifier to fail")
	}

	if err := CompliantNQN("nqn.20AB-11.sh.tty:x"); err == nil {
		t.Error("expected non-numeric year to fail")
	}
}

func TestModel(t *testing.T) {
	if err := Model("Dumb-O-Tron 2000"); err != nil {
		t.Errorf("expected valid model to pass, got %v", err)
	}
	if err := Model(""); err == nil {
		t.Error("expected empty model to fail")
	}
	if err := Model(strings.Repeat("a", 41)); err == nil {
		t.Error("expected too-long model to fail")
	}
	if err := Model("\xc3\xa9"); err == nil {
		t.Error("expected non-ASCII model to fail")
	}
}

func TestSerial(t *testing.T) {
	if err := Serial("1D10T"); err != nil {
		t.Errorf("expected valid serial to pass, got %v", err)
	}
	if err := Serial(""); err == nil {
		t.Error("expected empty serial to fail")
	}
	if err := Serial(strings.Repeat("a", 21)); err == nil {
		t.Error("expected too-long serial to fail")
	}
}

func TestNSID(t *testing.T) {
	if err := NSID(1); err != nil {
		t.Errorf("expected nsid 1 to pass, got %v", err)
	}
	if err := NSID(0); err == nil {
		t.Error("expected nsid 0 to fail")
	}
	if err := NSID(0xFFFFFFFF); err == nil {
		t.Error("expected nsid 0xFFFFFFFF to fail")
	}
}
