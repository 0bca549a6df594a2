package state

import "testing"

func TestFcAddrRoundTrip(t *testing.T) {
	canonical := "nn-0x1000000044001123:pn-0x2000000055001123"
	want := FcAddr{WWNN: 0x1000000044001123, WWPN: 0x2000000055001123}

	got, err := ParseFcAddr(canonical)
	if err != nil {
		t.Fatalf("ParseFcAddr(%q) error: %v", canonical, err)
	}
	if got != want {
		t.Errorf("ParseFcAddr(%q) = %+v, want %+v", canonical, got, want)
	}
	if got.String() != canonical {
		t.Errorf("String() = %q, want %q", got.String(), canonical)
	}
}

func TestFcAddrShortForm(t *testing.T) {
	short := "nn-1000000044001123:pn-2000000055001123"
	want := FcAddr{WWNN: 0x1000000044001123, WWPN: 0x2000000055001123}

	got, err := ParseFcAddr(short)
	if err != nil {
		t.Fatalf("ParseFcAddr(%q) error: %v", short, err)
	}
	if got != want {
		t.Errorf("ParseFcAddr(%q) = %+v, want %+v", short, got, want)
	}
}

func TestFcAddrInvalid(t *testing.T) {
	for _, s := range []string{"", "nn-garbage", "nn-0xzzzz000044001123:pn-0x2000000055001123"} {
		if _, err := ParseFcAddr(s); err == nil {
			t.Errorf("ParseFcAddr(%q) expected error", s)
		}
	}
}
