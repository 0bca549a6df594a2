package state

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vifino/nvmetctl/pkg/nvmeterr"
)

// FcAddr is a Fibre Channel transport address: a World-Wide Node Name
// and World-Wide Port Name pair.
type FcAddr struct {
	WWNN uint64
	WWPN uint64
}

// canonical form length: "nn-0x" + 16 hex + ":pn-0x" + 16 hex = 43.
const canonicalFCLen = 43

// short form length: "nn-" + 16 hex + ":pn-" + 16 hex = 39.
const shortFCLen = 39

// String renders the canonical form: nn-0x<wwnn>:pn-0x<wwpn>, each
// padded to 16 hex digits.
func (f FcAddr) String() string {
	return fmt.Sprintf("nn-0x%016x:pn-0x%016x", f.WWNN, f.WWPN)
}

// ParseFcAddr parses either the canonical form (nn-0x...:pn-0x...,
// length 43) or the short form without "0x" (nn-...:pn-..., length 39).
func ParseFcAddr(s string) (FcAddr, error) {
	switch len(s) {
	case canonicalFCLen:
		const nnPrefix = "nn-0x"
		const pnSep = ":pn-0x"
		if !strings.HasPrefix(s, nnPrefix) || s[21:27] != pnSep {
			return FcAddr{}, nvmeterr.InvalidFCAddr(s)
		}
		return parseHexPair(s[5:21], s[27:43], s)
	case shortFCLen:
		const nnPrefix = "nn-"
		const pnSep = ":pn-"
		if !strings.HasPrefix(s, nnPrefix) || s[19:23] != pnSep {
			return FcAddr{}, nvmeterr.InvalidFCAddr(s)
		}
		return parseHexPair(s[3:19], s[23:39], s)
	default:
		return FcAddr{}, nvmeterr.InvalidFCAddr(s)
	}
}

func parseHexPair(wwnnHex, wwpnHex, original string) (FcAddr, error) {
	wwnn, err := strconv.ParseUint(wwnnHex, 16, 64)
	if err != nil {
		return FcAddr{}, fmt.Errorf("%w: %s", nvmeterr.ErrInvalidFCWWNN, wwnnHex)
	}
	wwpn, err := strconv.ParseUint(wwpnHex, 16, 64)
	if err != nil {
		return FcAddr{}, fmt.Errorf("%w: %s", nvmeterr.ErrInvalidFCWWPN, wwpnHex)
	}
	_ = original
	return FcAddr{WWNN: wwnn, WWPN: wwpn}, nil
}
