package swap

import "github.com/ethereum/go-ethereum/common"

// Permit2Address is the canonical Permit2 deployment, identical on every supported chain.
var Permit2Address = common.HexToAddress("0x000000000022D473030F116dDEE9F6B43aC78BA3")
