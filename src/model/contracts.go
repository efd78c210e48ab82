package model

type ContractName string

const (
	ContractSavings        ContractName = "SAVINGS"
	ContractDefiYield      ContractName = "DEFI_YIELD"
	ContractInflationHedge ContractName = "INFLATION_HEDGE"
	ContractOracle         ContractName = "ORACLE"
)

var AllContracts = []ContractName{
	ContractSavings,
	ContractDefiYield,
	ContractInflationHedge,
	ContractOracle,
}

// ContractRegistry is populated once at startup and only read afterwards. A missing entry
// means the contract has not been deployed yet, which is a normal state.
type ContractRegistry struct {
	addresses map[ContractName]StellarAddr
}

func NewContractRegistry(addresses map[ContractName]string) ContractRegistry {
	reg := ContractRegistry{addresses: map[ContractName]StellarAddr{}}
	for k, v := range addresses {
		if v == "" {
			continue
		}
		reg.addresses[k] = StellarAddr(v)
	}
	return reg
}

func (cr ContractRegistry) Lookup(name ContractName) (StellarAddr, bool) {
	addr, ok := cr.addresses[name]
	return addr, ok
}

func (cr ContractRegistry) Deployed() map[ContractName]StellarAddr {
	out := make(map[ContractName]StellarAddr, len(cr.addresses))
	for k, v := range cr.addresses {
		out[k] = v
	}
	return out
}
