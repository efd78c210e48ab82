package model

import "fmt"

// StellarAddr is a ledger account id (G...) or contract id (C...) in strkey form.
type StellarAddr string

// Identity - the account the connected wallet signs with. Immutable for the life of a session.
type Identity struct {
	Address     StellarAddr
	DisplayName string
}

func NewIdentity(address StellarAddr) Identity {
	return Identity{
		Address:     address,
		DisplayName: ShortAddress(string(address)),
	}
}

func (i Identity) Empty() bool {
	return i.Address == ""
}

// ShortAddress truncates an address to `GABC...WXYZ`
func ShortAddress(address string) string {
	if len(address) <= 8 {
		return address
	}
	return fmt.Sprintf("%s...%s", address[:4], address[len(address)-4:])
}
