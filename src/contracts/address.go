package contracts

import (
	"fmt"

	"github.com/onemorebsmith/soroban-vault/src/model"
	"github.com/stellar/go/strkey"
)

const notDeployed = "Not Deployed"

// FormatContractAddress shortens a contract id to `CABCDEFG...UVWXYZ12` for display
func FormatContractAddress(address model.StellarAddr) string {
	if address == "" {
		return notDeployed
	}
	if len(address) <= 16 {
		return string(address)
	}
	return fmt.Sprintf("%s...%s", address[:8], address[len(address)-8:])
}

// IsValidAddress accepts account (G...) and contract (C...) strkeys
func IsValidAddress(address string) bool {
	if strkey.IsValidEd25519PublicKey(address) {
		return true
	}
	_, err := strkey.Decode(strkey.VersionByteContract, address)
	return err == nil
}
