package model

import "time"

const StroopsPerUnit = 10000000 // 1 XLM == 10^7 stroops, fixed by the ledger

// LedgerAccount - the subset of on-chain account state the gateway needs to build a transaction
type LedgerAccount struct {
	ID            StellarAddr
	Sequence      int64
	NativeBalance string
}

// AccountSnapshot is replaced wholesale on every refresh, never mutated in place.
// Found == false is the "not on the network yet" snapshot and always carries a zero balance.
type AccountSnapshot struct {
	Address       StellarAddr
	NativeBalance string
	Found         bool
	FetchedAt     time.Time
}

func NotFoundSnapshot(address StellarAddr, at time.Time) AccountSnapshot {
	return AccountSnapshot{
		Address:       address,
		NativeBalance: "0",
		Found:         false,
		FetchedAt:     at,
	}
}
