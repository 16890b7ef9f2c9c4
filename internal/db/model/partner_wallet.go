package model

import (
	"fmt"
	"time"
)

const PartnerWalletCollection = "partner_wallets"

// PartnerWalletDocument binds a chain-scoped wallet address to the partner
// who introduced it. The (chain, wallet) pair is the primary key, so a
// wallet can belong to at most one partner per chain. IntroducedAt gates
// retroactive attribution: stake before that instant is never credited.
type PartnerWalletDocument struct {
	ID           string    `bson:"_id"` // chain_id:wallet_address
	ChainID      string    `bson:"chain_id"`
	Wallet       string    `bson:"wallet"`
	PartnerID    string    `bson:"partner_id"`
	IntroducedAt time.Time `bson:"introduced_at"`
	Active       bool      `bson:"active"`
}

func PartnerWalletKey(chainID, wallet string) string {
	return fmt.Sprintf("%s:%s", chainID, wallet)
}

func NewPartnerWalletDocument(chainID, wallet, partnerID string, introducedAt time.Time) *PartnerWalletDocument {
	return &PartnerWalletDocument{
		ID:           PartnerWalletKey(chainID, wallet),
		ChainID:      chainID,
		Wallet:       wallet,
		PartnerID:    partnerID,
		IntroducedAt: introducedAt,
		Active:       true,
	}
}
