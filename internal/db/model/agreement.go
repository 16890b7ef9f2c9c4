package model

import "time"

const AgreementCollection = "agreements"

// AgreementDocument holds one partner agreement with its full version
// history embedded. Versions are append-only snapshots: an amendment adds a
// new version with a fresh effective range instead of mutating rules in
// place, so past computations stay reproducible.
type AgreementDocument struct {
	ID        string             `bson:"_id"` // agreement id
	PartnerID string             `bson:"partner_id"`
	Versions  []AgreementVersion `bson:"versions"`
}

type AgreementVersion struct {
	Version        uint32          `bson:"version"`
	EffectiveFrom  time.Time       `bson:"effective_from"`
	EffectiveUntil *time.Time      `bson:"effective_until,omitempty"` // nil = open-ended
	Rules          []AgreementRule `bson:"rules"`
}

// AgreementRule is one commission clause. Nil ChainID or ValidatorKey acts
// as a wildcard over that dimension. Floor and Cap are decimal strings in
// smallest native units; RateBps is 0..10000.
type AgreementRule struct {
	Order        uint32  `bson:"order"`
	ChainID      *string `bson:"chain_id,omitempty"`
	ValidatorKey *string `bson:"validator_key,omitempty"`
	Component    string  `bson:"component"`
	Method       string  `bson:"method"`
	RateBps      uint32  `bson:"rate_bps"`
	Floor        *string `bson:"floor,omitempty"`
	Cap          *string `bson:"cap,omitempty"`
	Active       bool    `bson:"active"`
}

// VersionAt picks the single version whose effective range covers the given
// instant. Returns nil when no version is effective: the caller treats that
// as "no commission", not an error.
func (a *AgreementDocument) VersionAt(at time.Time) *AgreementVersion {
	for i := range a.Versions {
		v := &a.Versions[i]
		if at.Before(v.EffectiveFrom) {
			continue
		}
		if v.EffectiveUntil != nil && !at.Before(*v.EffectiveUntil) {
			continue
		}
		return v
	}
	return nil
}
