package model

const (
	OverallStatsCollection = "overall_stats"
	PartnerStatsCollection = "partner_stats"
)

// OverallStatsDocument represents engine-wide commission totals
type OverallStatsDocument struct {
	ID              string `bson:"_id"`              // Always "overall_stats"
	TotalCommission string `bson:"total_commission"` // Sum of final amounts across all lines
	TotalLines      uint64 `bson:"total_lines"`
	PartnerCount    uint64 `bson:"partner_count"`
	LastUpdated     int64  `bson:"last_updated"` // Unix timestamp of last update
}

// PartnerStatsDocument represents per-partner commission totals
type PartnerStatsDocument struct {
	PartnerID       string `bson:"_id"`
	TotalCommission string `bson:"total_commission"`
	TotalLines      uint64 `bson:"total_lines"`
	OverriddenLines uint64 `bson:"overridden_lines"`
	LastUpdated     int64  `bson:"last_updated"`
}
