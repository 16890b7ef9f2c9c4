package services

import (
	"os"
	"testing"

	"github.com/introfi/commission-engine/internal/observability/metrics"
)

func TestMain(m *testing.M) {
	// The attribution paths record diagnostics, so the collectors must exist
	metrics.Init(18951)
	os.Exit(m.Run())
}
