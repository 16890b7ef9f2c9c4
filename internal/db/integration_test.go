//go:build integration

package db

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/introfi/commission-engine/internal/config"
	"github.com/introfi/commission-engine/internal/db/model"
	"github.com/introfi/commission-engine/internal/types"
	"github.com/ory/dockertest/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func setupTestDb(t *testing.T) *Database {
	t.Helper()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err)

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mongo",
		Tag:        "7.0",
		Env: []string{
			"MONGO_INITDB_ROOT_USERNAME=root",
			"MONGO_INITDB_ROOT_PASSWORD=example",
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = pool.Purge(resource)
	})

	uri := fmt.Sprintf("mongodb://localhost:%s/?directConnection=true", resource.GetPort("27017/tcp"))
	require.NoError(t, pool.Retry(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		client, err := mongo.Connect(ctx, options.Client().
			ApplyURI(uri).
			SetAuth(options.Credential{Username: "root", Password: "example"}))
		if err != nil {
			return err
		}
		defer client.Disconnect(ctx)
		return client.Ping(ctx, nil)
	}))

	cfg := config.DbConfig{
		Username: "root",
		Password: "example",
		Address:  uri,
		DbName:   "commission-engine-test",
	}

	ctx := context.Background()
	require.NoError(t, model.Setup(ctx, &cfg))

	testDb, err := New(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, testDb.Ping(ctx))
	return testDb
}

func TestPartnerWalletExclusivity(t *testing.T) {
	testDb := setupTestDb(t)
	ctx := context.Background()
	introduced := time.Now().UTC().Truncate(time.Millisecond)

	first := model.NewPartnerWalletDocument("testnet-1", "wallet-x", "partner-a", introduced)
	require.NoError(t, testDb.AssignPartnerWallet(ctx, first))

	t.Run("same partner is idempotent", func(t *testing.T) {
		again := model.NewPartnerWalletDocument("testnet-1", "wallet-x", "partner-a", introduced.Add(time.Hour))
		assert.NoError(t, testDb.AssignPartnerWallet(ctx, again))

		stored, err := testDb.GetPartnerWallet(ctx, "testnet-1", "wallet-x")
		require.NoError(t, err)
		assert.Equal(t, introduced, stored.IntroducedAt.Truncate(time.Millisecond), "first introduced date wins")
	})

	t.Run("active binding blocks another partner", func(t *testing.T) {
		rival := model.NewPartnerWalletDocument("testnet-1", "wallet-x", "partner-b", introduced)
		err := testDb.AssignPartnerWallet(ctx, rival)
		require.Error(t, err)
		assert.True(t, IsWalletConflictError(err))
	})

	t.Run("same wallet on another chain is independent", func(t *testing.T) {
		other := model.NewPartnerWalletDocument("testnet-2", "wallet-x", "partner-b", introduced)
		assert.NoError(t, testDb.AssignPartnerWallet(ctx, other))
	})

	t.Run("inactive binding can be taken over", func(t *testing.T) {
		require.NoError(t, testDb.DeactivatePartnerWallet(ctx, "testnet-1", "wallet-x"))

		takeover := model.NewPartnerWalletDocument("testnet-1", "wallet-x", "partner-b", introduced)
		require.NoError(t, testDb.AssignPartnerWallet(ctx, takeover))

		stored, err := testDb.GetPartnerWallet(ctx, "testnet-1", "wallet-x")
		require.NoError(t, err)
		assert.Equal(t, "partner-b", stored.PartnerID)
		assert.True(t, stored.Active)
	})
}

func TestRevenueFactAppendOnly(t *testing.T) {
	testDb := setupTestDb(t)
	ctx := context.Background()

	fact := model.NewRevenueFactDocument("testnet-1", 3, "val-a", types.ComponentExecFees, "1000")
	require.NoError(t, testDb.SaveRevenueFact(ctx, fact))

	dupe := model.NewRevenueFactDocument("testnet-1", 3, "val-a", types.ComponentExecFees, "2000")
	err := testDb.SaveRevenueFact(ctx, dupe)
	require.Error(t, err)
	assert.True(t, IsDuplicateKeyError(err))

	stored, err := testDb.GetRevenueFacts(ctx, "testnet-1", 3)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "1000", stored[0].Amount)
}

func TestCommissionLineOverrideLifecycle(t *testing.T) {
	testDb := setupTestDb(t)
	ctx := context.Background()

	validator := "val-a"
	line := &model.CommissionLineDocument{
		ID:           model.CommissionLineKey("partner-a", "testnet-1", 3, validator, "EXEC_FEES", 1, 1),
		PartnerID:    "partner-a",
		ChainID:      "testnet-1",
		PeriodID:     3,
		ValidatorKey: &validator,
		Component:    "EXEC_FEES",
		Method:       "FIXED_SHARE",
		BaseAmount:   "1000",
		RateBps:      500,
		PreOverride:  "50",
		FinalAmount:  "50",
		ComputedAt:   time.Now().UTC(),
		JobID:        "job-1",
	}
	_, err := testDb.collection(model.CommissionLineCollection).InsertOne(ctx, line)
	require.NoError(t, err)

	override := &model.CommissionOverride{
		Amount:    "75",
		Reason:    "dispute settlement",
		Actor:     "ops",
		AppliedAt: time.Now().UTC(),
	}
	require.NoError(t, testDb.SetCommissionLineOverride(ctx, line.ID, override))

	stored, err := testDb.GetCommissionLine(ctx, line.ID)
	require.NoError(t, err)
	assert.Equal(t, "75", stored.FinalAmount)
	assert.Equal(t, "50", stored.PreOverride)
	require.NotNil(t, stored.Override)

	require.NoError(t, testDb.ClearCommissionLineOverride(ctx, line.ID))

	cleared, err := testDb.GetCommissionLine(ctx, line.ID)
	require.NoError(t, err)
	assert.Equal(t, "50", cleared.FinalAmount)
	assert.Nil(t, cleared.Override)

	t.Run("missing line", func(t *testing.T) {
		err := testDb.SetCommissionLineOverride(ctx, "no-such-line", override)
		assert.True(t, IsLineNotFoundError(err))
	})
}
