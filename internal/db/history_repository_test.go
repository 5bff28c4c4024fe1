package db

import (
	"context"
	"log/slog"
	"math/big"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/rsalab/internal/crypto"
	"github.com/udisondev/rsalab/internal/lab"
	"github.com/udisondev/rsalab/internal/testutil"
)

func TestHistoryRepository(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	repo := NewHistoryRepository(pool)
	ctx := context.Background()

	pub := crypto.PublicKey{E: big.NewInt(17), N: big.NewInt(3233)}

	t.Run("save key is idempotent", func(t *testing.T) {
		require.NoError(t, repo.SaveKey(ctx, pub, crypto.SizeSmall))
		require.NoError(t, repo.SaveKey(ctx, pub, ""))

		row, err := repo.GetKey(ctx, pub.Fingerprint())
		require.NoError(t, err)
		require.NotNil(t, row)
		assert.Equal(t, crypto.SizeSmall, row.PrimeSize)
		assert.Equal(t, "17", row.E)
		assert.Equal(t, "3233", row.N)
	})

	t.Run("missing key", func(t *testing.T) {
		row, err := repo.GetKey(ctx, "does-not-exist")
		require.NoError(t, err)
		assert.Nil(t, row)
	})

	t.Run("runs newest first", func(t *testing.T) {
		base := time.Now().Add(-time.Hour).UTC().Truncate(time.Millisecond)
		for i, op := range []lab.Operation{lab.OpEncrypt, lab.OpDecrypt, lab.OpStatisticalDecode} {
			require.NoError(t, repo.SaveRun(ctx, lab.Run{
				ID:             uuid.New(),
				Operation:      op,
				KeyFingerprint: pub.Fingerprint(),
				Input:          "in",
				Output:         "out",
				CreatedAt:      base.Add(time.Duration(i) * time.Minute),
			}))
		}

		runs, err := repo.RecentRuns(ctx, 2)
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assert.Equal(t, lab.OpStatisticalDecode, runs[0].Operation)
		assert.Equal(t, lab.OpDecrypt, runs[1].Operation)
	})

	t.Run("zero id and time are filled in", func(t *testing.T) {
		require.NoError(t, repo.SaveRun(ctx, lab.Run{
			Operation:      lab.OpEncrypt,
			KeyFingerprint: pub.Fingerprint(),
		}))
		runs, err := repo.RecentRuns(ctx, 1)
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.NotEqual(t, uuid.Nil, runs[0].ID)
	})

	t.Run("run for unknown key is rejected", func(t *testing.T) {
		err := repo.SaveRun(ctx, lab.Run{Operation: lab.OpEncrypt, KeyFingerprint: "unknown"})
		assert.Error(t, err)
	})
}

func TestServiceRecordsIntoPostgres(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	repo := NewHistoryRepository(pool)
	ctx := context.Background()

	svc := lab.NewService(
		lab.WithHistory(repo),
		lab.WithLogger(slog.New(slog.DiscardHandler)),
	)
	key, err := svc.GenerateKeys(ctx, crypto.SizeMedium)
	require.NoError(t, err)
	ct, err := svc.EncryptMessage(ctx, "stored", key)
	require.NoError(t, err)

	// A bare public key with no generate step still gets recorded.
	other := crypto.PublicKey{E: big.NewInt(2), N: big.NewInt(98)}
	_, err = svc.StatisticalDecode(ctx, "0xb", other)
	require.NoError(t, err)

	runs, err := repo.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, lab.OpStatisticalDecode, runs[0].Operation)
	assert.Equal(t, "A", runs[0].Output)
	assert.Equal(t, ct, runs[1].Output)

	row, err := repo.GetKey(ctx, key.Public().Fingerprint())
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, crypto.SizeMedium, row.PrimeSize)
}
