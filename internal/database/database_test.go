package database

import (
	"errors"
	"testing"

	"freelance-hub/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T, log *zap.Logger) *gorm.DB {
	t.Helper()
	db, err := Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), log)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

func TestMigrateCreatesSchema(t *testing.T) {
	db := openTestDB(t, zap.NewNop())

	for _, table := range []string{"profiles", "projects", "proposals", "contracts", "payment_intents", "stripe_accounts"} {
		require.True(t, db.Migrator().HasTable(table), table)
	}

	// running twice is a no-op
	require.NoError(t, Migrate(db))
}

func TestSecondAcceptedProposalViolatesIndex(t *testing.T) {
	db := openTestDB(t, zap.NewNop())

	projectID := uuid.New()
	first := models.Proposal{
		ProjectID:    projectID,
		FreelancerID: uuid.New(),
		CoverLetter:  "a",
		BidAmount:    decimal.NewFromInt(10),
		Status:       models.ProposalStatusAccepted,
	}
	require.NoError(t, db.Create(&first).Error)

	second := models.Proposal{
		ProjectID:    projectID,
		FreelancerID: uuid.New(),
		CoverLetter:  "b",
		BidAmount:    decimal.NewFromInt(12),
		Status:       models.ProposalStatusAccepted,
	}
	require.Error(t, db.Create(&second).Error)
}

func TestQueryLoggingGoesToZap(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	db := openTestDB(t, zap.New(core))
	logs.TakeAll()

	var profile models.Profile
	err := db.Where("external_id = ?", "missing").First(&profile).Error
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	assert.Zero(t, logs.Len(), "a missing row is not logged")

	require.Error(t, db.Exec("SELECT * FROM no_such_table").Error)
	entries := logs.FilterLoggerName("gorm").All()
	require.NotEmpty(t, entries)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Contains(t, entries[0].Message, "no_such_table")
}
