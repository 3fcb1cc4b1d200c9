package database

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/config"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/model"
)

func TestOpenSQLiteAndMigrate(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	db, err := Open(&config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "predictions.db"),
	}, log)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for _, table := range []string{"member_stats", "predictions", "broadcast_records", "broadcast_channels"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasIndex("predictions", "uq_prediction_member"))
	assert.True(t, db.Migrator().HasIndex("broadcast_records", "uq_broadcast_community_match"))
}

func TestEnsureDatabaseExistsSkipsDefaultDB(t *testing.T) {
	assert.NoError(t, ensureDatabaseExists("postgres://u:p@127.0.0.1:1/postgres"))
	assert.NoError(t, ensureDatabaseExists("postgres://u:p@127.0.0.1:1/"))
}

func TestRecordNotFoundIsNotLogged(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)

	db, err := Open(&config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "quiet.db"),
	}, log)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	buf.Reset()

	var st model.MemberStats
	err = db.Where("member_id = ?", "nobody").First(&st).Error
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	assert.NotContains(t, buf.String(), "record not found")

	err = db.Table("no_such_table").First(&st).Error
	require.Error(t, err)
	assert.Contains(t, buf.String(), "no_such_table")
}
