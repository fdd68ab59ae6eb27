package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"

	"voicemail-relay-go/internal/model"
)

func TestOpenRunsMigrations(t *testing.T) {
	conn, err := Open(sqlite.Open("file:migrations?mode=memory&cache=shared"))
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	assert.True(t, conn.Migrator().HasTable(&model.DeliveryLog{}))
	assert.True(t, conn.Migrator().HasIndex(&model.DeliveryLog{}, "MessageID"))
}
