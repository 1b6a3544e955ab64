package database

import (
	"testing"

	"github.com/nsiqueira/sfmcli/model"

	"github.com/google/uuid"
	"github.com/siherrmann/queuer/helper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDataExtensionHandler(t *testing.T) *DataExtensionDBHandler {
	t.Helper()

	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	if err != nil {
		t.Fatalf("failed to create database configuration: %v", err)
	}
	database := helper.NewTestDatabase(dbConfig)

	dataExtensionDbHandler, err := NewDataExtensionDBHandler(database, true)
	require.NoError(t, err, "Expected NewDataExtensionDBHandler to not return an error")

	return dataExtensionDbHandler
}

func TestDataExtensionNewDataExtensionDBHandler(t *testing.T) {
	t.Run("Valid call NewDataExtensionDBHandler", func(t *testing.T) {
		dataExtensionDbHandler := newTestDataExtensionHandler(t)

		exists, err := dataExtensionDbHandler.CheckTableExistance()
		assert.NoError(t, err)
		assert.True(t, exists)

		err = dataExtensionDbHandler.DropTable()
		assert.NoError(t, err)
	})

	t.Run("Invalid call NewDataExtensionDBHandler with nil database", func(t *testing.T) {
		_, err := NewDataExtensionDBHandler(nil, true)
		assert.Error(t, err, "Expected error when creating DataExtensionDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil")
	})
}

func TestDataExtensionInsert(t *testing.T) {
	dataExtensionDbHandler := newTestDataExtensionHandler(t)

	t.Run("Insert and select by name and origin", func(t *testing.T) {
		inserted, err := dataExtensionDbHandler.InsertDataExtension(&model.DataExtension{
			Name:              "Orders",
			OriginExternalKey: "origin-key-1",
			OriginInstance:    "staging",
		})
		require.NoError(t, err)
		assert.NotZero(t, inserted.ID)
		assert.NotEqual(t, uuid.Nil, inserted.RID)
		assert.Equal(t, "Orders", inserted.Name)

		selected, err := dataExtensionDbHandler.SelectDataExtensionByNameAndOrigin("Orders", "staging")
		require.NoError(t, err)
		assert.Equal(t, inserted.RID, selected.RID)
		assert.Equal(t, "origin-key-1", selected.OriginExternalKey)
	})

	t.Run("Duplicate name within origin is rejected", func(t *testing.T) {
		_, err := dataExtensionDbHandler.InsertDataExtension(&model.DataExtension{
			Name:           "Orders",
			OriginInstance: "staging",
		})
		assert.Error(t, err)
	})

	t.Run("Same name in another origin is fine", func(t *testing.T) {
		_, err := dataExtensionDbHandler.InsertDataExtension(&model.DataExtension{
			Name:           "Orders",
			OriginInstance: "production",
		})
		assert.NoError(t, err)
	})
}

func TestDataExtensionUpdateTargetInfo(t *testing.T) {
	dataExtensionDbHandler := newTestDataExtensionHandler(t)

	inserted, err := dataExtensionDbHandler.InsertDataExtension(&model.DataExtension{
		Name:              "Orders",
		OriginExternalKey: "origin-key-1",
		OriginInstance:    "staging",
	})
	require.NoError(t, err)

	t.Run("Attaches target info", func(t *testing.T) {
		updated, err := dataExtensionDbHandler.UpdateTargetInfo(inserted.RID, "target-key-1", "production")
		require.NoError(t, err)
		assert.Equal(t, "target-key-1", updated.TargetExternalKey)
		assert.Equal(t, "production", updated.TargetInstance)
	})

	t.Run("Unknown RID is an error", func(t *testing.T) {
		_, err := dataExtensionDbHandler.UpdateTargetInfo(uuid.New(), "target-key-1", "production")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}

func TestDataExtensionSelectAll(t *testing.T) {
	dataExtensionDbHandler := newTestDataExtensionHandler(t)

	first, err := dataExtensionDbHandler.InsertDataExtension(&model.DataExtension{
		Name:           "Orders",
		OriginInstance: "staging",
	})
	require.NoError(t, err)
	second, err := dataExtensionDbHandler.InsertDataExtension(&model.DataExtension{
		Name:           "Customers",
		OriginInstance: "staging",
	})
	require.NoError(t, err)

	_, err = dataExtensionDbHandler.UpdateTargetInfo(second.RID, "target-key-2", "production")
	require.NoError(t, err)

	t.Run("SelectAllWithTargets only returns matched extensions", func(t *testing.T) {
		dataExtensions, err := dataExtensionDbHandler.SelectAllWithTargets("staging")
		require.NoError(t, err)
		require.Len(t, dataExtensions, 1)
		assert.Equal(t, "Customers", dataExtensions[0].Name)
	})

	t.Run("SelectAllByTargetInstance", func(t *testing.T) {
		dataExtensions, err := dataExtensionDbHandler.SelectAllByTargetInstance("production")
		require.NoError(t, err)
		require.Len(t, dataExtensions, 1)
		assert.Equal(t, second.RID, dataExtensions[0].RID)
	})

	t.Run("Delete removes the extension", func(t *testing.T) {
		err := dataExtensionDbHandler.DeleteDataExtension(first.RID)
		require.NoError(t, err)

		_, err = dataExtensionDbHandler.SelectDataExtension(first.RID)
		assert.Error(t, err)
	})
}
