package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject(t *testing.T) {
	t.Run("Maps both fields", func(t *testing.T) {
		records := Project([]Row{
			{Name: "Orders", CustomerKey: "k1"},
			{Name: "Customers", CustomerKey: "k2"},
		})
		require.Len(t, records, 2)
		assert.Equal(t, Record{Name: "Orders", ExternalKey: "k1"}, records[0])
		assert.Equal(t, Record{Name: "Customers", ExternalKey: "k2"}, records[1])
	})

	t.Run("Missing fields map to empty strings", func(t *testing.T) {
		records := Project([]Row{{Name: "Orders"}, {CustomerKey: "k2"}})
		require.Len(t, records, 2)
		assert.Equal(t, Record{Name: "Orders", ExternalKey: ""}, records[0])
		assert.Equal(t, Record{Name: "", ExternalKey: "k2"}, records[1])
	})

	t.Run("Empty input yields empty non-nil slice", func(t *testing.T) {
		records := Project(nil)
		require.NotNil(t, records)
		assert.Len(t, records, 0)
	})
}

func TestExcluded(t *testing.T) {
	t.Run("Underscore prefix is anchored", func(t *testing.T) {
		assert.True(t, Excluded("_SystemDE"))
		assert.False(t, Excluded("My_Orders"))
	})

	t.Run("Substring matches anywhere in the name", func(t *testing.T) {
		assert.True(t, Excluded("TestSendRecipient_2024"))
		assert.True(t, Excluded("CustomerOrders_dts_archive"))
		assert.True(t, Excluded("Einstein_MC_Predictive"))
		assert.True(t, Excluded("QueryStudioResults at 2021-01-01"))
	})

	t.Run("Matching is case sensitive", func(t *testing.T) {
		assert.False(t, Excluded("DTS_Export"))
		assert.False(t, Excluded("testsendrecipient"))
		assert.False(t, Excluded("pi_controller"))
	})

	t.Run("Ordinary names survive", func(t *testing.T) {
		assert.False(t, Excluded("Orders"))
		assert.False(t, Excluded("Newsletter Subscribers"))
	})
}

func TestFilter(t *testing.T) {
	t.Run("Drops system entries", func(t *testing.T) {
		records := Filter(Project([]Row{
			{Name: "Orders", CustomerKey: "k1"},
			{Name: "_SystemDE", CustomerKey: "k2"},
		}))
		require.Len(t, records, 1)
		assert.Equal(t, Record{Name: "Orders", ExternalKey: "k1"}, records[0])
	})

	t.Run("Substring exclusions yield empty array", func(t *testing.T) {
		records := Filter(Project([]Row{{Name: "TestSendRecipient_2024", CustomerKey: "k3"}}))
		require.NotNil(t, records)
		assert.Len(t, records, 0)
	})

	t.Run("Preserves relative order", func(t *testing.T) {
		records := Filter(Project([]Row{
			{Name: "Zebra", CustomerKey: "k1"},
			{Name: "PI_Internal", CustomerKey: "k2"},
			{Name: "Alpha", CustomerKey: "k3"},
			{Name: "Middle", CustomerKey: "k4"},
		}))
		require.Len(t, records, 3)
		assert.Equal(t, "Zebra", records[0].Name)
		assert.Equal(t, "Alpha", records[1].Name)
		assert.Equal(t, "Middle", records[2].Name)
	})

	t.Run("Output never longer than input", func(t *testing.T) {
		rows := []Row{
			{Name: "Orders", CustomerKey: "k1"},
			{Name: "_dts", CustomerKey: "k2"},
			{Name: "IGO_Sync", CustomerKey: "k3"},
		}
		records := Filter(Project(rows))
		assert.LessOrEqual(t, len(records), len(rows))
	})

	t.Run("All survivors pass every predicate", func(t *testing.T) {
		rows := []Row{
			{Name: "Orders", CustomerKey: "k1"},
			{Name: "SimulationSupportDE_1", CustomerKey: "k2"},
			{Name: "MobileLineOrphanContact", CustomerKey: "k3"},
			{Name: "CloudPages_DataExtension", CustomerKey: "k4"},
			{Name: "Subscribers", CustomerKey: "k5"},
		}
		for _, record := range Filter(Project(rows)) {
			assert.False(t, Excluded(record.Name))
		}
	})

	t.Run("Filtering is idempotent", func(t *testing.T) {
		records := Project([]Row{
			{Name: "Orders", CustomerKey: "k1"},
			{Name: "ExpressionBuilderAttributes", CustomerKey: "k2"},
		})
		once := Filter(records)
		twice := Filter(once)
		assert.Equal(t, once, twice)
	})
}
