package mongo

import (
	"testing"

	"birshibpur/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestCollections_HaveSchemaValidators(t *testing.T) {
	seen := map[string]bool{}
	for _, def := range Collections {
		assert.False(t, seen[def.Name], "collection %s listed twice", def.Name)
		seen[def.Name] = true

		require.NotNil(t, def.Validator, def.Name)
		assert.Contains(t, def.Validator, "$jsonSchema", def.Name)
	}

	for _, name := range []string{"Bookings", "Users", "Admins", "Events", "Gallery", "Notifications", "Calculations", "Counters"} {
		assert.True(t, seen[name], "missing collection %s", name)
	}
}

func TestBookingsIndexes_ActiveSlotIsUniqueAndPartial(t *testing.T) {
	var slot *bson.D
	for i := range BookingsIndexes {
		opts := BookingsIndexes[i].Options
		if opts != nil && opts.Name != nil && *opts.Name == ActiveSlotIndexName {
			keys := BookingsIndexes[i].Keys.(bson.D)
			slot = &keys
			require.NotNil(t, opts.Unique)
			assert.True(t, *opts.Unique)

			partial, ok := opts.PartialFilterExpression.(bson.M)
			require.True(t, ok)
			status := partial["status"].(bson.M)["$in"].(bson.A)
			assert.ElementsMatch(t, bson.A{model.BookingPending, model.BookingApproved}, status)
		}
	}
	require.NotNil(t, slot, "active slot index missing")

	var fields []string
	for _, e := range *slot {
		fields = append(fields, e.Key)
	}
	assert.Equal(t, []string{"user_id", "service_id", "date", "time"}, fields)
}

func TestBookingValidator_StatusEnum(t *testing.T) {
	schema := Collections[0].Validator["$jsonSchema"].(bson.M)
	status := schema["properties"].(bson.M)["status"].(bson.M)
	assert.Equal(t, []string{model.BookingPending, model.BookingApproved, model.BookingRejected}, status["enum"])
}
