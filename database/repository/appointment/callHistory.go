// File: database/repository/appointment/callHistory.go
package appointmentRepo

import (
	"fmt"
	"time"

	"asignaciones/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AppendCallRecord pushes a record onto the appointment's call history and
// marks the appointment contacted. The returned index is stable for the
// lifetime of the record; history entries are never removed or reordered.
func (r *MongoAppointmentRepo) AppendCallRecord(id string, record models.CallRecord) (int, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	update := touch(bson.M{
		"$push": bson.M{"callHistory": record},
		"$set":  bson.M{"contacted": true},
	})

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var appt models.Appointment
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"id": id}, update, opts).Decode(&appt)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, fmt.Errorf("appointment with id %s not found", id)
		}
		return 0, fmt.Errorf("failed to append call record for appointment %s: %w", id, err)
	}
	return len(appt.CallHistory) - 1, nil
}

// UpdateCallOutcome patches the outcome of a single history entry in place.
// A false return means no entry existed at that index (or no such
// appointment); the caller decides whether that is worth reporting.
func (r *MongoAppointmentRepo) UpdateCallOutcome(id string, index int, outcome models.Outcome) (bool, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	if index < 0 {
		return false, nil
	}

	field := fmt.Sprintf("callHistory.%d", index)
	filter := bson.M{"id": id, field: bson.M{"$exists": true}}
	update := bson.M{"$set": bson.M{
		field + ".outcome": outcome,
		"updatedAt":        time.Now(),
	}}

	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to update call outcome for appointment %s: %w", id, err)
	}
	return result.MatchedCount > 0, nil
}
