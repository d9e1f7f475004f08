// File: database/repository/appointment/appointmentMongoCrud.go
package appointmentRepo

import (
	"fmt"
	"time"

	"asignaciones/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Upsert inserts or updates the appointment document keyed by FHIR id.
// Resolved fields are always overwritten; call history, the contacted flag
// (unless the source asserts it) and creation bookkeeping are preserved so a
// re-sync never erases local delivery state.
func (r *MongoAppointmentRepo) Upsert(appt *models.Appointment) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	now := time.Now()
	set := bson.M{
		"status":         appt.Status,
		"serviceType":    appt.ServiceType,
		"start":          appt.Start,
		"end":            appt.End,
		"created":        appt.Created,
		"contactMethod":  appt.ContactMethod,
		"serviceRequest": appt.ServiceRequest,
		"organization":   appt.Organization,
		"patientId":      appt.PatientID,
		"updatedAt":      now,
	}
	if appt.Contacted {
		set["contacted"] = true
	}

	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"id":          appt.FHIRID,
			"callHistory": []models.CallRecord{},
			"createdAt":   now,
		},
	}
	if !appt.Contacted {
		update["$setOnInsert"].(bson.M)["contacted"] = false
	}

	filter := bson.M{"id": appt.FHIRID}
	if _, err := r.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("failed to upsert appointment with id %s: %w", appt.FHIRID, err)
	}
	return nil
}

// GetByID retrieves an appointment by its FHIR id.
func (r *MongoAppointmentRepo) GetByID(id string) (*models.Appointment, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var appt models.Appointment
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&appt); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch appointment with id %s: %w", id, err)
	}
	return &appt, nil
}

// GetAll retrieves all appointments ordered by start time.
func (r *MongoAppointmentRepo) GetAll() ([]models.Appointment, error) {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "start", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve appointments: %w", err)
	}
	defer cursor.Close(ctx)

	var appts []models.Appointment
	for cursor.Next(ctx) {
		var a models.Appointment
		if err := cursor.Decode(&a); err != nil {
			return nil, fmt.Errorf("failed to decode appointment: %w", err)
		}
		appts = append(appts, a)
	}
	return appts, nil
}

// touch updates the bookkeeping timestamp alongside history mutations.
func touch(update bson.M) bson.M {
	set, ok := update["$set"].(bson.M)
	if !ok {
		set = bson.M{}
		update["$set"] = set
	}
	set["updatedAt"] = time.Now()
	return update
}
