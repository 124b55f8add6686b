package slotRepo

import (
	"context"
	"fmt"
	"time"

	"github.com/nambautroi00/ClinicBooking-sub002/database"
	"github.com/nambautroi00/ClinicBooking-sub002/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSlotRepo implements ScheduleSlotRepository over MongoDB.
type MongoSlotRepo struct {
	slotColl *mongo.Collection
}

// NewMongoSlotRepo returns a repository bound to the schedule_slots collection.
func NewMongoSlotRepo() *MongoSlotRepo {
	return &MongoSlotRepo{
		slotColl: database.Collection("schedule_slots"),
	}
}

func (repo *MongoSlotRepo) ListSlots(ctx context.Context, doctorID, dateFrom, dateTo string) ([]models.ScheduleSlot, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"doctorId": doctorID,
		"date":     bson.M{"$gte": dateFrom, "$lte": dateTo},
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "start", Value: 1}})

	cursor, err := repo.slotColl.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule slots: %w", err)
	}
	defer cursor.Close(ctx)

	var slots []models.ScheduleSlot
	if err := cursor.All(ctx, &slots); err != nil {
		return nil, fmt.Errorf("failed to decode schedule slots: %w", err)
	}
	return slots, nil
}

func (repo *MongoSlotRepo) GetSlot(ctx context.Context, slotID string) (*models.ScheduleSlot, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var slot models.ScheduleSlot
	err := repo.slotColl.FindOne(ctx, bson.M{"id": slotID}).Decode(&slot)
	if err == mongo.ErrNoDocuments {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schedule slot %s: %w", slotID, err)
	}
	return &slot, nil
}

// HoldSlot performs a compare-and-set: the hold succeeds only against a slot
// that is still Available and unoccupied at the moment of the update.
func (repo *MongoSlotRepo) HoldSlot(ctx context.Context, slotID, patientID string) (*models.ScheduleSlot, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id":     slotID,
		"status": models.SlotAvailable,
		"$or": bson.A{
			bson.M{"occupantId": bson.M{"$exists": false}},
			bson.M{"occupantId": ""},
		},
	}
	update := bson.M{
		"$set": bson.M{
			"status": models.SlotScheduled,
			"heldBy": patientID,
		},
	}

	return repo.findOneAndUpdateSlot(ctx, slotID, patientID, filter, update, func(current models.ScheduleSlot) error {
		// Re-holding our own hold is fine (e.g., retry after a failed payment).
		if current.Status == models.SlotScheduled && current.HeldBy == patientID {
			return nil
		}
		return ErrSlotConflict
	})
}

// AssignOccupant commits the slot. The filter accepts an unoccupied slot or a
// slot this patient already holds; anything else is a conflict.
func (repo *MongoSlotRepo) AssignOccupant(ctx context.Context, slotID, patientID string) (*models.ScheduleSlot, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id":     slotID,
		"status": bson.M{"$ne": models.SlotCancelled},
		"$or": bson.A{
			bson.M{"occupantId": bson.M{"$exists": false}},
			bson.M{"occupantId": ""},
			bson.M{"occupantId": patientID},
		},
		"$nor": bson.A{
			bson.M{"status": models.SlotScheduled, "heldBy": bson.M{"$nin": bson.A{patientID, ""}}},
		},
	}
	update := bson.M{
		"$set": bson.M{
			"status":     models.SlotConfirmed,
			"occupantId": patientID,
		},
		"$unset": bson.M{"heldBy": ""},
	}

	return repo.findOneAndUpdateSlot(ctx, slotID, patientID, filter, update, func(current models.ScheduleSlot) error {
		// Idempotent: already confirmed to this patient.
		if current.Status == models.SlotConfirmed && current.OccupantID == patientID {
			return nil
		}
		return ErrSlotConflict
	})
}

func (repo *MongoSlotRepo) ReleaseOccupant(ctx context.Context, slotID string) (*models.ScheduleSlot, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id":     slotID,
		"status": bson.M{"$nin": bson.A{models.SlotConfirmed, models.SlotCancelled}},
	}
	update := bson.M{
		"$set":   bson.M{"status": models.SlotAvailable},
		"$unset": bson.M{"heldBy": "", "occupantId": ""},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var slot models.ScheduleSlot
	err := repo.slotColl.FindOneAndUpdate(ctx, filter, update, opts).Decode(&slot)
	if err == mongo.ErrNoDocuments {
		// Either missing or already Confirmed/Cancelled; surface the current row.
		return repo.GetSlot(ctx, slotID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to release schedule slot %s: %w", slotID, err)
	}
	return &slot, nil
}

// findOneAndUpdateSlot runs the guarded update and, when no document matched,
// re-reads the slot and asks onMiss to classify the outcome.
func (repo *MongoSlotRepo) findOneAndUpdateSlot(
	ctx context.Context,
	slotID, patientID string,
	filter, update bson.M,
	onMiss func(current models.ScheduleSlot) error,
) (*models.ScheduleSlot, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var slot models.ScheduleSlot
	err := repo.slotColl.FindOneAndUpdate(ctx, filter, update, opts).Decode(&slot)
	if err == nil {
		return &slot, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("failed to update schedule slot %s: %w", slotID, err)
	}

	current, getErr := repo.GetSlot(ctx, slotID)
	if getErr != nil {
		return nil, getErr
	}
	if missErr := onMiss(*current); missErr != nil {
		return current, missErr
	}
	return current, nil
}
