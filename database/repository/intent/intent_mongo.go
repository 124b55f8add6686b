package intentRepo

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

var terminalStatuses = bson.A{models.PaymentPaid, models.PaymentFailed, models.PaymentCancelled}

// MongoIntentRepo implements PaymentIntentRepository over MongoDB.
type MongoIntentRepo struct {
	intentColl *mongo.Collection
}

// NewMongoIntentRepo returns a repository bound to the payment_intents collection.
func NewMongoIntentRepo() *MongoIntentRepo {
	return &MongoIntentRepo{
		intentColl: database.Collection("payment_intents"),
	}
}

func (repo *MongoIntentRepo) Insert(ctx context.Context, intent *models.PaymentIntent) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := repo.intentColl.InsertOne(ctx, intent); err != nil {
		return fmt.Errorf("failed to insert payment intent: %w", err)
	}
	return nil
}

func (repo *MongoIntentRepo) GetByID(ctx context.Context, intentID string) (*models.PaymentIntent, error) {
	return repo.getOne(ctx, bson.M{"intentId": intentID})
}

func (repo *MongoIntentRepo) GetByProviderRef(ctx context.Context, providerPaymentID string) (*models.PaymentIntent, error) {
	return repo.getOne(ctx, bson.M{"providerPaymentId": providerPaymentID})
}

func (repo *MongoIntentRepo) getOne(ctx context.Context, filter bson.M) (*models.PaymentIntent, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var intent models.PaymentIntent
	err := repo.intentColl.FindOne(ctx, filter).Decode(&intent)
	if err == mongo.ErrNoDocuments {
		return nil, ErrIntentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment intent: %w", err)
	}
	return &intent, nil
}

func (repo *MongoIntentRepo) UpdateStatus(ctx context.Context, intentID string, status models.PaymentStatus, paidAt *time.Time) (*models.PaymentIntent, error) {
	set := bson.M{"status": status}
	if paidAt != nil {
		set["paidAt"] = paidAt
	}
	return repo.updateSticky(ctx, bson.M{"intentId": intentID}, set)
}

func (repo *MongoIntentRepo) UpdateStatusByProviderRef(ctx context.Context, providerPaymentID string, status models.PaymentStatus, orderCode string) (*models.PaymentIntent, error) {
	set := bson.M{"status": status}
	if orderCode != "" {
		set["orderCode"] = orderCode
	}
	if status == models.PaymentPaid {
		set["paidAt"] = time.Now()
	}
	return repo.updateSticky(ctx, bson.M{"providerPaymentId": providerPaymentID}, set)
}

// updateSticky applies the update only while the row is non-terminal. A miss
// against an existing terminal row returns that row with ErrIntentTerminal.
func (repo *MongoIntentRepo) updateSticky(ctx context.Context, key bson.M, set bson.M) (*models.PaymentIntent, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"status": bson.M{"$nin": terminalStatuses}}
	for k, v := range key {
		filter[k] = v
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var intent models.PaymentIntent
	err := repo.intentColl.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&intent)
	if err == nil {
		return &intent, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("failed to update payment intent: %w", err)
	}

	current, getErr := repo.getOne(ctx, key)
	if getErr != nil {
		return nil, getErr
	}
	return current, ErrIntentTerminal
}
