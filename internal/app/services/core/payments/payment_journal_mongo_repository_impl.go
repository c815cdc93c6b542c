package payments

import (
	"context"
	"errors"
	"maternity-service/internal/app/contracts"
	"maternity-service/internal/app/models"
	"maternity-service/internal/pkg/constvars"
	"maternity-service/internal/pkg/exceptions"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type paymentJournalMongoRepository struct {
	Collection *mongo.Collection
}

func NewPaymentJournalMongoRepository(db *mongo.Client, dbName string) contracts.PaymentJournalRepository {
	return &paymentJournalMongoRepository{
		Collection: db.Database(dbName).Collection(constvars.MongoCollectionPaymentJournal),
	}
}

func (repo *paymentJournalMongoRepository) Upsert(ctx context.Context, journal *models.PaymentJournal) error {
	_, err := repo.Collection.ReplaceOne(ctx,
		bson.M{"_id": journal.IntentID},
		journal,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return exceptions.ErrMongoDBUpsertDocument(err)
	}
	return nil
}

func (repo *paymentJournalMongoRepository) FindByIntentID(ctx context.Context, intentID string) (*models.PaymentJournal, error) {
	var journal models.PaymentJournal
	err := repo.Collection.FindOne(ctx, bson.M{"_id": intentID}).Decode(&journal)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, exceptions.ErrMongoDBFindDocument(err)
	}
	return &journal, nil
}

var pendingStates = bson.M{"$in": []models.WorkflowState{
	models.WorkflowStateIdle,
	models.WorkflowStateInitiating,
	models.WorkflowStateAwaitingConfirmation,
}}

// SettleIfPending is conditional on the stored state so a sweep never
// overwrites an outcome another instance recorded after the stale read.
func (repo *paymentJournalMongoRepository) SettleIfPending(ctx context.Context, journal *models.PaymentJournal) (bool, error) {
	result, err := repo.Collection.UpdateOne(ctx,
		bson.M{"_id": journal.IntentID, "state": pendingStates},
		bson.M{"$set": bson.M{
			"state":        journal.State,
			"errorKind":    journal.ErrorKind,
			"errorMessage": journal.ErrorMessage,
			"settledAt":    journal.SettledAt,
			"updatedAt":    journal.UpdatedAt,
		}},
	)
	if err != nil {
		return false, exceptions.ErrMongoDBUpdateDocument(err)
	}
	return result.ModifiedCount > 0, nil
}

// FindStale returns non-terminal entries not touched since olderThan.
func (repo *paymentJournalMongoRepository) FindStale(ctx context.Context, olderThan time.Time) ([]models.PaymentJournal, error) {
	filter := bson.M{
		"state":     pendingStates,
		"updatedAt": bson.M{"$lt": olderThan},
	}
	cursor, err := repo.Collection.Find(ctx, filter, options.Find().SetSort(bson.M{"updatedAt": 1}))
	if err != nil {
		return nil, exceptions.ErrMongoDBFindDocument(err)
	}
	defer cursor.Close(ctx)

	var journals []models.PaymentJournal
	if err := cursor.All(ctx, &journals); err != nil {
		return nil, exceptions.ErrMongoDBIterateDocuments(err)
	}
	return journals, nil
}
