package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/ushuari/voice/domain/entities"
	"github.com/ushuari/voice/domain/repositories"
)

const conversationsCollection = "conversations"

// ConversationRepository implements repositories.ConversationRepository using MongoDB
type ConversationRepository struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

// NewConversationRepository creates a new MongoDB conversation repository
func NewConversationRepository(db *mongo.Database, logger *zap.Logger) *ConversationRepository {
	r := &ConversationRepository{
		collection: db.Collection(conversationsCollection),
		logger:     logger,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := r.EnsureIndexes(ctx); err != nil {
			logger.Error("Failed to create conversation indexes", zap.Error(err))
		} else {
			logger.Info("Conversation indexes created successfully")
		}
	}()

	return r
}

// conversationIndexes lists the indexes the repository relies on.
func conversationIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		// At most one active conversation per room; appends and completion
		// look it up by room.
		{
			Keys: bson.D{{Key: "roomName", Value: 1}},
			Options: options.Index().
				SetName("active_room_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": entities.ConversationStatusActive}),
		},
		// The janitor scans active conversations by last update
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "updatedAt", Value: 1},
			},
		},
	}
}

// EnsureIndexes creates the collection indexes.
func (r *ConversationRepository) EnsureIndexes(ctx context.Context) error {
	if _, err := r.collection.Indexes().CreateMany(ctx, conversationIndexes()); err != nil {
		return fmt.Errorf("failed to create conversation indexes: %w", err)
	}
	return nil
}

// appendUpdate builds the upsert document for one entry.
func appendUpdate(entry entities.ConversationEntry, now time.Time) bson.M {
	onInsert := bson.M{
		"agentType": entry.AgentType,
		"language":  entry.Language,
		"createdAt": now,
	}
	if entry.ParticipantID != "" {
		onInsert["metadata.clientId"] = entry.ParticipantID
	}

	return bson.M{
		"$push":        bson.M{"messages": bson.M{"$each": entry.Messages}},
		"$setOnInsert": onInsert,
		"$set":         bson.M{"updatedAt": now},
		"$inc":         bson.M{"metadata.duration": entry.DurationSeconds},
	}
}

// Append implements repositories.ConversationRepository
func (r *ConversationRepository) Append(ctx context.Context, entry entities.ConversationEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	filter := bson.M{"roomName": entry.RoomName, "status": entities.ConversationStatusActive}
	opts := options.Update().SetUpsert(true)

	result, err := r.collection.UpdateOne(ctx, filter, appendUpdate(entry, time.Now()), opts)
	if mongo.IsDuplicateKeyError(err) {
		// A concurrent append created the active conversation first.
		result, err = r.collection.UpdateOne(ctx, filter, appendUpdate(entry, time.Now()), opts)
	}
	if err != nil {
		return fmt.Errorf("failed to append to conversation %s: %w", entry.RoomName, err)
	}

	r.logger.Debug("Appended conversation messages",
		zap.String("room", entry.RoomName),
		zap.Int("messages", len(entry.Messages)),
		zap.Bool("created", result.UpsertedCount > 0))

	return nil
}

// GetActive implements repositories.ConversationRepository
func (r *ConversationRepository) GetActive(ctx context.Context, roomName string) (*entities.Conversation, error) {
	if roomName == "" {
		return nil, errors.New("room name cannot be empty")
	}

	filter := bson.M{"roomName": roomName, "status": entities.ConversationStatusActive}

	var conv entities.Conversation
	err := r.collection.FindOne(ctx, filter).Decode(&conv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active conversation for room %s: %w", roomName, err)
	}

	return &conv, nil
}

// Complete implements repositories.ConversationRepository
func (r *ConversationRepository) Complete(ctx context.Context, roomName string) error {
	filter := bson.M{"roomName": roomName, "status": entities.ConversationStatusActive}
	update := bson.M{"$set": bson.M{
		"status":    entities.ConversationStatusCompleted,
		"updatedAt": time.Now(),
	}}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to complete conversation for room %s: %w", roomName, err)
	}

	r.logger.Info("Completed conversation",
		zap.String("room", roomName),
		zap.Int64("modified", result.ModifiedCount))
	return nil
}

// ArchiveIdle implements repositories.ConversationRepository
func (r *ConversationRepository) ArchiveIdle(ctx context.Context, cutoff time.Time) (int64, error) {
	filter := bson.M{
		"status":    entities.ConversationStatusActive,
		"updatedAt": bson.M{"$lt": cutoff},
	}
	update := bson.M{"$set": bson.M{
		"status":    entities.ConversationStatusArchived,
		"updatedAt": time.Now(),
	}}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to archive idle conversations: %w", err)
	}

	return result.ModifiedCount, nil
}

var _ repositories.ConversationRepository = (*ConversationRepository)(nil)
