package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/customer-portal/internal/core/ports"
)

const auditCollection = "audit_log"

// auditRetention bounds how long audit documents are kept.
const auditRetention = 90 * 24 * time.Hour

// AuditRepository implements ports.AuditRepository using MongoDB.
type AuditRepository struct {
	coll *mongo.Collection
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection(auditCollection)}
}

// EnsureIndexes creates the lookup and retention indexes. Safe to call on
// every startup.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "at", Value: -1}}},
		{Keys: bson.D{{Key: "customer_id", Value: 1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.D{{Key: "at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(int32(auditRetention.Seconds()))},
	})
	if err != nil {
		return fmt.Errorf("audit indexes: %w", err)
	}
	return nil
}

// Insert persists one audit entry.
func (r *AuditRepository) Insert(ctx context.Context, entry ports.AuditEntry) error {
	at := entry.At
	if at.IsZero() {
		at = time.Now()
	}

	doc := bson.M{
		"action":     string(entry.Action),
		"user_id":    entry.UserID,
		"username":   entry.Username,
		"session_id": entry.SessionID,
		"success":    entry.Success,
		"at":         at.UTC(),
	}
	if entry.CustomerID != 0 {
		doc["customer_id"] = entry.CustomerID
	}
	if entry.Error != "" {
		doc["error"] = entry.Error
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}
