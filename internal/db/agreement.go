package db

import (
	"context"

	"github.com/introfi/commission-engine/internal/db/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *Database) UpsertAgreement(ctx context.Context, agreement *model.AgreementDocument) error {
	filter := bson.M{"_id": agreement.ID}
	update := bson.M{"$set": agreement}
	opts := options.Update().SetUpsert(true)

	_, err := db.collection(model.AgreementCollection).UpdateOne(ctx, filter, update, opts)
	return err
}

func (db *Database) GetAgreementByPartner(ctx context.Context, partnerID string) (*model.AgreementDocument, error) {
	var result model.AgreementDocument
	err := db.collection(model.AgreementCollection).
		FindOne(ctx, bson.M{"partner_id": partnerID}).Decode(&result)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, &NotFoundError{
				Key:     partnerID,
				Message: "no agreement for partner",
			}
		}
		return nil, err
	}
	return &result, nil
}

// GetPartnersWithAgreements returns the distinct partner ids holding an
// agreement, for the scheduled recompute sweep.
func (db *Database) GetPartnersWithAgreements(ctx context.Context) ([]string, error) {
	raw, err := db.collection(model.AgreementCollection).Distinct(ctx, "partner_id", bson.M{})
	if err != nil {
		return nil, err
	}

	partners := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			partners = append(partners, s)
		}
	}
	return partners, nil
}
