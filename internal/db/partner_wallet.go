package db

import (
	"context"
	"errors"

	"github.com/introfi/commission-engine/internal/db/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// AssignPartnerWallet binds a wallet to a partner. Re-assigning to the same
// partner is an idempotent no-op (the introduced date of the first
// assignment wins); assigning to a different partner while the current
// binding is active fails with WalletConflictError. An inactive binding may
// be taken over.
func (db *Database) AssignPartnerWallet(ctx context.Context, wallet *model.PartnerWalletDocument) error {
	existing, err := db.GetPartnerWallet(ctx, wallet.ChainID, wallet.Wallet)
	if err != nil && !IsNotFoundError(err) {
		return err
	}

	if existing != nil {
		if existing.PartnerID == wallet.PartnerID {
			return nil
		}
		if existing.Active {
			return &WalletConflictError{
				ChainID:        wallet.ChainID,
				Wallet:         wallet.Wallet,
				OwnerPartnerID: existing.PartnerID,
			}
		}
		// Inactive binding: replace it. Guard on partner_id + active so a
		// concurrent re-activation loses the race instead of being clobbered.
		filter := bson.M{"_id": wallet.ID, "partner_id": existing.PartnerID, "active": false}
		res := db.collection(model.PartnerWalletCollection).FindOneAndReplace(ctx, filter, wallet)
		if res.Err() != nil {
			if errors.Is(res.Err(), mongo.ErrNoDocuments) {
				return &WalletConflictError{
					ChainID:        wallet.ChainID,
					Wallet:         wallet.Wallet,
					OwnerPartnerID: existing.PartnerID,
				}
			}
			return res.Err()
		}
		return nil
	}

	_, err = db.collection(model.PartnerWalletCollection).InsertOne(ctx, wallet)
	if err != nil {
		var writeErr mongo.WriteException
		if errors.As(err, &writeErr) {
			for _, e := range writeErr.WriteErrors {
				if mongo.IsDuplicateKeyError(e) {
					// Lost a race with a concurrent assignment
					return &WalletConflictError{
						ChainID: wallet.ChainID,
						Wallet:  wallet.Wallet,
					}
				}
			}
		}
		return err
	}
	return nil
}

func (db *Database) GetPartnerWallet(ctx context.Context, chainID, wallet string) (*model.PartnerWalletDocument, error) {
	key := model.PartnerWalletKey(chainID, wallet)

	var result model.PartnerWalletDocument
	err := db.collection(model.PartnerWalletCollection).
		FindOne(ctx, bson.M{"_id": key}).Decode(&result)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, &NotFoundError{
				Key:     key,
				Message: "partner wallet not found",
			}
		}
		return nil, err
	}
	return &result, nil
}

// GetPartnerWallets loads the bindings for a batch of wallet addresses in
// one round trip. Unbound wallets are simply absent from the result.
func (db *Database) GetPartnerWallets(ctx context.Context, chainID string, wallets []string) ([]*model.PartnerWalletDocument, error) {
	if len(wallets) == 0 {
		return nil, nil
	}

	keys := make([]string, len(wallets))
	for i, w := range wallets {
		keys[i] = model.PartnerWalletKey(chainID, w)
	}

	cursor, err := db.collection(model.PartnerWalletCollection).
		Find(ctx, bson.M{"_id": bson.M{"$in": keys}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []*model.PartnerWalletDocument
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (db *Database) DeactivatePartnerWallet(ctx context.Context, chainID, wallet string) error {
	key := model.PartnerWalletKey(chainID, wallet)
	update := bson.M{"$set": bson.M{"active": false}}

	res := db.collection(model.PartnerWalletCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": key}, update)
	if res.Err() != nil {
		if errors.Is(res.Err(), mongo.ErrNoDocuments) {
			return &NotFoundError{
				Key:     key,
				Message: "partner wallet not found",
			}
		}
		return res.Err()
	}
	return nil
}
