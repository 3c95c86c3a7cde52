package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backoffice/internal/model"
)

const (
	CollectionEftTransactions     = "eft_transactions"
	CollectionEasypayTransactions = "easypay_transactions"
	CollectionPolicies            = "policies"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrUnknownModel        = errors.New("unknown transaction model")
)

// TransactionRef points at one upstream transaction document.
type TransactionRef struct {
	Model string
	ID    string
}

// TransactionResolver loads EFT or EasyPay transactions by their model discriminator.
type TransactionResolver interface {
	Resolve(ctx context.Context, transactionModel, id string) (model.Transaction, error)
	// ResolveMany returns the transactions it found keyed by id. Missing ids are absent from the map.
	ResolveMany(ctx context.Context, refs []TransactionRef) (map[string]model.Transaction, error)
}

type PolicyRepository interface {
	Exists(ctx context.Context, policyNumber string) (bool, error)
}

type mongoTransactionResolver struct {
	db *mongo.Database
}

func NewTransactionResolver(db *mongo.Database) TransactionResolver {
	return &mongoTransactionResolver{db: db}
}

func collectionFor(transactionModel string) (string, error) {
	switch transactionModel {
	case model.ModelEftTransaction:
		return CollectionEftTransactions, nil
	case model.ModelEasypayTransaction:
		return CollectionEasypayTransactions, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownModel, transactionModel)
}

func newTransaction(transactionModel string) model.Transaction {
	if transactionModel == model.ModelEasypayTransaction {
		return &model.EasypayTransaction{}
	}
	return &model.EftTransaction{}
}

func (r *mongoTransactionResolver) Resolve(ctx context.Context, transactionModel, id string) (model.Transaction, error) {
	coll, err := collectionFor(transactionModel)
	if err != nil {
		return nil, err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid id %q", ErrTransactionNotFound, id)
	}

	tx := newTransaction(transactionModel)
	err = r.db.Collection(coll).FindOne(ctx, bson.M{"_id": oid}).Decode(tx)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s %s", ErrTransactionNotFound, transactionModel, id)
	}
	if err != nil {
		return nil, fmt.Errorf("find %s %s: %w", coll, id, err)
	}
	return tx, nil
}

func (r *mongoTransactionResolver) ResolveMany(ctx context.Context, refs []TransactionRef) (map[string]model.Transaction, error) {
	byModel := make(map[string][]primitive.ObjectID)
	for _, ref := range refs {
		oid, err := primitive.ObjectIDFromHex(ref.ID)
		if err != nil {
			continue
		}
		byModel[ref.Model] = append(byModel[ref.Model], oid)
	}

	out := make(map[string]model.Transaction, len(refs))
	for transactionModel, ids := range byModel {
		coll, err := collectionFor(transactionModel)
		if err != nil {
			continue
		}
		if err := r.loadInto(ctx, coll, transactionModel, ids, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *mongoTransactionResolver) loadInto(ctx context.Context, coll, transactionModel string, ids []primitive.ObjectID, out map[string]model.Transaction) error {
	cur, err := r.db.Collection(coll).Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return fmt.Errorf("find %s: %w", coll, err)
	}
	defer func() { _ = cur.Close(ctx) }()

	for cur.Next(ctx) {
		tx := newTransaction(transactionModel)
		if err := cur.Decode(tx); err != nil {
			return fmt.Errorf("decode %s: %w", coll, err)
		}
		out[tx.TransactionID()] = tx
	}
	return cur.Err()
}

type mongoPolicyRepository struct {
	coll *mongo.Collection
}

func NewPolicyRepository(db *mongo.Database) PolicyRepository {
	return &mongoPolicyRepository{coll: db.Collection(CollectionPolicies)}
}

// Exists matches either the policy number or the membership id.
func (r *mongoPolicyRepository) Exists(ctx context.Context, policyNumber string) (bool, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"policyNumber": policyNumber},
		bson.M{"membershipId": policyNumber},
	}}
	n, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count policies: %w", err)
	}
	return n > 0, nil
}
