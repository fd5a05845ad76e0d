// Package mongo is the durable transaction store, backed by a MongoDB
// collection. Analytics are pushed down to the server as aggregation
// pipelines instead of being computed in process.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

// TransactionsCollection is the collection holding all transaction documents.
const TransactionsCollection = "transactions"

// Store implements store.TransactionStore over a MongoDB collection.
// GetAll returns records sorted by date descending, then creation time.
type Store struct {
	coll *mongo.Collection
}

// transactionDoc is the persisted document shape. The date is kept as a
// validated YYYY-MM-DD string so it sorts and substrings chronologically.
type transactionDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Amount      float64            `bson:"amount"`
	Description string             `bson:"description"`
	Date        string             `bson:"date"`
	Category    string             `bson:"category"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

// NewStore creates a Store over the transactions collection of the given
// database.
func NewStore(client *mongo.Client, database string) *Store {
	return &Store{coll: client.Database(database).Collection(TransactionsCollection)}
}

// GetAll implements store.TransactionStore.
func (s *Store) GetAll(ctx context.Context) ([]core.Transaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "created_at", Value: -1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}
	defer cur.Close(ctx)

	var docs []transactionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}

	out := make([]core.Transaction, 0, len(docs))
	for _, d := range docs {
		t, err := d.toTransaction()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Create implements store.TransactionStore. The MongoDB ObjectID becomes the
// record's plain string id; the raw ObjectID never leaves this package.
func (s *Store) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	now := time.Now().UTC()
	if t.Date.IsZero() {
		t.Date = core.Today()
	}
	t.CreatedAt = now
	t.UpdatedAt = now

	doc := transactionDoc{
		Amount:      t.Amount,
		Description: t.Description,
		Date:        t.Date.String(),
		Category:    t.Category,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return core.Transaction{}, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	t.ID = oid.Hex()
	return t, nil
}

// Update implements store.TransactionStore with $set merge semantics.
func (s *Store) Update(ctx context.Context, id string, u core.TransactionUpdate) (core.Transaction, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// A malformed id cannot name any stored document.
		return core.Transaction{}, store.ErrNotFound
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if u.Amount != nil {
		set["amount"] = *u.Amount
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Date != nil {
		set["date"] = u.Date.String()
	}
	if u.Category != nil {
		set["category"] = *u.Category
	}

	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return core.Transaction{}, store.ErrNotFound
	}

	var doc transactionDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return core.Transaction{}, fmt.Errorf("load updated transaction %s: %w", id, err)
	}
	return doc.toTransaction()
}

// Delete implements store.TransactionStore. Removal is hard; MongoDB never
// reuses ObjectIDs.
func (s *Store) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return store.ErrNotFound
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Stats implements store.TransactionStore through a single $group/$project
// aggregation. An empty collection produces all-zero stats.
func (s *Store) Stats(ctx context.Context) (core.Stats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "totalIncome", Value: bson.D{{Key: "$sum", Value: bson.D{
				{Key: "$cond", Value: bson.A{bson.D{{Key: "$gt", Value: bson.A{"$amount", 0}}}, "$amount", 0}},
			}}}},
			{Key: "totalExpenses", Value: bson.D{{Key: "$sum", Value: bson.D{
				{Key: "$cond", Value: bson.A{bson.D{{Key: "$lt", Value: bson.A{"$amount", 0}}}, bson.D{{Key: "$abs", Value: "$amount"}}, 0}},
			}}}},
			{Key: "transactionCount", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "totalIncome", Value: bson.D{{Key: "$round", Value: bson.A{"$totalIncome", 2}}}},
			{Key: "totalExpenses", Value: bson.D{{Key: "$round", Value: bson.A{"$totalExpenses", 2}}}},
			{Key: "balance", Value: bson.D{{Key: "$round", Value: bson.A{
				bson.D{{Key: "$subtract", Value: bson.A{"$totalIncome", "$totalExpenses"}}}, 2,
			}}}},
			{Key: "transactionCount", Value: 1},
		}}},
	}

	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return core.Stats{}, fmt.Errorf("aggregate stats: %w", err)
	}
	defer cur.Close(ctx)

	var results []core.Stats
	if err := cur.All(ctx, &results); err != nil {
		return core.Stats{}, fmt.Errorf("decode stats: %w", err)
	}
	if len(results) == 0 {
		return core.Stats{}, nil
	}
	return results[0], nil
}

// MonthlyExpenses implements store.TransactionStore. The month key is the
// YYYY-MM prefix of the stored date string, which is safe because dates are
// validated on the way in.
func (s *Store) MonthlyExpenses(ctx context.Context) ([]core.MonthlyExpense, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "amount", Value: bson.D{{Key: "$lt", Value: 0}}}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$substrBytes", Value: bson.A{"$date", 0, 7}}}},
			{Key: "amount", Value: bson.D{{Key: "$sum", Value: bson.D{{Key: "$abs", Value: "$amount"}}}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "month", Value: "$_id"},
			{Key: "amount", Value: bson.D{{Key: "$round", Value: bson.A{"$amount", 2}}}},
		}}},
	}

	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate monthly expenses: %w", err)
	}
	defer cur.Close(ctx)

	out := []core.MonthlyExpense{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode monthly expenses: %w", err)
	}
	return out, nil
}

func (d transactionDoc) toTransaction() (core.Transaction, error) {
	date, err := core.ParseDate(d.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s has malformed date %q", d.ID.Hex(), d.Date)
	}
	return core.Transaction{
		ID:          d.ID.Hex(),
		Amount:      d.Amount,
		Description: d.Description,
		Date:        date,
		Category:    d.Category,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}, nil
}
