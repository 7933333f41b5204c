package models

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	LodgingViewsColName = "lodging_views"
	viewRetention       = 30 * 24 * time.Hour
	viewDedupeWindow    = time.Hour
)

type LodgingView struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	LodgingID int64              `bson:"lodging_id" json:"lodging_id" validate:"required"`
	OwnerID   int64              `bson:"owner_id" json:"owner_id" validate:"required"`
	UserID    *int64             `bson:"user_id,omitempty" json:"user_id,omitempty"`
	SessionID string             `bson:"session_id" json:"session_id" validate:"required"`
	UserAgent string             `bson:"user_agent,omitempty" json:"user_agent,omitempty"`
	ViewedAt  time.Time          `bson:"viewed_at" json:"viewed_at"`
	ExpiresAt time.Time          `bson:"expires_at" json:"expires_at"`
}

type LodgingViewStats struct {
	LodgingID     int64 `json:"lodging_id"`
	TotalViews    int64 `json:"total_views"`
	UniqueViews   int64 `json:"unique_views"`
	ViewsToday    int64 `json:"views_today"`
	ViewsThisWeek int64 `json:"views_this_week"`
}

// OwnerViewStats aggregates views across every lodging of one owner.
type OwnerViewStats struct {
	OwnerID        int64 `json:"owner_id"`
	TotalViews     int64 `json:"total_views"`
	UniqueViews    int64 `json:"unique_views"`
	ViewsToday     int64 `json:"views_today"`
	ViewsThisWeek  int64 `json:"views_this_week"`
	ViewedLodgings int64 `json:"viewed_lodgings"`
}

type LodgingViewsRepo interface {
	TrackLodgingView(ctx context.Context, view *LodgingView) error
	GetLodgingViewStats(ctx context.Context, lodgingID int64) (*LodgingViewStats, error)
	GetOwnerViewStats(ctx context.Context, ownerID int64) (*OwnerViewStats, error)
	EnsureIndexes(ctx context.Context) error
}

// EnsureIndexes creates necessary indexes including TTL
func (mdb *MongodbRepo) EnsureIndexes(ctx context.Context) error {
	col, err := mdb.GetCollection(LodgingViewsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().
				SetExpireAfterSeconds(0).
				SetName("expires_at_ttl"),
		},
		{
			Keys: bson.D{
				{Key: "lodging_id", Value: 1},
				{Key: "session_id", Value: 1},
				{Key: "viewed_at", Value: -1},
			},
			Options: options.Index().SetName("lodging_session_viewed_at_idx"),
		},
		{
			Keys: bson.D{
				{Key: "owner_id", Value: 1},
				{Key: "viewed_at", Value: -1},
			},
			Options: options.Index().SetName("owner_viewed_at_idx"),
		},
	}

	if _, err := col.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("error creating indexes: %v", err)
	}
	return nil
}

// TrackLodgingView records a view unless the same session viewed the lodging within the last hour.
func (mdb *MongodbRepo) TrackLodgingView(ctx context.Context, view *LodgingView) error {
	if err := Validate.Struct(view); err != nil {
		return fmt.Errorf("invalid lodging view: %v", err)
	}
	col, err := mdb.GetCollection(LodgingViewsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}

	now := time.Now()
	recent, err := col.CountDocuments(ctx, bson.M{
		"lodging_id": view.LodgingID,
		"session_id": view.SessionID,
		"viewed_at":  bson.M{"$gte": now.Add(-viewDedupeWindow)},
	}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("error checking recent views: %v", err)
	}
	if recent > 0 {
		return nil
	}

	view.ViewedAt = now
	view.ExpiresAt = now.Add(viewRetention)
	if view.ID.IsZero() {
		view.ID = primitive.NewObjectID()
	}

	if _, err := col.InsertOne(ctx, view); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("error inserting lodging view: %v", err)
	}
	return nil
}

func (mdb *MongodbRepo) GetLodgingViewStats(ctx context.Context, lodgingID int64) (*LodgingViewStats, error) {
	col, err := mdb.GetCollection(LodgingViewsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	counts, err := viewCounts(ctx, col, bson.M{"lodging_id": lodgingID})
	if err != nil {
		return nil, err
	}
	return &LodgingViewStats{
		LodgingID:     lodgingID,
		TotalViews:    counts.total,
		UniqueViews:   counts.unique,
		ViewsToday:    counts.today,
		ViewsThisWeek: counts.week,
	}, nil
}

func (mdb *MongodbRepo) GetOwnerViewStats(ctx context.Context, ownerID int64) (*OwnerViewStats, error) {
	col, err := mdb.GetCollection(LodgingViewsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	match := bson.M{"owner_id": ownerID}
	counts, err := viewCounts(ctx, col, match)
	if err != nil {
		return nil, err
	}
	lodgings, err := countDistinct(ctx, col, match, "$lodging_id")
	if err != nil {
		return nil, fmt.Errorf("error aggregating viewed lodgings: %v", err)
	}

	return &OwnerViewStats{
		OwnerID:        ownerID,
		TotalViews:     counts.total,
		UniqueViews:    counts.unique,
		ViewsToday:     counts.today,
		ViewsThisWeek:  counts.week,
		ViewedLodgings: lodgings,
	}, nil
}

type viewTotals struct {
	total, unique, today, week int64
}

func viewCounts(ctx context.Context, col *mongo.Collection, match bson.M) (viewTotals, error) {
	var out viewTotals

	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOfWeek := startOfDay.AddDate(0, 0, -int(now.Weekday()))

	var err error
	if out.total, err = col.CountDocuments(ctx, match); err != nil {
		return out, fmt.Errorf("error counting total views: %v", err)
	}
	if out.unique, err = countDistinct(ctx, col, match, "$session_id"); err != nil {
		return out, fmt.Errorf("error aggregating unique views: %v", err)
	}
	if out.today, err = col.CountDocuments(ctx, since(match, startOfDay)); err != nil {
		return out, fmt.Errorf("error counting today's views: %v", err)
	}
	if out.week, err = col.CountDocuments(ctx, since(match, startOfWeek)); err != nil {
		return out, fmt.Errorf("error counting this week's views: %v", err)
	}
	return out, nil
}

func since(match bson.M, from time.Time) bson.M {
	filter := bson.M{"viewed_at": bson.M{"$gte": from}}
	for k, v := range match {
		filter[k] = v
	}
	return filter
}

func countDistinct(ctx context.Context, col *mongo.Collection, match bson.M, field string) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": field}}},
		{{Key: "$count", Value: "n"}},
	}
	cursor, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var result []struct {
		N int64 `bson:"n"`
	}
	if err := cursor.All(ctx, &result); err != nil {
		return 0, err
	}
	if len(result) == 0 {
		return 0, nil
	}
	return result[0].N, nil
}
