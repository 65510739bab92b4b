package docstore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore はMongoDBのデータベースをバックエンドとするストア。
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// OpenMongo はMongoDBへ接続し、pingで疎通を確認する。
// Stable API v1 を strict モードで利用する。
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1).
		SetStrict(true).
		SetDeprecationErrors(true)
	opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("MongoDBへの接続に失敗: %w", err)
	}
	store := &MongoStore{client: client, db: client.Database(database)}
	if err := store.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return store, nil
}

// Collection は指定した名前のコレクションを返す。
func (s *MongoStore) Collection(name string) Collection {
	return &mongoCollection{coll: s.db.Collection(name)}
}

// Ping はadminデータベースへpingコマンドを送る。
func (s *MongoStore) Ping(ctx context.Context) error {
	if err := s.client.Database("admin").RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		return fmt.Errorf("MongoDBへの疎通確認に失敗: %w", err)
	}
	return nil
}

// Close はクライアントを切断する。
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

type mongoCollection struct {
	coll *mongo.Collection
}

func (c *mongoCollection) Find(ctx context.Context, filter Filter, out any) error {
	query := bson.M{}
	for k, v := range filter {
		if err := validField(k); err != nil {
			return err
		}
		query[k] = v
	}

	cur, err := c.coll.Find(ctx, query)
	if err != nil {
		return fmt.Errorf("%s の検索に失敗: %w", c.coll.Name(), err)
	}
	if err := cur.All(ctx, out); err != nil {
		return fmt.Errorf("%s の読み取りに失敗: %w", c.coll.Name(), err)
	}
	return nil
}

func (c *mongoCollection) FindOne(ctx context.Context, id string, out any, fields ...string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidID
	}

	opts := options.FindOne()
	if len(fields) > 0 {
		projection := bson.D{{Key: "_id", Value: 0}}
		for _, f := range fields {
			if err := validField(f); err != nil {
				return err
			}
			if f == "_id" {
				projection[0].Value = 1
				continue
			}
			projection = append(projection, bson.E{Key: f, Value: 1})
		}
		opts.SetProjection(projection)
	}

	err = c.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}, opts).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("%s の取得に失敗: %w", c.coll.Name(), err)
	}
	return nil
}

func (c *mongoCollection) InsertOne(ctx context.Context, doc any) (*InsertResult, error) {
	res, err := c.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("%s への追加に失敗: %w", c.coll.Name(), err)
	}
	result := &InsertResult{Acknowledged: true}
	switch id := res.InsertedID.(type) {
	case primitive.ObjectID:
		result.InsertedID = id.Hex()
	case string:
		result.InsertedID = id
	default:
		result.InsertedID = fmt.Sprint(id)
	}
	return result, nil
}

func (c *mongoCollection) UpdateOne(ctx context.Context, id string, set Fields) (*UpdateResult, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}
	update := bson.M{}
	for k, v := range set {
		if k == "_id" {
			return nil, errors.New("_id は更新できません")
		}
		if err := validField(k); err != nil {
			return nil, err
		}
		update[k] = v
	}

	res, err := c.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, bson.M{"$set": update})
	if err != nil {
		return nil, fmt.Errorf("%s の更新に失敗: %w", c.coll.Name(), err)
	}
	return &UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
	}, nil
}

func (c *mongoCollection) DeleteOne(ctx context.Context, id string) (*DeleteResult, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}
	res, err := c.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return nil, fmt.Errorf("%s の削除に失敗: %w", c.coll.Name(), err)
	}
	return &DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}
