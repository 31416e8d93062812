package catalog

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/xyths/hs"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	collNft        = "nfts"
	collNftType    = "nft_types"
	collHistory    = "history_prices"
	collCollection = "collections"
)

type indexDef struct {
	coll string
	name string
	keys bson.D
}

var indexes = []indexDef{
	{collNft, "openseaLinkUnique", bson.D{{Key: "openseaLink", Value: 1}}},
	{collNftType, "nameUnique", bson.D{{Key: "name", Value: 1}}},
	{collHistory, "tickerDateUnique", bson.D{{Key: "ticker", Value: 1}, {Key: "date", Value: 1}}},
}

// MongoStore is the MongoDB implementation of Store.
type MongoStore struct {
	db    *mongo.Database
	Sugar *zap.SugaredLogger
}

// ConnectMongo connects and makes sure the unique indexes exist.
func ConnectMongo(ctx context.Context, conf hs.MongoConf, sugar *zap.SugaredLogger) (*MongoStore, error) {
	db, err := hs.ConnectMongo(ctx, conf)
	if err != nil {
		return nil, err
	}
	s := NewMongoStore(db, sugar)
	if err = s.initIndex(ctx); err != nil {
		_ = db.Client().Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func NewMongoStore(db *mongo.Database, sugar *zap.SugaredLogger) *MongoStore {
	if sugar == nil {
		sugar = zap.NewNop().Sugar()
	}
	return &MongoStore{db: db, Sugar: sugar}
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.db.Client().Disconnect(ctx)
}

func (s *MongoStore) initIndex(ctx context.Context) error {
	for _, def := range indexes {
		indexView := s.db.Collection(def.coll).Indexes()
		// list index first
		cursor, err := indexView.List(ctx, options.ListIndexes().SetMaxTime(time.Second*2))
		if err != nil {
			return err
		}
		var existing []bson.M
		if err = cursor.All(ctx, &existing); err != nil {
			return err
		}
		found := false
		for _, index := range existing {
			if index["name"] == def.name {
				found = true
				break
			}
		}
		if found {
			continue
		}
		name, err := indexView.CreateOne(ctx, mongo.IndexModel{
			Keys:    def.keys,
			Options: options.Index().SetUnique(true).SetName(def.name),
		})
		if err != nil {
			return err
		}
		s.Sugar.Infof("create index %s.%s", def.coll, name)
	}
	return nil
}

func (s *MongoStore) GetOrCreateType(ctx context.Context, name string) (*NftType, error) {
	coll := s.db.Collection(collNftType)
	var t NftType
	err := coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "name", Value: name}},
		bson.D{{Key: "$setOnInsert", Value: bson.D{{Key: "name", Value: name}}}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&t)
	if mongo.IsDuplicateKeyError(err) {
		// lost the insert race, the row exists now
		err = coll.FindOne(ctx, bson.D{{Key: "name", Value: name}}).Decode(&t)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *MongoStore) UpsertNft(ctx context.Context, nft *Nft) error {
	set, err := setDocument(nft, "_id", "updateTime")
	if err != nil {
		return err
	}
	_, err = s.db.Collection(collNft).UpdateOne(ctx,
		bson.D{{Key: "openseaLink", Value: nft.OpenseaLink}},
		bson.D{
			{Key: "$set", Value: set},
			{Key: "$currentDate", Value: bson.D{
				{Key: "updateTime", Value: true},
			}},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *MongoStore) DeleteNft(ctx context.Context, link string) (bool, error) {
	res, err := s.db.Collection(collNft).DeleteOne(ctx, bson.D{{Key: "openseaLink", Value: link}})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (s *MongoStore) FindNft(ctx context.Context, link string) (*Nft, error) {
	var nft Nft
	err := s.db.Collection(collNft).FindOne(ctx, bson.D{{Key: "openseaLink", Value: link}}).Decode(&nft)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return &nft, nil
}

func (s *MongoStore) CountNfts(ctx context.Context) (int64, error) {
	return s.db.Collection(collNft).CountDocuments(ctx, bson.D{})
}

func (s *MongoStore) Links(ctx context.Context, start, end int64) ([]string, error) {
	if start < 0 {
		start = 0
	}
	opt := options.Find().SetSkip(start)
	if end >= 0 {
		if end <= start {
			return nil, nil
		}
		opt.SetLimit(end - start)
	}
	return s.links(ctx, bson.D{}, opt)
}

func (s *MongoStore) LinksUpdatedBefore(ctx context.Context, t time.Time) ([]string, error) {
	return s.links(ctx, bson.D{{Key: "updateTime", Value: bson.D{{Key: "$lt", Value: t}}}}, options.Find())
}

func (s *MongoStore) LinksNameContains(ctx context.Context, sub string) ([]string, error) {
	return s.links(ctx, bson.D{{Key: "name", Value: bson.D{{Key: "$regex", Value: regexp.QuoteMeta(sub)}}}}, options.Find())
}

func (s *MongoStore) links(ctx context.Context, filter bson.D, opt *options.FindOptions) ([]string, error) {
	opt.SetSort(bson.D{{Key: "_id", Value: 1}}).SetProjection(bson.D{{Key: "openseaLink", Value: 1}})
	cur, err := s.db.Collection(collNft).Find(ctx, filter, opt)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	var records []struct {
		OpenseaLink string `bson:"openseaLink"`
	}
	if err = cur.All(ctx, &records); err != nil {
		return nil, err
	}
	links := make([]string, 0, len(records))
	for _, r := range records {
		links = append(links, r.OpenseaLink)
	}
	return links, nil
}

func (s *MongoStore) FindHistoryPrice(ctx context.Context, ticker string, date time.Time) (*HistoryPrice, error) {
	var hp HistoryPrice
	err := s.db.Collection(collHistory).FindOne(ctx, historyKey(ticker, date)).Decode(&hp)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return &hp, nil
}

func (s *MongoStore) CreateHistoryPrice(ctx context.Context, hp *HistoryPrice) error {
	doc := HistoryPrice{Ticker: NormalizeTicker(hp.Ticker), Date: Day(hp.Date), Price: hp.Price}
	_, err := s.db.Collection(collHistory).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (s *MongoStore) UpdateHistoryPrice(ctx context.Context, ticker string, date time.Time, price float64) error {
	res, err := s.db.Collection(collHistory).UpdateOne(ctx,
		historyKey(ticker, date),
		bson.D{{Key: "$set", Value: bson.D{{Key: "price", Value: price}}}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteHistoryPrice(ctx context.Context, ticker string, date time.Time) error {
	_, err := s.db.Collection(collHistory).DeleteOne(ctx, historyKey(ticker, date))
	return err
}

func historyKey(ticker string, date time.Time) bson.D {
	return bson.D{{Key: "ticker", Value: NormalizeTicker(ticker)}, {Key: "date", Value: Day(date)}}
}

func (s *MongoStore) UpsertCollection(ctx context.Context, c *Collection) (bool, error) {
	res, err := s.db.Collection(collCollection).UpdateOne(ctx,
		bson.D{{Key: "_id", Value: c.ID}},
		bson.D{
			{Key: "$set", Value: bson.D{
				{Key: "name", Value: c.Name},
				{Key: "logo", Value: c.Logo},
				{Key: "contracts", Value: c.Contracts},
				{Key: "verified", Value: c.Verified},
			}},
			{Key: "$currentDate", Value: bson.D{
				{Key: "timestamp", Value: true},
			}},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, err
	}
	return res.UpsertedCount > 0, nil
}

func (s *MongoStore) CollectionNames(ctx context.Context, offset, limit int64) ([]string, error) {
	opt := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(offset).
		SetProjection(bson.D{{Key: "name", Value: 1}})
	if limit > 0 {
		opt.SetLimit(limit)
	}
	cur, err := s.db.Collection(collCollection).Find(ctx, bson.D{}, opt)
	if err != nil {
		return nil, err
	}
	var records []Collection
	if err = cur.All(ctx, &records); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(records))
	for _, r := range records {
		names = append(names, r.Name)
	}
	return names, nil
}

// setDocument marshals v into a $set document without the given keys.
func setDocument(v interface{}, without ...string) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err = bson.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	for _, k := range without {
		delete(m, k)
	}
	return m, nil
}
