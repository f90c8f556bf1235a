package mongo

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"torrentcore/internal/domain"
)

// Repository persists resume-data blobs and per-torrent options, keyed by
// infohash. Resume data and options live in one document so a torrent can be
// restored atomically after a restart.
type Repository struct {
	collection *mongo.Collection
}

type torrentDoc struct {
	ID         string           `bson:"_id"`
	ResumeData primitive.Binary `bson:"resumeData,omitempty"`
	Options    *optionsDoc      `bson:"options,omitempty"`
	UpdatedAt  int64            `bson:"updatedAt"`
}

type optionsDoc struct {
	MaxConnections      int               `bson:"maxConnections"`
	MaxUploadSlots      int               `bson:"maxUploadSlots"`
	MaxUploadSpeed      float64           `bson:"maxUploadSpeed"`
	MaxDownloadSpeed    float64           `bson:"maxDownloadSpeed"`
	PrioritizeFirstLast bool              `bson:"prioritizeFirstLast"`
	SequentialDownload  bool              `bson:"sequentialDownload"`
	CompactAllocation   bool              `bson:"compactAllocation"`
	DownloadLocation    string            `bson:"downloadLocation"`
	AutoManaged         bool              `bson:"autoManaged"`
	StopAtRatio         bool              `bson:"stopAtRatio"`
	StopRatio           float64           `bson:"stopRatio"`
	RemoveAtRatio       bool              `bson:"removeAtRatio"`
	MoveCompleted       bool              `bson:"moveCompleted"`
	MoveCompletedPath   string            `bson:"moveCompletedPath"`
	AddPaused           bool              `bson:"addPaused"`
	Shared              bool              `bson:"shared"`
	SuperSeeding        bool              `bson:"superSeeding"`
	Priority            int               `bson:"priority"`
	FilePriorities      []int             `bson:"filePriorities,omitempty"`
	MappedFiles         map[string]string `bson:"mappedFiles,omitempty"`
	Name                string            `bson:"name,omitempty"`
	Owner               string            `bson:"owner,omitempty"`
}

func NewRepository(client *mongo.Client, dbName, collectionName string) *Repository {
	return &Repository{collection: client.Database(dbName).Collection(collectionName)}
}

func Connect(ctx context.Context, uri string, extra ...*options.ClientOptions) (*mongo.Client, error) {
	opts := append([]*options.ClientOptions{options.Client().ApplyURI(uri)}, extra...)
	client, err := mongo.Connect(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (r *Repository) EnsureIndexes(ctx context.Context) error {
	if r == nil || r.collection == nil {
		return nil
	}
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "updatedAt", Value: -1}}},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, models)
	return err
}

func (r *Repository) Save(ctx context.Context, id domain.TorrentID, data []byte) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": string(id)},
		bson.M{"$set": bson.M{
			"resumeData": primitive.Binary{Data: data},
			"updatedAt":  time.Now().UTC().Unix(),
		}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *Repository) SaveOptions(ctx context.Context, id domain.TorrentID, opts domain.Options) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": string(id)},
		bson.M{"$set": bson.M{
			"options":   toOptionsDoc(opts),
			"updatedAt": time.Now().UTC().Unix(),
		}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *Repository) Load(ctx context.Context, id domain.TorrentID) ([]byte, error) {
	var doc torrentDoc
	if err := r.collection.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return doc.ResumeData.Data, nil
}

// LoadOptions returns the persisted options for a torrent, or defaults when
// none were stored.
func (r *Repository) LoadOptions(ctx context.Context, id domain.TorrentID) (domain.Options, error) {
	var doc torrentDoc
	if err := r.collection.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Options{}, domain.ErrNotFound
		}
		return domain.Options{}, err
	}
	if doc.Options == nil {
		return domain.DefaultOptions(), nil
	}
	return fromOptionsDoc(*doc.Options), nil
}

func (r *Repository) Delete(ctx context.Context, id domain.TorrentID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) List(ctx context.Context) ([]domain.TorrentID, error) {
	cursor, err := r.collection.Find(ctx, bson.M{},
		options.Find().SetProjection(bson.M{"_id": 1}).SetSort(bson.D{{Key: "updatedAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	ids := make([]domain.TorrentID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, domain.TorrentID(d.ID))
	}
	return ids, nil
}

func toOptionsDoc(o domain.Options) optionsDoc {
	var mapped map[string]string
	if len(o.MappedFiles) > 0 {
		mapped = make(map[string]string, len(o.MappedFiles))
		for idx, path := range o.MappedFiles {
			mapped[strconv.Itoa(idx)] = path
		}
	}
	return optionsDoc{
		MaxConnections:      o.MaxConnections,
		MaxUploadSlots:      o.MaxUploadSlots,
		MaxUploadSpeed:      o.MaxUploadSpeed,
		MaxDownloadSpeed:    o.MaxDownloadSpeed,
		PrioritizeFirstLast: o.PrioritizeFirstLast,
		SequentialDownload:  o.SequentialDownload,
		CompactAllocation:   o.CompactAllocation,
		DownloadLocation:    o.DownloadLocation,
		AutoManaged:         o.AutoManaged,
		StopAtRatio:         o.StopAtRatio,
		StopRatio:           o.StopRatio,
		RemoveAtRatio:       o.RemoveAtRatio,
		MoveCompleted:       o.MoveCompleted,
		MoveCompletedPath:   o.MoveCompletedPath,
		AddPaused:           o.AddPaused,
		Shared:              o.Shared,
		SuperSeeding:        o.SuperSeeding,
		Priority:            o.Priority,
		FilePriorities:      append([]int(nil), o.FilePriorities...),
		MappedFiles:         mapped,
		Name:                o.Name,
		Owner:               o.Owner,
	}
}

func fromOptionsDoc(d optionsDoc) domain.Options {
	var mapped map[int]string
	if len(d.MappedFiles) > 0 {
		mapped = make(map[int]string, len(d.MappedFiles))
		for key, path := range d.MappedFiles {
			idx, err := strconv.Atoi(key)
			if err != nil {
				continue
			}
			mapped[idx] = path
		}
	}
	return domain.Options{
		MaxConnections:      d.MaxConnections,
		MaxUploadSlots:      d.MaxUploadSlots,
		MaxUploadSpeed:      d.MaxUploadSpeed,
		MaxDownloadSpeed:    d.MaxDownloadSpeed,
		PrioritizeFirstLast: d.PrioritizeFirstLast,
		SequentialDownload:  d.SequentialDownload,
		CompactAllocation:   d.CompactAllocation,
		DownloadLocation:    d.DownloadLocation,
		AutoManaged:         d.AutoManaged,
		StopAtRatio:         d.StopAtRatio,
		StopRatio:           d.StopRatio,
		RemoveAtRatio:       d.RemoveAtRatio,
		MoveCompleted:       d.MoveCompleted,
		MoveCompletedPath:   d.MoveCompletedPath,
		AddPaused:           d.AddPaused,
		Shared:              d.Shared,
		SuperSeeding:        d.SuperSeeding,
		Priority:            d.Priority,
		FilePriorities:      append([]int(nil), d.FilePriorities...),
		MappedFiles:         mapped,
		Name:                d.Name,
		Owner:               d.Owner,
	}
}
