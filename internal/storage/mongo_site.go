package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"sitebuilder/internal/domain"
)

const sitesCollection = "sites"

// siteDocument is the stored shape of a site. The block tree and settings are
// kept as JSON text so nested payloads round-trip exactly as the SQL stores keep them.
type siteDocument struct {
	ID           string    `bson:"_id"`
	StudentName  string    `bson:"student_name"`
	StudentEmail string    `bson:"student_email"`
	StudentClass string    `bson:"student_class"`
	BlocksJSON   string    `bson:"blocks_json"`
	SettingsJSON string    `bson:"settings_json"`
	EmailSent    bool      `bson:"email_sent"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

// MongoSiteStore implements domain.SiteStore over a MongoDB collection.
type MongoSiteStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

var _ domain.SiteStore = (*MongoSiteStore)(nil)

// OpenMongo connects to the server addressed by opts and uses opts.Database
// (default "sitebuilder").
func OpenMongo(ctx context.Context, opts Options) (*MongoSiteStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(MongoURI(opts)))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	dbName := opts.Database
	if dbName == "" {
		dbName = "sitebuilder"
	}
	return NewMongoSiteStore(client, client.Database(dbName).Collection(sitesCollection)), nil
}

func NewMongoSiteStore(client *mongo.Client, coll *mongo.Collection) *MongoSiteStore {
	return &MongoSiteStore{client: client, coll: coll}
}

// Close disconnects the client.
func (s *MongoSiteStore) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func (s *MongoSiteStore) SaveSite(ctx context.Context, site *domain.Site) error {
	if site.ID == "" {
		site.ID = uuid.New().String()
	}
	blocksJSON, settingsJSON, err := encodeDocument(site.Blocks, site.Settings)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	existing, err := s.GetSite(ctx, site.ID)
	switch {
	case errors.Is(err, ErrNotFound):
		site.CreatedAt = now
		site.EmailSent = false
	case err != nil:
		return err
	default:
		site.CreatedAt = existing.CreatedAt
		site.EmailSent = existing.EmailSent
	}
	site.UpdatedAt = now

	doc := siteDocument{
		ID:           site.ID,
		StudentName:  site.StudentInfo.Name,
		StudentEmail: site.StudentInfo.Email,
		StudentClass: site.StudentInfo.Class,
		BlocksJSON:   blocksJSON,
		SettingsJSON: settingsJSON,
		EmailSent:    site.EmailSent,
		CreatedAt:    site.CreatedAt,
		UpdatedAt:    site.UpdatedAt,
	}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": site.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save site: %w", err)
	}
	return nil
}

func (s *MongoSiteStore) GetSite(ctx context.Context, id string) (*domain.Site, error) {
	var doc siteDocument
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("get site %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get site: %w", err)
	}
	return doc.site()
}

// ListSites returns every record, newest first.
func (s *MongoSiteStore) ListSites(ctx context.Context) ([]domain.Site, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	var docs []siteDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	sites := make([]domain.Site, 0, len(docs))
	for _, d := range docs {
		site, err := d.site()
		if err != nil {
			return nil, err
		}
		sites = append(sites, *site)
	}
	return sites, nil
}

func (s *MongoSiteStore) DeleteSite(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete site: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete site %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *MongoSiteStore) MarkEmailSent(ctx context.Context, id string) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"email_sent": true, "updated_at": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("mark email sent: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("mark email sent %s: %w", id, ErrNotFound)
	}
	return nil
}

func (d siteDocument) site() (*domain.Site, error) {
	site := &domain.Site{
		ID: d.ID,
		StudentInfo: domain.StudentInfo{
			Name:  d.StudentName,
			Email: d.StudentEmail,
			Class: d.StudentClass,
		},
		EmailSent: d.EmailSent,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if err := decodeDocument(d.BlocksJSON, d.SettingsJSON, &site.Blocks, &site.Settings); err != nil {
		return nil, err
	}
	return site, nil
}
