package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/figueredofxx/katalogo.digital/pkg/config"
	"github.com/figueredofxx/katalogo.digital/pkg/models"
	"github.com/figueredofxx/katalogo.digital/pkg/tenancy"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore is the document-store backend.
type MongoStore struct {
	client   *mongo.Client
	database *mongo.Database
}

func NewMongoStore(cfg *config.MongoDBConfig) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}

	s := &MongoStore{
		client:   client,
		database: client.Database(cfg.Database),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}
	return s, nil
}

// ensureIndexes installs the uniqueness constraints the core relies on:
// concurrent signups must not race onto the same slug or custom domain.
func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	tenants := s.database.Collection("tenants")
	_, err := tenants.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "custom_domain", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	})
	if err != nil {
		return err
	}
	orders := s.database.Collection("orders")
	_, err = orders.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) Tenants() TenantDirectory {
	return &mongoTenants{coll: s.database.Collection("tenants")}
}

func (s *MongoStore) Orders() OrderStore {
	return &mongoOrders{coll: s.database.Collection("orders")}
}

func (s *MongoStore) Products() ProductStore {
	return &mongoProducts{coll: s.database.Collection("products")}
}

func (s *MongoStore) Categories() CategoryStore {
	return &mongoCategories{coll: s.database.Collection("categories")}
}

type mongoTenants struct {
	coll *mongo.Collection
}

func (r *mongoTenants) findOne(ctx context.Context, filter bson.M) (*models.Tenant, error) {
	var t models.Tenant
	if err := r.coll.FindOne(ctx, filter).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, tenancy.ErrTenantNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *mongoTenants) FindBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	return r.findOne(ctx, bson.M{"slug": strings.ToLower(slug)})
}

func (r *mongoTenants) FindByCustomDomain(ctx context.Context, domain string) (*models.Tenant, error) {
	return r.findOne(ctx, bson.M{"custom_domain": strings.ToLower(domain)})
}

func (r *mongoTenants) GetByID(ctx context.Context, id string) (*models.Tenant, error) {
	t, err := r.findOne(ctx, bson.M{"_id": id})
	if errors.Is(err, tenancy.ErrTenantNotFound) {
		return nil, ErrNotFound
	}
	return t, err
}

func (r *mongoTenants) Create(ctx context.Context, t *models.Tenant) error {
	_, err := r.coll.InsertOne(ctx, t)
	if mongo.IsDuplicateKeyError(err) {
		return ErrConflict
	}
	return err
}

func (r *mongoTenants) Update(ctx context.Context, t *models.Tenant) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": t.ID}, t)
	if mongo.IsDuplicateKeyError(err) {
		return ErrConflict
	}
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoTenants) List(ctx context.Context) ([]*models.Tenant, error) {
	cursor, err := r.coll.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tenants []*models.Tenant
	if err := cursor.All(ctx, &tenants); err != nil {
		return nil, err
	}
	return tenants, nil
}

type mongoOrders struct {
	coll *mongo.Collection
}

// Save applies optimistic concurrency: the replace only matches when the
// stored revision equals the snapshot's, so two racing transitions cannot
// both land.
func (r *mongoOrders) Save(ctx context.Context, o *models.Order) error {
	prev := o.Version
	o.Version++

	if prev == 0 {
		_, err := r.coll.InsertOne(ctx, o)
		if err != nil {
			o.Version = prev
			if mongo.IsDuplicateKeyError(err) {
				return ErrConflict
			}
			return err
		}
		return nil
	}

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": o.ID, "version": prev}, o)
	if err != nil {
		o.Version = prev
		return err
	}
	if res.MatchedCount == 0 {
		o.Version = prev
		return ErrConflict
	}
	return nil
}

func (r *mongoOrders) LoadByID(ctx context.Context, id string) (*models.Order, error) {
	var o models.Order
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *mongoOrders) list(ctx context.Context, filter bson.M) ([]*models.Order, error) {
	cursor, err := r.coll.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*models.Order
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mongoOrders) ListByTenant(ctx context.Context, tenantID string) ([]*models.Order, error) {
	return r.list(ctx, bson.M{"tenant_id": tenantID})
}

func (r *mongoOrders) ListByCustomerPhone(ctx context.Context, tenantID, phone string) ([]*models.Order, error) {
	return r.list(ctx, bson.M{"tenant_id": tenantID, "customer.phone": phone})
}

type mongoProducts struct {
	coll *mongo.Collection
}

func (r *mongoProducts) Create(ctx context.Context, p *models.Product) error {
	_, err := r.coll.InsertOne(ctx, p)
	return err
}

func (r *mongoProducts) Update(ctx context.Context, p *models.Product) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": p.ID, "tenant_id": p.TenantID}, p)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoProducts) Delete(ctx context.Context, tenantID, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id, "tenant_id": tenantID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoProducts) GetByID(ctx context.Context, tenantID, id string) (*models.Product, error) {
	var p models.Product
	err := r.coll.FindOne(ctx, bson.M{"_id": id, "tenant_id": tenantID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *mongoProducts) ListByTenant(ctx context.Context, tenantID string, activeOnly bool) ([]*models.Product, error) {
	filter := bson.M{"tenant_id": tenantID}
	if activeOnly {
		filter["active"] = true
	}
	cursor, err := r.coll.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*models.Product
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mongoProducts) CountByTenant(ctx context.Context, tenantID string) (int, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"tenant_id": tenantID})
	return int(n), err
}

type mongoCategories struct {
	coll *mongo.Collection
}

func (r *mongoCategories) Create(ctx context.Context, c *models.Category) error {
	_, err := r.coll.InsertOne(ctx, c)
	return err
}

func (r *mongoCategories) Update(ctx context.Context, c *models.Category) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": c.ID, "tenant_id": c.TenantID}, c)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoCategories) Delete(ctx context.Context, tenantID, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id, "tenant_id": tenantID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoCategories) ListByTenant(ctx context.Context, tenantID string) ([]*models.Category, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"tenant_id": tenantID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*models.Category
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
