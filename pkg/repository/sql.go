package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/figueredofxx/katalogo.digital/pkg/config"
	"github.com/figueredofxx/katalogo.digital/pkg/models"
	"github.com/figueredofxx/katalogo.digital/pkg/tenancy"
	"github.com/shopspring/decimal"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// SQLStore is the relational backend. Nested tenant/order structures are
// stored as JSON snapshot columns; the row carries only the fields that are
// filtered or constrained on.
type SQLStore struct {
	db *gorm.DB
}

func NewSQLStore(cfg *config.MySQLConfig) (*SQLStore, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	if err := db.AutoMigrate(&tenantRecord{}, &orderRecord{}, &productRecord{}, &categoryRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *SQLStore) Tenants() TenantDirectory  { return &sqlTenants{db: s.db} }
func (s *SQLStore) Orders() OrderStore        { return &sqlOrders{db: s.db} }
func (s *SQLStore) Products() ProductStore    { return &sqlProducts{db: s.db} }
func (s *SQLStore) Categories() CategoryStore { return &sqlCategories{db: s.db} }

type tenantRecord struct {
	ID                 string  `gorm:"primaryKey;type:varchar(36)"`
	Slug               string  `gorm:"type:varchar(63);uniqueIndex;not null"`
	CustomDomain       *string `gorm:"type:varchar(255);uniqueIndex"`
	Name               string  `gorm:"type:varchar(120);not null"`
	Plan               string  `gorm:"type:varchar(20);default:'basic'"`
	SubscriptionStatus string  `gorm:"type:varchar(20);default:'trial'"`
	TrialEndsAt        *time.Time
	ConfigJSON         string `gorm:"type:text"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (tenantRecord) TableName() string { return "tenants" }

// tenantConfig is the JSON blob holding everything not filtered on in SQL.
type tenantConfig struct {
	Description            string                `json:"description,omitempty"`
	LogoURL                string                `json:"logoUrl,omitempty"`
	BannerURL              string                `json:"bannerUrl,omitempty"`
	PrimaryColor           string                `json:"primaryColor,omitempty"`
	WhatsappNumber         string                `json:"whatsappNumber,omitempty"`
	Address                string                `json:"address,omitempty"`
	CreditCardInterestRate decimal.Decimal       `json:"creditCardInterestRate"`
	PaymentMethods         models.PaymentMethods `json:"paymentMethods"`
	DeliveryConfig         models.DeliveryConfig `json:"deliveryConfig"`
	SlugHistory            []models.SlugChange   `json:"slugHistory,omitempty"`
}

func tenantToRecord(t *models.Tenant) (*tenantRecord, error) {
	cfg, err := json.Marshal(tenantConfig{
		Description:            t.Description,
		LogoURL:                t.LogoURL,
		BannerURL:              t.BannerURL,
		PrimaryColor:           t.PrimaryColor,
		WhatsappNumber:         t.WhatsappNumber,
		Address:                t.Address,
		CreditCardInterestRate: t.CreditCardInterestRate,
		PaymentMethods:         t.PaymentMethods,
		DeliveryConfig:         t.DeliveryConfig,
		SlugHistory:            t.SlugHistory,
	})
	if err != nil {
		return nil, err
	}
	rec := &tenantRecord{
		ID:                 t.ID,
		Slug:               t.Slug,
		Name:               t.Name,
		Plan:               string(t.Plan),
		SubscriptionStatus: string(t.SubscriptionStatus),
		TrialEndsAt:        t.TrialEndsAt,
		ConfigJSON:         string(cfg),
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
	if t.CustomDomain != "" {
		domain := strings.ToLower(t.CustomDomain)
		rec.CustomDomain = &domain
	}
	return rec, nil
}

func recordToTenant(rec *tenantRecord) (*models.Tenant, error) {
	var cfg tenantConfig
	if rec.ConfigJSON != "" {
		if err := json.Unmarshal([]byte(rec.ConfigJSON), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse tenant config: %w", err)
		}
	}
	t := &models.Tenant{
		ID:                     rec.ID,
		Slug:                   rec.Slug,
		Name:                   rec.Name,
		Description:            cfg.Description,
		LogoURL:                cfg.LogoURL,
		BannerURL:              cfg.BannerURL,
		PrimaryColor:           cfg.PrimaryColor,
		WhatsappNumber:         cfg.WhatsappNumber,
		Address:                cfg.Address,
		Plan:                   models.Plan(rec.Plan),
		SubscriptionStatus:     models.SubscriptionStatus(rec.SubscriptionStatus),
		TrialEndsAt:            rec.TrialEndsAt,
		CreditCardInterestRate: cfg.CreditCardInterestRate,
		PaymentMethods:         cfg.PaymentMethods,
		DeliveryConfig:         cfg.DeliveryConfig,
		SlugHistory:            cfg.SlugHistory,
		CreatedAt:              rec.CreatedAt,
		UpdatedAt:              rec.UpdatedAt,
	}
	if rec.CustomDomain != nil {
		t.CustomDomain = *rec.CustomDomain
	}
	return t, nil
}

type sqlTenants struct {
	db *gorm.DB
}

func (r *sqlTenants) findOne(ctx context.Context, query string, args ...interface{}) (*models.Tenant, error) {
	var rec tenantRecord
	if err := r.db.WithContext(ctx).Where(query, args...).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, tenancy.ErrTenantNotFound
		}
		return nil, err
	}
	return recordToTenant(&rec)
}

func (r *sqlTenants) FindBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	return r.findOne(ctx, "slug = ?", strings.ToLower(slug))
}

func (r *sqlTenants) FindByCustomDomain(ctx context.Context, domain string) (*models.Tenant, error) {
	return r.findOne(ctx, "custom_domain = ?", strings.ToLower(domain))
}

func (r *sqlTenants) GetByID(ctx context.Context, id string) (*models.Tenant, error) {
	t, err := r.findOne(ctx, "id = ?", id)
	if errors.Is(err, tenancy.ErrTenantNotFound) {
		return nil, ErrNotFound
	}
	return t, err
}

func (r *sqlTenants) Create(ctx context.Context, t *models.Tenant) error {
	rec, err := tenantToRecord(t)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (r *sqlTenants) Update(ctx context.Context, t *models.Tenant) error {
	rec, err := tenantToRecord(t)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Model(&tenantRecord{}).Where("id = ?", t.ID).
		Select("*").Omit("id", "created_at").Updates(rec)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return ErrConflict
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sqlTenants) List(ctx context.Context) ([]*models.Tenant, error) {
	var recs []tenantRecord
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]*models.Tenant, 0, len(recs))
	for i := range recs {
		t, err := recordToTenant(&recs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

type orderRecord struct {
	ID            string          `gorm:"primaryKey;type:varchar(36)"`
	TenantID      string          `gorm:"type:varchar(36);not null;index"`
	CustomerPhone string          `gorm:"type:varchar(32);index"`
	Status        string          `gorm:"type:varchar(20);default:'pending'"`
	DeliveryFee   decimal.Decimal `gorm:"type:decimal(10,2)"`
	Total         decimal.Decimal `gorm:"type:decimal(10,2)"`
	Version       int64           `gorm:"not null;default:0"`
	PayloadJSON   string          `gorm:"type:text"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (orderRecord) TableName() string { return "orders" }

func orderToRecord(o *models.Order) (*orderRecord, error) {
	payload, err := json.Marshal(o)
	if err != nil {
		return nil, err
	}
	return &orderRecord{
		ID:            o.ID,
		TenantID:      o.TenantID,
		CustomerPhone: o.Customer.Phone,
		Status:        string(o.Status),
		DeliveryFee:   o.DeliveryFee,
		Total:         o.Total,
		Version:       o.Version,
		PayloadJSON:   string(payload),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}, nil
}

func recordToOrder(rec *orderRecord) (*models.Order, error) {
	var o models.Order
	if err := json.Unmarshal([]byte(rec.PayloadJSON), &o); err != nil {
		return nil, fmt.Errorf("failed to parse order payload: %w", err)
	}
	return &o, nil
}

type sqlOrders struct {
	db *gorm.DB
}

// Save applies optimistic concurrency: the update only matches the row still
// carrying the snapshot's revision, so a stale snapshot conflicts instead of
// overwriting a concurrent transition.
func (r *sqlOrders) Save(ctx context.Context, o *models.Order) error {
	prev := o.Version
	o.Version++

	rec, err := orderToRecord(o)
	if err != nil {
		o.Version = prev
		return err
	}

	if prev == 0 {
		if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
			o.Version = prev
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrConflict
			}
			return err
		}
		return nil
	}

	res := r.db.WithContext(ctx).Model(&orderRecord{}).
		Where("id = ? AND version = ?", o.ID, prev).
		Select("*").Omit("id", "created_at").Updates(rec)
	if res.Error != nil {
		o.Version = prev
		return res.Error
	}
	if res.RowsAffected == 0 {
		o.Version = prev
		return ErrConflict
	}
	return nil
}

func (r *sqlOrders) LoadByID(ctx context.Context, id string) (*models.Order, error) {
	var rec orderRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return recordToOrder(&rec)
}

func (r *sqlOrders) list(ctx context.Context, query string, args ...interface{}) ([]*models.Order, error) {
	var recs []orderRecord
	if err := r.db.WithContext(ctx).Where(query, args...).
		Order("created_at DESC").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]*models.Order, 0, len(recs))
	for i := range recs {
		o, err := recordToOrder(&recs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (r *sqlOrders) ListByTenant(ctx context.Context, tenantID string) ([]*models.Order, error) {
	return r.list(ctx, "tenant_id = ?", tenantID)
}

func (r *sqlOrders) ListByCustomerPhone(ctx context.Context, tenantID, phone string) ([]*models.Order, error) {
	return r.list(ctx, "tenant_id = ? AND customer_phone = ?", tenantID, phone)
}

type productRecord struct {
	ID          string           `gorm:"primaryKey;type:varchar(36)"`
	TenantID    string           `gorm:"type:varchar(36);not null;index"`
	CategoryID  string           `gorm:"type:varchar(36);index"`
	Name        string           `gorm:"type:varchar(160);not null"`
	Description string           `gorm:"type:text"`
	Price       decimal.Decimal  `gorm:"type:decimal(10,2)"`
	PromoPrice  *decimal.Decimal `gorm:"type:decimal(10,2)"`
	ImageURL    string           `gorm:"type:text"`
	Active      bool             `gorm:"default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (productRecord) TableName() string { return "products" }

func productToRecord(p *models.Product) *productRecord {
	return &productRecord{
		ID:          p.ID,
		TenantID:    p.TenantID,
		CategoryID:  p.CategoryID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		PromoPrice:  p.PromoPrice,
		ImageURL:    p.ImageURL,
		Active:      p.Active,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func recordToProduct(rec *productRecord) *models.Product {
	return &models.Product{
		ID:          rec.ID,
		TenantID:    rec.TenantID,
		CategoryID:  rec.CategoryID,
		Name:        rec.Name,
		Description: rec.Description,
		Price:       rec.Price,
		PromoPrice:  rec.PromoPrice,
		ImageURL:    rec.ImageURL,
		Active:      rec.Active,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
}

type sqlProducts struct {
	db *gorm.DB
}

func (r *sqlProducts) Create(ctx context.Context, p *models.Product) error {
	return r.db.WithContext(ctx).Create(productToRecord(p)).Error
}

func (r *sqlProducts) Update(ctx context.Context, p *models.Product) error {
	res := r.db.WithContext(ctx).Model(&productRecord{}).
		Where("id = ? AND tenant_id = ?", p.ID, p.TenantID).
		Select("*").Omit("id", "tenant_id", "created_at").Updates(productToRecord(p))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sqlProducts) Delete(ctx context.Context, tenantID, id string) error {
	res := r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).
		Delete(&productRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sqlProducts) GetByID(ctx context.Context, tenantID, id string) (*models.Product, error) {
	var rec productRecord
	err := r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return recordToProduct(&rec), nil
}

func (r *sqlProducts) ListByTenant(ctx context.Context, tenantID string, activeOnly bool) ([]*models.Product, error) {
	q := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var recs []productRecord
	if err := q.Order("created_at DESC").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]*models.Product, 0, len(recs))
	for i := range recs {
		out = append(out, recordToProduct(&recs[i]))
	}
	return out, nil
}

func (r *sqlProducts) CountByTenant(ctx context.Context, tenantID string) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&productRecord{}).
		Where("tenant_id = ?", tenantID).Count(&n).Error
	return int(n), err
}

type categoryRecord struct {
	ID       string `gorm:"primaryKey;type:varchar(36)"`
	TenantID string `gorm:"type:varchar(36);not null;index"`
	Name     string `gorm:"type:varchar(120)"`
	Slug     string `gorm:"type:varchar(120)"`
	ImageURL string `gorm:"type:text"`
	Active   bool   `gorm:"default:true"`
}

func (categoryRecord) TableName() string { return "categories" }

type sqlCategories struct {
	db *gorm.DB
}

func (r *sqlCategories) Create(ctx context.Context, c *models.Category) error {
	return r.db.WithContext(ctx).Create(&categoryRecord{
		ID: c.ID, TenantID: c.TenantID, Name: c.Name, Slug: c.Slug,
		ImageURL: c.ImageURL, Active: c.Active,
	}).Error
}

func (r *sqlCategories) Update(ctx context.Context, c *models.Category) error {
	res := r.db.WithContext(ctx).Model(&categoryRecord{}).
		Where("id = ? AND tenant_id = ?", c.ID, c.TenantID).
		Select("*").Omit("id", "tenant_id").Updates(&categoryRecord{
		ID: c.ID, TenantID: c.TenantID, Name: c.Name, Slug: c.Slug,
		ImageURL: c.ImageURL, Active: c.Active,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sqlCategories) Delete(ctx context.Context, tenantID, id string) error {
	res := r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).
		Delete(&categoryRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sqlCategories) ListByTenant(ctx context.Context, tenantID string) ([]*models.Category, error) {
	var recs []categoryRecord
	if err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).
		Order("name ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]*models.Category, 0, len(recs))
	for _, rec := range recs {
		out = append(out, &models.Category{
			ID: rec.ID, TenantID: rec.TenantID, Name: rec.Name, Slug: rec.Slug,
			ImageURL: rec.ImageURL, Active: rec.Active,
		})
	}
	return out, nil
}
