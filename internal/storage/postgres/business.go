package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blessingcarter623/amatymasocialapp/internal/domain/directory"
)

const (
	businessColumns = `id, owner_id, name, description, category, subcategory, location,
		province, city, department, contact, social, images, created_at, updated_at`

	listBusinessesSQL = `SELECT ` + businessColumns + ` FROM businesses ORDER BY created_at DESC, id`

	getBusinessByIDSQL = `SELECT ` + businessColumns + ` FROM businesses WHERE id = $1`

	createBusinessSQL = `INSERT INTO businesses (` + businessColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	updateBusinessSQL = `UPDATE businesses SET
			name = $2, description = $3, category = $4, subcategory = $5, location = $6,
			province = $7, city = $8, department = $9, contact = $10, social = $11,
			images = $12, updated_at = $13
		WHERE id = $1`

	upsertBusinessSQL = `INSERT INTO businesses (` + businessColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT ((lower(name)), city) DO UPDATE SET
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			subcategory = EXCLUDED.subcategory,
			location = EXCLUDED.location,
			province = EXCLUDED.province,
			department = EXCLUDED.department,
			contact = EXCLUDED.contact,
			social = EXCLUDED.social,
			images = EXCLUDED.images,
			updated_at = EXCLUDED.updated_at
		RETURNING (xmax = 0) AS inserted`
)

type contactJSON struct {
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
	Website  string `json:"website,omitempty"`
	WhatsApp string `json:"whatsapp,omitempty"`
}

type socialJSON struct {
	Facebook  string `json:"facebook,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	TikTok    string `json:"tiktok,omitempty"`
}

var _ directory.Repository = (*BusinessRepository)(nil)

// BusinessRepository implements directory.Repository backed by PostgreSQL.
type BusinessRepository struct {
	pool *pgxpool.Pool
}

// NewBusinessRepository returns a BusinessRepository that uses the given pool.
func NewBusinessRepository(pool *pgxpool.Pool) *BusinessRepository {
	return &BusinessRepository{pool: pool}
}

// List returns every business, newest first.
func (r *BusinessRepository) List(ctx context.Context) ([]directory.Business, error) {
	rows, err := r.pool.Query(ctx, listBusinessesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing businesses: %w", err)
	}
	return pgx.CollectRows(rows, scanBusiness)
}

// GetByID returns a single business by its identifier.
func (r *BusinessRepository) GetByID(ctx context.Context, id string) (*directory.Business, error) {
	rows, err := r.pool.Query(ctx, getBusinessByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting business %q: %w", id, err)
	}

	b, err := pgx.CollectExactlyOneRow(rows, scanBusiness)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, directory.ErrNotFound
		}
		return nil, fmt.Errorf("getting business %q: %w", id, err)
	}
	return &b, nil
}

// Create inserts b.
func (r *BusinessRepository) Create(ctx context.Context, b *directory.Business) error {
	args, err := businessArgs(b)
	if err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, createBusinessSQL, args...); err != nil {
		return fmt.Errorf("creating business %q: %w", b.ID, err)
	}
	return nil
}

// Update overwrites the editable columns of the business with b's ID.
func (r *BusinessRepository) Update(ctx context.Context, b *directory.Business) error {
	contact, social, err := encodeLinks(b)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, updateBusinessSQL,
		b.ID, b.Name, b.Description, b.Category, b.Subcategory, b.Location,
		b.Province, b.City, b.Department, contact, social, imagesParam(b.Images), b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("updating business %q: %w", b.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return directory.ErrNotFound
	}
	return nil
}

// Upsert inserts b or refreshes the listing with the same name and city.
func (r *BusinessRepository) Upsert(ctx context.Context, b *directory.Business) (bool, error) {
	args, err := businessArgs(b)
	if err != nil {
		return false, err
	}
	var inserted bool
	if err := r.pool.QueryRow(ctx, upsertBusinessSQL, args...).Scan(&inserted); err != nil {
		return false, fmt.Errorf("upserting business %q: %w", b.Name, err)
	}
	return inserted, nil
}

func businessArgs(b *directory.Business) ([]any, error) {
	contact, social, err := encodeLinks(b)
	if err != nil {
		return nil, err
	}
	return []any{
		b.ID, b.OwnerID, b.Name, b.Description, b.Category, b.Subcategory, b.Location,
		b.Province, b.City, b.Department, contact, social, imagesParam(b.Images),
		b.CreatedAt, b.UpdatedAt,
	}, nil
}

func encodeLinks(b *directory.Business) (contact, social []byte, err error) {
	contact, err = json.Marshal(contactJSON(b.Contact))
	if err != nil {
		return nil, nil, fmt.Errorf("marshaling contact: %w", err)
	}
	social, err = json.Marshal(socialJSON(b.Social))
	if err != nil {
		return nil, nil, fmt.Errorf("marshaling social links: %w", err)
	}
	return contact, social, nil
}

func scanBusiness(row pgx.CollectableRow) (directory.Business, error) {
	var (
		b               directory.Business
		contact, social []byte
	)
	err := row.Scan(
		&b.ID, &b.OwnerID, &b.Name, &b.Description, &b.Category, &b.Subcategory, &b.Location,
		&b.Province, &b.City, &b.Department, &contact, &social, &b.Images, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return b, err
	}

	var c contactJSON
	if err := json.Unmarshal(contact, &c); err != nil {
		return b, fmt.Errorf("decoding contact of %q: %w", b.ID, err)
	}
	var s socialJSON
	if err := json.Unmarshal(social, &s); err != nil {
		return b, fmt.Errorf("decoding social links of %q: %w", b.ID, err)
	}
	b.Contact = directory.Contact(c)
	b.Social = directory.Social(s)
	return b, nil
}

func imagesParam(images []string) []string {
	if images == nil {
		return []string{}
	}
	return images
}
