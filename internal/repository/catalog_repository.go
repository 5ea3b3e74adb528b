package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/helpdesk-io/helpdesk/internal/domain"
)

// LookupRepository stores the simple catalogs (categories, ticket sources, service types).
type LookupRepository interface {
	Create(ctx context.Context, item *domain.LookupItem) error
	Update(ctx context.Context, item *domain.LookupItem) error
	Delete(ctx context.Context, kind domain.LookupKind, id string) error
	GetByID(ctx context.Context, kind domain.LookupKind, id string) (*domain.LookupItem, error)
	List(ctx context.Context, kind domain.LookupKind, activeOnly bool) ([]domain.LookupItem, error)
}

type lookupRepository struct {
	db DBTX
}

// NewLookupRepository builds repository.
func NewLookupRepository(db DBTX) LookupRepository {
	return &lookupRepository{db: db}
}

func (r *lookupRepository) Create(ctx context.Context, item *domain.LookupItem) error {
	const query = `
        INSERT INTO lookup_items (kind, name, description, active)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query, item.Kind, item.Name, item.Description, item.Active).
		Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
}

func (r *lookupRepository) Update(ctx context.Context, item *domain.LookupItem) error {
	const query = `
        UPDATE lookup_items SET name=$1, description=$2, active=$3, updated_at=NOW()
        WHERE id=$4 AND kind=$5
        RETURNING updated_at`
	err := r.db.QueryRow(ctx, query, item.Name, item.Description, item.Active, item.ID, item.Kind).Scan(&item.UpdatedAt)
	return notFound(err)
}

func (r *lookupRepository) Delete(ctx context.Context, kind domain.LookupKind, id string) error {
	return execExpectingRow(ctx, r.db, `DELETE FROM lookup_items WHERE id=$1 AND kind=$2`, id, kind)
}

func (r *lookupRepository) GetByID(ctx context.Context, kind domain.LookupKind, id string) (*domain.LookupItem, error) {
	const query = `SELECT id, kind, name, description, active, created_at, updated_at FROM lookup_items WHERE id=$1 AND kind=$2`
	return scanLookup(r.db.QueryRow(ctx, query, id, kind))
}

func (r *lookupRepository) List(ctx context.Context, kind domain.LookupKind, activeOnly bool) ([]domain.LookupItem, error) {
	query := `SELECT id, kind, name, description, active, created_at, updated_at FROM lookup_items WHERE kind=$1`
	if activeOnly {
		query += ` AND active = TRUE`
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.Query(ctx, query, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.LookupItem
	for rows.Next() {
		item, err := scanLookup(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *item)
	}
	return result, rows.Err()
}

func scanLookup(row pgx.Row) (*domain.LookupItem, error) {
	var item domain.LookupItem
	if err := row.Scan(&item.ID, &item.Kind, &item.Name, &item.Description, &item.Active, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

// FAQRepository stores FAQ entries.
type FAQRepository interface {
	Create(ctx context.Context, faq *domain.FAQ) error
	Update(ctx context.Context, faq *domain.FAQ) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.FAQ, error)
	List(ctx context.Context, publishedOnly bool) ([]domain.FAQ, error)
}

type faqRepository struct {
	db DBTX
}

// NewFAQRepository builds repository.
func NewFAQRepository(db DBTX) FAQRepository {
	return &faqRepository{db: db}
}

func (r *faqRepository) Create(ctx context.Context, faq *domain.FAQ) error {
	const query = `
        INSERT INTO faqs (question, answer, category_id, published)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query, faq.Question, faq.Answer, faq.CategoryID, faq.Published).
		Scan(&faq.ID, &faq.CreatedAt, &faq.UpdatedAt)
}

func (r *faqRepository) Update(ctx context.Context, faq *domain.FAQ) error {
	const query = `
        UPDATE faqs SET question=$1, answer=$2, category_id=$3, published=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`
	err := r.db.QueryRow(ctx, query, faq.Question, faq.Answer, faq.CategoryID, faq.Published, faq.ID).Scan(&faq.UpdatedAt)
	return notFound(err)
}

func (r *faqRepository) Delete(ctx context.Context, id string) error {
	return execExpectingRow(ctx, r.db, `DELETE FROM faqs WHERE id=$1`, id)
}

func (r *faqRepository) GetByID(ctx context.Context, id string) (*domain.FAQ, error) {
	const query = `SELECT id, question, answer, category_id, published, created_at, updated_at FROM faqs WHERE id=$1`
	return scanFAQ(r.db.QueryRow(ctx, query, id))
}

func (r *faqRepository) List(ctx context.Context, publishedOnly bool) ([]domain.FAQ, error) {
	query := `SELECT id, question, answer, category_id, published, created_at, updated_at FROM faqs`
	if publishedOnly {
		query += ` WHERE published = TRUE`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.FAQ
	for rows.Next() {
		faq, err := scanFAQ(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *faq)
	}
	return result, rows.Err()
}

func scanFAQ(row pgx.Row) (*domain.FAQ, error) {
	var faq domain.FAQ
	if err := row.Scan(&faq.ID, &faq.Question, &faq.Answer, &faq.CategoryID, &faq.Published, &faq.CreatedAt, &faq.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	return &faq, nil
}

// CannedResponseRepository stores reply templates.
type CannedResponseRepository interface {
	Create(ctx context.Context, response *domain.CannedResponse) error
	Update(ctx context.Context, response *domain.CannedResponse) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.CannedResponse, error)
	List(ctx context.Context) ([]domain.CannedResponse, error)
}

type cannedResponseRepository struct {
	db DBTX
}

// NewCannedResponseRepository builds repository.
func NewCannedResponseRepository(db DBTX) CannedResponseRepository {
	return &cannedResponseRepository{db: db}
}

func (r *cannedResponseRepository) Create(ctx context.Context, response *domain.CannedResponse) error {
	const query = `
        INSERT INTO canned_responses (title, body, author_id)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query, response.Title, response.Body, response.AuthorID).
		Scan(&response.ID, &response.CreatedAt, &response.UpdatedAt)
}

func (r *cannedResponseRepository) Update(ctx context.Context, response *domain.CannedResponse) error {
	const query = `
        UPDATE canned_responses SET title=$1, body=$2, updated_at=NOW()
        WHERE id=$3
        RETURNING updated_at`
	err := r.db.QueryRow(ctx, query, response.Title, response.Body, response.ID).Scan(&response.UpdatedAt)
	return notFound(err)
}

func (r *cannedResponseRepository) Delete(ctx context.Context, id string) error {
	return execExpectingRow(ctx, r.db, `DELETE FROM canned_responses WHERE id=$1`, id)
}

func (r *cannedResponseRepository) GetByID(ctx context.Context, id string) (*domain.CannedResponse, error) {
	const query = `SELECT id, title, body, author_id, created_at, updated_at FROM canned_responses WHERE id=$1`
	return scanCanned(r.db.QueryRow(ctx, query, id))
}

func (r *cannedResponseRepository) List(ctx context.Context) ([]domain.CannedResponse, error) {
	rows, err := r.db.Query(ctx, `SELECT id, title, body, author_id, created_at, updated_at FROM canned_responses ORDER BY title ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CannedResponse
	for rows.Next() {
		response, err := scanCanned(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *response)
	}
	return result, rows.Err()
}

func scanCanned(row pgx.Row) (*domain.CannedResponse, error) {
	var response domain.CannedResponse
	if err := row.Scan(&response.ID, &response.Title, &response.Body, &response.AuthorID, &response.CreatedAt, &response.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	return &response, nil
}
