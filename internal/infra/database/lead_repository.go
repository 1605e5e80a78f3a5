package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/xavierca1/beauty-leads/internal/entity"
)

// invalid_text_representation: the id is not a UUID, so no row can match.
const pgInvalidText = "22P02"

const leadColumns = `id, full_name, source, status, inquiry_type, closed, advance_payment,
	additional_details, important_notes, descriptions, created_at, updated_at`

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	// 1. Timeline vai como JSONB
	desc, err := encodeTimeline(lead.Descriptions)
	if err != nil {
		return err
	}
	// 2. O ID é gerado aqui, não pelo banco
	id := uuid.New().String()

	query := `INSERT INTO leads (` + leadColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = r.DB.ExecContext(ctx, query,
		id,
		lead.FullName,
		lead.Source,
		lead.Status,
		lead.InquiryType,
		lead.Closed,
		lead.AdvancePayment,
		lead.AdditionalDetails,
		lead.ImportantNotes,
		desc,
		lead.CreatedAt,
		lead.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}

	lead.ID = id
	return nil
}

// Update overwrites every editable field. created_at is never written.
func (r *LeadRepository) Update(ctx context.Context, lead *entity.Lead) error {
	desc, err := encodeTimeline(lead.Descriptions)
	if err != nil {
		return err
	}

	query := `UPDATE leads SET
			full_name = $2, source = $3, status = $4, inquiry_type = $5,
			closed = $6, advance_payment = $7, additional_details = $8,
			important_notes = $9, descriptions = $10, updated_at = $11
		WHERE id = $1`

	res, err := r.DB.ExecContext(ctx, query,
		lead.ID,
		lead.FullName,
		lead.Source,
		lead.Status,
		lead.InquiryType,
		lead.Closed,
		lead.AdvancePayment,
		lead.AdditionalDetails,
		lead.ImportantNotes,
		desc,
		lead.UpdatedAt,
	)
	if err != nil {
		if isInvalidID(err) {
			return entity.ErrLeadNotFound
		}
		return fmt.Errorf("update lead %s: %w", lead.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return entity.ErrLeadNotFound
	}
	return nil
}

// Delete is a no-op for ids that do not exist.
func (r *LeadRepository) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil && !isInvalidID(err) {
		return fmt.Errorf("delete lead %s: %w", id, err)
	}
	return nil
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)

	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
			return nil, entity.ErrLeadNotFound
		}
		return nil, fmt.Errorf("find lead %s: %w", id, err)
	}
	return lead, nil
}

// List returns every lead, newest first.
func (r *LeadRepository) List(ctx context.Context) ([]entity.Lead, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+leadColumns+` FROM leads ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	leads := make([]entity.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *lead)
	}
	return leads, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*entity.Lead, error) {
	var (
		lead entity.Lead
		desc []byte
	)
	err := row.Scan(
		&lead.ID,
		&lead.FullName,
		&lead.Source,
		&lead.Status,
		&lead.InquiryType,
		&lead.Closed,
		&lead.AdvancePayment,
		&lead.AdditionalDetails,
		&lead.ImportantNotes,
		&desc,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lead.Descriptions, err = decodeTimeline(desc); err != nil {
		return nil, fmt.Errorf("lead %s descriptions: %w", lead.ID, err)
	}
	return &lead, nil
}

func encodeTimeline(t entity.Timeline) ([]byte, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encode descriptions: %w", err)
	}
	return b, nil
}

func decodeTimeline(b []byte) (entity.Timeline, error) {
	t := entity.Timeline{}
	if len(b) == 0 {
		return t, nil
	}
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, err
	}
	if t == nil {
		t = entity.Timeline{}
	}
	return t, nil
}

func isInvalidID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgInvalidText
}
