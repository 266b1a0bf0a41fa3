package airtable

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"telegram-directory-bot/internal/domain"
	"telegram-directory-bot/internal/domain/model"
	"telegram-directory-bot/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

// Directory field names in the remote table.
const (
	fieldName       = "Name"
	fieldEmail      = "Email"
	fieldTelegramID = "Telegram ID"
)

var _ repository.DirectoryRepository = (*DirectoryRepo)(nil)

// DirectoryRepo implements the directory port against one Airtable table.
type DirectoryRepo struct {
	client *Client
	table  string
	log    *zerolog.Logger
}

func NewDirectoryRepo(client *Client, table string, logger *zerolog.Logger) *DirectoryRepo {
	return &DirectoryRepo{client: client, table: table, log: logger}
}

func (r *DirectoryRepo) FindByName(ctx context.Context, name string) (*model.DirectoryRecord, error) {
	formula := fmt.Sprintf("LOWER(TRIM({%s}))=%s",
		fieldName, formulaString(normalize(name)))
	return r.findFirst(ctx, "directory_find_by_name", formula)
}

func (r *DirectoryRepo) FindByNameEmail(ctx context.Context, name, email string) (*model.DirectoryRecord, error) {
	formula := fmt.Sprintf("AND(LOWER(TRIM({%s}))=%s,LOWER(TRIM({%s}))=%s)",
		fieldName, formulaString(normalize(name)),
		fieldEmail, formulaString(normalize(email)))
	return r.findFirst(ctx, "directory_find_by_name_email", formula)
}

// findFirst runs a filtered lookup and returns the first match. It asks for
// two records so duplicate directory entries can at least be logged; there is
// no deterministic tie-break beyond the remote query's own ordering.
func (r *DirectoryRepo) findFirst(ctx context.Context, op, formula string) (*model.DirectoryRecord, error) {
	q := url.Values{}
	q.Set("filterByFormula", formula)
	q.Set("maxRecords", "2")

	var list recordList
	if err := r.client.get(ctx, op, r.table, q, &list); err != nil {
		return nil, err
	}
	if len(list.Records) == 0 {
		return nil, domain.ErrNotFound
	}
	if len(list.Records) > 1 {
		r.log.Warn().
			Str("table", r.table).
			Msg("duplicate directory entries for lookup; first match wins")
	}

	rec := list.Records[0]
	return &model.DirectoryRecord{
		ID:         rec.ID,
		Name:       stringField(rec.Fields, fieldName),
		Email:      stringField(rec.Fields, fieldEmail),
		TelegramID: stringField(rec.Fields, fieldTelegramID),
	}, nil
}

// Link writes the sender's telegram id into the record. Writing the same id
// twice is a plain overwrite on the remote side, which makes the call
// idempotent.
func (r *DirectoryRepo) Link(ctx context.Context, recordID string, senderID int64) error {
	body := record{Fields: map[string]any{
		fieldTelegramID: strconv.FormatInt(senderID, 10),
	}}
	return r.client.patch(ctx, "directory_link", r.table, recordID, body, nil)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
