package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fantasyee/fantasyee/internal/apierror"
	"github.com/fantasyee/fantasyee/model"
)

func (d Datasource) GetContest(ctx context.Context, id int64) (*model.Contest, error) {
	c := model.Contest{}
	var openAt, settleAt sql.NullTime
	err := d.Conn.QueryRowContext(ctx, `
		SELECT id, kind, status, entry_cash, entry_ticket, capacity, open_at, settle_at, created_at
		FROM fantasyee.contests WHERE id = $1
	`, id).Scan(&c.ID, &c.Kind, &c.Status, &c.EntryCash, &c.EntryTicket, &c.Capacity, &openAt, &settleAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Contest with ID '%d' not found", id), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve contest", err)
	}
	if openAt.Valid {
		c.OpenAt = &openAt.Time
	}
	if settleAt.Valid {
		c.SettleAt = &settleAt.Time
	}
	return &c, nil
}

func (d Datasource) UpdateContestStatus(ctx context.Context, id int64, status model.ContestStatus) error {
	res, err := d.Conn.ExecContext(ctx, `UPDATE fantasyee.contests SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update contest", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to read affected rows", err)
	}
	if n == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Contest with ID '%d' not found", id), nil)
	}
	return nil
}
