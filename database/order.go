package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fantasyee/fantasyee/internal/apierror"
	"github.com/fantasyee/fantasyee/model"
)

// CreateOrders inserts a batch of placeholders in one transaction. A
// duplicate id fails the whole batch.
func (d Datasource) CreateOrders(ctx context.Context, orders []model.Order) error {
	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fantasyee.orders (id, kind, unit_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to prepare order insert", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, o := range orders {
		if _, err := stmt.ExecContext(ctx, o.ID, o.Kind, o.UnitID, o.Status, now); err != nil {
			return mapWriteError(err, fmt.Sprintf("Order %s already exists", o.ID), "Failed to create order")
		}
	}

	if err := tx.Commit(); err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit transaction", err)
	}
	return nil
}

func (d Datasource) OrderExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := d.Conn.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM fantasyee.orders WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to check order", err)
	}
	return exists, nil
}

const orderColumns = `id, kind, unit_id, member_id, lineup_id, number, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (model.Order, error) {
	var (
		o        model.Order
		memberID sql.NullInt64
		lineupID sql.NullInt64
		number   sql.NullString
	)
	err := row.Scan(&o.ID, &o.Kind, &o.UnitID, &memberID, &lineupID, &number, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	o.MemberID = memberID.Int64
	o.LineupID = lineupID.Int64
	o.Number = number.String
	return o, err
}

func (d Datasource) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	row := d.Conn.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM fantasyee.orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Order with ID '%s' not found", id), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve order", err)
	}
	return &o, nil
}

func (d Datasource) GetOrdersByStatus(ctx context.Context, unitID int64, status model.OrderStatus) ([]model.Order, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+orderColumns+` FROM fantasyee.orders WHERE unit_id = $1 AND status = $2 ORDER BY created_at
	`, unitID, status)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve orders", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan order", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to iterate orders", err)
	}
	return orders, nil
}

// JoinOrder claims a PENDING placeholder for a member and charges the entry
// fee. A free entry (zero fee) writes no ledger rows and returns a nil log.
func (d Datasource) JoinOrder(ctx context.Context, o model.Order, fee model.WalletMutation, number NumberFunc) (*model.TransactionLog, error) {
	charged := fee.Cash != 0 || fee.Ticket != 0
	if charged {
		if err := fee.Validate(); err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInvalidInput, err.Error(), nil)
		}
	}

	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	now := time.Now()
	res, err := tx.ExecContext(ctx, `
		UPDATE fantasyee.orders
		SET member_id = $1, lineup_id = $2, number = $3, status = $4, updated_at = $5
		WHERE id = $6 AND status = $7
	`, o.MemberID, nullInt64(o.LineupID), nullString(o.Number), model.OrderSucceed, now, o.ID, model.OrderPending)
	if err != nil {
		return nil, mapWriteError(err, "Order conflict", "Failed to claim order")
	}
	if err := expectOneRow(res, fmt.Sprintf("Order %s is not pending", o.ID)); err != nil {
		return nil, err
	}

	var txnLog *model.TransactionLog
	if charged {
		txnLog, err = applyMutation(ctx, tx, fee, number, now)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit transaction", err)
	}
	return txnLog, nil
}

// SettleOrder moves an order from one status to another and applies the
// given mutations. The status guard makes a repeated settlement fail with
// ErrConflict instead of paying twice.
func (d Datasource) SettleOrder(ctx context.Context, orderID string, from, to model.OrderStatus, mutations []model.WalletMutation, number NumberFunc) ([]*model.TransactionLog, error) {
	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	now := time.Now()
	res, err := tx.ExecContext(ctx, `
		UPDATE fantasyee.orders SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4
	`, to, now, orderID, from)
	if err != nil {
		return nil, mapWriteError(err, "Order conflict", "Failed to update order")
	}
	if err := expectOneRow(res, fmt.Sprintf("Order %s is not %s", orderID, from.Name())); err != nil {
		return nil, err
	}

	logs := make([]*model.TransactionLog, 0, len(mutations))
	for _, m := range mutations {
		if err := m.Validate(); err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInvalidInput, err.Error(), nil)
		}
		txnLog, err := applyMutation(ctx, tx, m, number, now)
		if err != nil {
			return nil, err
		}
		logs = append(logs, txnLog)
	}

	if err := tx.Commit(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit transaction", err)
	}
	return logs, nil
}

func expectOneRow(res sql.Result, conflictMessage string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to read affected rows", err)
	}
	if n != 1 {
		return apierror.NewAPIError(apierror.ErrConflict, conflictMessage, nil)
	}
	return nil
}
