package database

import (
	"context"
	"encoding/json"

	"github.com/fantasyee/fantasyee/internal/apierror"
	"github.com/fantasyee/fantasyee/model"
)

func (d Datasource) RecordOperation(ctx context.Context, op model.Operation) error {
	payload, err := json.Marshal(op.Payload)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal operation payload", err)
	}
	_, err = d.Conn.ExecContext(ctx, `
		INSERT INTO fantasyee.operations ("group", operator_id, method, route, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, op.Group, op.OperatorID, op.Method, op.Route, payload, op.CreatedAt)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record operation", err)
	}
	return nil
}

func (d Datasource) GetOperations(ctx context.Context, limit, offset int) ([]model.Operation, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT id, "group", operator_id, method, route, payload, created_at
		FROM fantasyee.operations ORDER BY id DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve operations", err)
	}
	defer rows.Close()

	ops := []model.Operation{}
	for rows.Next() {
		var (
			op      model.Operation
			payload []byte
		)
		if err := rows.Scan(&op.ID, &op.Group, &op.OperatorID, &op.Method, &op.Route, &payload, &op.CreatedAt); err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan operation", err)
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &op.Payload); err != nil {
				return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to decode operation payload", err)
			}
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to iterate operations", err)
	}
	return ops, nil
}
