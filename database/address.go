package database

import (
	"context"
	"fmt"

	"github.com/fantasyee/fantasyee/internal/apierror"
	"github.com/fantasyee/fantasyee/model"
)

func listTable(list model.AddressListName) (string, error) {
	if !list.Valid() {
		return "", apierror.NewAPIError(apierror.ErrInvalidInput, fmt.Sprintf("unknown address list: %s", list), nil)
	}
	return "fantasyee." + string(list), nil
}

// GetAddresses returns the full list. An empty list is an empty, non-nil slice.
func (d Datasource) GetAddresses(ctx context.Context, list model.AddressListName) ([]string, error) {
	table, err := listTable(list)
	if err != nil {
		return nil, err
	}
	rows, err := d.Conn.QueryContext(ctx, `SELECT address FROM `+table+` ORDER BY id`)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve "+string(list), err)
	}
	defer rows.Close()

	addresses := []string{}
	for rows.Next() {
		var address string
		if err := rows.Scan(&address); err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan address", err)
		}
		addresses = append(addresses, address)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to iterate addresses", err)
	}
	return addresses, nil
}

func (d Datasource) AddAddress(ctx context.Context, list model.AddressListName, address string) error {
	table, err := listTable(list)
	if err != nil {
		return err
	}
	_, err = d.Conn.ExecContext(ctx, `INSERT INTO `+table+` (address) VALUES ($1)`, address)
	if err != nil {
		return mapWriteError(err, fmt.Sprintf("Address %s already in %s", address, list), "Failed to add address")
	}
	return nil
}

func (d Datasource) RemoveAddress(ctx context.Context, list model.AddressListName, address string) error {
	table, err := listTable(list)
	if err != nil {
		return err
	}
	res, err := d.Conn.ExecContext(ctx, `DELETE FROM `+table+` WHERE address = $1`, address)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to remove address", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Address %s not in %s", address, list), nil)
	}
	return nil
}
