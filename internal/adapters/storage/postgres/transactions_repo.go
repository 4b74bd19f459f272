package postgres

import (
	"context"
	"database/sql"
	"strings"

	"finca-manager/internal/domain/transactions"
)

type TransactionsRepo struct {
	db *sql.DB
}

func NewTransactionsRepo(db *sql.DB) *TransactionsRepo {
	return &TransactionsRepo{db: db}
}

const txCols = `
	id, type, target_kind, target_id,
	from_user_id, to_user_id,
	source_farm_id, dest_farm_id,
	amount, currency, transaction_date, notes,
	created_at, updated_at`

func (r *TransactionsRepo) Create(ctx context.Context, t transactions.Transaction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (
			id, type, target_kind, target_id,
			from_user_id, to_user_id,
			source_farm_id, dest_farm_id,
			amount, currency, transaction_date, notes,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`,
		t.ID,
		string(t.Type),
		string(t.Target.Kind),
		t.Target.ID,
		t.FromUserID,
		toNullString(t.ToUserID),
		toNullString(t.SourceFarmID),
		toNullString(t.DestFarmID),
		t.Amount,
		t.Currency,
		t.TransactionDate,
		t.Notes,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return transactions.ErrAlreadyExists
	}
	return err
}

func (r *TransactionsRepo) GetByID(ctx context.Context, id string) (transactions.Transaction, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return transactions.Transaction{}, transactions.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT`+txCols+` FROM transactions WHERE id = $1`, id)
	t, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return transactions.Transaction{}, transactions.ErrNotFound
		}
		return transactions.Transaction{}, err
	}
	return t, nil
}

func (r *TransactionsRepo) ListByParty(ctx context.Context, userID string) ([]transactions.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT`+txCols+`
		FROM transactions
		WHERE from_user_id = $1 OR to_user_id = $1
		ORDER BY transaction_date DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]transactions.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TransactionsRepo) Update(ctx context.Context, t transactions.Transaction) error {
	// from_user_id y target no se tocan
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET
			type = $2,
			to_user_id = $3,
			source_farm_id = $4,
			dest_farm_id = $5,
			amount = $6,
			currency = $7,
			transaction_date = $8,
			notes = $9,
			updated_at = $10
		WHERE id = $1
	`,
		t.ID,
		string(t.Type),
		toNullString(t.ToUserID),
		toNullString(t.SourceFarmID),
		toNullString(t.DestFarmID),
		t.Amount,
		t.Currency,
		t.TransactionDate,
		t.Notes,
		t.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return transactions.ErrNotFound
	}
	return nil
}

func (r *TransactionsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return transactions.ErrNotFound
	}
	return nil
}

func scanTransaction(row rowScanner) (transactions.Transaction, error) {
	var t transactions.Transaction
	var txType, targetKind string
	var to, srcFarm, dstFarm sql.NullString
	if err := row.Scan(
		&t.ID,
		&txType,
		&targetKind,
		&t.Target.ID,
		&t.FromUserID,
		&to,
		&srcFarm,
		&dstFarm,
		&t.Amount,
		&t.Currency,
		&t.TransactionDate,
		&t.Notes,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return transactions.Transaction{}, err
	}
	t.Type = transactions.TxType(txType)
	t.Target.Kind = transactions.TargetKind(targetKind)
	t.ToUserID = fromNullString(to)
	t.SourceFarmID = fromNullString(srcFarm)
	t.DestFarmID = fromNullString(dstFarm)
	return t, nil
}
