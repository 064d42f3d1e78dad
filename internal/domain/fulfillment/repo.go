package fulfillment

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

// closedExpr признак «закрыт» всегда считается по товарам, колонки под него нет.
const closedExpr = `NOT EXISTS (SELECT 1 FROM items i WHERE i.box_id = b.id AND NOT i.scanned)`

const itemColumns = `id, box_id, barcode, datamatrix, crypto_tail, product_name, article, size,
	color, composition, country, manufacture_date, brand, scanned`

func scanItem(row pgx.Row) (Item, error) {
	var it Item
	err := row.Scan(
		&it.ID, &it.BoxID, &it.Barcode, &it.Datamatrix, &it.CryptoTail,
		&it.ProductName, &it.Article, &it.Size, &it.Color, &it.Composition,
		&it.Country, &it.ManufactureDate, &it.Brand, &it.Scanned,
	)
	return it, err
}

/* Orders */

func (r *Repo) LoadOrders(ctx context.Context) ([]Order, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, number, box_count, item_count, created_at
		FROM orders
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, storeErr("load orders", err)
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.Number, &o.BoxCount, &o.ItemCount, &o.CreatedAt); err != nil {
			return nil, storeErr("load orders", err)
		}
		out = append(out, o)
	}
	return out, storeErr("load orders", rows.Err())
}

func (r *Repo) AddOrder(ctx context.Context, number string, boxCount, itemCount int) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO orders (number, box_count, item_count)
		VALUES ($1,$2,$3)
		RETURNING id
	`, number, boxCount, itemCount).Scan(&id)
	if err != nil {
		return 0, storeErr("add order", err)
	}
	return id, nil
}

/* Boxes */

func (r *Repo) LoadBoxes(ctx context.Context, orderID int64) ([]Box, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT b.id, b.order_id, b.number, b.deferred, `+closedExpr+`
		FROM boxes b
		WHERE b.order_id = $1
		ORDER BY b.id
	`, orderID)
	if err != nil {
		return nil, storeErr("load boxes", err)
	}
	defer rows.Close()

	var out []Box
	for rows.Next() {
		var b Box
		if err := rows.Scan(&b.ID, &b.OrderID, &b.Number, &b.Deferred, &b.Closed); err != nil {
			return nil, storeErr("load boxes", err)
		}
		out = append(out, b)
	}
	return out, storeErr("load boxes", rows.Err())
}

func (r *Repo) FindBox(ctx context.Context, orderID int64, number string) (*Box, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT b.id, b.order_id, b.number, b.deferred, `+closedExpr+`
		FROM boxes b
		WHERE b.order_id = $1 AND b.number = $2
		ORDER BY b.id
		LIMIT 1
	`, orderID, number)
	var b Box
	if err := row.Scan(&b.ID, &b.OrderID, &b.Number, &b.Deferred, &b.Closed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr("find box", err)
	}
	return &b, nil
}

func (r *Repo) IsBoxClosed(ctx context.Context, boxID int64) (bool, error) {
	var closed bool
	err := r.pool.QueryRow(ctx, `
		SELECT NOT EXISTS (SELECT 1 FROM items WHERE box_id = $1 AND NOT scanned)
	`, boxID).Scan(&closed)
	if err != nil {
		return false, storeErr("is box closed", err)
	}
	return closed, nil
}

// OpenBox повторное открытие = сканирование короба заново.
func (r *Repo) OpenBox(ctx context.Context, boxID int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return storeErr("open box", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `UPDATE boxes SET deferred = FALSE WHERE id = $1`, boxID)
	if err != nil {
		return storeErr("open box", err)
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{Entity: "box", Key: itoa(boxID)}
	}
	if _, err = tx.Exec(ctx, `UPDATE items SET scanned = FALSE WHERE box_id = $1`, boxID); err != nil {
		return storeErr("open box", err)
	}
	return storeErr("open box", tx.Commit(ctx))
}

func (r *Repo) SetDeferred(ctx context.Context, boxID int64, deferred bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE boxes SET deferred = $2 WHERE id = $1`, boxID, deferred)
	if err != nil {
		return storeErr("set deferred", err)
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{Entity: "box", Key: itoa(boxID)}
	}
	return nil
}

func (r *Repo) AddBox(ctx context.Context, orderID int64, number string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO boxes (order_id, number) VALUES ($1,$2)
		RETURNING id
	`, orderID, number).Scan(&id)
	if err != nil {
		return 0, storeErr("add box", err)
	}
	return id, nil
}

/* Items */

func (r *Repo) LoadItems(ctx context.Context, boxID int64) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+itemColumns+` FROM items WHERE box_id = $1 ORDER BY id`, boxID)
	if err != nil {
		return nil, storeErr("load items", err)
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, storeErr("load items", err)
		}
		out = append(out, it)
	}
	return out, storeErr("load items", rows.Err())
}

// ScanItem проверка и отметка в одной транзакции: строки товаров с кодом
// блокируются, поэтому повтор не отметит товар дважды и не собьёт счётчик.
func (r *Repo) ScanItem(ctx context.Context, boxID int64, barcode string) (*Item, int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, 0, storeErr("scan item", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		SELECT `+itemColumns+`
		FROM items
		WHERE box_id = $1 AND barcode = $2
		ORDER BY id
		FOR UPDATE
	`, boxID, barcode)
	if err != nil {
		return nil, 0, storeErr("scan item", err)
	}
	var items []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			rows.Close()
			return nil, 0, storeErr("scan item", err)
		}
		items = append(items, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, storeErr("scan item", err)
	}

	idx, total := Match(items, barcode)
	if idx < 0 {
		return nil, total, nil
	}
	it := items[idx]
	if _, err = tx.Exec(ctx, `UPDATE items SET scanned = TRUE WHERE id = $1`, it.ID); err != nil {
		return nil, 0, storeErr("scan item", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, 0, storeErr("scan item", err)
	}
	it.Scanned = true
	return &it, total, nil
}

func (r *Repo) UnscannedCount(ctx context.Context, boxID int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM items WHERE box_id = $1 AND NOT scanned`, boxID).Scan(&n)
	if err != nil {
		return 0, storeErr("unscanned count", err)
	}
	return n, nil
}

func (r *Repo) AddItem(ctx context.Context, boxID int64, f ItemFields) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO items (box_id, barcode, datamatrix, crypto_tail, product_name, article, size,
		                   color, composition, country, manufacture_date, brand, scanned)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,FALSE)
		RETURNING id
	`, boxID, f.Barcode, f.Datamatrix, f.CryptoTail, f.ProductName, f.Article, f.Size,
		f.Color, f.Composition, f.Country, f.ManufactureDate, f.Brand).Scan(&id)
	if err != nil {
		return 0, storeErr("add item", err)
	}
	return id, nil
}

/* Reports */

func (r *Repo) OrderReport(ctx context.Context, orderID int64) ([]ReportRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT o.number, COALESCE(b.number,''), i.id IS NOT NULL,
		       COALESCE(i.barcode,''), COALESCE(i.product_name,''),
		       COALESCE(i.size,''), COALESCE(i.color,''), COALESCE(i.scanned, FALSE)
		FROM orders o
		LEFT JOIN boxes b ON b.order_id = o.id
		LEFT JOIN items i ON i.box_id = b.id
		WHERE o.id = $1
		ORDER BY b.id, i.id
	`, orderID)
	if err != nil {
		return nil, storeErr("order report", err)
	}
	defer rows.Close()

	var out []ReportRow
	for rows.Next() {
		var rr ReportRow
		if err := rows.Scan(&rr.OrderNumber, &rr.BoxNumber, &rr.HasItem,
			&rr.Barcode, &rr.ProductName, &rr.Size, &rr.Color, &rr.Scanned); err != nil {
			return nil, storeErr("order report", err)
		}
		out = append(out, rr)
	}
	return out, storeErr("order report", rows.Err())
}

var _ Store = (*Repo)(nil)
