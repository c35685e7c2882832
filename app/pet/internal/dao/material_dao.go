package dao

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/xdooria-pet/app/pet/internal/errcode"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/metrics"
	"github.com/lk2023060901/xdooria-pet/pkg/database/postgres"
	"github.com/lk2023060901/xdooria-pet/pkg/logger"
)

const materialTable = "player_material"

type quantityRow struct {
	Quantity int64 `db:"quantity"`
}

// MaterialDAO 材料账本数据访问对象
type MaterialDAO struct {
	logger  logger.Logger
	metrics *metrics.PetMetrics
}

// NewMaterialDAO 创建材料 DAO
func NewMaterialDAO(l logger.Logger, m *metrics.PetMetrics) *MaterialDAO {
	return &MaterialDAO{
		logger:  l.Named("dao.material"),
		metrics: m,
	}
}

func (d *MaterialDAO) record(op string, start time.Time, err error) {
	d.metrics.RecordDBQuery(op, err == nil || errcode.IsBusiness(err), time.Since(start).Seconds())
}

// Balance 查询余额，没有记录时为 0
func (d *MaterialDAO) Balance(ctx context.Context, tx postgres.Tx, userID int64, material string) (balance int64, err error) {
	defer func(start time.Time) { d.record("select", start, err) }(time.Now())

	query, args, err := squirrel.
		Select("quantity").
		From(materialTable).
		Where(squirrel.Eq{"user_id": userID, "material": material}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "failed to build query")
	}

	var row quantityRow
	if err := tx.QueryOne(ctx, &row, query, args...); err != nil {
		if errors.Is(err, postgres.ErrNoRows) {
			return 0, nil
		}
		d.logger.ErrorContext(ctx, "failed to get material balance",
			"material", material,
			"error", err,
		)
		return 0, errors.Wrap(err, "failed to get material balance")
	}

	return row.Quantity, nil
}

// Consume 条件扣减，余额不足时不修改并返回 INSUFFICIENT_RESOURCE
func (d *MaterialDAO) Consume(ctx context.Context, tx postgres.Tx, userID int64, material string, quantity int64) (err error) {
	defer func(start time.Time) { d.record("update", start, err) }(time.Now())

	query, args, err := squirrel.
		Update(materialTable).
		Set("quantity", squirrel.Expr("quantity - ?", quantity)).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"user_id": userID, "material": material}).
		Where(squirrel.GtOrEq{"quantity": quantity}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "failed to build query")
	}

	affected, err := tx.Exec(ctx, query, args...)
	if err != nil {
		d.logger.ErrorContext(ctx, "failed to consume material",
			"material", material,
			"quantity", quantity,
			"error", err,
		)
		return errors.Wrap(err, "failed to consume material")
	}
	if affected == 0 {
		return errcode.NewInsufficientResource(material, quantity)
	}

	return nil
}

// Credit 增加余额，记录不存在时插入
func (d *MaterialDAO) Credit(ctx context.Context, tx postgres.Tx, userID int64, material string, quantity int64) (err error) {
	defer func(start time.Time) { d.record("upsert", start, err) }(time.Now())

	query, args, err := squirrel.
		Insert(materialTable).
		Columns("user_id", "material", "quantity", "updated_at").
		Values(userID, material, quantity, time.Now()).
		Suffix("ON CONFLICT (user_id, material) DO UPDATE SET " +
			"quantity = player_material.quantity + EXCLUDED.quantity, updated_at = EXCLUDED.updated_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "failed to build query")
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		d.logger.ErrorContext(ctx, "failed to credit material",
			"material", material,
			"quantity", quantity,
			"error", err,
		)
		return errors.Wrap(err, "failed to credit material")
	}

	return nil
}
