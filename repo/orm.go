// Package repo ignore_security_alert_file SQL_INJECTION
package repo

import (
	"codemailer/config"
	"codemailer/entity"
	"codemailer/pkg/goutil"
	"context"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"reflect"
)

type txKey struct{}

type TxService interface {
	RunTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type BaseRepo interface {
	TxService

	Create(ctx context.Context, model interface{}) error
	// CreateIfAbsent inserts model unless a unique key already exists and
	// reports whether a row was inserted.
	CreateIfAbsent(ctx context.Context, model interface{}) (bool, error)
	// Upsert inserts model, or applies updates to the row holding the same
	// unique key.
	Upsert(ctx context.Context, model interface{}, conflictColumns []string, updates map[string]interface{}) error
	Get(ctx context.Context, model interface{}, f *Filter) error
	GetMany(ctx context.Context, model interface{}, f *Filter) ([]interface{}, *entity.Pagination, error)
	Count(ctx context.Context, model interface{}, f *Filter) (uint64, error)
	Delete(ctx context.Context, model interface{}, f *Filter) error
	Update(ctx context.Context, model interface{}) error
	Close(ctx context.Context) error
}

type baseRepo struct {
	db *gorm.DB
}

func NewBaseRepo(_ context.Context, mysqlCfg config.MySQL) (BaseRepo, error) {
	db, err := gorm.Open(mysql.Open(mysqlCfg.ToDSN()), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return &baseRepo{
		db: db,
	}, nil
}

func (r *baseRepo) Create(ctx context.Context, data interface{}) error {
	return r.getDb(ctx).Create(data).Error
}

func (r *baseRepo) CreateIfAbsent(ctx context.Context, data interface{}) (bool, error) {
	res := r.getDb(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(data)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *baseRepo) Upsert(ctx context.Context, data interface{}, conflictColumns []string, updates map[string]interface{}) error {
	columns := make([]clause.Column, len(conflictColumns))
	for i, c := range conflictColumns {
		columns[i] = clause.Column{Name: c}
	}

	return r.getDb(ctx).Clauses(clause.OnConflict{
		Columns:   columns,
		DoUpdates: clause.Assignments(updates),
	}).Create(data).Error
}

func (r *baseRepo) Count(ctx context.Context, model interface{}, f *Filter) (uint64, error) {
	sqlQuery, args := ToSqlWithArgs(f)

	var count int64
	if err := r.getDb(ctx).Model(model).Where(sqlQuery, args...).Count(&count).Error; err != nil {
		return 0, err
	}
	return uint64(count), nil
}

func (r *baseRepo) Delete(ctx context.Context, model interface{}, f *Filter) error {
	sqlQuery, args := ToSqlWithArgs(f)
	return r.getDb(ctx).Where(sqlQuery, args...).Delete(model).Error
}

func (r *baseRepo) Get(ctx context.Context, model interface{}, f *Filter) error {
	sqlQuery, args := ToSqlWithArgs(f)

	return r.getDb(ctx).Model(model).Where(sqlQuery, args...).First(model).Error
}

func (r *baseRepo) GetMany(ctx context.Context, model interface{}, f *Filter) ([]interface{}, *entity.Pagination, error) {
	var (
		db             = r.getDb(ctx)
		sqlQuery, args = ToSqlWithArgs(f)
		query          = db.Model(model).Where(sqlQuery, args...)
	)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, nil, err
	}

	var pagination *entity.Pagination
	if f != nil {
		pagination = f.Pagination
	}

	var (
		limit = uint32(0)
		page  = pagination.GetPage()
	)
	if pagination != nil && pagination.Limit != nil {
		limit = pagination.GetLimit()
	}
	if page == 0 {
		page = 1
	}

	query = query.Offset(int((page - 1) * limit)).Order(f.GetOrder())
	if limit > 0 {
		query = query.Limit(int(limit + 1))
	}

	var (
		modelElem = reflect.TypeOf(model).Elem()
		queryRes  = reflect.New(reflect.SliceOf(modelElem)).Interface()
	)
	if err := query.Find(queryRes).Error; err != nil {
		return nil, nil, err
	}

	var (
		resElem = reflect.ValueOf(queryRes).Elem()
		res     = make([]interface{}, resElem.Len())
	)
	for i := 0; i < resElem.Len(); i++ {
		res[i] = resElem.Index(i).Addr().Interface() // return addr
	}

	var hasNext bool
	if limit > 0 && len(res) > int(limit) {
		hasNext = true
		res = res[:limit]
	}

	var pLimit *uint32
	if pagination != nil {
		pLimit = pagination.Limit
	}

	return res, &entity.Pagination{
		Page:    goutil.Uint32(page),
		Limit:   pLimit,
		HasNext: goutil.Bool(hasNext),
		Total:   goutil.Int64(count),
	}, nil
}

func (r *baseRepo) Update(ctx context.Context, model interface{}) error {
	return r.getDb(ctx).Updates(model).Error
}

func (r *baseRepo) RunTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if r.hasTx(ctx) {
		return fn(ctx)
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		ctxWithTx := context.WithValue(ctx, txKey{}, tx)
		if err := fn(ctxWithTx); err != nil {
			return err
		}
		return nil
	})
}

func (r *baseRepo) Close(_ context.Context) error {
	if r.db != nil {
		sqlDB, err := r.db.DB()
		if err != nil {
			return err
		}

		err = sqlDB.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *baseRepo) getDb(ctx context.Context) *gorm.DB {
	db, ok := ctx.Value(txKey{}).(*gorm.DB)
	if !ok {
		db = r.db
	}
	return db.WithContext(ctx)
}

func (r *baseRepo) hasTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*gorm.DB)
	return ok
}
