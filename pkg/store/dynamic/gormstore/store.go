package gormstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sukryu/pAdmin/pkg/errors"
	"github.com/sukryu/pAdmin/pkg/store/dynamic"
	"github.com/sukryu/pAdmin/pkg/store/schema"
)

// GormDynamicStore implements dynamic.DynamicStore on top of any gorm
// dialector that supports INSERT ... RETURNING (sqlite, postgres).
type GormDynamicStore struct {
	db *gorm.DB
}

func NewGormDynamicStore(db *gorm.DB) (*GormDynamicStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	return &GormDynamicStore{db: db}, nil
}

var _ dynamic.DynamicStore = (*GormDynamicStore)(nil)

func (s *GormDynamicStore) dialect() string {
	return s.db.Dialector.Name()
}

func (s *GormDynamicStore) quote(name string) string {
	return s.db.Statement.Quote(name)
}

// Migrate registers every schema in the entity_schemas table and creates the
// backing tables if they do not exist yet.
func (s *GormDynamicStore) Migrate(ctx context.Context, schemas ...*schema.EntitySchema) error {
	db := s.db.WithContext(ctx)
	if err := db.AutoMigrate(&schema.EntitySchemaModel{}); err != nil {
		return fmt.Errorf("migrate schema registry: %w", err)
	}

	for _, sch := range schemas {
		if err := sch.Validate(); err != nil {
			return errors.ErrInvalidSchema.WithReason(err.Error())
		}
		for _, stmt := range sch.CreateTableSQL(s.dialect(), s.quote) {
			if err := db.Exec(stmt).Error; err != nil {
				return fmt.Errorf("create table %s: %w", sch.Name, err)
			}
		}

		model, err := sch.ToModel()
		if err != nil {
			return err
		}
		err = db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"description", "fields", "indexes", "updated_at"}),
		}).Create(model).Error
		if err != nil {
			return fmt.Errorf("register schema %s: %w", sch.Name, err)
		}
	}
	return nil
}

func (s *GormDynamicStore) Create(ctx context.Context, tableName string, data map[string]interface{}) (map[string]interface{}, error) {
	sch, err := s.GetSchema(ctx, tableName)
	if err != nil {
		return nil, err
	}
	pk, _ := sch.PrimaryKey()

	row := make(map[string]interface{}, len(data)+3)
	for k, v := range data {
		row[k] = v
	}

	// opaque keys are generated here, integer keys by the database
	if v, exists := row[pk.Name]; !exists || v == nil || v == "" {
		delete(row, pk.Name)
		if pk.Type == schema.FieldTypeUUID {
			row[pk.Name] = uuid.New().String()
		}
	}

	now := time.Now().UTC()
	for _, col := range []string{"created_at", "updated_at"} {
		if f, ok := sch.Field(col); ok && f.Type == schema.FieldTypeTimestamp {
			if _, exists := row[col]; !exists {
				row[col] = now
			}
		}
	}

	converted, err := s.ValidateData(row, sch)
	if err != nil {
		return nil, err
	}

	columns := make([]string, 0, len(converted))
	values := make([]interface{}, 0, len(converted))
	placeholders := make([]string, 0, len(converted))
	for _, field := range sch.Fields {
		if value, exists := converted[field.Name]; exists {
			columns = append(columns, s.quote(field.Name))
			values = append(values, value)
			placeholders = append(placeholders, "?")
		}
	}

	var query string
	if len(columns) == 0 {
		query = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING %s",
			s.quote(tableName), s.quote(pk.Name))
	} else {
		query = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
			s.quote(tableName),
			strings.Join(columns, ", "),
			strings.Join(placeholders, ", "),
			s.quote(pk.Name))
	}

	var id interface{}
	if err := s.db.WithContext(ctx).Raw(query, values...).Row().Scan(&id); err != nil {
		return nil, errors.ErrStorageOperation.WithReason(err.Error())
	}

	return s.Get(ctx, tableName, fromDB(id, pk.Type), nil)
}

func (s *GormDynamicStore) Get(ctx context.Context, tableName string, id interface{}, columns []string) (map[string]interface{}, error) {
	sch, err := s.GetSchema(ctx, tableName)
	if err != nil {
		return nil, err
	}
	pk, _ := sch.PrimaryKey()

	query := s.db.WithContext(ctx).Table(tableName).Where(s.quote(pk.Name)+" = ?", id)
	if len(columns) > 0 {
		if err := checkColumns(sch, columns); err != nil {
			return nil, err
		}
		query = query.Select(columns)
	}

	var results []map[string]interface{}
	if err := query.Limit(1).Find(&results).Error; err != nil {
		return nil, errors.ErrStorageOperation.WithReason(err.Error())
	}
	if len(results) == 0 {
		return nil, errors.ErrNotFound.WithReason(fmt.Sprintf("%s/%v", tableName, id))
	}
	return normalizeRow(results[0], sch), nil
}

func (s *GormDynamicStore) Update(ctx context.Context, tableName string, id interface{}, data map[string]interface{}) error {
	sch, err := s.GetSchema(ctx, tableName)
	if err != nil {
		return err
	}
	pk, _ := sch.PrimaryKey()

	converted := make(map[string]interface{}, len(data))
	for key, value := range data {
		field, ok := sch.Field(key)
		if !ok {
			return errors.ErrUnknownColumn.WithReason(fmt.Sprintf("%s.%s", tableName, key))
		}
		if field.PrimaryKey {
			continue
		}
		convertedValue, err := convertValueToType(value, field.Type)
		if err != nil {
			return errors.ErrInvalidFieldType.WithReason(fmt.Sprintf("field '%s': %v", key, err))
		}
		converted[key] = convertedValue
	}

	query := s.db.WithContext(ctx).Table(tableName).Where(s.quote(pk.Name)+" = ?", id)
	if len(converted) == 0 {
		var n int64
		if err := query.Count(&n).Error; err != nil {
			return errors.ErrStorageOperation.WithReason(err.Error())
		}
		if n == 0 {
			return errors.ErrNotFound.WithReason(fmt.Sprintf("%s/%v", tableName, id))
		}
		return nil
	}

	result := query.Updates(converted)
	if result.Error != nil {
		return errors.ErrStorageOperation.WithReason(result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return errors.ErrNotFound.WithReason(fmt.Sprintf("%s/%v", tableName, id))
	}
	return nil
}

func (s *GormDynamicStore) Delete(ctx context.Context, tableName string, id interface{}) error {
	sch, err := s.GetSchema(ctx, tableName)
	if err != nil {
		return err
	}
	pk, _ := sch.PrimaryKey()

	result := s.db.WithContext(ctx).Table(tableName).Where(s.quote(pk.Name)+" = ?", id).Delete(map[string]interface{}{})
	if result.Error != nil {
		return errors.ErrStorageOperation.WithReason(result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return errors.ErrNotFound.WithReason(fmt.Sprintf("%s/%v", tableName, id))
	}
	return nil
}

func (s *GormDynamicStore) GetMany(ctx context.Context, tableName string, q dynamic.ListQuery) ([]map[string]interface{}, int64, error) {
	sch, err := s.GetSchema(ctx, tableName)
	if err != nil {
		return nil, 0, err
	}

	base, err := s.applyFilters(s.db.WithContext(ctx).Table(tableName), sch, q.Filters)
	if err != nil {
		return nil, 0, err
	}
	base = base.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, errors.ErrStorageOperation.WithReason(err.Error())
	}

	query := base
	if len(q.Columns) > 0 {
		if err := checkColumns(sch, q.Columns); err != nil {
			return nil, 0, err
		}
		query = query.Select(q.Columns)
	}
	for _, srt := range q.Sorts {
		if _, ok := sch.Field(srt.Column); !ok {
			return nil, 0, errors.ErrUnknownColumn.WithReason(srt.Column)
		}
		order := s.quote(srt.Column)
		if srt.Desc {
			order += " DESC"
		}
		query = query.Order(order)
	}

	// 페이징
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	if q.Offset > 0 {
		query = query.Offset(q.Offset)
	}

	var results []map[string]interface{}
	if err := query.Find(&results).Error; err != nil {
		return nil, 0, errors.ErrStorageOperation.WithReason(err.Error())
	}
	for i := range results {
		results[i] = normalizeRow(results[i], sch)
	}
	return results, total, nil
}

func (s *GormDynamicStore) Count(ctx context.Context, tableName string, filters []dynamic.Filter) (int64, error) {
	sch, err := s.GetSchema(ctx, tableName)
	if err != nil {
		return 0, err
	}
	query, err := s.applyFilters(s.db.WithContext(ctx).Table(tableName), sch, filters)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, errors.ErrStorageOperation.WithReason(err.Error())
	}
	return count, nil
}

func (s *GormDynamicStore) applyFilters(query *gorm.DB, sch *schema.EntitySchema, filters []dynamic.Filter) (*gorm.DB, error) {
	for _, f := range filters {
		field, ok := sch.Field(f.Column)
		if !ok {
			return nil, errors.ErrUnknownColumn.WithReason(f.Column)
		}
		col := s.quote(f.Column)
		switch f.Operator {
		case dynamic.OpEquals:
			v, err := convertValueToType(f.Value, field.Type)
			if err != nil {
				return nil, errors.ErrInvalidFieldType.WithReason(fmt.Sprintf("filter '%s': %v", f.Column, err))
			}
			query = query.Where(col+" = ?", v)
		case dynamic.OpIContains:
			pattern := "%" + strings.ToLower(fmt.Sprintf("%v", f.Value)) + "%"
			query = query.Where("LOWER("+col+") LIKE ?", pattern)
		case dynamic.OpIn:
			values, ok := f.Value.([]interface{})
			if !ok {
				return nil, errors.ErrInvalidInput.WithReason(fmt.Sprintf("filter '%s': in expects a list", f.Column))
			}
			query = query.Where(col+" IN ?", values)
		default:
			return nil, errors.ErrInvalidInput.WithReason(fmt.Sprintf("unsupported operator %q", f.Operator))
		}
	}
	return query, nil
}

func (s *GormDynamicStore) GetSchema(ctx context.Context, tableName string) (*schema.EntitySchema, error) {
	var model schema.EntitySchemaModel
	if err := s.db.WithContext(ctx).Where("name = ?", tableName).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUnknownEntity.WithReason(fmt.Sprintf("table %s not found", tableName))
		}
		return nil, errors.ErrStorageOperation.WithReason(err.Error())
	}
	sch, err := schema.FromModel(&model)
	if err != nil {
		return nil, errors.ErrInvalidSchema.WithReason(err.Error())
	}
	return sch, nil
}

// ValidateData checks required columns and converts every known value to
// the column's storage type. Unknown columns are rejected.
func (s *GormDynamicStore) ValidateData(data map[string]interface{}, sch *schema.EntitySchema) (map[string]interface{}, error) {
	converted := make(map[string]interface{}, len(data))
	for key := range data {
		if _, ok := sch.Field(key); !ok {
			return nil, errors.ErrUnknownColumn.WithReason(fmt.Sprintf("%s.%s", sch.Name, key))
		}
	}

	for _, field := range sch.Fields {
		value, exists := data[field.Name]

		if field.Required && !field.PrimaryKey && field.DefaultValue == nil && (!exists || value == nil) {
			return nil, errors.ErrInvalidInput.WithReason(fmt.Sprintf("field '%s' is required", field.Name))
		}
		if !exists {
			continue
		}
		convertedValue, err := convertValueToType(value, field.Type)
		if err != nil {
			return nil, errors.ErrInvalidFieldType.WithReason(fmt.Sprintf("field '%s': %v", field.Name, err))
		}
		converted[field.Name] = convertedValue
	}
	return converted, nil
}

func (s *GormDynamicStore) TransactionWithOptions(ctx context.Context, opts dynamic.TransactionOptions, fn func(tx dynamic.DynamicStore) error) error {
	finalOpts := MergeTransactionOptions(DefaultTransactionOptions(dynamic.DatabaseType(s.dialect())), opts)

	// SQLite 트랜잭션은 항상 SERIALIZABLE이므로 요청된 수준을 그대로 만족한다
	var txOpts *sql.TxOptions
	if s.dialect() != schema.DialectSQLite {
		txOpts = &sql.TxOptions{
			Isolation: sqlIsolation(finalOpts.IsolationLevel),
			ReadOnly:  finalOpts.ReadOnly,
		}
	}

	run := func(tx *gorm.DB) error {
		if finalOpts.ReadOnly && s.dialect() == schema.DialectSQLite {
			if err := tx.Exec("PRAGMA query_only = ON").Error; err != nil {
				return err
			}
			defer tx.Exec("PRAGMA query_only = OFF")
		}
		return fn(&GormDynamicStore{db: tx})
	}

	if txOpts != nil {
		return s.db.WithContext(ctx).Transaction(run, txOpts)
	}
	return s.db.WithContext(ctx).Transaction(run)
}

func DefaultTransactionOptions(dbType dynamic.DatabaseType) dynamic.TransactionOptions {
	level := dynamic.ReadCommitted
	if dbType == dynamic.SQLiteDB {
		level = dynamic.Serializable
	}
	return dynamic.TransactionOptions{
		IsolationLevel: level,
		ReadOnly:       false,
	}
}

func MergeTransactionOptions(defaultOpts, userOpts dynamic.TransactionOptions) dynamic.TransactionOptions {
	return dynamic.TransactionOptions{
		IsolationLevel: func() dynamic.IsolationLevel {
			if userOpts.IsolationLevel != dynamic.IsolationDefault {
				return userOpts.IsolationLevel
			}
			return defaultOpts.IsolationLevel
		}(),
		ReadOnly: userOpts.ReadOnly || defaultOpts.ReadOnly,
	}
}

func sqlIsolation(level dynamic.IsolationLevel) sql.IsolationLevel {
	switch level {
	case dynamic.ReadUncommitted:
		return sql.LevelReadUncommitted
	case dynamic.ReadCommitted:
		return sql.LevelReadCommitted
	case dynamic.RepeatableRead:
		return sql.LevelRepeatableRead
	case dynamic.Serializable:
		return sql.LevelSerializable
	default:
		return sql.LevelDefault
	}
}

func (s *GormDynamicStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func checkColumns(sch *schema.EntitySchema, columns []string) error {
	for _, c := range columns {
		if _, ok := sch.Field(c); !ok {
			return errors.ErrUnknownColumn.WithReason(fmt.Sprintf("%s.%s", sch.Name, c))
		}
	}
	return nil
}
