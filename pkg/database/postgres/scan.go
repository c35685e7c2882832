package postgres

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/jackc/pgx/v5"
)

// 列名到字段索引的映射缓存
var structCache sync.Map // reflect.Type -> map[string]int

// columnIndex 解析结构体的 db tag，未设置 tag 的导出字段使用 snake_case
func columnIndex(t reflect.Type) map[string]int {
	if cached, ok := structCache.Load(t); ok {
		return cached.(map[string]int)
	}

	columns := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name := field.Tag.Get("db")
		if name == "-" {
			continue
		}
		if name == "" {
			name = toSnakeCase(field.Name)
		}
		columns[name] = i
	}

	actual, _ := structCache.LoadOrStore(t, columns)
	return actual.(map[string]int)
}

// scanOne 扫描第一行到 T
func scanOne[T any](rows pgx.Rows) (*T, error) {
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNoRows
	}

	var result T
	if err := scanStruct(rows, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// scanAll 扫描所有行
func scanAll[T any](rows pgx.Rows) ([]*T, error) {
	results := make([]*T, 0)
	for rows.Next() {
		var item T
		if err := scanStruct(rows, &item); err != nil {
			return nil, err
		}
		results = append(results, &item)
	}
	return results, rows.Err()
}

// scanStruct 扫描当前行到结构体指针，结构体中不存在的列被丢弃
func scanStruct(rows pgx.Rows, dest any) error {
	v := reflect.ValueOf(dest)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("dest must be a pointer to struct, got %T", dest)
	}
	v = v.Elem()

	columns := columnIndex(v.Type())
	fields := rows.FieldDescriptions()
	targets := make([]any, len(fields))
	for i, fd := range fields {
		if idx, ok := columns[fd.Name]; ok {
			targets[i] = v.Field(idx).Addr().Interface()
			continue
		}
		var discard any
		targets[i] = &discard
	}

	return rows.Scan(targets...)
}

// scanRowsToSlice 扫描所有行到 *[]*Struct
func scanRowsToSlice(rows pgx.Rows, dest any) error {
	v := reflect.ValueOf(dest)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("dest must be a pointer to slice, got %T", dest)
	}
	v = v.Elem()

	elemType := v.Type().Elem()
	if elemType.Kind() != reflect.Ptr || elemType.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("slice element must be pointer to struct, got %s", elemType)
	}

	for rows.Next() {
		item := reflect.New(elemType.Elem())
		if err := scanStruct(rows, item.Interface()); err != nil {
			return err
		}
		v.Set(reflect.Append(v, item))
	}

	return rows.Err()
}

// toSnakeCase 将驼峰命名转换为蛇形命名，连续大写视为一个缩写（UserID -> user_id, HTTPCode -> http_code）
func toSnakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
