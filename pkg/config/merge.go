package config

import (
	"fmt"
	"reflect"
)

// MergeConfig 将 src 中的非零值覆盖到 dst（通常是 DefaultConfig()）
// src 的零值字段不会覆盖 dst，因此 bool 字段只能从 false 改为 true
func MergeConfig[T any](dst, src *T) (*T, error) {
	if dst == nil && src == nil {
		return nil, ErrBothNil
	}
	if dst == nil {
		return src, nil
	}
	if src == nil {
		return dst, nil
	}

	dstValue := reflect.ValueOf(dst).Elem()
	srcValue := reflect.ValueOf(src).Elem()

	if err := mergeValues(dstValue, srcValue); err != nil {
		return nil, err
	}

	return dst, nil
}

// mergeValues 递归合并两个 reflect.Value
func mergeValues(dst, src reflect.Value) error {
	// 如果 src 是零值，不进行覆盖
	if !src.IsValid() || isZeroValue(src) {
		return nil
	}

	switch dst.Kind() {
	case reflect.Struct:
		if !hasExportedField(dst.Type()) {
			// time.Time 这类不透明结构体整体覆盖
			dst.Set(src)
			return nil
		}
		return mergeStruct(dst, src)
	case reflect.Map:
		return mergeMap(dst, src)
	case reflect.Slice:
		return mergeSlice(dst, src)
	case reflect.Ptr:
		return mergePointer(dst, src)
	default:
		// 基本类型直接覆盖
		if dst.CanSet() {
			dst.Set(src)
		}
		return nil
	}
}

// mergeStruct 合并结构体
func mergeStruct(dst, src reflect.Value) error {
	if src.Kind() != reflect.Struct {
		return fmt.Errorf("src is not a struct")
	}

	srcType := src.Type()
	for i := 0; i < src.NumField(); i++ {
		srcField := src.Field(i)
		fieldType := srcType.Field(i)

		if !fieldType.IsExported() {
			continue
		}

		dstField := dst.FieldByName(fieldType.Name)
		if !dstField.IsValid() || !dstField.CanSet() {
			continue
		}

		// 递归合并字段
		if err := mergeValues(dstField, srcField); err != nil {
			return fmt.Errorf("failed to merge field %s: %w", fieldType.Name, err)
		}
	}

	return nil
}

func hasExportedField(t reflect.Type) bool {
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).IsExported() {
			return true
		}
	}
	return false
}

// mergeMap 合并 map
func mergeMap(dst, src reflect.Value) error {
	if src.Kind() != reflect.Map {
		return fmt.Errorf("src is not a map")
	}

	if dst.IsNil() {
		dst.Set(reflect.MakeMap(dst.Type()))
	}

	// 遍历 src 的所有键值对
	iter := src.MapRange()
	for iter.Next() {
		key := iter.Key()
		srcValue := iter.Value()

		// 获取 dst 中对应的值
		dstValue := dst.MapIndex(key)

		if dstValue.IsValid() {
			// 如果 dst 中已存在该 key，递归合并
			newValue := reflect.New(dst.Type().Elem()).Elem()
			newValue.Set(dstValue)

			if err := mergeValues(newValue, srcValue); err != nil {
				return err
			}

			dst.SetMapIndex(key, newValue)
		} else {
			// 如果 dst 中不存在该 key，直接设置
			dst.SetMapIndex(key, srcValue)
		}
	}

	return nil
}

// mergeSlice 合并切片（src 覆盖 dst）
func mergeSlice(dst, src reflect.Value) error {
	if src.Kind() != reflect.Slice {
		return fmt.Errorf("src is not a slice")
	}

	// 切片直接覆盖（不做元素级合并）
	if dst.CanSet() {
		dst.Set(src)
	}

	return nil
}

// mergePointer 合并指针
func mergePointer(dst, src reflect.Value) error {
	if src.Kind() != reflect.Ptr {
		return fmt.Errorf("src is not a pointer")
	}

	if src.IsNil() {
		return nil
	}

	if dst.IsNil() {
		// 创建新的实例
		dst.Set(reflect.New(dst.Type().Elem()))
	}

	// 递归合并指针指向的值
	return mergeValues(dst.Elem(), src.Elem())
}

// isZeroValue 检查是否为零值
func isZeroValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.String:
		return v.String() == ""
	case reflect.Ptr, reflect.Interface, reflect.Func:
		return v.IsNil()
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	case reflect.Struct:
		// 结构体需要检查所有字段
		zero := reflect.Zero(v.Type()).Interface()
		return reflect.DeepEqual(v.Interface(), zero)
	default:
		return false
	}
}
