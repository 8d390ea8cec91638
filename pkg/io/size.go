package io

import (
	"fmt"
	"reflect"
)

// GetVarIntSize returns the size in number of bytes of a variable integer.
func GetVarIntSize(value int) int {
	var size uintptr

	if value < 0xFD {
		size = 1 // unit8
	} else if value <= 0xFFFF {
		size = 3 // byte + uint16
	} else {
		size = 5 // byte + uint32
	}
	return int(size)
}

// GetVarStringSize returns the size of a variable string.
func GetVarStringSize(value string) int {
	valueSize := len(value)
	return GetVarIntSize(valueSize) + valueSize
}

// GetVarSize returns the number of bytes in a serialized variable. It
// supports strings, integers and slices/arrays of fixed-size integers.
// It's the byte-sizing primitive used for tree statistics.
func GetVarSize(value any) int {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.String:
		return GetVarStringSize(v.String())
	case reflect.Int,
		reflect.Int8,
		reflect.Int16,
		reflect.Int32,
		reflect.Int64:
		return GetVarIntSize(int(v.Int()))
	case reflect.Uint,
		reflect.Uint8,
		reflect.Uint16,
		reflect.Uint32,
		reflect.Uint64:
		return GetVarIntSize(int(v.Uint()))
	case reflect.Slice, reflect.Array:
		valueLength := v.Len()
		valueSize := 0

		if valueLength != 0 {
			switch v.Type().Elem().Kind() {
			case reflect.Uint8, reflect.Int8:
				valueSize = valueLength
			case reflect.Uint16, reflect.Int16:
				valueSize = valueLength * 2
			case reflect.Uint32, reflect.Int32:
				valueSize = valueLength * 4
			case reflect.Uint64, reflect.Int64:
				valueSize = valueLength * 8
			default:
				panic(fmt.Sprintf("unable to calculate GetVarSize for an array of %s", v.Type().Elem()))
			}
		}
		if v.Kind() == reflect.Array {
			return valueSize
		}
		return GetVarIntSize(valueLength) + valueSize
	default:
		panic(fmt.Sprintf("unable to calculate GetVarSize, %s", reflect.TypeOf(value)))
	}
}
