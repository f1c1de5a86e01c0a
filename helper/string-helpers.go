package helper

import (
	"encoding/csv"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/cevaris/ordered_map"
)

// CsvToStringSliceTrimSpaces converts a string of the form, 'f1, f2, f3, ...' into a slice of string values.
// Quoted values may contain commas. Empty values are kept so "a,,b" gives three values.
func CsvToStringSliceTrimSpaces(s string) (retval []string, err error) {
	c := csv.NewReader(strings.NewReader(s))
	c.FieldsPerRecord = -1
	all, err := c.ReadAll()
	if err != nil {
		return nil, err
	}
	for _, rec := range all { // for each line in the CSV...
		for _, val := range rec {
			retval = append(retval, strings.TrimSpace(val)) // save all values.
		}
	}
	return retval, nil
}

// StringSliceToOrderedMap adds each value in s to an ordered map with key and value set to the value in s.
func StringSliceToOrderedMap(s []string) *ordered_map.OrderedMap {
	retval := ordered_map.NewOrderedMap()
	for _, v := range s {
		retval.Set(v, v)
	}
	return retval
}

// OrderedMapToTokens converts the supplied ordered map to a CSV of key:value,key:value,...
// All keys and values are expected to be of type string.
func OrderedMapToTokens(om *ordered_map.OrderedMap) string {
	b := strings.Builder{}
	iter := om.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		b.WriteString(fmt.Sprintf(",%v:%v", kv.Key, kv.Value))
	}
	return strings.TrimLeft(b.String(), ",")
}

// GetStringFromInterface will convert interface{} value to a string.
// Times are formatted using timeLayout.
// Nil values become the empty string.
func GetStringFromInterface(input interface{}, timeLayout string) (retval string, err error) {
	switch v := input.(type) {
	case int, int16, int32, int64, int8, uint8:
		retval = fmt.Sprintf("%d", v)
	case string:
		retval = v
	case float32:
		retval = strconv.FormatFloat(float64(v), 'f', -1, 32) // use 'f' to convert float to string without an exponent i.e. preserve all decimal points.
	case float64:
		retval = strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		retval = v.Format(timeLayout)
	case []uint8:
		retval = string(v)
	case bool:
		retval = fmt.Sprintf("%v", v)
	case nil:
		retval = ""
	default:
		err = fmt.Errorf("unhandled type while fetching string from interface: type = %v; value = %v", reflect.TypeOf(input), input)
	}
	return
}

// SplitRight splits s at the last occurrence of c.
// If c is not found, return s, "".
func SplitRight(s string, c string) (string, string) {
	i := strings.LastIndex(s, c)
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i+len(c):]
}
