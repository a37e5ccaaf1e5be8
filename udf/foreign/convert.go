package foreign

import (
	"fmt"

	"github.com/orion-udf/core/envelope"
	"github.com/orion-udf/core/errs"
)

// toValue converts a msgpack-decoded Go value (the subset msgpack produces
// for maps: nil, bool, integers, floats, string, []interface{},
// map[string]interface{}) into an envelope.Value.
func toValue(v interface{}) (envelope.Value, error) {
	switch t := v.(type) {
	case nil:
		return envelope.NullValue(), nil
	case bool:
		return envelope.BoolValue(t), nil
	case string:
		return envelope.StringValue(t), nil
	case float64:
		if t == float64(int64(t)) {
			return envelope.IntValue(int64(t)), nil
		}
		return envelope.FloatValue(t), nil
	case float32:
		return envelope.FloatValue(float64(t)), nil
	case int:
		return envelope.IntValue(int64(t)), nil
	case int8:
		return envelope.IntValue(int64(t)), nil
	case int16:
		return envelope.IntValue(int64(t)), nil
	case int32:
		return envelope.IntValue(int64(t)), nil
	case int64:
		return envelope.IntValue(t), nil
	case uint8:
		return envelope.IntValue(int64(t)), nil
	case uint16:
		return envelope.IntValue(int64(t)), nil
	case uint32:
		return envelope.IntValue(int64(t)), nil
	case uint64:
		return envelope.IntValue(int64(t)), nil
	case []interface{}:
		arr := make(envelope.Array, 0, len(t))
		for _, sub := range t {
			val, err := toValue(sub)
			if err != nil {
				return envelope.Value{}, err
			}
			arr = append(arr, val)
		}
		return envelope.ArrayValue(arr), nil
	case map[string]interface{}:
		obj := envelope.Object{}
		for k, sub := range t {
			val, err := toValue(sub)
			if err != nil {
				return envelope.Value{}, err
			}
			obj[k] = val
		}
		return envelope.ObjectValue(obj), nil
	default:
		return envelope.Value{}, errs.New(errs.DecodeFailed, fmt.Sprintf("unsupported foreign udf meta value type %T", v), nil)
	}
}
