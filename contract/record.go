package contract

import (
	"fmt"
	"math/big"
	"reflect"

	"github.com/disiqueira/gotree" // lib for print tree structure in terminal
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

type Field struct {
	Name  string
	Value interface{}
}

// Record is the decoded result of a read-only call, fields in ABI order.
type Record struct {
	Title  string
	Fields []Field
}

// NewRecord names values after outputs. A single tuple output is flattened
// into its components.
func NewRecord(title string, outputs abi.Arguments, values []interface{}) Record {
	r := Record{Title: title}
	if len(outputs) == 1 && outputs[0].Type.T == abi.TupleTy && len(values) == 1 {
		v := reflect.ValueOf(values[0])
		for v.Kind() == reflect.Ptr {
			v = v.Elem()
		}
		if v.Kind() == reflect.Struct {
			names := outputs[0].Type.TupleRawNames
			for i := 0; i < v.NumField(); i++ {
				name := v.Type().Field(i).Name
				if i < len(names) && names[i] != "" {
					name = names[i]
				}
				r.Fields = append(r.Fields, Field{Name: name, Value: v.Field(i).Interface()})
			}
			return r
		}
	}

	for i, value := range values {
		name := fmt.Sprintf("out%d", i)
		if i < len(outputs) && outputs[i].Name != "" {
			name = outputs[i].Name
		}
		r.Fields = append(r.Fields, Field{Name: name, Value: value})
	}
	return r
}

// Get returns the field called name.
func (r Record) Get(name string) (interface{}, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Bool returns the boolean field called name, false when absent.
func (r Record) Bool(name string) bool {
	v, ok := r.Get(name)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

func (r Record) String() string {
	root := gotree.New(r.Title)
	for _, f := range r.Fields {
		root.Add(fmt.Sprintf("%s: %s", f.Name, formatValue(f.Value)))
	}
	return root.Print()
}

func formatValue(v interface{}) string {
	switch t := v.(type) {
	case common.Address:
		return t.Hex()
	case *big.Int:
		return t.String()
	case []byte:
		return fmt.Sprintf("0x%x", t)
	case [32]byte:
		return common.Hash(t).Hex()
	case string:
		return fmt.Sprintf("%q", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
