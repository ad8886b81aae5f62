package skema

// UnknownPolicy controls how object keys without a declared property are handled.
type UnknownPolicy int

const (
	UnknownPassthrough UnknownPolicy = iota // Copy unknown keys into the output unchanged.
	UnknownStrict                           // Reject unknown keys with an issue.
	UnknownStrip                            // Drop unknown keys.
)

func (p UnknownPolicy) String() string {
	switch p {
	case UnknownStrict:
		return "strict"
	case UnknownStrip:
		return "strip"
	default:
		return "passthrough"
	}
}

// DataType selects the plugin tables that apply to a schema.
type DataType string

const (
	DataString  DataType = "string"
	DataNumber  DataType = "number"
	DataBoolean DataType = "boolean"
	DataDate    DataType = "date"
	DataObject  DataType = "object"
	DataArray   DataType = "array"
	DataSet     DataType = "set"
	DataMap     DataType = "map"
	DataTuple   DataType = "tuple"
	DataAny     DataType = "any"
	DataUnion   DataType = "union"
	DataSwitch  DataType = "switch"
	DataLazy    DataType = "lazy"
)

type undefined struct{}

func (undefined) String() string { return "undefined" }

// Undefined is the absent sentinel, distinct from nil (null).
var Undefined any = undefined{}

// IsUndefined reports whether v is the absent sentinel.
func IsUndefined(v any) bool {
	_, ok := v.(undefined)
	return ok
}
