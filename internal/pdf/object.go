package pdf

// Kind identifies the kind of a PDF object.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindReal
	KindString
	KindName
	KindArray
	KindDict
	KindStream
	KindRef
	// KindKeyword is only produced when lexing content streams (operators).
	KindKeyword
)

// Object holds any PDF object value.
type Object struct {
	Kind    Kind
	Bool    bool
	Int     int64
	Real    float64
	Str     []byte
	Name    string
	Array   []*Object
	Dict    Dict
	Stream  []byte // raw, still-encoded stream data
	Ref     Ref
	Keyword string
}

// Ref is an indirect object reference (N G R).
type Ref struct {
	Num int
	Gen int
}

// Dict is a PDF dictionary (name -> object).
type Dict map[string]*Object

var nullObject = &Object{Kind: KindNull}

// IsNull reports whether o is nil or the null object.
func (o *Object) IsNull() bool {
	return o == nil || o.Kind == KindNull
}

// Number returns the numeric value of o and whether it was a number.
func (o *Object) Number() (float64, bool) {
	if o == nil {
		return 0, false
	}
	switch o.Kind {
	case KindInt:
		return float64(o.Int), true
	case KindReal:
		return o.Real, true
	}
	return 0, false
}

// Float returns the numeric value of o, or 0.
func (o *Object) Float() float64 {
	f, _ := o.Number()
	return f
}

// IsDictLike reports whether o carries a dictionary (dict or stream).
func (o *Object) IsDictLike() bool {
	return o != nil && (o.Kind == KindDict || o.Kind == KindStream)
}

// Int returns the integer value of a Dict entry.
func (d Dict) Int(key string) (int64, bool) {
	obj, ok := d[key]
	if !ok {
		return 0, false
	}
	switch obj.Kind {
	case KindInt:
		return obj.Int, true
	case KindReal:
		return int64(obj.Real), true
	}
	return 0, false
}

// Float returns the numeric value of a Dict entry.
func (d Dict) Float(key string) (float64, bool) {
	obj, ok := d[key]
	if !ok {
		return 0, false
	}
	return obj.Number()
}

// Name returns the name value of a Dict entry. Strings are accepted too, since
// some producers write names as strings.
func (d Dict) Name(key string) (string, bool) {
	obj, ok := d[key]
	if !ok {
		return "", false
	}
	switch obj.Kind {
	case KindName:
		return obj.Name, true
	case KindString:
		return string(obj.Str), true
	}
	return "", false
}

// Array returns the array value of a Dict entry. A single object is treated as
// a one-element array.
func (d Dict) Array(key string) ([]*Object, bool) {
	obj, ok := d[key]
	if !ok {
		return nil, false
	}
	if obj.Kind == KindArray {
		return obj.Array, true
	}
	return []*Object{obj}, true
}

// Sub returns the dictionary value of a Dict entry.
func (d Dict) Sub(key string) (Dict, bool) {
	obj, ok := d[key]
	if !ok || !obj.IsDictLike() {
		return nil, false
	}
	return obj.Dict, true
}
