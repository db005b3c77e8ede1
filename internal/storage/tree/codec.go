package tree

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"math"
	"sort"

	"github.com/drakos74/free-data/internal/model"
	"github.com/drakos74/free-data/internal/sparse"
	"github.com/ulikunitz/xz"
	"google.golang.org/protobuf/encoding/protowire"
)

var (
	ErrUnsupported = errors.New("unsupported value")
	ErrCorrupted   = errors.New("corrupted tree")
)

// magic prefixes every encoded tree within the compressed stream.
var magic = []byte("free-data/tree/v1\n")

// noneSentinel is the text content that marks an absent value.
const noneSentinel = "None"

// node field numbers
const (
	fieldName     protowire.Number = 1
	fieldKind     protowire.Number = 2
	fieldText     protowire.Number = 3
	fieldStrings  protowire.Number = 4
	fieldFloats   protowire.Number = 5
	fieldInts     protowire.Number = 6
	fieldChildren protowire.Number = 7
	fieldRows     protowire.Number = 8
	fieldCols     protowire.Number = 9
	fieldDType    protowire.Number = 10
	fieldIndptr   protowire.Number = 11
	fieldIndices  protowire.Number = 12
	fieldStart    protowire.Number = 13
	fieldStop     protowire.Number = 14
)

// Write encodes the group as the root of a tree into the writer.
func Write(w io.Writer, root Group) error {
	b, err := Encode(root)
	if err != nil {
		return err
	}
	zw, err := xz.NewWriter(w)
	if err != nil {
		return fmt.Errorf("could not create compressor: %w", err)
	}
	if _, err := zw.Write(b); err != nil {
		return fmt.Errorf("could not write tree: %w", err)
	}
	return zw.Close()
}

// Read decodes a tree written by Write.
func Read(r io.Reader) (Group, error) {
	zr, err := xz.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("could not decompress tree: %v: %w", err, ErrCorrupted)
	}
	b, err := ioutil.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("could not read tree: %v: %w", err, ErrCorrupted)
	}
	return Decode(b)
}

// Encode encodes the group as the root of a tree.
// Identical trees encode into identical bytes.
func Encode(root Group) ([]byte, error) {
	if root == nil {
		return nil, fmt.Errorf("nil root: %w", ErrUnsupported)
	}
	b := append([]byte{}, magic...)
	return appendGroup(b, "", root)
}

// Decode decodes a tree produced by Encode.
func Decode(b []byte) (Group, error) {
	if !bytes.HasPrefix(b, magic) {
		return nil, fmt.Errorf("missing header: %w", ErrCorrupted)
	}
	_, v, err := decodeNode(b[len(magic):])
	if err != nil {
		return nil, err
	}
	g, ok := v.(Group)
	if !ok {
		return nil, fmt.Errorf("root is a '%s': %w", v.Kind(), ErrCorrupted)
	}
	return g, nil
}

func appendHeader(b []byte, name string, kind Kind) []byte {
	b = protowire.AppendTag(b, fieldName, protowire.BytesType)
	b = protowire.AppendString(b, name)
	b = protowire.AppendTag(b, fieldKind, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(kind))
}

func appendInts(b []byte, num protowire.Number, ii []int) []byte {
	var packed []byte
	for _, i := range ii {
		packed = protowire.AppendVarint(packed, protowire.EncodeZigZag(int64(i)))
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, packed)
}

func appendFloats(b []byte, num protowire.Number, ff []float64) []byte {
	packed := make([]byte, 0, 8*len(ff))
	for _, f := range ff {
		packed = protowire.AppendFixed64(packed, math.Float64bits(f))
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, packed)
}

func appendVarint(b []byte, num protowire.Number, v int) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeZigZag(int64(v)))
}

func appendChild(b []byte, child []byte) []byte {
	b = protowire.AppendTag(b, fieldChildren, protowire.BytesType)
	return protowire.AppendBytes(b, child)
}

func appendGroup(b []byte, name string, g Group) ([]byte, error) {
	b = appendHeader(b, name, GroupKind)
	for _, n := range g.Names() {
		child, err := appendValue(nil, n, g[n])
		if err != nil {
			return nil, err
		}
		b = appendChild(b, child)
	}
	return b, nil
}

func appendValue(b []byte, name string, v Value) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("nil value for '%s': %w", name, ErrUnsupported)
	}
	switch value := v.(type) {
	case None:
		b = appendHeader(b, name, TextKind)
		b = protowire.AppendTag(b, fieldText, protowire.BytesType)
		b = protowire.AppendString(b, noneSentinel)
	case Text:
		b = appendHeader(b, name, TextKind)
		b = protowire.AppendTag(b, fieldText, protowire.BytesType)
		b = protowire.AppendString(b, string(value))
	case Strings:
		b = appendHeader(b, name, StringsKind)
		for _, s := range value {
			b = protowire.AppendTag(b, fieldStrings, protowire.BytesType)
			b = protowire.AppendString(b, s)
		}
	case Floats:
		b = appendHeader(b, name, FloatsKind)
		b = appendFloats(b, fieldFloats, value)
	case Ints:
		b = appendHeader(b, name, IntsKind)
		b = appendInts(b, fieldInts, value)
	case Sparse:
		if value.Matrix == nil {
			return nil, fmt.Errorf("nil matrix for '%s': %w", name, ErrUnsupported)
		}
		m := value.Matrix
		rows, cols := m.Dims()
		b = appendHeader(b, name, SparseKind)
		b = appendVarint(b, fieldRows, rows)
		b = appendVarint(b, fieldCols, cols)
		b = protowire.AppendTag(b, fieldDType, protowire.BytesType)
		b = protowire.AppendString(b, string(m.DType))
		b = appendInts(b, fieldIndptr, m.Indptr())
		b = appendInts(b, fieldIndices, m.Indices())
		b = appendFloats(b, fieldFloats, m.Data())
	case Split:
		b = appendHeader(b, name, SplitKind)
		subsets := make([]string, 0, len(value))
		for subset := range value {
			subsets = append(subsets, subset)
		}
		sort.Strings(subsets)
		for _, subset := range subsets {
			r := value[subset]
			child := appendHeader(nil, subset, SplitKind)
			child = appendVarint(child, fieldStart, r.Start)
			child = appendVarint(child, fieldStop, r.Stop)
			b = appendChild(b, child)
		}
	case Group:
		if !isGroupName(name) {
			return nil, fmt.Errorf("group name '%s' does not end with '%s': %w", name, GroupSuffix, ErrUnsupported)
		}
		return appendGroup(b, name, value)
	default:
		return nil, fmt.Errorf("value of type %T for '%s': %w", v, name, ErrUnsupported)
	}
	return b, nil
}

// node is the raw content of a decoded node.
type node struct {
	name     string
	kind     Kind
	text     *string
	strings  []string
	floats   []float64
	ints     []int
	children [][]byte
	rows     int
	cols     int
	dtype    string
	indptr   []int
	indices  []int
	start    int
	stop     int
}

func consumeInts(b []byte) ([]int, error) {
	ii := make([]int, 0)
	for len(b) > 0 {
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		ii = append(ii, int(protowire.DecodeZigZag(v)))
		b = b[n:]
	}
	return ii, nil
}

func consumeFloats(b []byte) ([]float64, error) {
	ff := make([]float64, 0, len(b)/8)
	for len(b) > 0 {
		v, n := protowire.ConsumeFixed64(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		ff = append(ff, math.Float64frombits(v))
		b = b[n:]
	}
	return ff, nil
}

func parseNode(b []byte) (node, error) {
	var nd node
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nd, fmt.Errorf("invalid tag: %v: %w", protowire.ParseError(n), ErrCorrupted)
		}
		b = b[n:]
		var err error
		switch typ {
		case protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return nd, fmt.Errorf("invalid varint: %v: %w", protowire.ParseError(m), ErrCorrupted)
			}
			n = m
			switch num {
			case fieldKind:
				nd.kind = Kind(v)
			case fieldRows:
				nd.rows = int(protowire.DecodeZigZag(v))
			case fieldCols:
				nd.cols = int(protowire.DecodeZigZag(v))
			case fieldStart:
				nd.start = int(protowire.DecodeZigZag(v))
			case fieldStop:
				nd.stop = int(protowire.DecodeZigZag(v))
			}
		case protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return nd, fmt.Errorf("invalid bytes: %v: %w", protowire.ParseError(m), ErrCorrupted)
			}
			n = m
			switch num {
			case fieldName:
				nd.name = string(v)
			case fieldText:
				s := string(v)
				nd.text = &s
			case fieldStrings:
				nd.strings = append(nd.strings, string(v))
			case fieldFloats:
				nd.floats, err = consumeFloats(v)
			case fieldInts:
				nd.ints, err = consumeInts(v)
			case fieldChildren:
				nd.children = append(nd.children, v)
			case fieldDType:
				nd.dtype = string(v)
			case fieldIndptr:
				nd.indptr, err = consumeInts(v)
			case fieldIndices:
				nd.indices, err = consumeInts(v)
			}
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nd, fmt.Errorf("invalid field %d: %v: %w", num, protowire.ParseError(n), ErrCorrupted)
			}
		}
		if err != nil {
			return nd, fmt.Errorf("invalid packed field %d: %v: %w", num, err, ErrCorrupted)
		}
		b = b[n:]
	}
	return nd, nil
}

func decodeNode(b []byte) (string, Value, error) {
	nd, err := parseNode(b)
	if err != nil {
		return "", nil, err
	}
	switch nd.kind {
	case TextKind:
		if nd.text == nil {
			return "", nil, fmt.Errorf("text node '%s' without content: %w", nd.name, ErrCorrupted)
		}
		if *nd.text == noneSentinel {
			return nd.name, None{}, nil
		}
		return nd.name, Text(*nd.text), nil
	case StringsKind:
		ss := make([]string, len(nd.strings))
		copy(ss, nd.strings)
		return nd.name, Strings(ss), nil
	case FloatsKind:
		if nd.floats == nil {
			nd.floats = []float64{}
		}
		return nd.name, Floats(nd.floats), nil
	case IntsKind:
		if nd.ints == nil {
			nd.ints = []int{}
		}
		return nd.name, Ints(nd.ints), nil
	case SparseKind:
		if nd.indptr == nil {
			nd.indptr = []int{}
		}
		if nd.indices == nil {
			nd.indices = []int{}
		}
		if nd.floats == nil {
			nd.floats = []float64{}
		}
		m, err := sparse.New(nd.rows, nd.cols, nd.indptr, nd.indices, nd.floats, sparse.DType(nd.dtype))
		if err != nil {
			return "", nil, fmt.Errorf("invalid matrix '%s': %v: %w", nd.name, err, ErrCorrupted)
		}
		return nd.name, Sparse{Matrix: m}, nil
	case SplitKind:
		split := make(Split, len(nd.children))
		for _, c := range nd.children {
			child, err := parseNode(c)
			if err != nil {
				return "", nil, err
			}
			split[child.name] = model.Range{Start: child.start, Stop: child.stop}
		}
		return nd.name, split, nil
	case GroupKind:
		g := make(Group, len(nd.children))
		for _, c := range nd.children {
			name, v, err := decodeNode(c)
			if err != nil {
				return "", nil, err
			}
			g[name] = v
		}
		return nd.name, g, nil
	}
	return "", nil, fmt.Errorf("node '%s' of kind %d: %w", nd.name, nd.kind, ErrUnsupported)
}
