// Package onnx reads the parts of an ONNX ModelProto needed to confirm an
// export: IR version, producer, operator-set imports, and graph input and
// output signatures. Weights and nodes are skipped without being decoded.
package onnx

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers from onnx.proto.
const (
	modelIRVersion       protowire.Number = 1
	modelProducerName    protowire.Number = 2
	modelProducerVersion protowire.Number = 3
	modelGraph           protowire.Number = 7
	modelOpsetImport     protowire.Number = 8

	opsetDomain  protowire.Number = 1
	opsetVersion protowire.Number = 2

	graphName   protowire.Number = 2
	graphInput  protowire.Number = 11
	graphOutput protowire.Number = 12

	valueInfoName protowire.Number = 1
	valueInfoType protowire.Number = 2

	typeTensor protowire.Number = 1

	tensorElemType protowire.Number = 1
	tensorShape    protowire.Number = 2

	shapeDim protowire.Number = 1

	dimValue protowire.Number = 1
	dimParam protowire.Number = 2
)

// ErrEmpty is returned for zero-length input.
var ErrEmpty = errors.New("onnx: empty model")

// OpsetID is one operator-set import.
type OpsetID struct {
	Domain  string `json:"domain" yaml:"domain"`
	Version int64  `json:"version" yaml:"version"`
}

// Dim is one tensor dimension. Exactly one of Value or Param is normally set;
// neither set means the dimension is unknown.
type Dim struct {
	Value int64  `json:"value,omitempty" yaml:"value,omitempty"`
	Param string `json:"param,omitempty" yaml:"param,omitempty"`
}

// Symbolic reports whether the dimension is not fixed to a concrete size.
func (d Dim) Symbolic() bool { return d.Value <= 0 }

func (d Dim) String() string {
	switch {
	case d.Param != "":
		return d.Param
	case d.Value > 0:
		return strconv.FormatInt(d.Value, 10)
	default:
		return "?"
	}
}

// Tensor is a graph input or output signature.
type Tensor struct {
	Name     string `json:"name" yaml:"name"`
	ElemType int32  `json:"elem_type" yaml:"elem_type"`
	Dims     []Dim  `json:"dims" yaml:"dims"`
}

// Dynamic reports whether any dimension is symbolic.
func (t Tensor) Dynamic() bool {
	for _, d := range t.Dims {
		if d.Symbolic() {
			return true
		}
	}
	return false
}

// Shape renders the dims as "[batch 3 height width]".
func (t Tensor) Shape() string {
	parts := make([]string, len(t.Dims))
	for i, d := range t.Dims {
		parts[i] = d.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Model is the decoded header of an ONNX file.
type Model struct {
	IRVersion       int64     `json:"ir_version" yaml:"ir_version"`
	ProducerName    string    `json:"producer_name" yaml:"producer_name"`
	ProducerVersion string    `json:"producer_version" yaml:"producer_version"`
	GraphName       string    `json:"graph_name" yaml:"graph_name"`
	Opsets          []OpsetID `json:"opsets" yaml:"opsets"`
	Inputs          []Tensor  `json:"inputs" yaml:"inputs"`
	Outputs         []Tensor  `json:"outputs" yaml:"outputs"`
}

// Opset returns the imported version for domain. The default domain may be
// given as "" or "ai.onnx".
func (m *Model) Opset(domain string) (int64, bool) {
	if domain == "ai.onnx" {
		domain = ""
	}
	for _, o := range m.Opsets {
		d := o.Domain
		if d == "ai.onnx" {
			d = ""
		}
		if d == domain {
			return o.Version, true
		}
	}
	return 0, false
}

// Inspect reads and parses the ONNX file at path.
func Inspect(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes a serialized ModelProto.
func Parse(data []byte) (*Model, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	m := &Model{}
	err := walk(data, func(num protowire.Number, typ protowire.Type, v []byte, x uint64) error {
		switch {
		case num == modelIRVersion && typ == protowire.VarintType:
			m.IRVersion = int64(x)
		case num == modelProducerName && typ == protowire.BytesType:
			m.ProducerName = string(v)
		case num == modelProducerVersion && typ == protowire.BytesType:
			m.ProducerVersion = string(v)
		case num == modelOpsetImport && typ == protowire.BytesType:
			o, err := parseOpset(v)
			if err != nil {
				return fmt.Errorf("opset_import: %w", err)
			}
			m.Opsets = append(m.Opsets, o)
		case num == modelGraph && typ == protowire.BytesType:
			if err := parseGraph(v, m); err != nil {
				return fmt.Errorf("graph: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func parseOpset(b []byte) (OpsetID, error) {
	var o OpsetID
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte, x uint64) error {
		switch {
		case num == opsetDomain && typ == protowire.BytesType:
			o.Domain = string(v)
		case num == opsetVersion && typ == protowire.VarintType:
			o.Version = int64(x)
		}
		return nil
	})
	return o, err
}

func parseGraph(b []byte, m *Model) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, v []byte, _ uint64) error {
		if typ != protowire.BytesType {
			return nil
		}
		switch num {
		case graphName:
			m.GraphName = string(v)
		case graphInput, graphOutput:
			t, err := parseValueInfo(v)
			if err != nil {
				return err
			}
			if num == graphInput {
				m.Inputs = append(m.Inputs, t)
			} else {
				m.Outputs = append(m.Outputs, t)
			}
		}
		return nil
	})
}

func parseValueInfo(b []byte) (Tensor, error) {
	var t Tensor
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte, _ uint64) error {
		if typ != protowire.BytesType {
			return nil
		}
		switch num {
		case valueInfoName:
			t.Name = string(v)
		case valueInfoType:
			return walk(v, func(num protowire.Number, typ protowire.Type, v []byte, _ uint64) error {
				if num == typeTensor && typ == protowire.BytesType {
					return parseTensorType(v, &t)
				}
				return nil
			})
		}
		return nil
	})
	return t, err
}

func parseTensorType(b []byte, t *Tensor) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, v []byte, x uint64) error {
		switch {
		case num == tensorElemType && typ == protowire.VarintType:
			t.ElemType = int32(x)
		case num == tensorShape && typ == protowire.BytesType:
			return walk(v, func(num protowire.Number, typ protowire.Type, v []byte, _ uint64) error {
				if num != shapeDim || typ != protowire.BytesType {
					return nil
				}
				d, err := parseDim(v)
				if err != nil {
					return err
				}
				t.Dims = append(t.Dims, d)
				return nil
			})
		}
		return nil
	})
}

func parseDim(b []byte) (Dim, error) {
	var d Dim
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte, x uint64) error {
		switch {
		case num == dimValue && typ == protowire.VarintType:
			d.Value = int64(x)
		case num == dimParam && typ == protowire.BytesType:
			d.Param = string(v)
		}
		return nil
	})
	return d, err
}

// walk calls fn for each top-level field of a serialized message. Varint
// fields pass their value in x, length-delimited fields in v. Other wire types
// are skipped.
func walk(b []byte, fn func(num protowire.Number, typ protowire.Type, v []byte, x uint64) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		switch typ {
		case protowire.VarintType:
			x, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
			if err := fn(num, typ, nil, x); err != nil {
				return err
			}
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
			if err := fn(num, typ, v, 0); err != nil {
				return err
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return nil
}

var elemTypeNames = map[int32]string{
	1:  "float32",
	2:  "uint8",
	3:  "int8",
	6:  "int32",
	7:  "int64",
	9:  "bool",
	10: "float16",
	11: "float64",
	16: "bfloat16",
}

// ElemTypeName returns a readable name for an ONNX TensorProto data type.
func ElemTypeName(t int32) string {
	if n, ok := elemTypeNames[t]; ok {
		return n
	}
	return "type(" + strconv.Itoa(int(t)) + ")"
}
