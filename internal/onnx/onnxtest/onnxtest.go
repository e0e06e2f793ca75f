// Package onnxtest encodes small ONNX model headers for tests.
package onnxtest

import (
	"os"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/pdiddy/model-export/internal/onnx"
)

// Encode serializes the header fields of m as an onnx.ModelProto, with a
// dummy node so the graph carries something besides signatures.
func Encode(m onnx.Model) []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.IRVersion))
	b = appendString(b, 2, m.ProducerName)
	b = appendString(b, 3, m.ProducerVersion)

	var g []byte
	g = appendMessage(g, 1, appendString(nil, 4, "Conv"))
	g = appendString(g, 2, m.GraphName)
	for _, t := range m.Inputs {
		g = appendMessage(g, 11, encodeTensor(t))
	}
	for _, t := range m.Outputs {
		g = appendMessage(g, 12, encodeTensor(t))
	}
	b = appendMessage(b, 7, g)

	for _, o := range m.Opsets {
		var ob []byte
		ob = appendString(ob, 1, o.Domain)
		ob = protowire.AppendTag(ob, 2, protowire.VarintType)
		ob = protowire.AppendVarint(ob, uint64(o.Version))
		b = appendMessage(b, 8, ob)
	}
	return b
}

// YOLO returns a detector header like the exporter writes: one float32
// "images" input of 3 channels and a single opset import.
func YOLO(opset int64, dynamic bool, imgsz int64) onnx.Model {
	in := []onnx.Dim{{Value: 1}, {Value: 3}, {Value: imgsz}, {Value: imgsz}}
	out := []onnx.Dim{{Value: 1}, {Value: 84}, {Value: 8400}}
	if dynamic {
		in = []onnx.Dim{{Param: "batch"}, {Value: 3}, {Param: "height"}, {Param: "width"}}
		out = []onnx.Dim{{Param: "batch"}, {Value: 84}, {Param: "anchors"}}
	}
	return onnx.Model{
		IRVersion:       7,
		ProducerName:    "pytorch",
		ProducerVersion: "2.3.0",
		GraphName:       "main_graph",
		Opsets:          []onnx.OpsetID{{Version: opset}},
		Inputs:          []onnx.Tensor{{Name: "images", ElemType: 1, Dims: in}},
		Outputs:         []onnx.Tensor{{Name: "output0", ElemType: 1, Dims: out}},
	}
}

// WriteFile encodes m to path, failing the test on error.
func WriteFile(t testing.TB, path string, m onnx.Model) {
	t.Helper()
	if err := os.WriteFile(path, Encode(m), 0o644); err != nil {
		t.Fatal(err)
	}
}

func encodeTensor(t onnx.Tensor) []byte {
	var shape []byte
	for _, d := range t.Dims {
		var db []byte
		if d.Param != "" {
			db = appendString(db, 2, d.Param)
		} else if d.Value > 0 {
			db = protowire.AppendTag(db, 1, protowire.VarintType)
			db = protowire.AppendVarint(db, uint64(d.Value))
		}
		shape = appendMessage(shape, 1, db)
	}

	var tt []byte
	tt = protowire.AppendTag(tt, 1, protowire.VarintType)
	tt = protowire.AppendVarint(tt, uint64(t.ElemType))
	tt = appendMessage(tt, 2, shape)

	var vi []byte
	vi = appendString(vi, 1, t.Name)
	vi = appendMessage(vi, 2, appendMessage(nil, 1, tt))
	return vi
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendMessage(b []byte, num protowire.Number, m []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, m)
}
