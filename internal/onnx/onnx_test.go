package onnx_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/pdiddy/model-export/internal/onnx"
	"github.com/pdiddy/model-export/internal/onnx/onnxtest"
)

func TestParseDynamicExport(t *testing.T) {
	m, err := onnx.Parse(onnxtest.Encode(onnxtest.YOLO(12, true, 640)))
	require.NoError(t, err)

	assert.Equal(t, int64(7), m.IRVersion)
	assert.Equal(t, "pytorch", m.ProducerName)
	assert.Equal(t, "2.3.0", m.ProducerVersion)
	assert.Equal(t, "main_graph", m.GraphName)

	v, ok := m.Opset("")
	require.True(t, ok)
	assert.Equal(t, int64(12), v)

	require.Len(t, m.Inputs, 1)
	in := m.Inputs[0]
	assert.Equal(t, "images", in.Name)
	assert.Equal(t, "float32", onnx.ElemTypeName(in.ElemType))
	assert.True(t, in.Dynamic())
	assert.Equal(t, "[batch 3 height width]", in.Shape())

	require.Len(t, m.Outputs, 1)
	assert.Equal(t, "output0", m.Outputs[0].Name)
}

func TestParseStaticExport(t *testing.T) {
	m, err := onnx.Parse(onnxtest.Encode(onnxtest.YOLO(17, false, 320)))
	require.NoError(t, err)

	require.Len(t, m.Inputs, 1)
	assert.False(t, m.Inputs[0].Dynamic())
	assert.Equal(t, "[1 3 320 320]", m.Inputs[0].Shape())

	v, ok := m.Opset("ai.onnx")
	require.True(t, ok)
	assert.Equal(t, int64(17), v)
}

func TestOpsetDomains(t *testing.T) {
	m := &onnx.Model{Opsets: []onnx.OpsetID{
		{Domain: "com.microsoft", Version: 1},
		{Domain: "ai.onnx", Version: 13},
	}}

	v, ok := m.Opset("")
	require.True(t, ok)
	assert.Equal(t, int64(13), v)

	v, ok = m.Opset("com.microsoft")
	require.True(t, ok)
	assert.Equal(t, int64(1), v)

	_, ok = m.Opset("ai.onnx.ml")
	assert.False(t, ok)
}

func TestParseSkipsUnknownFields(t *testing.T) {
	data := onnxtest.Encode(onnxtest.YOLO(12, true, 640))
	// model_version (5) and a fixed64 field nobody defines.
	data = protowire.AppendTag(data, 5, protowire.VarintType)
	data = protowire.AppendVarint(data, 3)
	data = protowire.AppendTag(data, 99, protowire.Fixed64Type)
	data = protowire.AppendFixed64(data, 42)

	m, err := onnx.Parse(data)
	require.NoError(t, err)
	assert.Len(t, m.Opsets, 1)
}

func TestParseErrors(t *testing.T) {
	_, err := onnx.Parse(nil)
	assert.True(t, errors.Is(err, onnx.ErrEmpty))

	// Length prefix longer than the remaining bytes.
	truncated := protowire.AppendTag(nil, 7, protowire.BytesType)
	truncated = protowire.AppendVarint(truncated, 50)
	truncated = append(truncated, 0x01, 0x02)
	_, err = onnx.Parse(truncated)
	assert.Error(t, err)

	_, err = onnx.Parse([]byte("this is not a protobuf"))
	assert.Error(t, err)
}

func TestInspect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "yolov8n.onnx")
	onnxtest.WriteFile(t, path, onnxtest.YOLO(12, true, 640))

	m, err := onnx.Inspect(path)
	require.NoError(t, err)
	assert.Equal(t, "images", m.Inputs[0].Name)

	_, err = onnx.Inspect(filepath.Join(t.TempDir(), "missing.onnx"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.onnx")
}

func TestDimString(t *testing.T) {
	assert.Equal(t, "batch", onnx.Dim{Param: "batch"}.String())
	assert.Equal(t, "640", onnx.Dim{Value: 640}.String())
	assert.Equal(t, "?", onnx.Dim{}.String())
	assert.True(t, onnx.Dim{}.Symbolic())
}
