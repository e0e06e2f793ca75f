package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/model-export/pkg/types"
)

func TestFields(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*types.ExportConfig)
		wantField string
		wantMsg   string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*types.ExportConfig) {},
		},
		{
			name:      "unknown format",
			mutate:    func(c *types.ExportConfig) { c.Format = "pickle" },
			wantField: "format",
			wantMsg:   "must be one of",
		},
		{
			name:      "image size off stride",
			mutate:    func(c *types.ExportConfig) { c.ImgSize = 650 },
			wantField: "imgsz",
			wantMsg:   "multiple of 32",
		},
		{
			name:      "zero image size",
			mutate:    func(c *types.ExportConfig) { c.ImgSize = 0 },
			wantField: "imgsz",
			wantMsg:   "greater than 0",
		},
		{
			name:      "negative opset",
			mutate:    func(c *types.ExportConfig) { c.Opset = -1 },
			wantField: "opset",
		},
		{
			name:      "missing checkpoint",
			mutate:    func(c *types.ExportConfig) { c.Checkpoint = "" },
			wantField: "checkpoint",
			wantMsg:   "is required",
		},
		{
			name:      "unknown backend",
			mutate:    func(c *types.ExportConfig) { c.Backend = "ssh" },
			wantField: "backend",
		},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := types.DefaultExportConfig()
			tt.mutate(&cfg)

			got := v.Fields(cfg)
			if tt.wantField == "" {
				assert.Nil(t, got)
				return
			}
			require.Contains(t, got, tt.wantField)
			assert.Contains(t, got[tt.wantField], tt.wantMsg)
		})
	}
}

func TestStruct(t *testing.T) {
	v := New()

	require.NoError(t, v.Struct(types.DefaultExportOptions()))

	err := v.Struct(types.FetchConfig{BaseURL: "not a url"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base_url must be a valid URL")
}

func TestFetchRetryBounds(t *testing.T) {
	v := New()

	cfg := types.DefaultFetchConfig()
	cfg.MaxRetries = 20
	assert.Nil(t, v.Fields(cfg))

	cfg.MaxRetries = 40
	got := v.Fields(cfg)
	require.Contains(t, got, "max_retries")
	assert.Contains(t, got["max_retries"], "less than or equal to 20")
}
