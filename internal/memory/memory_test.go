package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "megabytes", input: "600M", want: 600},
		{name: "gigabytes", input: "1G", want: 1024},
		{name: "bare integer", input: "1536", want: 1536},
		{name: "terabytes", input: "2T", want: 2097152},
		{name: "kilobytes truncate", input: "2048K", want: 2},
		{name: "kilobytes below one megabyte", input: "512K", want: 0},
		{name: "fractional gigabytes", input: "1.5G", want: 1536},
		{name: "fractional truncates", input: "1.9", want: 1},
		{name: "trailing B", input: "600MB", want: 600},
		{name: "bare with B suffix", input: "256B", want: 256},
		{name: "lowercase unit", input: "512m", want: 512},
		{name: "surrounding whitespace", input: "  300M  ", want: 300},
		{name: "space before unit", input: "300 M", want: 300},
		{name: "bogus", input: "bogus", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "unit only", input: "G", wantErr: true},
		{name: "negative", input: "-5M", wantErr: true},
		{name: "unknown unit", input: "5X", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrParse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    int
		wantErr bool
	}{
		{name: "int passthrough", input: 128, want: 128},
		{name: "int64 passthrough", input: int64(256), want: 256},
		{name: "uint64 passthrough", input: uint64(1536), want: 1536},
		{name: "float truncates", input: 99.9, want: 99},
		{name: "string", input: "1G", want: 1024},
		{name: "bad string", input: "nope", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseValue(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrParse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "600M", Format(600))
	assert.Equal(t, "0M", Format(0))
	assert.Equal(t, "2097152M", Format(2097152))
}

func TestScale(t *testing.T) {
	tests := []struct {
		name   string
		mb     int
		factor float64
		floor  int
		want   int
	}{
		{name: "halve", mb: 1000, factor: 0.5, floor: 32, want: 500},
		{name: "floor enforced", mb: 50, factor: 0.5, floor: 32, want: 32},
		{name: "at floor stays", mb: 32, factor: 0.5, floor: 32, want: 32},
		{name: "identity factor", mb: 100, factor: 1.0, floor: 32, want: 100},
		{name: "truncates", mb: 25, factor: 0.5, floor: 0, want: 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Scale(tt.mb, tt.factor, tt.floor))
		})
	}
}
