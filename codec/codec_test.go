package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{name: "json", ok: true},
		{name: "go-json", ok: true},
		{name: "msgpack", ok: false},
		{name: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := ByName(tt.name)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.name, c.Name())
			}
		})
	}
}

func TestCodecsAgree(t *testing.T) {
	// Snapshot headers written by one codec must decode with the other,
	// since the header stores only the name of the codec used for the
	// metadata section.
	type header struct {
		Rows        int    `json:"rows"`
		Cols        int    `json:"cols"`
		DType       string `json:"dtype"`
		Compression string `json:"compression"`
	}

	in := header{Rows: 1000, Cols: 1000, DType: "float32", Compression: "zstd"}

	for _, enc := range []Codec{JSON{}, GoJSON{}} {
		data, err := enc.Marshal(in)
		require.NoError(t, err)

		for _, dec := range []Codec{JSON{}, GoJSON{}} {
			var out header
			require.NoError(t, dec.Unmarshal(data, &out))
			assert.Equal(t, in, out, "%s -> %s", enc.Name(), dec.Name())
		}
	}
}
