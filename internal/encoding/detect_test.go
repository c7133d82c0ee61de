package encoding_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/MrJamesThe3rd/labtrack/internal/encoding"
)

func TestDecode(t *testing.T) {
	type testCase struct {
		name        string
		input       func(t *testing.T) []byte
		want        string
		wantCharset string
	}

	tests := []testCase{
		{
			name:        "UTF8Passthrough",
			input:       func(*testing.T) []byte { return []byte("Serviço;Preço\nCoroa metalocerâmica;450,00\n") },
			want:        "Serviço;Preço\nCoroa metalocerâmica;450,00\n",
			wantCharset: encoding.CharsetUTF8,
		},
		{
			name: "UTF8BOMStripped",
			input: func(*testing.T) []byte {
				return append([]byte{0xEF, 0xBB, 0xBF}, []byte("Serviço;Preço\n")...)
			},
			want:        "Serviço;Preço\n",
			wantCharset: encoding.CharsetUTF8,
		},
		{
			name: "UTF16LE",
			input: func(*testing.T) []byte {
				// "Preço\n" in UTF-16LE with BOM.
				return []byte{0xFF, 0xFE, 'P', 0, 'r', 0, 'e', 0, 0xE7, 0, 'o', 0, '\n', 0}
			},
			want:        "Preço\n",
			wantCharset: encoding.CharsetUTF16LE,
		},
		{
			name: "Windows1252",
			input: func(t *testing.T) []byte {
				b, err := charmap.Windows1252.NewEncoder().Bytes([]byte("Código;Serviço;Preço\nPR-01;Prótese;1.200,00\n"))
				require.NoError(t, err)

				return b
			},
			want: "Código;Serviço;Preço\nPR-01;Prótese;1.200,00\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, charset, err := encoding.Decode(bytes.NewReader(tt.input(t)))
			require.NoError(t, err)

			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))

			if tt.wantCharset != "" {
				assert.Equal(t, tt.wantCharset, charset)
			}
		})
	}
}

func TestDecode_Empty(t *testing.T) {
	r, charset, err := encoding.Decode(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Equal(t, encoding.CharsetUTF8, charset)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Empty(t, got)
}
