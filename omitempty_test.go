package rtoml_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/KimNorgaard/go-rtoml"
)

// TestMarshal_OmitEmpty tests the functionality of the ",omitempty" struct tag.
func TestMarshal_OmitEmpty(t *testing.T) {
	// Struct where all exportable fields are tagged with omitempty.
	type OmitStruct struct {
		String     string         `toml:"string,omitempty"`
		Int        int            `toml:"int,omitempty"`
		Float      float64        `toml:"float,omitempty"`
		Bool       bool           `toml:"bool,omitempty"`
		Slice      []string       `toml:"slice,omitempty"`
		Map        map[string]int `toml:"map,omitempty"`
		Pointer    *int           `toml:"pointer,omitempty"`
		Time       time.Time      `toml:"time,omitempty"`
		Struct     *OmitStruct    `toml:"struct,omitempty"`
		unexported string         // Unexported fields are always ignored.
	}

	t.Run("All fields are zero-valued and should be omitted", func(t *testing.T) {
		v := OmitStruct{unexported: "should be ignored"}
		b, err := rtoml.Marshal(v)
		require.NoError(t, err)
		require.Empty(t, string(b))
	})

	t.Run("All fields have non-zero values and should be included", func(t *testing.T) {
		pointerVal := 123
		v := OmitStruct{
			String:  "hello",
			Int:     1,
			Float:   3.14,
			Bool:    true,
			Slice:   []string{"a"},
			Map:     map[string]int{"b": 2},
			Pointer: &pointerVal,
			Time:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
			Struct:  &OmitStruct{String: "nested"},
		}
		b, err := rtoml.Marshal(v)
		require.NoError(t, err)
		require.Equal(t, `string = "hello"
int = 1
float = 3.14
bool = true
slice = ["a"]
pointer = 123
time = 2024-01-02T03:04:05Z

[map]
b = 2

[struct]
string = "nested"
`, string(b))
	})

	t.Run("Bool field with false value (zero) should be omitted", func(t *testing.T) {
		v := OmitStruct{
			Bool: false,
			Int:  1,
		}
		b, err := rtoml.Marshal(v)
		require.NoError(t, err)
		require.Equal(t, "int = 1\n", string(b))
	})

	// Struct where fields do NOT have omitempty.
	type NoOmitStruct struct {
		String  string `toml:"string"`
		Int     int    `toml:"int"`
		Pointer *int   `toml:"pointer"`
	}

	t.Run("Fields without omitempty should be included even if zero-valued", func(t *testing.T) {
		b, err := rtoml.Marshal(NoOmitStruct{})
		require.NoError(t, err)
		require.Equal(t, "string = \"\"\nint = 0\n", string(b))
	})

	t.Run("Nil pointer takes the none value", func(t *testing.T) {
		b, err := rtoml.Marshal(NoOmitStruct{}, rtoml.NoneValue("null"))
		require.NoError(t, err)
		require.Equal(t, "string = \"\"\nint = 0\npointer = \"null\"\n", string(b))
	})
}
