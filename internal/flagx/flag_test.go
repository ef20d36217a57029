package flagx

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		allowedFlags []string
		boolFlags    []string
		want         []string
	}{
		{
			name:         "short flag with separate value",
			args:         []string{"-c", "conf.json", "-table", "main.main.t"},
			allowedFlags: []string{"c", "config"},
			want:         []string{"-c", "conf.json"},
		},
		{
			name:         "negative value",
			args:         []string{"-partitions", "-1", "run"},
			allowedFlags: []string{"partitions"},
			want:         []string{"-partitions", "-1"},
		},
		{
			name:         "long flag with equals",
			args:         []string{"--config=alt.json", "-path", "/data"},
			allowedFlags: []string{"c", "config"},
			want:         []string{"--config=alt.json"},
		},
		{
			name:         "dash styles are interchangeable",
			args:         []string{"--path", "/data", "-table=a.b.c"},
			allowedFlags: []string{"-path", "table"},
			want:         []string{"--path", "/data", "-table=a.b.c"},
		},
		{
			name:         "unknown flags ignored",
			args:         []string{"-x", "1", "--y=2", "positional"},
			allowedFlags: []string{"c", "config"},
			want:         []string{},
		},
		{
			name:         "flag without value at end is kept as-is",
			args:         []string{"-c"},
			allowedFlags: []string{"c"},
			want:         []string{"-c"},
		},
		{
			name:         "flag followed by another flag (no value)",
			args:         []string{"-c", "-notvalue"},
			allowedFlags: []string{"c"},
			want:         []string{"-c"},
		},
		{
			name:         "bool flag does not swallow positional",
			args:         []string{"-deep", "/data/dicom", "-partitions", "4"},
			allowedFlags: []string{"deep", "partitions"},
			boolFlags:    []string{"deep"},
			want:         []string{"-deep", "-partitions", "4"},
		},
		{
			name:         "repeated allowed flag is preserved in order",
			args:         []string{"-c", "one.json", "-c", "two.json"},
			allowedFlags: []string{"c"},
			want:         []string{"-c", "one.json", "-c", "two.json"},
		},
		{
			name:         "empty args",
			args:         []string{},
			allowedFlags: []string{"c"},
			want:         []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterArgs(tt.args, tt.allowedFlags, tt.boolFlags...)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("FilterArgs() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestPositionals(t *testing.T) {
	valueFlags := []string{"table", "limit", "partitions"}
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{name: "no flags", args: []string{"select", "1"}, want: []string{"select", "1"}},
		{name: "value flags skipped", args: []string{"-table", "a.b.c", "select 1"}, want: []string{"select 1"}},
		{name: "equals form skipped", args: []string{"-table=a.b.c", "q"}, want: []string{"q"}},
		{name: "bool flag keeps next", args: []string{"-deep", "q"}, want: []string{"q"}},
		{name: "unknown flag keeps next", args: []string{"-v", "ls"}, want: []string{"ls"}},
		{name: "negative numbers are positionals", args: []string{"count", "length", ">", "-1"}, want: []string{"count", "length", ">", "-1"}},
		{name: "negative flag value", args: []string{"-partitions", "-1", "run"}, want: []string{"run"}},
		{name: "double dash ends flags", args: []string{"-limit", "3", "--", "-not-a-flag"}, want: []string{"-not-a-flag"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Positionals(tt.args, valueFlags...))
		})
	}
}

func TestJsonConfigFlags(t *testing.T) {
	t.Run("short -c with value", func(t *testing.T) {
		assert.Equal(t, "/path/short.json", JsonConfigFlags([]string{"-c", "/path/short.json"}))
	})

	t.Run("long -config with value", func(t *testing.T) {
		assert.Equal(t, "/path/long.json", JsonConfigFlags([]string{"-config", "/path/long.json"}))
	})

	t.Run("unknown flags are ignored", func(t *testing.T) {
		assert.Empty(t, JsonConfigFlags([]string{"-x", "1", "-y", "2"}))
	})

	t.Run("multiple flags, last wins", func(t *testing.T) {
		assert.Equal(t, "/path/2.json", JsonConfigFlags([]string{"-c", "/path/1.json", "-config", "/path/2.json"}))
	})
}
