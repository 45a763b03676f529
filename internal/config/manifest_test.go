package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbl8/opdispatch/core"
	"github.com/sbl8/opdispatch/dispatch"
	"github.com/sbl8/opdispatch/internal/testutil/testlog"
)

const tomlManifest = `
[[operator]]
name = "aten::add"
overload = "Tensor"
retrofit = true
remove = ["XLA"]

  [[operator.argument]]
  name = "self"
  type = "Tensor"

  [[operator.argument]]
  name = "other"
  type = "Tensor"

  [[operator.return]]
  name = "out"
  type = "Tensor"

  [[operator.kernel]]
  key = "CPU"
  impl = "add"

  [[operator.kernel]]
  key = "XLA"
  impl = "add"

  [[operator.kernel]]
  key = "4"
  impl = "add"

[[operator]]
name = "aten::print"
catchall = "noop"
`

const hclManifest = `
operator "aten::relu" {
  retrofit = true
  catchall = "noop"
  remove   = ["CATCH-ALL"]

  argument "self" {
    type = "Tensor"
  }

  kernel "CPU" {
    impl = "relu"
  }

  kernel "CUDA" {
    impl = "relu"
  }
}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func quietOpts() []dispatch.Option {
	return []dispatch.Option{dispatch.WithLogger(zerolog.Nop()), dispatch.WithMetrics(false)}
}

func TestLoadTOML(t *testing.T) {
	m, err := Load(writeFile(t, "ops.toml", tomlManifest))
	require.NoError(t, err)
	require.Len(t, m.Operators, 2)

	add := m.Operators[0]
	assert.Equal(t, "aten::add", add.Name)
	assert.Equal(t, "Tensor", add.Overload)
	assert.True(t, add.Retrofit)
	assert.Len(t, add.Arguments, 2)
	assert.Len(t, add.Kernels, 3)
	assert.Equal(t, []string{"XLA"}, add.Remove)
	assert.Equal(t, "noop", m.Operators[1].Catchall)
}

func TestLoadHCL(t *testing.T) {
	m, err := Load(writeFile(t, "ops.hcl", hclManifest))
	require.NoError(t, err)
	require.Len(t, m.Operators, 1)

	relu := m.Operators[0]
	assert.Equal(t, "aten::relu", relu.Name)
	assert.True(t, relu.Retrofit)
	require.Len(t, relu.Arguments, 1)
	assert.Equal(t, ArgumentConfig{Name: "self", Type: "Tensor"}, relu.Arguments[0])
	require.Len(t, relu.Kernels, 2)
	assert.Equal(t, KernelConfig{Key: "CUDA", Impl: "relu"}, relu.Kernels[1])
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(writeFile(t, "ops.yaml", "operator: []"))
	assert.True(t, errors.Is(err, ErrUnknownFormat))

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.hcl", `operator "x" {`))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.toml", "[[operator]]\nname = "))
	assert.Error(t, err)
}

func TestValidateOperator(t *testing.T) {
	tests := []struct {
		name    string
		op      OperatorConfig
		wantOK  bool
		wantErr error
	}{
		{name: "minimal", op: OperatorConfig{Name: "op"}, wantOK: true},
		{
			name:   "remove catch-all any case",
			op:     OperatorConfig{Name: "op", Catchall: "noop", Remove: []string{"catch-all"}},
			wantOK: true,
		},
		{name: "missing name", op: OperatorConfig{}},
		{
			name:    "unknown key",
			op:      OperatorConfig{Name: "op", Kernels: []KernelConfig{{Key: "TPU", Impl: "add"}}},
			wantErr: core.ErrUnknownDispatchKey,
		},
		{
			name:    "undefined key",
			op:      OperatorConfig{Name: "op", Kernels: []KernelConfig{{Key: "Undefined", Impl: "add"}}},
			wantErr: core.ErrUnknownDispatchKey,
		},
		{
			name:    "unknown impl",
			op:      OperatorConfig{Name: "op", Kernels: []KernelConfig{{Key: "CPU", Impl: "conv9d"}}},
			wantErr: ErrUnknownKernel,
		},
		{
			name:    "unknown catchall",
			op:      OperatorConfig{Name: "op", Catchall: "nope"},
			wantErr: ErrUnknownKernel,
		},
		{name: "remove catch-all without one", op: OperatorConfig{Name: "op", Remove: []string{RemoveCatchall}}},
		{
			name: "remove catch-all twice",
			op:   OperatorConfig{Name: "op", Catchall: "noop", Remove: []string{RemoveCatchall, RemoveCatchall}},
		},
		{
			name:    "remove unknown key",
			op:      OperatorConfig{Name: "op", Remove: []string{"TPU"}},
			wantErr: core.ErrUnknownDispatchKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOperator(tt.op)
			if tt.wantOK {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			}
		})
	}
}

func TestBuildTablesFromTOML(t *testing.T) {
	m, err := Parse(tomlManifest)
	require.NoError(t, err)

	tables := BuildTables(m, quietOpts()...)
	require.Len(t, tables, 2)

	add := tables[0]
	assert.Equal(t, "aten::add.Tensor", add.Name())
	assert.Equal(t, "[0, 4]", add.ListAllDispatchKeys())
	assert.True(t, add.HasRetrofit())
	k, ok := add.Lookup(core.CPU)
	require.True(t, ok)
	assert.True(t, k.IsRetrofitted())
	assert.Equal(t, []int{0, 1}, add.KeyExtractor().DispatchArgIndices())

	printOp := tables[1]
	assert.Equal(t, "[CATCH-ALL]", printOp.ListAllDispatchKeys())
	assert.False(t, printOp.HasRetrofit())
}

func TestBuildTableFromHCLRemovesCatchall(t *testing.T) {
	m, err := Load(writeFile(t, "ops.hcl", hclManifest))
	require.NoError(t, err)

	table := BuildTable(m.Operators[0], quietOpts()...)
	assert.Equal(t, "[0, 1]", table.ListAllDispatchKeys())
	_, ok := table.LookupCatchallKernel()
	assert.False(t, ok)
}

func TestBuildTableRemovesCatchallIgnoringCase(t *testing.T) {
	op := OperatorConfig{
		Name:     "aten::sum",
		Catchall: "sum",
		Kernels:  []KernelConfig{{Key: "cpu", Impl: "sum"}},
		Remove:   []string{"Catch-All"},
	}
	require.NoError(t, ValidateOperator(op))

	table := BuildTable(op, quietOpts()...)
	assert.Equal(t, "[0]", table.ListAllDispatchKeys())
	_, ok := table.LookupCatchallKernel()
	assert.False(t, ok)
}

func TestBuildTableDuplicateRegistrationOverwrites(t *testing.T) {
	op := OperatorConfig{
		Name: "aten::mul",
		Kernels: []KernelConfig{
			{Key: "CPU", Impl: "add"},
			{Key: "CPU", Impl: "mul"},
		},
	}
	require.NoError(t, ValidateOperator(op))

	table := BuildTable(op, quietOpts()...)
	k, ok := table.Lookup(core.CPU)
	require.True(t, ok)
	assert.Equal(t, "mul", k.Name())
	assert.Equal(t, 1, table.Size())
}

func TestExampleManifests(t *testing.T) {
	tests := []struct {
		path string
		want map[string]string
	}{
		{
			path: "../../examples/operators.toml",
			want: map[string]string{
				"aten::add.Tensor": "[0, 3]",
				"aten::softmax":    "[0]",
				"aten::_print":     "[CATCH-ALL]",
			},
		},
		{
			path: "../../examples/operators.hcl",
			want: map[string]string{
				"aten::relu": "[0, 11]",
				"aten::sum":  "[CATCH-ALL]",
			},
		},
	}

	for _, tt := range tests {
		t.Run(filepath.Base(tt.path), func(t *testing.T) {
			testlog.Start(t)
			m, err := Load(tt.path)
			require.NoError(t, err)

			got := make(map[string]string)
			for _, table := range BuildTables(m, quietOpts()...) {
				got[table.Name()] = table.ListAllDispatchKeys()
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
