// Package config loads kernel registration manifests.
//
// A manifest declares operators (schema plus registrations) and is read from
// TOML (.toml) or HCL (.hcl). Both formats decode into the same Manifest.
//
// TOML:
//
//	[[operator]]
//	name = "aten::add"
//	overload = "Tensor"
//	retrofit = true
//	  [[operator.argument]]
//	  name = "self"
//	  type = "Tensor"
//	  [[operator.kernel]]
//	  key = "CPU"
//	  impl = "add"
//
// HCL:
//
//	operator "aten::add" {
//	  overload = "Tensor"
//	  retrofit = true
//	  argument "self" { type = "Tensor" }
//	  kernel "CPU" { impl = "add" }
//	}
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/sbl8/opdispatch/core"
	"github.com/sbl8/opdispatch/dispatch"
	"github.com/sbl8/opdispatch/kernels"
	"github.com/sbl8/opdispatch/model"
)

// RemoveCatchall is the removal entry that clears the catch-all kernel.
const RemoveCatchall = dispatch.CatchallMarker

var (
	ErrUnknownKernel = errors.New("unknown kernel")
	ErrUnknownFormat = errors.New("unknown manifest format")
)

// Manifest is a decoded registration file.
type Manifest struct {
	Operators []OperatorConfig `toml:"operator" hcl:"operator,block"`
}

// OperatorConfig declares one operator's schema and registrations.
type OperatorConfig struct {
	Name      string           `toml:"name" hcl:"name,label"`
	Overload  string           `toml:"overload" hcl:"overload,optional"`
	Arguments []ArgumentConfig `toml:"argument" hcl:"argument,block"`
	Returns   []ArgumentConfig `toml:"return" hcl:"return,block"`
	Kernels   []KernelConfig   `toml:"kernel" hcl:"kernel,block"`
	Catchall  string           `toml:"catchall" hcl:"catchall,optional"`
	Retrofit  bool             `toml:"retrofit" hcl:"retrofit,optional"`
	Remove    []string         `toml:"remove" hcl:"remove,optional"`
}

// ArgumentConfig is one schema argument or return.
type ArgumentConfig struct {
	Name string `toml:"name" hcl:"name,label"`
	Type string `toml:"type" hcl:"type"`
}

// KernelConfig binds a catalog kernel to a dispatch key.
type KernelConfig struct {
	Key  string `toml:"key" hcl:"key,label"`
	Impl string `toml:"impl" hcl:"impl"`
}

// Load reads and validates a manifest, choosing the decoder by extension.
func Load(path string) (Manifest, error) {
	var m Manifest
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = loadToml(path, &m)
	case ".hcl":
		err = loadHCL(path, &m)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	if err != nil {
		return Manifest{}, err
	}
	if err := Validate(m); err != nil {
		return Manifest{}, fmt.Errorf("manifest invalid (%s): %w", path, err)
	}
	return m, nil
}

// Parse decodes TOML manifest text.
func Parse(data string) (Manifest, error) {
	var m Manifest
	if _, err := toml.Decode(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("manifest parse failed: %w", err)
	}
	if err := Validate(m); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

func loadToml(path string, out *Manifest) error {
	if _, err := toml.DecodeFile(path, out); err != nil {
		return fmt.Errorf("manifest load failed (%s): %w", path, err)
	}
	return nil
}

func loadHCL(path string, out *Manifest) error {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return fmt.Errorf("manifest load failed (%s): %w", path, diags)
	}
	if diags := gohcl.DecodeBody(file.Body, nil, out); diags.HasErrors() {
		return fmt.Errorf("manifest decode failed (%s): %w", path, diags)
	}
	return nil
}

// Validate checks every operator; see ValidateOperator.
func Validate(m Manifest) error {
	for i, op := range m.Operators {
		if err := ValidateOperator(op); err != nil {
			return fmt.Errorf("operator[%d] invalid: %w", i, err)
		}
	}
	return nil
}

// ValidateOperator checks that op can be built without panicking.
func ValidateOperator(op OperatorConfig) error {
	if _, err := model.NewSchema(op.Name, op.Overload, op.arguments(), op.returns()); err != nil {
		return err
	}
	for i, k := range op.Kernels {
		if _, err := core.ParseDispatchKey(k.Key); err != nil {
			return fmt.Errorf("kernel[%d]: %w", i, err)
		}
		if _, ok := kernels.Catalog[k.Impl]; !ok {
			return fmt.Errorf("kernel[%d]: %w: %q", i, ErrUnknownKernel, k.Impl)
		}
	}
	if op.Catchall != "" {
		if _, ok := kernels.Catalog[op.Catchall]; !ok {
			return fmt.Errorf("catchall: %w: %q", ErrUnknownKernel, op.Catchall)
		}
	}
	catchallRemoved := false
	for i, r := range op.Remove {
		if isCatchall(r) {
			if op.Catchall == "" || catchallRemoved {
				return fmt.Errorf("remove[%d]: no catch-all kernel to remove", i)
			}
			catchallRemoved = true
			continue
		}
		if _, err := core.ParseDispatchKey(r); err != nil {
			return fmt.Errorf("remove[%d]: %w", i, err)
		}
	}
	return nil
}

// isCatchall matches RemoveCatchall without regard to case, like key names.
func isCatchall(entry string) bool {
	return strings.EqualFold(strings.TrimSpace(entry), RemoveCatchall)
}

// Schema returns the operator's schema. The config must have passed
// ValidateOperator.
func (op OperatorConfig) Schema() model.Schema {
	s, err := model.NewSchema(op.Name, op.Overload, op.arguments(), op.returns())
	if err != nil {
		panic(fmt.Sprintf("config: schema for unvalidated operator %q: %v", op.Name, err))
	}
	return s
}

func (op OperatorConfig) arguments() []model.Argument {
	return toArguments(op.Arguments)
}

func (op OperatorConfig) returns() []model.Argument {
	return toArguments(op.Returns)
}

func toArguments(in []ArgumentConfig) []model.Argument {
	out := make([]model.Argument, 0, len(in))
	for _, a := range in {
		out = append(out, model.Argument{Name: a.Name, Type: a.Type})
	}
	return out
}
