package config

import (
	"github.com/sbl8/opdispatch/core"
	"github.com/sbl8/opdispatch/dispatch"
	"github.com/sbl8/opdispatch/kernels"
)

// BuildTables creates one dispatch table per operator in manifest order.
// The manifest must have passed Validate.
//
// Per operator, steps run in this order: keyed kernels (declaration order,
// so duplicates overwrite), catch-all, retrofit, removals.
func BuildTables(m Manifest, opts ...dispatch.Option) []*dispatch.Table {
	tables := make([]*dispatch.Table, 0, len(m.Operators))
	for _, op := range m.Operators {
		tables = append(tables, BuildTable(op, opts...))
	}
	return tables
}

// BuildTable creates the table for one validated operator.
func BuildTable(op OperatorConfig, opts ...dispatch.Option) *dispatch.Table {
	table := dispatch.New(op.Schema(), opts...)
	for _, kc := range op.Kernels {
		key, _ := core.ParseDispatchKey(kc.Key)
		k, _ := kernels.Lookup(kc.Impl)
		table.SetKernel(key, k)
	}
	if op.Catchall != "" {
		k, _ := kernels.Lookup(op.Catchall)
		table.SetCatchallKernel(k)
	}
	if op.Retrofit {
		table.InstallRetrofit(kernels.ByteStackAdapter)
	}
	for _, r := range op.Remove {
		if isCatchall(r) {
			table.RemoveCatchallKernel()
			continue
		}
		key, _ := core.ParseDispatchKey(r)
		table.RemoveKernelIfExists(key)
	}
	return table
}
