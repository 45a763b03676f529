// Package opdispatch implements per-operator kernel dispatch tables for a
// multiple-dispatch runtime.
//
// Every operator gets one dispatch.Table. Libraries register kernels into it
// under a dispatch key (the backend or tensor type they handle); the caller
// that owns the call path computes a key from the live arguments and asks the
// table which kernel to run, falling back to the operator's catch-all kernel
// on a miss.
//
// # Architecture Overview
//
//   - core: the fixed dispatch key domain (CPU, CUDA, ...) and the Undefined sentinel
//   - model: operator schemas and the key extraction policy built from them
//   - kernels: the kernel value type, boxed/unboxed calling conventions, stock CPU kernels
//   - dispatch: SlotMap (array of kernels indexed by key) and Table (registration policy)
//   - cmd/dispatchctl: builds tables from a TOML or HCL manifest and prints them
//
// # Basic Usage
//
//	table := dispatch.New(schema)
//	table.SetKernel(core.CPU, kernels.FromUnboxed("add_cpu", addCPU))
//	table.SetCatchallKernel(fallback)
//
//	if k, ok := table.Lookup(key); ok {
//	    // run k
//	} else if k, ok := table.LookupCatchallKernel(); ok {
//	    // run the catch-all
//	} else {
//	    return fmt.Errorf("no kernel for %s; registered: %s", key, table.ListAllDispatchKeys())
//	}
//
// # Calling-convention retrofit
//
// Kernels written against the native in-place convention can be made
// callable through the boxed convention by installing an adapter once per
// table (Table.InstallRetrofit). The adapter reaches every kernel already in
// the table and every kernel registered afterwards.
package opdispatch
