// Package benchmark runs deformable-model benchmarks. It resolves experiments
// and the dataset, method and landmark-process definitions they reference from
// a predefined directory, checks that the configuration they need is present,
// runs each method as an external command and records the results.
//
// The fitting methods themselves are opaque: the package only prepares their
// inputs, invokes them and collects what they produce.
package benchmark
