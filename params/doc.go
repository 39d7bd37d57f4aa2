// SPDX-License-Identifier: EPL-2.0

// Package params turns control-rate values into per-sample targets.
//
// A host calls Params.Set once per audio buffer with the current Controls,
// then Params.Next once per sample. Set decides the time base for the
// selected SampleMode, tracks erase and play edges, and retargets the
// smoothers; Next advances them and hands out one Sample of smoothed values.
package params
