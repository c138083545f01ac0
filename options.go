/*
 * Copyright 2022 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package iropt

import (
	"fmt"

	"github.com/cloudwego/iropt/internal/opts"
)

// Option is the property setter function for opts.Options.
type Option func(*opts.Options)

// WithForwardSubstitution enables or disables the forward substitution pass.
//
// This value can also be configured with the `IROPT_DISABLE_FWDSUB`
// environment variable.
func WithForwardSubstitution(enable bool) Option {
	return func(o *opts.Options) { o.ForwardSub = enable }
}

// WithSwitchRecognition enables or disables the switch recognition pass.
//
// This value can also be configured with the `IROPT_DISABLE_SWITCHREC`
// environment variable.
func WithSwitchRecognition(enable bool) Option {
	return func(o *opts.Options) { o.SwitchRecognition = enable }
}

// WithMaxCandidateNodes sets the largest tree, in nodes, that forward
// substitution moves into its use.
//
// The default value of this option is "16".
func WithMaxCandidateNodes(n int) Option {
	if n < 1 {
		panic(fmt.Sprintf("iropt: invalid candidate size: %d", n))
	}
	return func(o *opts.Options) { o.MaxCandidateNodes = n }
}

// WithMaxNextStmtNodes sets the size above which a statement only receives
// single-node values.
//
// The default value of this option is "200".
func WithMaxNextStmtNodes(n int) Option {
	if n < 1 {
		panic(fmt.Sprintf("iropt: invalid statement size: %d", n))
	}
	return func(o *opts.Options) { o.MaxNextStmtNodes = n }
}

// WithMaxSwitchRange sets the largest span of constants a dispatch table
// may cover.
//
// The default value of this option is "64".
func WithMaxSwitchRange(n int) Option {
	if n < 2 {
		panic(fmt.Sprintf("iropt: invalid switch range: %d", n))
	}
	return func(o *opts.Options) { o.MaxSwitchRange = n }
}

// WithCheckIR verifies the IR before and after every pass, and panics if
// any invariant is broken.
func WithCheckIR(enable bool) Option {
	return func(o *opts.Options) { o.CheckIR = enable }
}

// WithTarget sets the code generation target. The host is used by default.
func WithTarget(tg *Target) Option {
	if tg == nil {
		panic("iropt: nil target")
	}
	return func(o *opts.Options) { o.Target = tg }
}
