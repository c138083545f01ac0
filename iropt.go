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

// Package iropt rewrites the IR of a method JIT. It substitutes single-use
// temporaries into their uses, and turns ladders of equality tests into
// dispatch tables.
package iropt

import (
	"context"
	"fmt"
	"sync"

	"github.com/bytedance/gopkg/util/gopool"
	"github.com/cloudwego/iropt/internal/abi"
	"github.com/cloudwego/iropt/internal/opt"
	"github.com/cloudwego/iropt/internal/opts"
	"github.com/cloudwego/iropt/ir"
	"tlog.app/go/errors"
)

type Status = opt.Status

const (
	StatusNoChanges = opt.StatusNoChanges
	StatusChanged   = opt.StatusChanged
	StatusDisabled  = opt.StatusDisabled
)

type PassResult = opt.PassResult

// Target describes the code generation target.
type Target = abi.Target

var (
	AMD64 = abi.AMD64
	ARM64 = abi.ARM64
)

// HostTarget returns the target of the running machine.
func HostTarget() *Target {
	return abi.Host()
}

// Result is the outcome of optimizing one method.
type Result struct {
	Method *ir.Method
	Status Status
	Passes []PassResult
}

func buildOptions(options []Option) (opts.Options, error) {
	o := opts.GetDefaultOptions()
	for _, fn := range options {
		fn(&o)
	}

	// use the host target if not specified
	if o.Target == nil {
		o.Target = abi.Host()
	}

	// check the options
	if err := o.Validate(); err != nil {
		return o, errors.Wrap(err, "options")
	}
	return o, nil
}

func optimize(ctx context.Context, m *ir.Method, o *opts.Options) Result {
	rs := opt.Optimize(opt.NewContext(ctx, m, o, o.Target))
	return Result{Method: m, Status: opt.Summarize(rs), Passes: rs}
}

// Optimize runs the passes over one method. The method is modified in place.
// Pass tracing goes to the tlog span carried by ctx, if any.
func Optimize(ctx context.Context, m *ir.Method, options ...Option) (Result, error) {
	o, err := buildOptions(options)
	if err != nil {
		return Result{Method: m}, err
	}
	return optimize(ctx, m, &o), nil
}

// OptimizeAll optimizes many independent methods in parallel, one worker per
// method at a time, with as many workers as there are logical cores. A panic
// in any worker is raised again in the caller after every worker is done.
func OptimizeAll(ctx context.Context, methods []*ir.Method, options ...Option) ([]Result, error) {
	o, err := buildOptions(options)
	if err != nil {
		return nil, err
	}

	// size the pool by the host
	n := int32(abi.Host().Cores)
	if n <= 0 {
		n = 1
	}

	wg := new(sync.WaitGroup)
	pool := gopool.NewPool("iropt", n, gopool.NewConfig())
	ret := make([]Result, len(methods))
	errs := make([]interface{}, len(methods))

	// one task per method
	for i, m := range methods {
		i, m := i, m
		wg.Add(1)
		pool.CtxGo(ctx, func() {
			defer wg.Done()
			defer func() { errs[i] = recover() }()
			ret[i] = optimize(ctx, m, &o)
		})
	}

	// wait for the workers
	wg.Wait()
	for i, v := range errs {
		if v != nil {
			panic(fmt.Sprintf("iropt: optimizing %s: %v", methods[i].Name, v))
		}
	}
	return ret, nil
}
