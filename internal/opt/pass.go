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

package opt

import (
    `context`
    `fmt`

    `github.com/cloudwego/iropt/internal/abi`
    `github.com/cloudwego/iropt/internal/opts`
    `github.com/cloudwego/iropt/ir`
    `tlog.app/go/tlog`
)

// Status is what a pass reports back to the pipeline driver.
type Status uint8

const (
    StatusNoChanges Status = iota
    StatusChanged
    StatusDisabled
)

func (self Status) String() string {
    switch self {
        case StatusNoChanges : return "no changes"
        case StatusChanged   : return "changed"
        case StatusDisabled  : return "disabled"
        default              : return fmt.Sprintf("status(%d)", uint8(self))
    }
}

// Context carries the per-compilation state threaded through the passes.
// It is owned by the one worker compiling Method.
type Context struct {
    Method  *ir.Method
    Options *opts.Options
    Target  *abi.Target
    Trace   tlog.Span
}

// NewContext prepares a compilation. The trace span is taken from ctx, and
// the return register count of the method is derived from the target when
// the host did not provide one.
func NewContext(ctx context.Context, m *ir.Method, o *opts.Options, tg *abi.Target) *Context {
    if m.RetRegs == 0 {
        m.RetRegs = tg.RetRegCount(m.RetType, m.RetSize)
    }
    return &Context {
        Method  : m,
        Options : o,
        Target  : tg,
        Trace   : tlog.SpanFromContext(ctx),
    }
}

func (self *Context) trace(topic string, msg string, kvs ...interface{}) {
    if self.Trace.If(topic) {
        self.Trace.Printw(msg, append([]interface{}{"method", self.Method.Name}, kvs...)...)
    }
}

type Pass interface {
    Apply(*Context) Status
}

type PassDescriptor struct {
    Pass Pass
    Name string
}

var Passes = [...]PassDescriptor {
    { Name: "Forward Substitution" , Pass: new(ForwardSub) },
    { Name: "Switch Recognition"   , Pass: new(SwitchRec) },
}

// PassResult is the outcome of one pass over one method.
type PassResult struct {
    Name   string
    Status Status
}

// Optimize runs every pass over the method in order. With CheckIR set, the
// IR is verified before the first pass and after every pass, and a broken
// invariant panics.
func Optimize(c *Context) []PassResult {
    ret := make([]PassResult, 0, len(Passes))
    verify(c, "input")

    /* run all the passes */
    for _, p := range Passes {
        st := p.Pass.Apply(c)
        ret = append(ret, PassResult{Name: p.Name, Status: st})
        verify(c, p.Name)
    }

    /* update the statistics */
    methodCount.Add(1)
    return ret
}

// Summarize folds the pass results into one status: changed if any pass
// changed the IR, disabled if every pass was disabled.
func Summarize(rs []PassResult) Status {
    var st Status
    var nd int

    /* check every result */
    for _, r := range rs {
        switch r.Status {
            case StatusChanged  : st = StatusChanged
            case StatusDisabled : nd++
        }
    }

    /* everything is disabled */
    if len(rs) != 0 && nd == len(rs) {
        return StatusDisabled
    } else {
        return st
    }
}

func verify(c *Context, after string) {
    if c.Options.CheckIR {
        if err := ir.Verify(c.Method); err != nil {
            panic(fmt.Sprintf("iropt: invalid IR after %s: %v", after, err))
        }
    }
}
