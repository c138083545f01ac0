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
    `testing`

    `github.com/cloudwego/iropt/internal/abi`
    `github.com/cloudwego/iropt/internal/opts`
    `github.com/cloudwego/iropt/ir`
    `github.com/stretchr/testify/require`
)

func newTestContext(m *ir.Method, tg *abi.Target, fns ...func(*opts.Options)) *Context {
    o := opts.GetDefaultOptions()
    o.ForwardSub = true
    o.SwitchRecognition = true
    o.CheckIR = true
    o.MaxCandidateNodes = 16
    o.MaxNextStmtNodes = 200
    o.MaxSwitchTests = 64
    o.MaxSwitchRange = 64
    o.MinSwitchTests = 3

    /* per-test tweaks */
    for _, fn := range fns {
        fn(&o)
    }
    return NewContext(context.Background(), m, &o, tg)
}

func TestPass_OptimizeAll(t *testing.T) {
    m := buildScenarioA()
    c := newTestContext(m, abi.AMD64)
    before := GetStats()
    rs := Optimize(c)

    /* both passes ran */
    require.Len(t, rs, 2)
    require.Equal(t, "Forward Substitution", rs[0].Name)
    require.Equal(t, StatusChanged, rs[0].Status)
    require.Equal(t, StatusNoChanges, rs[1].Status)
    require.Equal(t, StatusChanged, Summarize(rs))

    /* the counters moved */
    after := GetStats()
    require.GreaterOrEqual(t, after.Methods - before.Methods, int64(1))
    require.GreaterOrEqual(t, after.Substituted - before.Substituted, int64(2))
}

func TestPass_Disabled(t *testing.T) {
    m := buildScenarioA()
    dump := m.Dump()
    c := newTestContext(m, abi.AMD64, func(o *opts.Options) {
        o.ForwardSub = false
        o.SwitchRecognition = false
    })

    /* nothing runs */
    rs := Optimize(c)
    require.Equal(t, StatusDisabled, rs[0].Status)
    require.Equal(t, StatusDisabled, rs[1].Status)
    require.Equal(t, StatusDisabled, Summarize(rs))
    require.Equal(t, dump, m.Dump())
}

func TestPass_Summarize(t *testing.T) {
    require.Equal(t, StatusNoChanges, Summarize(nil))
    require.Equal(t, StatusNoChanges, Summarize([]PassResult{{Status: StatusDisabled}, {Status: StatusNoChanges}}))
    require.Equal(t, StatusChanged, Summarize([]PassResult{{Status: StatusDisabled}, {Status: StatusChanged}}))
    require.Equal(t, "disabled", StatusDisabled.String())
}

func TestPass_CheckIR(t *testing.T) {
    m := buildScenarioA()
    s := m.FirstBlock().First()
    s.Locals = nil

    /* broken input is caught before any pass */
    c := newTestContext(m, abi.AMD64)
    require.Panics(t, func() { Optimize(c) })
}

func TestPass_ReturnRegisters(t *testing.T) {
    b := ir.NewBuilder("pair", ir.TypeStruct)
    b.RetSize = 16
    bb := b.Block()
    b.Ret(bb, b.Call(&ir.CallInfo{Name: "g", RetRegs: 2}, ir.TypeStruct))
    m := b.Finish()

    /* derived from the target */
    newTestContext(m, abi.AMD64)
    require.Equal(t, 2, m.RetRegs)
}
