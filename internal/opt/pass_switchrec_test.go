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
    `fmt`
    `testing`

    `github.com/brianvoe/gofakeit/v6`
    `github.com/cloudwego/iropt/internal/abi`
    `github.com/cloudwego/iropt/internal/opts`
    `github.com/cloudwego/iropt/ir`
    `github.com/stretchr/testify/require`
)

type _Ladder struct {
    *ir.Builder
    x     ir.LclNum
    tests []*ir.BasicBlock
    miss  *ir.BasicBlock
    hit   *ir.BasicBlock
}

// newLadder lays out one test block per value, all jumping to hit, followed
// by the miss block and the hit block.
func newLadder(name string, vals ...int64) *_Ladder {
    b := ir.NewBuilder(name, ir.TypeInt)
    ret := &_Ladder{Builder: b, x: b.NewParam("x", ir.TypeInt)}

    /* allocate the blocks in layout order */
    for range vals {
        ret.tests = append(ret.tests, b.Block())
    }
    ret.miss = b.Block()
    ret.hit = b.Block()

    /* the tests */
    for i, v := range vals {
        b.Cond(ret.tests[i], b.Eq(b.Var(ret.x), b.Int(v)), ret.hit)
    }

    /* the targets */
    b.Ret(ret.miss, b.Int(0))
    b.Ret(ret.hit, b.Int(1))
    return ret
}

func runSwitchRec(t *testing.T, m *ir.Method, tg *abi.Target, fns ...func(*opts.Options)) Status {
    c := newTestContext(m, tg, fns...)
    st := SwitchRec{}.Apply(c)
    require.NoError(t, ir.Verify(m))
    return st
}

func requireUnchanged(t *testing.T, m *ir.Method, tg *abi.Target, fns ...func(*opts.Options)) {
    dump := m.Dump()
    require.Equal(t, StatusNoChanges, runSwitchRec(t, m, tg, fns...))
    require.Equal(t, dump, m.Dump())
}

func requireDispatch(t *testing.T, m *ir.Method, bb *ir.BasicBlock, text string) {
    require.Equal(t, ir.JumpSwitch, bb.Kind)
    require.Nil(t, bb.Target)
    require.True(t, bb.Switch.BitTest)
    require.Equal(t, 1, bb.StmtCount())
    require.Equal(t, text, m.Format(bb.First().Root))

    /* one pred entry per table slot */
    n := 0
    for _, succ := range bb.UniqueSuccs() {
        n += succ.Pred(bb).Dups
    }
    require.Equal(t, len(bb.Switch.Targets), n)
}

func TestSwitchRec_Ladder(t *testing.T) {
    l := newLadder("ladder", 0, 1, 2)
    m := l.Finish()
    before := GetStats()

    /* the three tests collapse into one dispatch */
    require.Equal(t, StatusChanged, runSwitchRec(t, m, abi.AMD64))
    requireDispatch(t, m, l.tests[0], "switch (x - 0)")
    require.Equal(t, 3, m.BlockCount())
    require.Equal(t, []*ir.BasicBlock{l.tests[0], l.miss, l.hit}, m.Blocks())

    /* the table: every value hits, anything else misses */
    require.Equal(t, []*ir.BasicBlock{l.hit, l.hit, l.hit, l.miss}, l.tests[0].Switch.Targets)
    require.Equal(t, 3, l.hit.Pred(l.tests[0]).Dups)
    require.Equal(t, 1, l.miss.Pred(l.tests[0]).Dups)
    require.Equal(t, 4, l.hit.PredCount() + l.miss.PredCount())
    require.Equal(t, 1, m.Local(l.x).RefCount)

    /* the counters moved */
    after := GetStats()
    require.GreaterOrEqual(t, after.Switches - before.Switches, int64(1))
    require.GreaterOrEqual(t, after.BlocksRemoved - before.BlocksRemoved, int64(2))
}

func TestSwitchRec_Distinct(t *testing.T) {
    b := ir.NewBuilder("distinct", ir.TypeInt)
    x := b.NewParam("x", ir.TypeInt)

    /* if x == 1 goto L1; if x == 2 goto L2; if x == 3 goto L3; return 0 */
    b0, b1, b2 := b.Block(), b.Block(), b.Block()
    dd, l1, l2, l3 := b.Block(), b.Block(), b.Block(), b.Block()
    b.Cond(b0, b.Eq(b.Var(x), b.Int(1)), l1)
    b.Cond(b1, b.Eq(b.Var(x), b.Int(2)), l2)
    b.Cond(b2, b.Eq(b.Var(x), b.Int(3)), l3)
    b.Ret(dd, b.Int(0))
    b.Ret(l1, b.Int(1))
    b.Ret(l2, b.Int(2))
    b.Ret(l3, b.Int(3))

    /* four targets cannot be a bit test */
    requireUnchanged(t, b.Finish(), abi.AMD64)
}

// A chain needs three tests, so the terminal inequality carries a third
// constant. Its target cannot be the block after the chain, that test would
// jump to where it falls through anyway.
func TestSwitchRec_TerminalInequality(t *testing.T) {
    b := ir.NewBuilder("default", ir.TypeInt)
    x := b.NewParam("x", ir.TypeInt)

    /* if x == 1 goto L; if x == 2 goto L; if x != 3 goto M; L: return 1; M: return 0 */
    b0, b1, b2 := b.Block(), b.Block(), b.Block()
    ll, mm := b.Block(), b.Block()
    b.Cond(b0, b.Eq(b.Var(x), b.Int(1)), ll)
    b.Cond(b1, b.Eq(b.Var(x), b.Int(2)), ll)
    b.Cond(b2, b.Ne(b.Var(x), b.Int(3)), mm)
    b.Ret(ll, b.Int(1))
    b.Ret(mm, b.Int(0))
    m := b.Finish()

    /* a match on the last value falls through to L */
    require.Equal(t, StatusChanged, runSwitchRec(t, m, abi.AMD64))
    requireDispatch(t, m, b0, "switch (x - 1)")
    require.Equal(t, []*ir.BasicBlock{ll, ll, ll, mm}, b0.Switch.Targets)
    require.Equal(t, mm, b0.Switch.Default())
}

func TestSwitchRec_TerminalInequalityFallsIntoDefault(t *testing.T) {
    b := ir.NewBuilder("fallthrough", ir.TypeInt)
    x := b.NewParam("x", ir.TypeInt)

    /* if x == 1 goto L; if x == 2 goto L; if x != 3 goto L; M: return 0; L: return 1 */
    b0, b1, b2 := b.Block(), b.Block(), b.Block()
    mm, ll := b.Block(), b.Block()
    b.Cond(b0, b.Eq(b.Var(x), b.Int(1)), ll)
    b.Cond(b1, b.Eq(b.Var(x), b.Int(2)), ll)
    b.Cond(b2, b.Ne(b.Var(x), b.Int(3)), ll)
    b.Ret(mm, b.Int(0))
    b.Ret(ll, b.Int(1))
    m := b.Finish()

    /* only 3 reaches M, the block after the chain */
    require.Equal(t, StatusChanged, runSwitchRec(t, m, abi.AMD64))
    requireDispatch(t, m, b0, "switch (x - 1)")
    require.Equal(t, []*ir.BasicBlock{ll, ll, mm, ll}, b0.Switch.Targets)
    require.Equal(t, []*ir.BasicBlock{b0, mm, ll}, m.Blocks())
    require.Len(t, b0.UniqueSuccs(), 2)
}

func TestSwitchRec_TooFewTests(t *testing.T) {
    requireUnchanged(t, newLadder("short", 0, 1).Finish(), abi.AMD64)
}

func TestSwitchRec_RangeTooLarge(t *testing.T) {
    requireUnchanged(t, newLadder("sparse", 0, 1, 100).Finish(), abi.AMD64)

    /* the range is configurable */
    m := newLadder("sparse", 0, 1, 100).Finish()
    require.Equal(t, StatusChanged, runSwitchRec(t, m, abi.AMD64, func(o *opts.Options) { o.MaxSwitchRange = 128 }))
}

func TestSwitchRec_DuplicateConstant(t *testing.T) {
    requireUnchanged(t, newLadder("dup", 0, 1, 1).Finish(), abi.AMD64)
}

func TestSwitchRec_Rarely(t *testing.T) {
    l := newLadder("rarely", 0, 1, 2)
    l.tests[0].Rarely = true

    /* the remaining chain is too short */
    requireUnchanged(t, l.Finish(), abi.AMD64)
}

func TestSwitchRec_MinimumInTheMiddle(t *testing.T) {
    l := newLadder("middle", 7, 5, 6)
    m := l.Finish()

    /* the index is rebased on the smallest constant */
    require.Equal(t, StatusChanged, runSwitchRec(t, m, abi.AMD64))
    requireDispatch(t, m, l.tests[0], "switch (x - 5)")
}

func TestSwitchRec_TableBasePenalty(t *testing.T) {
    requireUnchanged(t, newLadder("arm64", 0, 1, 2).Finish(), abi.ARM64)

    /* a large enough table pays for the base address */
    l := newLadder("arm64", 0, 1, 2, 3, 4)
    m := l.Finish()
    require.Equal(t, StatusChanged, runSwitchRec(t, m, abi.ARM64))
    requireDispatch(t, m, l.tests[0], "switch (x - 0)")
}

func TestSwitchRec_EmptyJumpAfterChain(t *testing.T) {
    b := ir.NewBuilder("jump", ir.TypeInt)
    x := b.NewParam("x", ir.TypeInt)

    /* the miss block only jumps elsewhere */
    b0, b1, b2 := b.Block(), b.Block(), b.Block()
    mm, ll, ee := b.Block(), b.Block(), b.Block()
    b.Cond(b0, b.Eq(b.Var(x), b.Int(0)), ll)
    b.Cond(b1, b.Eq(b.Var(x), b.Int(1)), ll)
    b.Cond(b2, b.Eq(b.Var(x), b.Int(2)), ll)
    b.Goto(mm, ee)
    b.Ret(ll, b.Int(1))
    b.Ret(ee, b.Int(0))

    /* the chain is left alone */
    requireUnchanged(t, b.Finish(), abi.AMD64)
}

func TestSwitchRec_InteriorJoin(t *testing.T) {
    b := ir.NewBuilder("join", ir.TypeInt)
    x := b.NewParam("x", ir.TypeInt)

    /* if x < 0 goto B1 */
    entry := b.Block()
    b0, b1, b2 := b.Block(), b.Block(), b.Block()
    mm, ll := b.Block(), b.Block()
    b.Cond(entry, b.Lt(b.Var(x), b.Int(0)), b1)

    /* the ladder, entered in the middle */
    b.Cond(b0, b.Eq(b.Var(x), b.Int(0)), ll)
    b.Cond(b1, b.Eq(b.Var(x), b.Int(1)), ll)
    b.Cond(b2, b.Eq(b.Var(x), b.Int(2)), ll)
    b.Ret(mm, b.Int(0))
    b.Ret(ll, b.Int(1))

    /* removing B1 would lose the jump into it */
    requireUnchanged(t, b.Finish(), abi.AMD64)
}

func TestSwitchRec_DifferentLocals(t *testing.T) {
    b := ir.NewBuilder("locals", ir.TypeInt)
    x := b.NewParam("x", ir.TypeInt)
    y := b.NewParam("y", ir.TypeInt)

    /* the last test looks at another local */
    b0, b1, b2 := b.Block(), b.Block(), b.Block()
    mm, ll := b.Block(), b.Block()
    b.Cond(b0, b.Eq(b.Var(x), b.Int(0)), ll)
    b.Cond(b1, b.Eq(b.Var(x), b.Int(1)), ll)
    b.Cond(b2, b.Eq(b.Var(y), b.Int(2)), ll)
    b.Ret(mm, b.Int(0))
    b.Ret(ll, b.Int(1))
    requireUnchanged(t, b.Finish(), abi.AMD64)
}

func TestSwitchRec_SmallLocal(t *testing.T) {
    b := ir.NewBuilder("small", ir.TypeInt)
    x := b.NewParam("x", ir.TypeByte)

    /* sub-word locals are not dispatched on */
    b0, b1, b2 := b.Block(), b.Block(), b.Block()
    mm, ll := b.Block(), b.Block()
    for i, bb := range []*ir.BasicBlock{b0, b1, b2} {
        b.Cond(bb, b.Eq(b.Var(x), b.Const(ir.TypeByte, int64(i))), ll)
    }
    b.Ret(mm, b.Int(0))
    b.Ret(ll, b.Int(1))
    requireUnchanged(t, b.Finish(), abi.AMD64)
}

func TestSwitchRec_ChainLimit(t *testing.T) {
    l := newLadder("limit", 0, 1, 2, 3, 4)
    m := l.Finish()

    /* the chain stops after three tests, the rest stay */
    require.Equal(t, StatusChanged, runSwitchRec(t, m, abi.AMD64, func(o *opts.Options) { o.MaxSwitchTests = 3 }))
    requireDispatch(t, m, l.tests[0], "switch (x - 0)")
    require.Equal(t, l.tests[3], l.tests[0].Switch.Default())
    require.Equal(t, ir.JumpCond, l.tests[3].Kind)
}

func TestSwitchRec_Disabled(t *testing.T) {
    m := newLadder("disabled", 0, 1, 2).Finish()
    dump := m.Dump()
    c := newTestContext(m, abi.AMD64, func(o *opts.Options) { o.SwitchRecognition = false })
    require.Equal(t, StatusDisabled, SwitchRec{}.Apply(c))
    require.Equal(t, dump, m.Dump())
}

func TestSwitchRec_RandomLadders(t *testing.T) {
    fake := gofakeit.New(20221115)
    for i := 0; i < 50; i++ {
        n := fake.IntRange(3, 12)
        base := fake.IntRange(-50, 50)

        /* a dense range in random order */
        vals := make([]int, n)
        for j := range vals {
            vals[j] = base + j
        }
        fake.ShuffleInts(vals)

        /* build the ladder */
        cs := make([]int64, n)
        for j, v := range vals {
            cs[j] = int64(v)
        }
        l := newLadder(fmt.Sprintf("random%d", i), cs...)
        m := l.Finish()

        /* always a two-target dispatch */
        require.Equal(t, StatusChanged, runSwitchRec(t, m, abi.AMD64), "values %v", vals)
        requireDispatch(t, m, l.tests[0], fmt.Sprintf("switch (x - %d)", base))
        require.Equal(t, n, l.hit.Pred(l.tests[0]).Dups)
        require.Equal(t, l.miss, l.tests[0].Switch.Default())
        require.Equal(t, 3, m.BlockCount())
    }
}
