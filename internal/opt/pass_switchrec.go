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
    `math`

    `github.com/cloudwego/iropt/ir`
)

// SwitchRec converts ladders of equality tests against one local into a
// single dispatch on the local.
type SwitchRec struct{}

func (self SwitchRec) Apply(c *Context) Status {
    if !c.Options.SwitchRecognition {
        return StatusDisabled
    }

    /* scan the blocks in layout order */
    st := StatusNoChanges
    for bb := c.Method.FirstBlock(); bb != nil; bb = bb.Next() {
        if bb.Rarely {
            continue
        }

        /* find a long enough chain, and check if a dispatch pays off */
        sw := findChain(c, bb)
        if sw == nil || !sw.canBuildDispatch() {
            continue
        }

        /* the interior blocks are removed, so the scan resumes after the dispatch */
        sw.commit()
        st = StatusChanged
    }
    return st
}

// _Test is one block of a chain: if x == val goto Target, or the inverse
// for the terminal test.
type _Test struct {
    bb   *ir.BasicBlock
    op   ir.Op
    val  int64
    cnst ir.NodeID
}

type _SwitchChain struct {
    c       *Context
    lcl     ir.LclNum
    tests   []_Test
    min     int
    max     int
    table   []*ir.BasicBlock
    deflt   *ir.BasicBlock
    follow  *ir.BasicBlock
}

func (self *_SwitchChain) first() *ir.BasicBlock { return self.tests[0].bb }
func (self *_SwitchChain) last() *ir.BasicBlock  { return self.tests[len(self.tests) - 1].bb }

func (self *_SwitchChain) reject(reason string) bool {
    self.c.trace("switchrec", "reject", "block", self.first().String(), "tests", len(self.tests), "reason", reason)
    return false
}

// testOf matches a block ending with a side-effect-free comparison of a
// whole integer local against a constant.
func testOf(m *ir.Method, bb *ir.BasicBlock) (ir.LclNum, _Test, bool) {
    if bb.Kind != ir.JumpCond || bb.StmtCount() != 1 {
        return ir.NoLcl, _Test{}, false
    }

    /* must be a pure conditional jump */
    s := bb.First()
    if m.Node(s.Root).Op != ir.OpJTrue || m.StmtFlags(s) & ir.FlagsSideEffects != 0 {
        return ir.NoLcl, _Test{}, false
    }

    /* on an equality test */
    cmp := m.Node(m.Node(s.Root).Kids[0])
    if cmp.Op != ir.OpEq && cmp.Op != ir.OpNe {
        return ir.NoLcl, _Test{}, false
    }

    /* of a whole local against a constant */
    x, y := m.Node(cmp.Kids[0]), m.Node(cmp.Kids[1])
    if x.Op != ir.OpLclVar || y.Op != ir.OpConst {
        return ir.NoLcl, _Test{}, false
    }

    /* the local must be a word sized integer */
    if !x.Type.IsIntegral() || x.Type.IsSmall() {
        return ir.NoLcl, _Test{}, false
    }

    /* build the test */
    return x.Lcl, _Test {
        bb   : bb,
        op   : cmp.Op,
        val  : y.Val,
        cnst : y.ID,
    }, true
}

// findChain collects the longest ladder of tests starting at bb. The ladder
// starts with an equality test, and ends after the first inequality test.
func findChain(c *Context, bb *ir.BasicBlock) *_SwitchChain {
    m := c.Method
    lcl, t, ok := testOf(m, bb)

    /* the chain must start with an equality test */
    if !ok || t.op != ir.OpEq {
        return nil
    }

    /* extend the chain one block at a time */
    sw := &_SwitchChain{c: c, lcl: lcl, tests: []_Test{t}}
    for prev, cur := bb, bb.Next(); cur != nil && len(sw.tests) < c.Options.MaxSwitchTests; prev, cur = cur, cur.Next() {
        if cur.UniquePred() != prev || prev.Target == cur {
            break
        }

        /* must test the same local */
        if lcl2, t2, ok := testOf(m, cur); !ok || lcl2 != lcl {
            break
        } else {
            sw.tests = append(sw.tests, t2)
        }

        /* an inequality test jumps to everything else */
        if m.Node(m.Node(cur.First().Root).Kids[0]).Op == ir.OpNe {
            break
        }
    }

    /* too short to be worth a dispatch */
    if len(sw.tests) < c.Options.MinSwitchTests {
        return nil
    }

    /* the range of the constants */
    for i := 1; i < len(sw.tests); i++ {
        if sw.tests[i].val < sw.minVal() { sw.min = i }
        if sw.tests[i].val > sw.maxVal() { sw.max = i }
    }

    /* the block after the chain */
    sw.follow = sw.last().Next()
    return sw
}

func (self *_SwitchChain) minVal() int64 { return self.tests[self.min].val }
func (self *_SwitchChain) maxVal() int64 { return self.tests[self.max].val }

func (self *_SwitchChain) canBuildDispatch() bool {
    o := self.c.Options
    span := uint64(self.maxVal()) - uint64(self.minVal())

    /* the table must be small */
    if span >= uint64(o.MaxSwitchRange) || span >= math.MaxInt32 {
        return self.reject("range too large")
    }

    /* and dense */
    size := int(span) + 1
    if len(self.tests) > size {
        return self.reject("duplicated constants")
    } else if size < 2 {
        return self.reject("range too small")
    }

    /* the default target */
    if last := self.tests[len(self.tests) - 1]; last.op == ir.OpNe {
        self.deflt = last.bb.Target
    } else {
        self.deflt = self.follow
    }

    /* fill the table with the tests */
    self.table = make([]*ir.BasicBlock, size)
    for _, t := range self.tests {
        i := t.val - self.minVal()
        if self.table[i] != nil {
            return self.reject("duplicated constants")
        }

        /* the terminal inequality falls through on a match */
        if t.op == ir.OpEq {
            self.table[i] = t.bb.Target
        } else {
            self.table[i] = self.follow
        }
    }

    /* every other value goes to the default */
    for i, bb := range self.table {
        if bb == nil {
            self.table[i] = self.deflt
        }
    }

    /* only two-target tables can be lowered to a bit test */
    switch n := len(self.targets().Unique()); {
        case n == 0 : panic("switchrec: dispatch table without targets")
        case n == 1 : return self.reject("every value has the same target")
        case n != 2 : return self.reject("more than two targets")
    }

    /* the table must amortize its construction */
    need := o.MinDispatchEntries
    if self.table[0] == self.follow || self.deflt == self.follow {
        need++
    }
    if self.c.Target.ExpensiveTableBase {
        need += o.TableBasePenalty
    }

    /* check the table size */
    if size < need {
        return self.reject("table too small")
    }

    /* one of the targets must be the next block in layout */
    if !containsBlock(self.targets().Unique(), self.follow) {
        return self.reject("no target follows the chain")
    }

    /* an empty jump block after the chain */
    if self.follow.Kind == ir.JumpAlways && self.follow.StmtCount() == 0 {
        return self.reject("chain is followed by an empty jump")
    }
    return true
}

func (self *_SwitchChain) targets() *ir.SwitchDesc {
    return &ir.SwitchDesc {
        Targets : append(append([]*ir.BasicBlock(nil), self.table...), self.deflt),
        BitTest : true,
    }
}

func containsBlock(bbs []*ir.BasicBlock, bb *ir.BasicBlock) bool {
    for _, v := range bbs {
        if v == bb {
            return true
        }
    }
    return false
}

func (self *_SwitchChain) commit() {
    m := self.c.Method
    first := self.first()
    s := first.First()

    /* drop every transfer out of the chain */
    for _, t := range self.tests {
        m.UnlinkSuccs(t.bb)
    }

    /* the index expression: x - min */
    cmp := m.Node(m.Node(s.Root).Kids[0])
    idx := m.Sub(cmp.Kids[0], self.tests[self.min].cnst)

    /* turn the first block into the dispatch */
    s.Root = m.Switch(idx)
    first.Kind = ir.JumpSwitch
    first.Target = nil
    first.Switch = self.targets()
    m.LinkSuccs(first)

    /* the interior blocks are unreachable now */
    for _, t := range self.tests[1:] {
        m.RemoveBlock(t.bb)
    }

    /* refresh the dispatch statement */
    m.SequenceLocals(s)
    m.UpdateStmtFlags(s)

    /* the interior tests no longer read the local */
    if dsc := m.Local(self.lcl); dsc.RefCount > len(self.tests) - 1 {
        dsc.RefCount -= len(self.tests) - 1
    } else {
        dsc.RefCount = 0
    }

    /* update the statistics */
    switchCount.Add(1)
    blockRemoveCount.Add(int64(len(self.tests) - 1))
    self.c.trace("switchrec", "converted", "block", first.String(), "tests", len(self.tests), "min", self.minVal(), "size", len(self.table))
}
