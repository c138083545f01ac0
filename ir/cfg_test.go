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

package ir

import (
    `testing`

    `github.com/stretchr/testify/require`
)

func buildDiamond() (*Method, []*BasicBlock) {
    b := NewBuilder("diamond", TypeInt)
    x := b.NewParam("x", TypeInt)

    /* bb0: if x == 0 goto bb2; bb1: goto bb3; bb2: fallthrough; bb3: return x */
    bb0, bb1, bb2, bb3 := b.Block(), b.Block(), b.Block(), b.Block()
    b.Cond(bb0, b.Eq(b.Var(x), b.Int(0)), bb2)
    b.Goto(bb1, bb3)
    b.Append(bb2, b.Store(x, b.Int(1)))
    b.Ret(bb3, b.Var(x))
    return b.Finish(), []*BasicBlock { bb0, bb1, bb2, bb3 }
}

func TestCFG_Edges(t *testing.T) {
    m, bbs := buildDiamond()
    require.Equal(t, 4, m.BlockCount())
    require.Equal(t, bbs, m.Blocks())

    /* successors */
    require.Equal(t, []*BasicBlock{bbs[1], bbs[2]}, bbs[0].Succs())
    require.Equal(t, []*BasicBlock{bbs[3]}, bbs[1].Succs())
    require.Equal(t, []*BasicBlock{bbs[3]}, bbs[2].Succs())
    require.Empty(t, bbs[3].Succs())

    /* predecessors */
    require.Same(t, bbs[0], bbs[1].UniquePred())
    require.Same(t, bbs[0], bbs[2].UniquePred())
    require.Nil(t, bbs[3].UniquePred())
    require.Equal(t, 2, bbs[3].PredCount())
    require.NoError(t, Verify(m))
}

func TestCFG_DuplicateEdges(t *testing.T) {
    m, bbs := buildDiamond()

    /* a second transfer between the same blocks */
    e := m.AddRefPred(bbs[3], bbs[1])
    require.Equal(t, 2, e.Dups)
    require.Equal(t, 3, bbs[3].PredCount())
    require.Error(t, Verify(m))

    /* and back */
    m.RemoveRefPred(bbs[3], bbs[1])
    require.Equal(t, 1, bbs[3].Pred(bbs[1]).Dups)
    require.NoError(t, Verify(m))
    require.Panics(t, func() { m.RemoveRefPred(bbs[1], bbs[3]) })
}

func TestCFG_RemoveBlock(t *testing.T) {
    m, bbs := buildDiamond()
    require.Panics(t, func() { m.RemoveBlock(bbs[1]) })

    /* bb0 jumps to bb2 unconditionally now */
    m.UnlinkSuccs(bbs[0])
    bbs[0].Kind = JumpAlways
    m.LinkSuccs(bbs[0])

    /* bb1 still flows into bb3 */
    require.Empty(t, bbs[1].Preds)
    require.Panics(t, func() { m.RemoveBlock(bbs[1]) })

    /* unlink it first */
    m.UnlinkSuccs(bbs[1])
    m.RemoveBlock(bbs[1])
    require.Equal(t, []*BasicBlock{bbs[0], bbs[2], bbs[3]}, m.Blocks())
    require.Same(t, bbs[2], bbs[0].Next())
    require.Nil(t, bbs[1].Method())
    require.NoError(t, Verify(m))
}

func TestCFG_Statements(t *testing.T) {
    b := NewBuilder("stmts", TypeVoid)
    x := b.NewLocal("x", TypeInt)
    bb := b.Block()
    s1 := b.Append(bb, b.Store(x, b.Int(1)))
    s3 := b.Append(bb, b.Store(x, b.Int(3)))
    b.Ret(bb, Nil)

    /* insert in the middle and at the head */
    s2 := b.NewStatement(b.Store(x, b.Int(2)))
    s0 := b.NewStatement(b.Store(x, b.Int(0)))
    b.InsertStmtAfter(bb, s1, s2)
    b.InsertStmtAfter(bb, nil, s0)
    require.Equal(t, 5, bb.StmtCount())
    require.Equal(t, []*Statement{s0, s1, s2, s3, bb.Last()}, bb.Statements())
    require.Panics(t, func() { b.InsertStmtAfter(bb, nil, s0) })

    /* remove keeps the order */
    b.RemoveStmt(s2)
    b.RemoveStmt(s0)
    require.Equal(t, []*Statement{s1, s3, bb.Last()}, bb.Statements())
    require.Nil(t, s2.Block())
    require.Panics(t, func() { b.RemoveStmt(s2) })
    require.NoError(t, Verify(b.Finish()))
}
