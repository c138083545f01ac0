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
    `strings`
    `testing`

    `github.com/davecgh/go-spew/spew`
    `github.com/stretchr/testify/require`
)

func buildCalls() (*Method, *Statement) {
    b := NewBuilder("calls", TypeInt)
    a := b.NewParam("a", TypeInt)
    v := b.NewLocal("v", TypeInt)

    /* v = f(a) + 1; return v */
    bb := b.Block()
    s := b.Append(bb, b.Store(v, b.Add(b.Call(&CallInfo{Name: "f"}, TypeInt, b.Var(a)), b.Int(1))))
    b.Ret(bb, b.Var(v))
    return b.Finish(), s
}

func TestVerify_Valid(t *testing.T) {
    m, _ := buildCalls()
    require.NoError(t, Verify(m))
    m, _ = buildDiamond()
    require.NoError(t, Verify(m))
}

func TestVerify_StaleLocals(t *testing.T) {
    m, s := buildCalls()
    s.Locals = s.Locals[1:]
    err := Verify(m)
    require.Error(t, err)
    require.Contains(t, err.Error(), "locals list")

    /* recompute */
    m.SequenceLocals(s)
    require.NoError(t, Verify(m))

    /* wrong order */
    s.Locals[0], s.Locals[1] = s.Locals[1], s.Locals[0]
    require.Error(t, Verify(m))
}

func TestVerify_UnderApproximatedFlags(t *testing.T) {
    m, s := buildCalls()
    m.Node(s.Root).Flags &^= FlagCall
    require.Error(t, Verify(m))

    /* extra flags are fine */
    m.UpdateStmtFlags(s)
    m.Node(s.Root).Flags |= FlagGlobRef | FlagExcept
    require.NoError(t, Verify(m))
}

func TestVerify_Terminators(t *testing.T) {
    m, bbs := buildDiamond()
    bbs[3].Kind = JumpNone
    require.Error(t, Verify(m))

    /* a conditional block must end with a conditional jump */
    m, bbs = buildDiamond()
    m.RemoveStmt(bbs[0].First())
    require.Error(t, Verify(m))

    /* edges must match the transfers */
    m, bbs = buildDiamond()
    m.RemoveRefPred(bbs[2], bbs[0])
    err := Verify(m)
    require.Error(t, err)
    require.Contains(t, err.Error(), "edges")
}

func TestPrint_Format(t *testing.T) {
    b := NewBuilder("print", TypeInt)
    a := b.NewParam("a", TypeInt)
    p := b.NewParam("p", TypeByRef)
    s := b.NewStruct("s", 16)

    /* expressions */
    require.Equal(t, "((a + 1) * 2)", b.Format(b.Mul(b.Add(b.Var(a), b.Int(1)), b.Int(2))))
    require.Equal(t, "a = neg(a)", b.Format(b.Store(a, b.Neg(b.Var(a)))))
    require.Equal(t, "ind<int>(p)", b.Format(b.Ind(TypeInt, b.Var(p))))
    require.Equal(t, "s.<long@8>", b.Format(b.Field(s, TypeLong, 8)))
    require.Equal(t, "f(a, &s)", b.Format(b.Call(&CallInfo{Name: "f"}, TypeInt, b.Var(a), b.Addr(s))))
    require.Equal(t, "[p](a)", b.Format(b.CallIndirect(&CallInfo{}, TypeInt, b.Var(p), b.Var(a))))
    require.Equal(t, "jtrue (a == 0)", b.Format(b.JTrue(b.Eq(b.Var(a), b.Int(0)))))
    require.Equal(t, "return", b.Format(b.Return(Nil)))
}

func TestPrint_Dump(t *testing.T) {
    m, _ := buildDiamond()
    out := m.Dump()
    require.True(t, strings.HasPrefix(out, "method diamond int:\n"))
    require.Contains(t, out, "BB01 [cond -> BB03] preds={}")
    require.Contains(t, out, "BB04 [return] preds={BB02, BB03}")
    require.Contains(t, out, "jtrue (x == 0)")
    spew.Config.SortKeys = true
    spew.Config.DisablePointerMethods = true
    spew.Dump(m.Local(0))
}

func TestPrint_DOT(t *testing.T) {
    m, _ := buildDiamond()
    src, err := m.DOT()
    require.NoError(t, err)
    require.Contains(t, src, "digraph diamond")
    require.Contains(t, src, "BB01 -> BB02")
    require.Contains(t, src, "BB01 -> BB03")
    require.Equal(t, 4, strings.Count(src, "->"))
}
