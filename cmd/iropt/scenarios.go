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

package main

import (
	"sort"

	"github.com/cloudwego/iropt/ir"
)

var scenarios = map[string]func() *ir.Method{
	"chain":    buildChain,
	"ladder":   buildLadder,
	"distinct": buildDistinct,
	"default":  buildDefault,
}

func scenarioNames() []string {
	ret := make([]string, 0, len(scenarios))
	for k := range scenarios {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}

// t1 = a + b; t2 = t1 * 2; return t2
func buildChain() *ir.Method {
	b := ir.NewBuilder("chain", ir.TypeInt)
	a := b.NewParam("a", ir.TypeInt)
	c := b.NewParam("b", ir.TypeInt)
	t1 := b.NewLocal("t1", ir.TypeInt)
	t2 := b.NewLocal("t2", ir.TypeInt)

	// single block
	bb := b.Block()
	b.Append(bb, b.Store(t1, b.Add(b.Var(a), b.Var(c))))
	b.Append(bb, b.Store(t2, b.Mul(b.Var(t1), b.Int(2))))
	b.Ret(bb, b.Var(t2))
	return b.Finish()
}

// if x == 0 goto L; if x == 1 goto L; if x == 2 goto L; M: return 0; L: return 1
func buildLadder() *ir.Method {
	b := ir.NewBuilder("ladder", ir.TypeInt)
	x := b.NewParam("x", ir.TypeInt)

	// the chain and the targets
	b0, b1, b2 := b.Block(), b.Block(), b.Block()
	mm, ll := b.Block(), b.Block()
	b.Cond(b0, b.Eq(b.Var(x), b.Int(0)), ll)
	b.Cond(b1, b.Eq(b.Var(x), b.Int(1)), ll)
	b.Cond(b2, b.Eq(b.Var(x), b.Int(2)), ll)
	b.Ret(mm, b.Int(0))
	b.Ret(ll, b.Int(1))
	return b.Finish()
}

// if x == 1 goto L1; if x == 2 goto L2; if x == 3 goto L3; return 0
func buildDistinct() *ir.Method {
	b := ir.NewBuilder("distinct", ir.TypeInt)
	x := b.NewParam("x", ir.TypeInt)

	// the chain and the targets
	b0, b1, b2 := b.Block(), b.Block(), b.Block()
	dd, l1, l2, l3 := b.Block(), b.Block(), b.Block(), b.Block()
	b.Cond(b0, b.Eq(b.Var(x), b.Int(1)), l1)
	b.Cond(b1, b.Eq(b.Var(x), b.Int(2)), l2)
	b.Cond(b2, b.Eq(b.Var(x), b.Int(3)), l3)
	b.Ret(dd, b.Int(0))
	b.Ret(l1, b.Int(1))
	b.Ret(l2, b.Int(2))
	b.Ret(l3, b.Int(3))
	return b.Finish()
}

// if x == 1 goto L; if x == 2 goto L; if x != 3 goto M; L: return 1; M: return 0
func buildDefault() *ir.Method {
	b := ir.NewBuilder("default", ir.TypeInt)
	x := b.NewParam("x", ir.TypeInt)

	// the chain and the targets
	b0, b1, b2 := b.Block(), b.Block(), b.Block()
	ll, mm := b.Block(), b.Block()
	b.Cond(b0, b.Eq(b.Var(x), b.Int(1)), ll)
	b.Cond(b1, b.Eq(b.Var(x), b.Int(2)), ll)
	b.Cond(b2, b.Ne(b.Var(x), b.Int(3)), mm)
	b.Ret(ll, b.Int(1))
	b.Ret(mm, b.Int(0))
	return b.Finish()
}
