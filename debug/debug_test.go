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

package debug

import (
	"context"
	"testing"

	"github.com/cloudwego/iropt"
	"github.com/cloudwego/iropt/ir"
	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"
)

func TestGetStats(t *testing.T) {
	b := ir.NewBuilder("stats", ir.TypeInt)
	a := b.NewParam("a", ir.TypeInt)
	v := b.NewLocal("v", ir.TypeInt)

	// v = a + 1; return v
	bb := b.Block()
	b.Append(bb, b.Store(v, b.Add(b.Var(a), b.Int(1))))
	b.Ret(bb, b.Var(v))
	m := b.Finish()

	// one method, one substitution
	before := GetStats()
	_, err := iropt.Optimize(context.Background(), m, iropt.WithTarget(iropt.AMD64))
	require.NoError(t, err)
	after := GetStats()
	spew.Dump(after)

	// the counters only grow
	require.GreaterOrEqual(t, after.Methods - before.Methods, 1)
	require.GreaterOrEqual(t, after.ForwardSub.Substituted - before.ForwardSub.Substituted, 1)
	require.GreaterOrEqual(t, after.Switch.Converted, before.Switch.Converted)
}
