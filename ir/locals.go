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
    `golang.org/x/exp/slices`
)

// SequenceLocals rebuilds the locals list of a statement from its tree.
func (self *Method) SequenceLocals(s *Statement) {
    s.Locals = self.LocalsIn(s.Root)
}

// LocalIndex returns the position of a local node in the locals list, or -1.
func (self *Statement) LocalIndex(id NodeID) int {
    return slices.Index(self.Locals, id)
}

// SpliceLocals replaces the locals list entry at index i with the given
// entries, keeping the relative order of everything else.
func (self *Statement) SpliceLocals(i int, ids []NodeID) {
    self.Locals = slices.Delete(self.Locals, i, i + 1)
    self.Locals = slices.Insert(self.Locals, i, ids...)
}

// IsLastUse reports whether a local read is the last use of the local's value.
// A promoted struct read is a last use only when every field dies there.
func (self *Method) IsLastUse(id NodeID) bool {
    p := self.Node(id)
    if p.Op != OpLclVar && p.Op != OpLclFld {
        return false
    }

    /* scalar locals carry a single marker */
    dsc := self.Local(p.Lcl)
    if !dsc.Promoted || p.Op != OpLclVar {
        return p.Flags & FlagVarDeath != 0
    }

    /* every field must die */
    for i := range dsc.Fields {
        if p.Flags & FlagFieldDeath(i) == 0 {
            return false
        }
    }
    return true
}
