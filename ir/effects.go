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

// nodeEffects returns the effects a node has by itself, regardless of its operands.
func (self *Method) nodeEffects(p *Node) Flags {
    switch p.Op {
        case OpLclVar, OpLclFld: {
            if self.IsAddrExposed(p.Lcl) {
                return FlagGlobRef
            } else {
                return 0
            }
        }

        /* memory access may fault and observes global state */
        case OpInd: {
            return FlagExcept | FlagGlobRef
        }

        /* division by zero, stack overflow */
        case OpDiv, OpLclHeap: {
            return FlagExcept
        }

        /* calls may do anything */
        case OpCall: {
            return FlagCall | FlagExcept | FlagGlobRef
        }

        /* stores are assignments, stores to memory are also global references */
        case OpAsg: {
            if dst := self.Node(p.Kids[0]); dst.Op == OpInd || (dst.Op.IsLocal() && self.IsAddrExposed(dst.Lcl)) {
                return FlagAsg | FlagGlobRef
            } else {
                return FlagAsg
            }
        }

        /* everything else is pure */
        default: {
            return 0
        }
    }
}

// IsAddrExposed reports whether a local, or the struct it was promoted from,
// has its address exposed.
func (self *Method) IsAddrExposed(lcl LclNum) bool {
    dsc := self.Local(lcl)
    return dsc.AddrExposed || (dsc.IsStructField() && self.Local(dsc.Parent).AddrExposed)
}

func (self *Method) seal(p *Node) NodeID {
    fl := self.nodeEffects(p)
    for _, k := range p.Kids {
        fl |= self.Node(k).Effects()
    }
    p.Flags = (p.Flags &^ FlagsAllEffects) | fl
    return p.ID
}

// UpdateFlags recomputes the effect summary of every node of a tree from the
// leaves up, and returns the summary of the root.
func (self *Method) UpdateFlags(root NodeID) Flags {
    self.Walk(root, func(id NodeID, _ Slot) bool {
        self.seal(self.Node(id))
        return true
    })
    return self.Node(root).Effects()
}

// UpdateStmtFlags refreshes the effect summary of a statement.
func (self *Method) UpdateStmtFlags(s *Statement) Flags {
    return self.UpdateFlags(s.Root)
}

// StmtFlags returns the cached effect summary of a statement.
func (self *Method) StmtFlags(s *Statement) Flags {
    return self.Node(s.Root).Effects()
}

// ComputeEffects returns the exact effect summary of a tree without touching
// the cached flags.
func (self *Method) ComputeEffects(root NodeID) Flags {
    p := self.Node(root)
    fl := self.nodeEffects(p)
    for _, k := range p.Kids {
        fl |= self.ComputeEffects(k)
    }
    return fl
}
