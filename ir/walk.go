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
    `github.com/oleiade/lane`
)

// Slot identifies an operand position: operand Index of Parent, or the root
// of the statement when Parent is Nil. Substitution rebinds a slot.
type Slot struct {
    Parent NodeID
    Index  int
}

// RootSlot is the slot holding a statement root.
var RootSlot = Slot{Parent: Nil}

func (self Slot) IsRoot() bool {
    return self.Parent == Nil
}

// Operand returns the node bound to a slot of a statement.
func (self *Method) Operand(s *Statement, slot Slot) NodeID {
    if slot.IsRoot() {
        return s.Root
    } else {
        return self.Node(slot.Parent).Kids[slot.Index]
    }
}

// SetOperand rebinds a slot of a statement to another tree. The caller is
// responsible for the locals list and the effect flags of the ancestors.
func (self *Method) SetOperand(s *Statement, slot Slot, id NodeID) {
    if slot.IsRoot() {
        s.Root = id
    } else {
        self.Node(slot.Parent).Kids[slot.Index] = id
    }
}

// ExecIndex maps the k-th operand in evaluation order to its operand index.
// Operands evaluate left to right, except that an assignment evaluates its
// value before its destination.
func ExecIndex(p *Node, k int) int {
    if p.Op == OpAsg {
        return 1 - k
    } else {
        return k
    }
}

type _Frame struct {
    id   NodeID
    slot Slot
    next int
}

// Walk visits the tree rooted at root in execution order (operands before
// their parent) and reports each node with the slot it is bound to. The
// walk stops early when visit returns false, and Walk then returns false.
func (self *Method) Walk(root NodeID, visit func(id NodeID, slot Slot) bool) bool {
    st := lane.NewStack()
    st.Push(&_Frame{id: root, slot: RootSlot})

    /* iterate until all the frames are popped */
    for !st.Empty() {
        fp := st.Head().(*_Frame)
        np := self.Node(fp.id)

        /* descend into the next operand if any */
        if fp.next < len(np.Kids) {
            i := ExecIndex(np, fp.next)
            fp.next++
            st.Push(&_Frame{id: np.Kids[i], slot: Slot{Parent: fp.id, Index: i}})
            continue
        }

        /* all operands are done, visit the node */
        if st.Pop(); !visit(fp.id, fp.slot) {
            return false
        }
    }

    /* all nodes are visited */
    return true
}

// TreeSize counts the nodes of a tree.
func (self *Method) TreeSize(root NodeID) (n int) {
    self.Walk(root, func(NodeID, Slot) bool {
        n++
        return true
    })
    return
}

// LocalsIn returns the local nodes of a tree in execution order.
func (self *Method) LocalsIn(root NodeID) (ret []NodeID) {
    self.Walk(root, func(id NodeID, _ Slot) bool {
        if self.Node(id).Op.IsLocal() {
            ret = append(ret, id)
        }
        return true
    })
    return
}

// Contains reports whether any node of the tree satisfies pred.
func (self *Method) Contains(root NodeID, pred func(p *Node) bool) bool {
    return !self.Walk(root, func(id NodeID, _ Slot) bool {
        return !pred(self.Node(id))
    })
}
