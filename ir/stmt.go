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

// Statement owns one expression tree. Locals lists every local node of the
// tree in execution order and must be kept in sync with the tree.
type Statement struct {
    ID     int
    Root   NodeID
    Locals []NodeID
    block  *BasicBlock
    prev   *Statement
    next   *Statement
}

func (self *Statement) Block() *BasicBlock { return self.block }
func (self *Statement) Next() *Statement   { return self.next }
func (self *Statement) Prev() *Statement   { return self.prev }

// NewStatement creates a detached statement, with its locals list and
// effect flags computed from the tree.
func (self *Method) NewStatement(root NodeID) *Statement {
    self.nextStmt++
    s := &Statement {
        ID   : self.nextStmt,
        Root : root,
    }

    /* index the tree */
    self.SequenceLocals(s)
    self.UpdateStmtFlags(s)
    return s
}

// AppendStmt adds a new statement to the end of the block.
func (self *Method) AppendStmt(bb *BasicBlock, root NodeID) *Statement {
    s := self.NewStatement(root)
    self.InsertStmtAfter(bb, bb.last, s)
    return s
}

// InsertStmtAfter links s after pos, or at the head of the block when pos is nil.
func (self *Method) InsertStmtAfter(bb *BasicBlock, pos *Statement, s *Statement) {
    if s.block != nil {
        panic("ir: statement is already linked")
    }

    /* link into the list */
    if pos == nil {
        s.next = bb.first
        bb.first = s
    } else {
        if pos.block != bb {
            panic("ir: insertion point belongs to another block")
        }
        s.next = pos.next
        pos.next = s
    }

    /* fix the back links */
    s.prev = pos
    s.block = bb
    bb.nstmt++

    /* update the tail */
    if s.next == nil {
        bb.last = s
    } else {
        s.next.prev = s
    }
}

// RemoveStmt unlinks a statement from its block, the order of the remaining
// statements is unchanged.
func (self *Method) RemoveStmt(s *Statement) {
    bb := s.block
    if bb == nil {
        panic("ir: removing a detached statement")
    }

    /* unlink from the previous statement */
    if s.prev == nil {
        bb.first = s.next
    } else {
        s.prev.next = s.next
    }

    /* unlink from the next statement */
    if s.next == nil {
        bb.last = s.prev
    } else {
        s.next.prev = s.prev
    }

    /* clear the links */
    bb.nstmt--
    s.prev, s.next, s.block = nil, nil, nil
}
