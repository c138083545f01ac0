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
    `fmt`
)

func (self *Method) FirstBlock() *BasicBlock { return self.first }
func (self *Method) LastBlock() *BasicBlock  { return self.last }
func (self *Method) BlockCount() int         { return self.nblocks }

// Blocks returns the blocks in layout order.
func (self *Method) Blocks() []*BasicBlock {
    ret := make([]*BasicBlock, 0, self.nblocks)
    for bb := self.first; bb != nil; bb = bb.next {
        ret = append(ret, bb)
    }
    return ret
}

// NewBlock appends an empty fallthrough block to the layout.
func (self *Method) NewBlock() *BasicBlock {
    bb := &BasicBlock {
        ID     : self.nextBB,
        method : self,
    }

    /* link to the end of the layout */
    if bb.prev = self.last; self.last == nil {
        self.first = bb
    } else {
        self.last.next = bb
    }

    /* update the tail */
    self.last = bb
    self.nextBB++
    self.nblocks++
    return bb
}

// AddRefPred records one more control transfer from `from` to `to`.
func (self *Method) AddRefPred(to *BasicBlock, from *BasicBlock) *Edge {
    if e := to.Pred(from); e != nil {
        e.Dups++
        return e
    }

    /* new predecessor */
    e := &Edge{From: from, Dups: 1}
    to.Preds = append(to.Preds, e)
    return e
}

// RemoveRefPred drops one control transfer from `from` to `to`.
func (self *Method) RemoveRefPred(to *BasicBlock, from *BasicBlock) {
    for i, e := range to.Preds {
        if e.From != from {
            continue
        }

        /* still referenced by other transfers */
        if e.Dups--; e.Dups != 0 {
            return
        }

        /* no more references, remove the edge */
        to.Preds = append(to.Preds[:i], to.Preds[i + 1:]...)
        return
    }

    /* the edge must exist */
    panic(fmt.Sprintf("ir: no edge %s -> %s", from, to))
}

// LinkSuccs adds a pred edge for every control transfer out of bb.
func (self *Method) LinkSuccs(bb *BasicBlock) {
    for _, succ := range bb.Succs() {
        self.AddRefPred(succ, bb)
    }
}

// UnlinkSuccs removes the pred edges of every control transfer out of bb.
func (self *Method) UnlinkSuccs(bb *BasicBlock) {
    for _, succ := range bb.Succs() {
        self.RemoveRefPred(succ, bb)
    }
}

// RemoveBlock unlinks an unreachable block from the layout. The block must
// have no incoming edges, and its outgoing edges must already be removed.
func (self *Method) RemoveBlock(bb *BasicBlock) {
    if bb.method != self {
        panic("ir: block does not belong to this method")
    }

    /* must be unreachable */
    if len(bb.Preds) != 0 {
        panic(fmt.Sprintf("ir: removing %s which still has predecessors", bb))
    }

    /* must not be referenced as a predecessor */
    for p := self.first; p != nil; p = p.next {
        if p != bb && p.Pred(bb) != nil {
            panic(fmt.Sprintf("ir: removing %s which still flows into %s", bb, p))
        }
    }

    /* unlink from the previous block */
    if bb.prev == nil {
        self.first = bb.next
    } else {
        bb.prev.next = bb.next
    }

    /* unlink from the next block */
    if bb.next == nil {
        self.last = bb.prev
    } else {
        bb.next.prev = bb.prev
    }

    /* drop the block */
    self.nblocks--
    bb.prev, bb.next, bb.method = nil, nil, nil
}
