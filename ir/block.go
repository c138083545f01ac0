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
    `strings`
)

type BlockID int

// JumpKind is the control transfer at the end of a block.
type JumpKind uint8

const (
    JumpNone JumpKind = iota
    JumpAlways
    JumpCond
    JumpSwitch
    JumpReturn
    JumpThrow
)

func (self JumpKind) String() string {
    switch self {
        case JumpNone   : return "fallthrough"
        case JumpAlways : return "always"
        case JumpCond   : return "cond"
        case JumpSwitch : return "switch"
        case JumpReturn : return "return"
        case JumpThrow  : return "throw"
        default         : panic("unreachable")
    }
}

// SwitchDesc is the dispatch table of a JumpSwitch block. Targets holds one
// entry per table slot, the last entry is the default target.
type SwitchDesc struct {
    Targets []*BasicBlock
    BitTest bool
}

func (self *SwitchDesc) Default() *BasicBlock {
    return self.Targets[len(self.Targets) - 1]
}

// Unique returns the distinct targets in order of first appearance.
func (self *SwitchDesc) Unique() []*BasicBlock {
    return uniqueBlocks(self.Targets)
}

// Edge is a predecessor edge. Dups counts how many control transfers of From
// reach the owning block, a dispatch table may reach one block many times.
type Edge struct {
    From *BasicBlock
    Dups int
}

type BasicBlock struct {
    ID     BlockID
    Kind   JumpKind
    Target *BasicBlock
    Switch *SwitchDesc
    Rarely bool
    Preds  []*Edge
    prev   *BasicBlock
    next   *BasicBlock
    first  *Statement
    last   *Statement
    nstmt  int
    method *Method
}

func (self *BasicBlock) Next() *BasicBlock       { return self.next }
func (self *BasicBlock) Prev() *BasicBlock       { return self.prev }
func (self *BasicBlock) First() *Statement       { return self.first }
func (self *BasicBlock) Last() *Statement        { return self.last }
func (self *BasicBlock) StmtCount() int          { return self.nstmt }
func (self *BasicBlock) Method() *Method         { return self.method }

func (self *BasicBlock) String() string {
    return fmt.Sprintf("BB%02d", self.ID)
}

func (self *BasicBlock) Statements() []*Statement {
    ret := make([]*Statement, 0, self.nstmt)
    for p := self.first; p != nil; p = p.next {
        ret = append(ret, p)
    }
    return ret
}

// Succs returns the successors as a multiset, one entry per control transfer.
// The fallthrough successor of a conditional block comes first.
func (self *BasicBlock) Succs() []*BasicBlock {
    switch self.Kind {
        case JumpNone   : return nonNilBlocks(self.next)
        case JumpAlways : return nonNilBlocks(self.Target)
        case JumpCond   : return nonNilBlocks(self.next, self.Target)
        case JumpSwitch : return append([]*BasicBlock(nil), self.Switch.Targets...)
        default         : return nil
    }
}

func (self *BasicBlock) UniqueSuccs() []*BasicBlock {
    return uniqueBlocks(self.Succs())
}

// Pred returns the predecessor edge from the given block, if any.
func (self *BasicBlock) Pred(from *BasicBlock) *Edge {
    for _, e := range self.Preds {
        if e.From == from {
            return e
        }
    }
    return nil
}

// PredCount returns the number of incoming control transfers.
func (self *BasicBlock) PredCount() (n int) {
    for _, e := range self.Preds {
        n += e.Dups
    }
    return
}

// UniquePred returns the only predecessor if exactly one control transfer
// reaches this block.
func (self *BasicBlock) UniquePred() *BasicBlock {
    if len(self.Preds) != 1 || self.Preds[0].Dups != 1 {
        return nil
    } else {
        return self.Preds[0].From
    }
}

func (self *BasicBlock) describe() string {
    var pred []string
    for _, e := range self.Preds {
        if e.Dups == 1 {
            pred = append(pred, e.From.String())
        } else {
            pred = append(pred, fmt.Sprintf("%s*%d", e.From, e.Dups))
        }
    }

    /* the terminator */
    term := self.Kind.String()
    switch self.Kind {
        case JumpAlways, JumpCond: {
            term += " -> " + self.Target.String()
        }
        case JumpSwitch: {
            tab := make([]string, 0, len(self.Switch.Targets))
            for _, bb := range self.Switch.Targets {
                tab = append(tab, bb.String())
            }
            term += " -> [" + strings.Join(tab, ", ") + "]"
        }
    }

    /* join them together */
    return fmt.Sprintf(
        "%s [%s] preds={%s}",
        self,
        term,
        strings.Join(pred, ", "),
    )
}

func nonNilBlocks(bbs ...*BasicBlock) []*BasicBlock {
    ret := bbs[:0]
    for _, bb := range bbs {
        if bb != nil {
            ret = append(ret, bb)
        }
    }
    return ret
}

func uniqueBlocks(bbs []*BasicBlock) []*BasicBlock {
    ret := make([]*BasicBlock, 0, 2)
    for _, bb := range bbs {
        if !containsBlock(ret, bb) {
            ret = append(ret, bb)
        }
    }
    return ret
}

func containsBlock(bbs []*BasicBlock, bb *BasicBlock) bool {
    for _, v := range bbs {
        if v == bb {
            return true
        }
    }
    return false
}
