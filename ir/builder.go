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

// Builder assembles a method block by block. Terminators are recorded on
// the blocks, and Finish links every predecessor edge at once.
type Builder struct {
    *Method
}

func NewBuilder(name string, ret Type) *Builder {
    return &Builder{NewMethod(name, ret)}
}

// Block appends a new fallthrough block to the layout.
func (self *Builder) Block() *BasicBlock {
    return self.NewBlock()
}

// Append adds a non-terminating statement to the end of bb.
func (self *Builder) Append(bb *BasicBlock, root NodeID) *Statement {
    return self.AppendStmt(bb, root)
}

// Goto ends bb with an unconditional jump.
func (self *Builder) Goto(bb *BasicBlock, to *BasicBlock) {
    bb.Kind = JumpAlways
    bb.Target = to
}

// Cond ends bb with a conditional jump to `to`, falling through otherwise.
func (self *Builder) Cond(bb *BasicBlock, cmp NodeID, to *BasicBlock) *Statement {
    bb.Kind = JumpCond
    bb.Target = to
    return self.AppendStmt(bb, self.JTrue(cmp))
}

// SwitchOn ends bb with a dispatch on x, the last target is the default.
func (self *Builder) SwitchOn(bb *BasicBlock, x NodeID, targets ...*BasicBlock) *Statement {
    if len(targets) < 2 {
        panic("ir: a switch needs at least one case and a default")
    }
    bb.Kind = JumpSwitch
    bb.Switch = &SwitchDesc{Targets: targets}
    return self.AppendStmt(bb, self.Switch(x))
}

// Ret ends bb with a return of x, which may be Nil.
func (self *Builder) Ret(bb *BasicBlock, x NodeID) *Statement {
    bb.Kind = JumpReturn
    return self.AppendStmt(bb, self.Return(x))
}

// Throw ends bb with a call that never returns.
func (self *Builder) Throw(bb *BasicBlock, name string) *Statement {
    bb.Kind = JumpThrow
    return self.AppendStmt(bb, self.Call(&CallInfo{Name: name, Kind: CallHelper, NoReturn: true}, TypeVoid))
}

// Finish links the predecessor edges and computes the reference counts.
func (self *Builder) Finish() *Method {
    for bb := self.first; bb != nil; bb = bb.next {
        switch bb.Kind {
            case JumpNone, JumpCond: {
                if bb.next == nil {
                    panic(fmt.Sprintf("ir: %s falls off the end of the method", bb))
                }
            }
        }

        /* jumps must have a target */
        switch bb.Kind {
            case JumpAlways, JumpCond: {
                if bb.Target == nil {
                    panic(fmt.Sprintf("ir: %s has no jump target", bb))
                }
            }
        }
    }

    /* add all the edges */
    for bb := self.first; bb != nil; bb = bb.next {
        self.LinkSuccs(bb)
    }

    /* reference counts */
    CountRefs(self.Method)
    return self.Method
}
