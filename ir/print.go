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

// Format renders a tree as an infix expression.
func (self *Method) Format(id NodeID) string {
    var sb strings.Builder
    self.format(&sb, id)
    return sb.String()
}

func (self *Method) format(sb *strings.Builder, id NodeID) {
    p := self.Node(id)
    switch p.Op {
        case OpLclVar   : sb.WriteString(self.Local(p.Lcl).Name)
        case OpLclFld   : fmt.Fprintf(sb, "%s.<%s@%d>", self.Local(p.Lcl).Name, p.Type, p.Offs)
        case OpLclAddr  : sb.WriteString("&" + self.Local(p.Lcl).Name)
        case OpConst    : fmt.Fprintf(sb, "%d", p.Val)
        case OpCatchArg : sb.WriteString("catchArg")
        case OpCast     : self.formatCall(sb, fmt.Sprintf("cast<%s>", p.Type), p.Kids)
        case OpInd      : self.formatCall(sb, fmt.Sprintf("ind<%s>", p.Type), p.Kids)
        case OpNeg      : self.formatCall(sb, "neg", p.Kids)
        case OpNot      : self.formatCall(sb, "not", p.Kids)
        case OpLclHeap  : self.formatCall(sb, "lclHeap", p.Kids)
        case OpSelect   : self.formatCall(sb, "select", p.Kids)
        case OpCall     : self.formatInvoke(sb, p)
        case OpJTrue    : self.formatPrefix(sb, "jtrue ", p.Kids)
        case OpSwitch   : self.formatPrefix(sb, "switch ", p.Kids)
        case OpReturn   : self.formatPrefix(sb, "return", p.Kids)
        default         : self.formatBinary(sb, p)
    }
}

func (self *Method) formatCall(sb *strings.Builder, name string, args []NodeID) {
    sb.WriteString(name)
    sb.WriteByte('(')

    /* the arguments */
    for i, v := range args {
        if i != 0 {
            sb.WriteString(", ")
        }
        self.format(sb, v)
    }

    /* close the argument list */
    sb.WriteByte(')')
}

func (self *Method) formatInvoke(sb *strings.Builder, p *Node) {
    if p.Call.Kind != CallIndirect {
        self.formatCall(sb, p.Call.Name, p.Kids)
    } else {
        self.formatCall(sb, "[" + self.Format(p.Kids[len(p.Kids) - 1]) + "]", p.Kids[:len(p.Kids) - 1])
    }
}

func (self *Method) formatPrefix(sb *strings.Builder, name string, args []NodeID) {
    if sb.WriteString(name); len(args) != 0 {
        if name[len(name) - 1] != ' ' {
            sb.WriteByte(' ')
        }
        self.format(sb, args[0])
    }
}

func (self *Method) formatBinary(sb *strings.Builder, p *Node) {
    if !p.Op.IsBinary() {
        panic("ir: cannot format node: " + p.Op.String())
    }

    /* assignments at the root are not parenthesized */
    if p.Op == OpAsg {
        self.format(sb, p.Kids[0])
        sb.WriteString(" = ")
        self.format(sb, p.Kids[1])
        return
    }

    /* infix operators */
    sb.WriteByte('(')
    self.format(sb, p.Kids[0])
    sb.WriteString(" " + p.Op.String() + " ")
    self.format(sb, p.Kids[1])
    sb.WriteByte(')')
}

// Dump renders the whole method, one block header followed by its statements.
func (self *Method) Dump() string {
    var sb strings.Builder
    fmt.Fprintf(&sb, "method %s %s:\n", self.Name, self.RetType)

    /* the local table */
    for _, dsc := range self.Locals {
        fmt.Fprintf(&sb, "    %s %s refs=%d\n", dsc, dsc.Type, dsc.RefCount)
    }

    /* every block */
    for bb := self.first; bb != nil; bb = bb.next {
        sb.WriteString(bb.describe())
        sb.WriteByte('\n')

        /* every statement */
        for s := bb.first; s != nil; s = s.next {
            fmt.Fprintf(&sb, "    S%03d [%s] %s\n", s.ID, self.StmtFlags(s), self.Format(s.Root))
        }
    }
    return sb.String()
}
