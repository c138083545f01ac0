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

// NodeID is the stable identity of a node within its method's arena.
type NodeID int32

// Nil is never allocated, it marks an absent node.
const Nil NodeID = 0

type Op uint8

const (
    OpInvalid Op = iota

    /* leaves */
    OpLclVar
    OpLclFld
    OpLclAddr
    OpConst
    OpCatchArg

    /* unary */
    OpNeg
    OpNot
    OpCast
    OpInd
    OpLclHeap

    /* binary */
    OpAdd
    OpSub
    OpMul
    OpDiv
    OpAnd
    OpOr
    OpXor
    OpLsh
    OpRsh
    OpEq
    OpNe
    OpLt
    OpLe
    OpGt
    OpGe
    OpComma
    OpAsg

    /* ternary */
    OpSelect

    /* n-ary */
    OpCall

    /* statement roots */
    OpJTrue
    OpSwitch
    OpReturn
)

var _OpNames = [...]string {
    OpInvalid  : "<invalid>",
    OpLclVar   : "lclVar",
    OpLclFld   : "lclFld",
    OpLclAddr  : "lclAddr",
    OpConst    : "const",
    OpCatchArg : "catchArg",
    OpNeg      : "neg",
    OpNot      : "not",
    OpCast     : "cast",
    OpInd      : "ind",
    OpLclHeap  : "lclHeap",
    OpAdd      : "+",
    OpSub      : "-",
    OpMul      : "*",
    OpDiv      : "/",
    OpAnd      : "&",
    OpOr       : "|",
    OpXor      : "^",
    OpLsh      : "<<",
    OpRsh      : ">>",
    OpEq       : "==",
    OpNe       : "!=",
    OpLt       : "<",
    OpLe       : "<=",
    OpGt       : ">",
    OpGe       : ">=",
    OpComma    : ",",
    OpAsg      : "=",
    OpSelect   : "select",
    OpCall     : "call",
    OpJTrue    : "jtrue",
    OpSwitch   : "switch",
    OpReturn   : "return",
}

func (self Op) String() string {
    if int(self) < len(_OpNames) {
        return _OpNames[self]
    } else {
        return fmt.Sprintf("op(%d)", uint8(self))
    }
}

func (self Op) IsLocal() bool {
    return self == OpLclVar || self == OpLclFld || self == OpLclAddr
}

func (self Op) IsCompare() bool {
    return self >= OpEq && self <= OpGe
}

func (self Op) IsBinary() bool {
    return self >= OpAdd && self <= OpAsg
}

// Flags is the per-node bitset. The effect bits summarize the whole subtree,
// the remaining bits describe the node itself.
type Flags uint32

const (
    FlagExcept Flags = 1 << iota
    FlagCall
    FlagAsg
    FlagGlobRef
    FlagVarDeath
)

const (
    _FieldDeathShift = 5
    MaxDeathFields   = 4
)

const (
    FlagsSideEffects = FlagExcept | FlagCall | FlagAsg
    FlagsAllEffects  = FlagsSideEffects | FlagGlobRef
    FlagsFieldDeath  = Flags(1 << MaxDeathFields - 1) << _FieldDeathShift
    FlagsDeath       = FlagVarDeath | FlagsFieldDeath
)

// FlagFieldDeath is the death marker of the i-th promoted field of a struct local.
func FlagFieldDeath(i int) Flags {
    if i < 0 || i >= MaxDeathFields {
        panic(fmt.Sprintf("ir: field death index out of range: %d", i))
    } else {
        return Flags(1) << (_FieldDeathShift + uint(i))
    }
}

func (self Flags) String() string {
    var ret []byte
    for _, v := range []struct { f Flags; c byte } {
        { FlagExcept  , 'X' },
        { FlagCall    , 'C' },
        { FlagAsg     , 'A' },
        { FlagGlobRef , 'G' },
        { FlagVarDeath, 'D' },
    } {
        if self & v.f != 0 {
            ret = append(ret, v.c)
        } else {
            ret = append(ret, '-')
        }
    }
    return string(ret)
}

type CallKind uint8

const (
    CallUser CallKind = iota
    CallHelper
    CallIndirect
)

// CallInfo describes a call node. The arguments are the node's operands in
// order, an indirect call carries its target address as the last operand.
type CallInfo struct {
    Name     string
    Kind     CallKind
    NoReturn bool
    RetRegs  int
}

type Node struct {
    ID    NodeID
    Op    Op
    Type  Type
    Flags Flags
    Kids  []NodeID
    Lcl   LclNum
    Offs  int
    Val   int64
    Call  *CallInfo
}

// Effects returns the subtree effect summary of the node.
func (self *Node) Effects() Flags {
    return self.Flags & FlagsAllEffects
}

// IsIndirectTarget reports whether operand i is the target address of an indirect call.
func (self *Node) IsIndirectTarget(i int) bool {
    return self.Op == OpCall && self.Call.Kind == CallIndirect && i == len(self.Kids) - 1
}

const (
    _ChunkBits = 8
    _ChunkSize = 1 << _ChunkBits
    _ChunkMask = _ChunkSize - 1
)

// Arena stores the nodes of one method. Nodes are allocated in fixed-size
// chunks, so *Node pointers stay valid while the arena grows.
type Arena struct {
    n      int
    chunks [][]Node
}

func (self *Arena) alloc(op Op, t Type) *Node {
    if self.n == 0 {
        self.grow()
        self.n = 1
    }

    /* need a new chunk */
    if self.n & _ChunkMask == 0 {
        self.grow()
    }

    /* take the next free slot */
    id := NodeID(self.n)
    p := &self.chunks[self.n >> _ChunkBits][self.n & _ChunkMask]
    self.n++

    /* initialize the node */
    *p = Node {
        ID   : id,
        Op   : op,
        Type : t,
        Lcl  : NoLcl,
    }
    return p
}

func (self *Arena) grow() {
    self.chunks = append(self.chunks, make([]Node, _ChunkSize))
}

// At returns the node with the given identity.
func (self *Arena) At(id NodeID) *Node {
    if id <= Nil || int(id) >= self.n {
        panic(fmt.Sprintf("ir: node id out of range: %d", id))
    } else {
        return &self.chunks[id >> _ChunkBits][id & _ChunkMask]
    }
}

// Len returns the number of allocated nodes.
func (self *Arena) Len() int {
    if self.n == 0 {
        return 0
    } else {
        return self.n - 1
    }
}
