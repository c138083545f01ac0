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

// Method is one compilation unit: the CFG, its statements, the node arena
// and the local table. A method is owned by exactly one worker at a time.
type Method struct {
    Name     string
    RetType  Type
    RetSize  int
    RetRegs  int
    Locals   []*Local
    Liveness bool
    nodes    Arena
    first    *BasicBlock
    last     *BasicBlock
    nblocks  int
    nextBB   BlockID
    nextStmt int
}

func NewMethod(name string, ret Type) *Method {
    return &Method {
        Name    : name,
        RetType : ret,
        RetSize : ret.Size(),
        nextBB  : 1,
    }
}

func (self *Method) Node(id NodeID) *Node {
    return self.nodes.At(id)
}

// NodeCount returns the number of nodes ever allocated in this method.
func (self *Method) NodeCount() int {
    return self.nodes.Len()
}

// NewLocal declares a scalar local.
func (self *Method) NewLocal(name string, t Type) LclNum {
    return self.addLocal(name, t, 0).Num
}

// NewParam declares a scalar parameter.
func (self *Method) NewParam(name string, t Type) LclNum {
    lcl := self.addLocal(name, t, 0)
    lcl.Param = true
    return lcl.Num
}

// NewStruct declares a struct local of the given size. Each field type
// given creates a promoted field local laid out back to back.
func (self *Method) NewStruct(name string, size int, fields ...Type) LclNum {
    var offs int
    lcl := self.addLocal(name, TypeStruct, size)

    /* no fields, the struct is not promoted */
    if len(fields) == 0 {
        return lcl.Num
    }

    /* too many fields to track */
    if len(fields) > MaxDeathFields {
        panic("ir: too many promoted fields")
    }

    /* add every field */
    for i, t := range fields {
        fld := self.addLocal(fmt.Sprintf("%s.f%d", name, i), t, 0)
        fld.Parent = lcl.Num
        fld.FieldOffset = offs
        offs += fld.Size
        lcl.Fields = append(lcl.Fields, fld.Num)
    }

    /* mark as promoted */
    lcl.Promoted = true
    return lcl.Num
}

func (self *Method) newNode(op Op, t Type, kids ...NodeID) *Node {
    p := self.nodes.alloc(op, t)
    p.Kids = kids
    return p
}

func (self *Method) Var(lcl LclNum) NodeID {
    p := self.newNode(OpLclVar, self.Local(lcl).Type)
    p.Lcl = lcl
    return self.seal(p)
}

func (self *Method) Field(lcl LclNum, t Type, offs int) NodeID {
    p := self.newNode(OpLclFld, t)
    p.Lcl = lcl
    p.Offs = offs
    return self.seal(p)
}

func (self *Method) Addr(lcl LclNum) NodeID {
    p := self.newNode(OpLclAddr, TypeByRef)
    p.Lcl = lcl
    return self.seal(p)
}

func (self *Method) Const(t Type, v int64) NodeID {
    p := self.newNode(OpConst, t)
    p.Val = v
    return self.seal(p)
}

func (self *Method) Int(v int64) NodeID {
    return self.Const(TypeInt, v)
}

func (self *Method) CatchArg() NodeID {
    return self.seal(self.newNode(OpCatchArg, TypeRef))
}

func (self *Method) Unary(op Op, t Type, x NodeID) NodeID {
    return self.seal(self.newNode(op, t, x))
}

func (self *Method) Neg(x NodeID) NodeID {
    return self.Unary(OpNeg, self.Node(x).Type.Actual(), x)
}

func (self *Method) Not(x NodeID) NodeID {
    return self.Unary(OpNot, self.Node(x).Type.Actual(), x)
}

func (self *Method) Cast(t Type, x NodeID) NodeID {
    return self.Unary(OpCast, t, x)
}

func (self *Method) Ind(t Type, addr NodeID) NodeID {
    return self.Unary(OpInd, t, addr)
}

func (self *Method) LclHeap(size NodeID) NodeID {
    return self.Unary(OpLclHeap, TypeByRef, size)
}

func (self *Method) Binary(op Op, t Type, x NodeID, y NodeID) NodeID {
    return self.seal(self.newNode(op, t, x, y))
}

func (self *Method) arith(op Op, x NodeID, y NodeID) NodeID {
    return self.Binary(op, self.Node(x).Type.Actual(), x, y)
}

func (self *Method) Add(x NodeID, y NodeID) NodeID { return self.arith(OpAdd, x, y) }
func (self *Method) Sub(x NodeID, y NodeID) NodeID { return self.arith(OpSub, x, y) }
func (self *Method) Mul(x NodeID, y NodeID) NodeID { return self.arith(OpMul, x, y) }
func (self *Method) Div(x NodeID, y NodeID) NodeID { return self.arith(OpDiv, x, y) }
func (self *Method) And(x NodeID, y NodeID) NodeID { return self.arith(OpAnd, x, y) }
func (self *Method) Or(x NodeID, y NodeID) NodeID  { return self.arith(OpOr, x, y) }

func (self *Method) Cmp(op Op, x NodeID, y NodeID) NodeID {
    if !op.IsCompare() {
        panic("ir: not a comparison: " + op.String())
    } else {
        return self.Binary(op, TypeInt, x, y)
    }
}

func (self *Method) Eq(x NodeID, y NodeID) NodeID { return self.Cmp(OpEq, x, y) }
func (self *Method) Ne(x NodeID, y NodeID) NodeID { return self.Cmp(OpNe, x, y) }
func (self *Method) Lt(x NodeID, y NodeID) NodeID { return self.Cmp(OpLt, x, y) }

func (self *Method) Comma(x NodeID, y NodeID) NodeID {
    return self.Binary(OpComma, self.Node(y).Type, x, y)
}

// Asg stores src into dst, which is a local, a local field or an indirection.
func (self *Method) Asg(dst NodeID, src NodeID) NodeID {
    switch self.Node(dst).Op {
        case OpLclVar, OpLclFld, OpInd : return self.Binary(OpAsg, self.Node(dst).Type, dst, src)
        default                        : panic("ir: invalid assignment destination")
    }
}

// Store is a shorthand for assigning to a whole local.
func (self *Method) Store(lcl LclNum, src NodeID) NodeID {
    return self.Asg(self.Var(lcl), src)
}

func (self *Method) Select(c NodeID, x NodeID, y NodeID) NodeID {
    return self.seal(self.newNode(OpSelect, self.Node(x).Type, c, x, y))
}

func (self *Method) Call(fn *CallInfo, t Type, args ...NodeID) NodeID {
    if fn.Kind == CallIndirect {
        panic("ir: indirect calls must be created with CallIndirect")
    }
    p := self.newNode(OpCall, t, args...)
    p.Call = fn
    return self.seal(p)
}

func (self *Method) CallIndirect(fn *CallInfo, t Type, target NodeID, args ...NodeID) NodeID {
    fn.Kind = CallIndirect
    p := self.newNode(OpCall, t, append(append([]NodeID(nil), args...), target)...)
    p.Call = fn
    return self.seal(p)
}

func (self *Method) JTrue(cmp NodeID) NodeID {
    if !self.Node(cmp).Op.IsCompare() {
        panic("ir: conditional jump on a non-comparison")
    } else {
        return self.seal(self.newNode(OpJTrue, TypeVoid, cmp))
    }
}

func (self *Method) Switch(x NodeID) NodeID {
    return self.seal(self.newNode(OpSwitch, TypeVoid, x))
}

func (self *Method) Return(x NodeID) NodeID {
    if x == Nil {
        return self.seal(self.newNode(OpReturn, TypeVoid))
    } else {
        return self.seal(self.newNode(OpReturn, self.Node(x).Type, x))
    }
}

// Clone returns an independent deep copy of the tree rooted at id.
func (self *Method) Clone(id NodeID) NodeID {
    src := self.Node(id)
    kids := make([]NodeID, len(src.Kids))

    /* clone the operands first */
    for i, k := range src.Kids {
        kids[i] = self.Clone(k)
    }

    /* copy the node itself */
    p := self.nodes.alloc(src.Op, src.Type)
    p.Flags = src.Flags
    p.Kids = kids
    p.Lcl = src.Lcl
    p.Offs = src.Offs
    p.Val = src.Val

    /* call info is per node */
    if src.Call != nil {
        fn := *src.Call
        p.Call = &fn
    }
    return p.ID
}
