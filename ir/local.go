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

type LclNum int32

// NoLcl marks the absence of a local.
const NoLcl LclNum = -1

// Local is the descriptor of one source-level or compiler-generated variable.
type Local struct {
    Num           LclNum
    Name          string
    Type          Type
    Size          int
    RefCount      int
    Param         bool
    Pinned        bool
    AddrExposed   bool
    ImplicitByRef bool
    MultiRegRet   bool
    Promoted      bool
    Fields        []LclNum
    Parent        LclNum
    FieldOffset   int
}

func (self *Local) String() string {
    return fmt.Sprintf("V%02d(%s)", self.Num, self.Name)
}

func (self *Local) IsStructField() bool {
    return self.Parent != NoLcl
}

// NormalizeOnLoad locals widen their value on every read.
func (self *Local) NormalizeOnLoad() bool {
    return self.Type.IsSmall() && (self.Param || self.AddrExposed || self.IsStructField())
}

// NormalizeOnStore locals truncate the stored value, so reads see a normalized value.
func (self *Local) NormalizeOnStore() bool {
    return self.Type.IsSmall() && !self.NormalizeOnLoad()
}

// FieldIndex returns the promoted field index of fld, or -1.
func (self *Local) FieldIndex(fld LclNum) int {
    for i, v := range self.Fields {
        if v == fld {
            return i
        }
    }
    return -1
}

// Local returns the descriptor of a local.
func (self *Method) Local(lcl LclNum) *Local {
    if lcl < 0 || int(lcl) >= len(self.Locals) {
        panic(fmt.Sprintf("ir: local out of range: %d", lcl))
    } else {
        return self.Locals[lcl]
    }
}

func (self *Method) addLocal(name string, t Type, size int) *Local {
    if size == 0 {
        size = t.Size()
    }

    /* create the descriptor */
    lcl := &Local {
        Num    : LclNum(len(self.Locals)),
        Name   : name,
        Type   : t,
        Size   : size,
        Parent : NoLcl,
    }

    /* add to the local table */
    self.Locals = append(self.Locals, lcl)
    return lcl
}

// Overlaps reports whether a and b name the same storage, either the same
// local or a promoted field and its parent struct.
func (self *Method) Overlaps(a LclNum, b LclNum) bool {
    if a == b {
        return true
    }
    if pa := self.Local(a).Parent; pa != NoLcl && pa == b {
        return true
    }
    if pb := self.Local(b).Parent; pb != NoLcl && pb == a {
        return true
    }
    return false
}

// CanBeReplacedWithItsField reports whether a struct local is a single promoted
// field that covers the whole struct, in which case every whole access can be
// rewritten as an access to that field.
func (self *Method) CanBeReplacedWithItsField(lcl LclNum) bool {
    dsc := self.Local(lcl)
    if !dsc.Type.IsStruct() || !dsc.Promoted || len(dsc.Fields) != 1 {
        return false
    }
    fld := self.Local(dsc.Fields[0])
    return fld.FieldOffset == 0 && fld.Size == dsc.Size
}
