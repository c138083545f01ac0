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

// Type is the static type of a node or a local.
type Type uint8

const (
    TypeVoid Type = iota
    TypeBool
    TypeByte
    TypeUByte
    TypeShort
    TypeUShort
    TypeInt
    TypeUInt
    TypeLong
    TypeULong
    TypeFloat
    TypeDouble
    TypeRef
    TypeByRef
    TypeStruct
)

var _TypeNames = [...]string {
    TypeVoid   : "void",
    TypeBool   : "bool",
    TypeByte   : "byte",
    TypeUByte  : "ubyte",
    TypeShort  : "short",
    TypeUShort : "ushort",
    TypeInt    : "int",
    TypeUInt   : "uint",
    TypeLong   : "long",
    TypeULong  : "ulong",
    TypeFloat  : "float",
    TypeDouble : "double",
    TypeRef    : "ref",
    TypeByRef  : "byref",
    TypeStruct : "struct",
}

var _TypeSizes = [...]int {
    TypeVoid   : 0,
    TypeBool   : 1,
    TypeByte   : 1,
    TypeUByte  : 1,
    TypeShort  : 2,
    TypeUShort : 2,
    TypeInt    : 4,
    TypeUInt   : 4,
    TypeLong   : 8,
    TypeULong  : 8,
    TypeFloat  : 4,
    TypeDouble : 8,
    TypeRef    : 8,
    TypeByRef  : 8,
    TypeStruct : 0,
}

func (self Type) String() string {
    if int(self) < len(_TypeNames) {
        return _TypeNames[self]
    } else {
        return fmt.Sprintf("type(%d)", uint8(self))
    }
}

// Size returns the size in bytes, struct sizes live on the local descriptor.
func (self Type) Size() int {
    return _TypeSizes[self]
}

// IsSmall reports sub-word integers, which are normalized when stored or loaded.
func (self Type) IsSmall() bool {
    return self >= TypeBool && self <= TypeUShort
}

func (self Type) IsIntegral() bool {
    return self >= TypeBool && self <= TypeULong
}

func (self Type) IsUnsigned() bool {
    switch self {
        case TypeBool, TypeUByte, TypeUShort, TypeUInt, TypeULong : return true
        default                                                   : return false
    }
}

func (self Type) IsStruct() bool {
    return self == TypeStruct
}

// Actual returns the runtime representation of the type after the standard
// operand promotion: every sub-word integer widens to int.
func (self Type) Actual() Type {
    switch self {
        case TypeBool, TypeByte, TypeUByte, TypeShort, TypeUShort, TypeUInt : return TypeInt
        case TypeULong                                                      : return TypeLong
        default                                                             : return self
    }
}

// Fits reports whether v is representable in the type without truncation.
func (self Type) Fits(v int64) bool {
    switch self {
        case TypeBool   : return v == 0 || v == 1
        case TypeByte   : return v >= -128 && v <= 127
        case TypeUByte  : return v >= 0 && v <= 255
        case TypeShort  : return v >= -32768 && v <= 32767
        case TypeUShort : return v >= 0 && v <= 65535
        case TypeInt    : return v >= -1 << 31 && v <= 1 << 31 - 1
        case TypeUInt   : return v >= 0 && v <= 1 << 32 - 1
        default         : return true
    }
}
