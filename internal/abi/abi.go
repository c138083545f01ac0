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

package abi

import (
    `fmt`
    `runtime`

    `github.com/cloudwego/iropt/ir`
    `github.com/klauspost/cpuid/v2`
)

// Target describes the code generation facts the optimizer depends on.
type Target struct {
    Arch               string
    PtrSize            int
    MaxRetRegs         int
    ExpensiveTableBase bool
    MultiRegLoadReturn bool
    Brand              string
    Cores              int
}

var (
    AMD64 = &Target {
        Arch               : "amd64",
        PtrSize            : 8,
        MaxRetRegs         : 2,
        ExpensiveTableBase : false,
        MultiRegLoadReturn : true,
    }

    ARM64 = &Target {
        Arch               : "arm64",
        PtrSize            : 8,
        MaxRetRegs         : 2,
        ExpensiveTableBase : true,
        MultiRegLoadReturn : false,
    }
)

func (self *Target) String() string {
    if self.Brand == "" {
        return self.Arch
    } else {
        return fmt.Sprintf("%s (%s, %d cores)", self.Arch, self.Brand, self.Cores)
    }
}

// RetRegCount returns the number of registers a value of the given type and
// size is returned in. Values too large for registers are returned through a
// hidden buffer, and the buffer address takes one register.
func (self *Target) RetRegCount(t ir.Type, size int) int {
    switch {
        case t == ir.TypeVoid                             : return 0
        case !t.IsStruct()                                : return 1
        case size <= self.PtrSize                         : return 1
        case size <= self.PtrSize * self.MaxRetRegs       : return (size + self.PtrSize - 1) / self.PtrSize
        default                                           : return 1
    }
}

// ForArch returns the target for an architecture name.
func ForArch(arch string) (*Target, bool) {
    switch arch {
        case "amd64" : return AMD64, true
        case "arm64" : return ARM64, true
        default      : return nil, false
    }
}

// Host returns the target of the running machine, annotated with the CPU
// brand and core count. Unknown architectures fall back to AMD64 facts.
func Host() *Target {
    tg, ok := ForArch(runtime.GOARCH)
    if !ok {
        tg = AMD64
    }

    /* copy the facts before annotating */
    ret := *tg
    ret.Brand = cpuid.CPU.BrandName
    ret.Cores = cpuid.CPU.LogicalCores
    return &ret
}
