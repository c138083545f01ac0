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

package opt

import (
    `sync/atomic`
)

// Process-wide counters, shared by every compilation.
var (
    methodCount      atomic.Int64
    substituteCount  atomic.Int64
    switchCount      atomic.Int64
    blockRemoveCount atomic.Int64
)

type Stats struct {
    Methods       int64
    Substituted   int64
    Switches      int64
    BlocksRemoved int64
}

func GetStats() Stats {
    return Stats {
        Methods       : methodCount.Load(),
        Substituted   : substituteCount.Load(),
        Switches      : switchCount.Load(),
        BlocksRemoved : blockRemoveCount.Load(),
    }
}
