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

package debug

import (
	"github.com/cloudwego/iropt/internal/opt"
)

// A Stats records statistics about the optimizer, summed over every
// compilation in this process.
type Stats struct {
	Methods    int
	ForwardSub ForwardSubStats
	Switch     SwitchStats
}

// A ForwardSubStats records statistics about the forward substitution pass.
type ForwardSubStats struct {
	Substituted int
}

// A SwitchStats records statistics about the switch recognition pass.
type SwitchStats struct {
	Converted     int
	BlocksRemoved int
}

// GetStats returns statistics of the optimizer.
func GetStats() Stats {
	st := opt.GetStats()
	return Stats{
		Methods: int(st.Methods),
		ForwardSub: ForwardSubStats{
			Substituted: int(st.Substituted),
		},
		Switch: SwitchStats{
			Converted:     int(st.Switches),
			BlocksRemoved: int(st.BlocksRemoved),
		},
	}
}
