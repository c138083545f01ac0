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

package opts

import (
	"fmt"

	"github.com/xyproto/env/v2"
)

const (
	_DefaultMaxCandidateNodes  = 16  // largest candidate tree worth substituting
	_DefaultMaxNextStmtNodes   = 200 // statements larger than this only accept leaves
	_DefaultMaxSwitchTests     = 64  // longest compare chain examined
	_DefaultMaxSwitchRange     = 64  // largest constant span of a dispatch table
	_DefaultMinSwitchTests     = 3   // shortest chain worth a dispatch
	_DefaultMinDispatchEntries = 2   // smallest useful dispatch table
	_DefaultTableBasePenalty   = 2   // extra entries when loading the table base is costly
)

var (
	ForwardSub        = !env.Bool("IROPT_DISABLE_FWDSUB")
	SwitchRecognition = !env.Bool("IROPT_DISABLE_SWITCHREC")
	CheckIR           = env.Bool("IROPT_CHECK_IR")
	MaxCandidateNodes = parseOrDefault("IROPT_MAX_FWDSUB_NODES", _DefaultMaxCandidateNodes, 1)
	MaxNextStmtNodes  = parseOrDefault("IROPT_MAX_NEXT_STMT_NODES", _DefaultMaxNextStmtNodes, 1)
	MaxSwitchTests    = parseOrDefault("IROPT_MAX_SWITCH_TESTS", _DefaultMaxSwitchTests, 2)
	MaxSwitchRange    = parseOrDefault("IROPT_MAX_SWITCH_RANGE", _DefaultMaxSwitchRange, 2)
	MinSwitchTests    = parseOrDefault("IROPT_MIN_SWITCH_TESTS", _DefaultMinSwitchTests, 2)
)

func parseOrDefault(key string, def int, min int) int {
	if ret := env.Int(key, def); ret < min {
		panic(fmt.Sprintf("iropt: value too small for %s: %d", key, ret))
	} else {
		return ret
	}
}
