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
	"github.com/cloudwego/iropt/internal/abi"
	"tlog.app/go/errors"
)

type Options struct {
	Target             *abi.Target
	ForwardSub         bool
	SwitchRecognition  bool
	CheckIR            bool
	MaxCandidateNodes  int
	MaxNextStmtNodes   int
	MaxSwitchTests     int
	MaxSwitchRange     int
	MinSwitchTests     int
	MinDispatchEntries int
	TableBasePenalty   int
}

// Validate checks the knobs against each other.
func (self *Options) Validate() error {
	switch {
	case self.MaxCandidateNodes < 1:
		return errors.New("max candidate nodes must be positive: %d", self.MaxCandidateNodes)
	case self.MaxNextStmtNodes < 1:
		return errors.New("max next statement nodes must be positive: %d", self.MaxNextStmtNodes)
	case self.MinSwitchTests < 2:
		return errors.New("a switch needs at least 2 tests: %d", self.MinSwitchTests)
	case self.MaxSwitchRange < 2:
		return errors.New("a dispatch table needs at least 2 entries: %d", self.MaxSwitchRange)
	case self.MinDispatchEntries < 2:
		return errors.New("min dispatch entries must be at least 2: %d", self.MinDispatchEntries)
	case self.TableBasePenalty < 0:
		return errors.New("table base penalty must not be negative: %d", self.TableBasePenalty)
	case self.MaxSwitchTests < self.MinSwitchTests:
		return errors.New("max switch tests %d is below the minimum %d", self.MaxSwitchTests, self.MinSwitchTests)
	default:
		return nil
	}
}

func GetDefaultOptions() Options {
	return Options{
		ForwardSub:         ForwardSub,
		SwitchRecognition:  SwitchRecognition,
		CheckIR:            CheckIR,
		MaxCandidateNodes:  MaxCandidateNodes,
		MaxNextStmtNodes:   MaxNextStmtNodes,
		MaxSwitchTests:     MaxSwitchTests,
		MaxSwitchRange:     MaxSwitchRange,
		MinSwitchTests:     MinSwitchTests,
		MinDispatchEntries: _DefaultMinDispatchEntries,
		TableBasePenalty:   _DefaultTableBasePenalty,
	}
}
