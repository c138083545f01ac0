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
    `tlog.app/go/errors`
)

// Verify checks the structural consistency of a method: the block layout,
// the statement lists and their locals lists, the cached effect flags, the
// predecessor edges and the shape of every terminator.
func Verify(m *Method) error {
    if err := verifyLayout(m); err != nil {
        return errors.Wrap(err, "layout")
    }

    /* check every block */
    for bb := m.first; bb != nil; bb = bb.next {
        if err := verifyBlock(m, bb); err != nil {
            return errors.Wrap(err, "%v", bb)
        }
    }

    /* check the edges */
    if err := verifyEdges(m); err != nil {
        return errors.Wrap(err, "edges")
    }
    return nil
}

func verifyLayout(m *Method) error {
    var n int
    var prev *BasicBlock

    /* walk the layout */
    for bb := m.first; bb != nil; bb = bb.next {
        if n++; bb.prev != prev {
            return errors.New("broken back link at %v", bb)
        }
        if bb.method != m {
            return errors.New("%v belongs to another method", bb)
        }
        prev = bb
    }

    /* check the tail and the count */
    if m.last != prev {
        return errors.New("tail is %v, expected %v", m.last, prev)
    } else if n != m.nblocks {
        return errors.New("%d blocks in the layout, %d recorded", n, m.nblocks)
    } else {
        return nil
    }
}

func verifyBlock(m *Method, bb *BasicBlock) error {
    var n int
    var prev *Statement

    /* check every statement */
    for s := bb.first; s != nil; s = s.next {
        if n++; s.prev != prev || s.block != bb {
            return errors.New("S%03d is not properly linked", s.ID)
        }
        if err := verifyStmt(m, s); err != nil {
            return errors.Wrap(err, "S%03d", s.ID)
        }
        if s.next != nil && isTerminator(m.Node(s.Root).Op) {
            return errors.New("S%03d terminates the block in the middle", s.ID)
        }
        prev = s
    }

    /* check the statement count */
    if bb.last != prev || n != bb.nstmt {
        return errors.New("statement list is inconsistent")
    }

    /* check the terminator */
    return verifyTerminator(m, bb)
}

func verifyStmt(m *Method, s *Statement) error {
    ids := m.LocalsIn(s.Root)
    if len(ids) != len(s.Locals) {
        return errors.New("locals list has %d entries, tree has %d", len(s.Locals), len(ids))
    }

    /* same nodes in the same order */
    for i, id := range ids {
        if s.Locals[i] != id {
            return errors.New("locals list entry %d is node %d, expected %d", i, s.Locals[i], id)
        }
    }

    /* cached flags may only be conservative */
    var err error
    m.Walk(s.Root, func(id NodeID, _ Slot) bool {
        p := m.Node(id)
        fl := m.nodeEffects(p)

        /* merge the operands */
        for _, k := range p.Kids {
            fl |= m.Node(k).Effects()
        }

        /* the node must summarize at least its operands */
        if fl &^ p.Effects() != 0 {
            err = errors.New("node %d has flags %v, expected at least %v", id, p.Effects(), fl)
            return false
        }
        return true
    })
    return err
}

func isTerminator(op Op) bool {
    return op == OpJTrue || op == OpSwitch || op == OpReturn
}

func verifyTerminator(m *Method, bb *BasicBlock) error {
    var op Op
    if bb.last != nil {
        op = m.Node(bb.last.Root).Op
    }

    /* check the terminator statement */
    switch bb.Kind {
        case JumpNone: {
            if bb.next == nil {
                return errors.New("falls off the end of the method")
            }
        }

        case JumpAlways: {
            if bb.Target == nil {
                return errors.New("unconditional jump without a target")
            }
        }

        case JumpCond: {
            if bb.Target == nil || bb.next == nil {
                return errors.New("conditional jump without both successors")
            } else if op != OpJTrue {
                return errors.New("conditional jump ends with %v", op)
            }
        }

        case JumpSwitch: {
            if bb.Switch == nil || len(bb.Switch.Targets) < 2 {
                return errors.New("switch without a dispatch table")
            } else if op != OpSwitch {
                return errors.New("switch ends with %v", op)
            }
        }

        case JumpReturn: {
            if op != OpReturn {
                return errors.New("return ends with %v", op)
            }
        }
    }

    /* every successor must be in the layout */
    for _, succ := range bb.Succs() {
        if succ.method != m {
            return errors.New("successor %v is not in the layout", succ)
        }
    }
    return nil
}

func verifyEdges(m *Method) error {
    want := make(map[*BasicBlock]map[*BasicBlock]int, m.nblocks)

    /* count the control transfers */
    for bb := m.first; bb != nil; bb = bb.next {
        for _, succ := range bb.Succs() {
            if want[succ] == nil {
                want[succ] = make(map[*BasicBlock]int)
            }
            want[succ][bb]++
        }
    }

    /* compare with the recorded edges */
    for bb := m.first; bb != nil; bb = bb.next {
        seen := make(map[*BasicBlock]bool, len(bb.Preds))
        for _, e := range bb.Preds {
            if seen[e.From] {
                return errors.New("%v has a duplicated edge from %v", bb, e.From)
            }
            if seen[e.From] = true; e.Dups != want[bb][e.From] {
                return errors.New("%v -> %v has %d transfers, edge records %d", e.From, bb, want[bb][e.From], e.Dups)
            }
        }

        /* no transfer may be missing */
        if len(seen) != len(want[bb]) {
            return errors.New("%v has %d predecessors, expected %d", bb, len(seen), len(want[bb]))
        }
    }
    return nil
}
