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
    `github.com/oleiade/lane`
)

// CountRefs recomputes the early reference count of every local: the number
// of local nodes naming it, definitions included.
func CountRefs(m *Method) {
    for _, dsc := range m.Locals {
        dsc.RefCount = 0
    }

    /* count every local node */
    for bb := m.first; bb != nil; bb = bb.next {
        for s := bb.first; s != nil; s = s.next {
            for _, id := range s.Locals {
                m.Local(m.Node(id).Lcl).RefCount++
            }
        }
    }
}

type _LclRef struct {
    id  NodeID
    def bool
}

type _LclSet map[LclNum]struct{}

func (self _LclSet) has(lcl LclNum) bool {
    _, ok := self[lcl]
    return ok
}

func (self _LclSet) clone() _LclSet {
    ret := make(_LclSet, len(self))
    for k := range self {
        ret[k] = struct{}{}
    }
    return ret
}

type _BlockLiveness struct {
    use _LclSet
    def _LclSet
    in  _LclSet
    out _LclSet
}

func (self *Method) localRefs(s *Statement) (ret []_LclRef) {
    self.Walk(s.Root, func(id NodeID, slot Slot) bool {
        if p := self.Node(id); p.Op.IsLocal() {
            ret = append(ret, _LclRef {
                id  : id,
                def : !slot.IsRoot() && self.Node(slot.Parent).Op == OpAsg && slot.Index == 0,
            })
        }
        return true
    })
    return
}

// trackedKeys returns the liveness keys of a local: the promoted fields of a
// promoted struct, nothing for address-exposed locals, the local itself otherwise.
func (self *Method) trackedKeys(lcl LclNum) []LclNum {
    if self.IsAddrExposed(lcl) {
        return nil
    } else if dsc := self.Local(lcl); dsc.Promoted {
        return dsc.Fields
    } else {
        return []LclNum { lcl }
    }
}

// ComputeLiveness runs a backward dataflow over the CFG and sets the death
// markers of every local read. Address-exposed locals never die.
func ComputeLiveness(m *Method) {
    nb := make(map[*BasicBlock]*_BlockLiveness, m.nblocks)

    /* Phase 1: local use and def sets */
    for bb := m.first; bb != nil; bb = bb.next {
        lv := &_BlockLiveness {
            use : make(_LclSet),
            def : make(_LclSet),
            in  : make(_LclSet),
            out : make(_LclSet),
        }

        /* scan in execution order */
        for s := bb.first; s != nil; s = s.next {
            for _, r := range m.localRefs(s) {
                p := m.Node(r.id)
                keys := m.trackedKeys(p.Lcl)

                /* whole stores kill, partial stores keep the value live */
                if r.def {
                    if p.Op == OpLclVar {
                        for _, k := range keys { lv.def[k] = struct{}{} }
                    }
                    continue
                }

                /* upward exposed reads */
                for _, k := range keys {
                    if !lv.def.has(k) {
                        lv.use[k] = struct{}{}
                    }
                }
            }
        }

        /* save the block info */
        nb[bb] = lv
    }

    /* Phase 2: iterate to a fixed point */
    q := lane.NewQueue()
    for bb := m.last; bb != nil; bb = bb.prev {
        q.Enqueue(bb)
    }

    /* in = use ∪ (out - def) */
    for !q.Empty() {
        bb := q.Dequeue().(*BasicBlock)
        lv := nb[bb]

        /* merge the successors */
        for _, succ := range bb.Succs() {
            for k := range nb[succ].in {
                lv.out[k] = struct{}{}
            }
        }

        /* recompute the live-in set */
        in := make(_LclSet, len(lv.in))
        for k := range lv.use { in[k] = struct{}{} }
        for k := range lv.out { if !lv.def.has(k) { in[k] = struct{}{} } }

        /* live-in sets only grow, requeue the predecessors if it did */
        if len(in) != len(lv.in) {
            lv.in = in
            for _, e := range bb.Preds {
                q.Enqueue(e.From)
            }
        }
    }

    /* Phase 3: mark the deaths */
    for bb := m.first; bb != nil; bb = bb.next {
        live := nb[bb].out.clone()

        /* scan backwards */
        for s := bb.last; s != nil; s = s.prev {
            refs := m.localRefs(s)
            for i := len(refs) - 1; i >= 0; i-- {
                markDeath(m, refs[i], live)
            }
        }
    }

    /* death markers are now valid */
    m.Liveness = true
}

func markDeath(m *Method, r _LclRef, live _LclSet) {
    p := m.Node(r.id)
    keys := m.trackedKeys(p.Lcl)

    /* definitions end the live range */
    if r.def {
        if p.Op == OpLclVar {
            for _, k := range keys { delete(live, k) }
        }
        return
    }

    /* address-exposed locals are always live */
    if p.Flags &^= FlagsDeath; len(keys) == 0 {
        return
    }

    /* promoted struct reads die field by field */
    if dsc := m.Local(p.Lcl); dsc.Promoted && p.Op == OpLclVar {
        for i, k := range keys {
            if !live.has(k) {
                p.Flags |= FlagFieldDeath(i)
            }
            live[k] = struct{}{}
        }
        return
    }

    /* the read dies if none of its keys are live below */
    dead := true
    for _, k := range keys {
        if live.has(k) {
            dead = false
        }
        live[k] = struct{}{}
    }

    /* mark the death */
    if dead {
        p.Flags |= FlagVarDeath
    }
}
