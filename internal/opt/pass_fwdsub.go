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
    `fmt`

    `github.com/cloudwego/iropt/ir`
)

// ForwardSub substitutes single-use temporaries into their only use in the
// next statement, and removes the definitions.
type ForwardSub struct{}

func (self ForwardSub) Apply(c *Context) Status {
    if !c.Options.ForwardSub {
        return StatusDisabled
    }

    /* substitute in every block */
    st := StatusNoChanges
    for bb := c.Method.FirstBlock(); bb != nil; bb = bb.Next() {
        if self.runOnBlock(c, bb) {
            st = StatusChanged
        }
    }
    return st
}

func (self ForwardSub) runOnBlock(c *Context, bb *ir.BasicBlock) bool {
    m := c.Method
    changed := false

    /* scan the statements in order */
    for s := bb.First(); s != nil; {
        if !newFwdSub(c, s).try() {
            s = s.Next()
            continue
        }

        /* the definition is dead now */
        prev, next := s.Prev(), s.Next()
        m.RemoveStmt(s)
        changed = true

        /* revisit the previous store, it may feed the statement we just rewrote */
        if prev != nil && isLocalStore(m, prev) {
            s = prev
        } else {
            s = next
        }
    }
    return changed
}

func isLocalStore(m *ir.Method, s *ir.Statement) bool {
    p := m.Node(s.Root)
    return p.Op == ir.OpAsg && m.Node(p.Kids[0]).Op == ir.OpLclVar
}

const (
    _InterferenceFlags = ir.FlagExcept | ir.FlagGlobRef | ir.FlagCall
)

type _FwdSub struct {
    c        *Context
    m        *ir.Method
    s        *ir.Statement
    next     *ir.Statement
    lcl      ir.LclNum
    dsc      *ir.Local
    dst      ir.NodeID
    cand     ir.NodeID
    use      ir.NodeID
    slot     ir.Slot
    prefix   ir.Flags
    stored   []ir.LclNum
    size     int
    callArg  bool
    liveness bool
}

func newFwdSub(c *Context, s *ir.Statement) *_FwdSub {
    return &_FwdSub {
        c : c,
        m : c.Method,
        s : s,
    }
}

func (self *_FwdSub) reject(reason string) bool {
    self.c.trace("fwdsub", "reject", "stmt", self.s.ID, "local", self.dsc.Name, "reason", reason)
    return false
}

func (self *_FwdSub) try() bool {
    m := self.m
    root := m.Node(self.s.Root)

    /* Step 1: must be a store to a whole local */
    if root.Op != ir.OpAsg || m.Node(root.Kids[0]).Op != ir.OpLclVar {
        return false
    }

    /* the store parts */
    self.dst = root.Kids[0]
    self.cand = root.Kids[1]
    self.lcl = m.Node(self.dst).Lcl
    self.dsc = m.Local(self.lcl)

    /* Step 2: pinned locals are never worth it */
    if self.dsc.Pinned {
        return self.reject("pinned")
    }

    /* Step 3: the local must have a single use. Reference counts are per local,
     * so they say nothing about a struct and its promoted fields, which share storage. */
    switch aggr := self.dsc.Promoted || self.dsc.IsStructField(); {
        case self.dsc.RefCount == 2 && !aggr        : self.liveness = false
        case m.Liveness && self.dsc.RefCount >= 2   : self.liveness = true
        default                                     : return self.reject("not single use")
    }

    /* Step 4: stores to exposed locals are observable */
    if self.dsc.AddrExposed {
        return self.reject("address exposed")
    }

    /* Step 5: implicit by-ref structs need copy bookkeeping */
    if self.dsc.ImplicitByRef {
        return self.reject("implicit by-ref")
    }

    /* Step 6: values that cannot move */
    if !self.isMovable() {
        return self.reject("immovable value")
    }

    /* Step 7: nested stores */
    if m.Contains(self.cand, func(p *ir.Node) bool { return p.Op == ir.OpAsg }) {
        return self.reject("nested store")
    }

    /* Step 8: no implicit conversions */
    if m.Node(self.dst).Type != m.Node(self.cand).Type {
        return self.reject("type mismatch")
    }

    /* Step 9: the use must be in the next statement */
    if self.next = self.s.Next(); self.next == nil {
        return self.reject("no next statement")
    } else if !self.findUse() {
        return self.reject("no single use in next statement")
    }

    /* Step 10: bound the size of the moved tree */
    if m.TreeSize(self.cand) > self.c.Options.MaxCandidateNodes {
        return self.reject("value too large")
    }

    /* Step 11: refresh the effect summaries */
    m.UpdateStmtFlags(self.s)
    m.UpdateStmtFlags(self.next)

    /* Step 12: locate the use precisely */
    if !self.locateUse() {
        return false
    }

    /* Step 13: selects only replace the whole value of a local store */
    if m.Node(self.cand).Op == ir.OpSelect && !self.isSelectUse() {
        return self.reject("select not at the top level")
    }

    /* Step 14: do not grow large statements */
    if self.size > self.c.Options.MaxNextStmtNodes && m.TreeSize(self.cand) > 1 {
        return self.reject("next statement too large")
    }

    /* Step 15: the use and the value must have the same representation */
    if m.Node(self.use).Type.Actual() != m.Node(self.cand).Type.Actual() {
        return self.reject("actual type mismatch")
    }

    /* Step 16 & 17: interference */
    invariant := m.Node(self.cand).Flags & _InterferenceFlags == 0
    if !self.checkInterference(invariant) {
        return false
    }

    /* Step 18: profitability */
    if !self.isProfitable() {
        return false
    }

    /* Step 19: multi-register returns */
    if !self.checkMultiReg() {
        return false
    }

    /* Step 20: narrow the value if the local truncates on store */
    if self.dsc.NormalizeOnStore() && needsNarrowing(m.Node(self.cand), self.dsc.Type) {
        self.cand = m.Cast(self.dsc.Type, self.cand)
    }

    /* Step 21: commit */
    self.commit(invariant)
    return true
}

func (self *_FwdSub) isMovable() bool {
    switch p := self.m.Node(self.cand); p.Op {
        case ir.OpCatchArg : return false
        case ir.OpLclHeap  : return false
        case ir.OpCall     : return !p.Call.NoReturn
        default            : return true
    }
}

// findUse scans the locals list of the next statement for the use. The first
// reference to the local, its parent struct or one of its fields decides.
func (self *_FwdSub) findUse() bool {
    m := self.m
    for _, id := range self.next.Locals {
        p := m.Node(id)
        if !m.Overlaps(p.Lcl, self.lcl) && !self.isSibling(p.Lcl) {
            continue
        }

        /* must read the whole local */
        if p.Op != ir.OpLclVar || p.Lcl != self.lcl {
            return false
        }

        /* with liveness, the use must also be the last one */
        if self.liveness && !m.IsLastUse(id) {
            return false
        }

        /* found the use */
        self.use = id
        return true
    }
    return false
}

func (self *_FwdSub) isSibling(lcl ir.LclNum) bool {
    a, b := self.m.Local(lcl), self.dsc
    return a.IsStructField() && b.IsStructField() && a.Parent == b.Parent
}

// locateUse walks the next statement in execution order, finding the slot
// of the use and summarizing everything evaluated before it.
func (self *_FwdSub) locateUse() bool {
    m := self.m
    found := false

    /* scan the whole tree */
    m.Walk(self.next.Root, func(id ir.NodeID, slot ir.Slot) bool {
        self.size++

        /* the use itself */
        if found {
            return true
        } else if id == self.use {
            found = true
            self.slot = slot
            return true
        }

        /* the effects before the use */
        p := m.Node(id)
        self.prefix |= p.Effects()

        /* locals stored before the use */
        if p.Op == ir.OpAsg {
            if dst := m.Node(p.Kids[0]); dst.Op == ir.OpLclVar || dst.Op == ir.OpLclFld {
                self.stored = append(self.stored, dst.Lcl)
            }
        }
        return true
    })

    /* the locals list said it was here */
    if !found {
        panic(fmt.Sprintf("fwdsub: local node %d is missing from S%03d", self.use, self.next.ID))
    }

    /* the use must be a value */
    if self.slot.IsRoot() {
        return self.reject("use is a statement")
    }

    /* check the context of the use */
    switch parent := m.Node(self.slot.Parent); {
        case parent.Op == ir.OpAsg && self.slot.Index == 0 : return self.reject("use is a store destination")
        case parent.IsIndirectTarget(self.slot.Index)      : return self.reject("use is an indirect call target")
    }

    /* check if the use is a call argument */
    self.callArg = m.Node(self.slot.Parent).Op == ir.OpCall
    return true
}

func (self *_FwdSub) isSelectUse() bool {
    m := self.m
    root := m.Node(self.next.Root)

    /* must be the whole value of a local store */
    if root.Op != ir.OpAsg || self.slot.Parent != self.next.Root || self.slot.Index != 1 {
        return false
    }

    /* the destination must be a whole local */
    dst := m.Node(root.Kids[0])
    if dst.Op != ir.OpLclVar {
        return false
    }

    /* neither local may truncate on store */
    return !self.dsc.NormalizeOnStore() && !m.Local(dst.Lcl).NormalizeOnStore()
}

func (self *_FwdSub) checkInterference(invariant bool) bool {
    m := self.m

    /* the value may be affected by, or affect, what runs before the use */
    if !invariant && self.prefix & ir.FlagsAllEffects != 0 {
        return self.reject("interference")
    }

    /* address-of nodes carry no global reference even for exposed locals */
    if invariant && self.prefix & (ir.FlagCall | ir.FlagAsg) != 0 {
        if m.Contains(self.cand, func(p *ir.Node) bool { return p.Op.IsLocal() && m.IsAddrExposed(p.Lcl) }) {
            return self.reject("exposed local under a call or a store")
        }
    }

    /* the value must not read a local stored before the use */
    for _, id := range m.LocalsIn(self.cand) {
        for _, lcl := range self.stored {
            if m.Overlaps(m.Node(id).Lcl, lcl) {
                return self.reject("value reads a local stored before the use")
            }
        }
    }
    return true
}

func (self *_FwdSub) isProfitable() bool {
    m := self.m
    cand := m.Node(self.cand)

    /* do not make the next statement a global reference */
    if cand.Op == ir.OpLclVar && m.IsAddrExposed(cand.Lcl) && !cand.Type.IsStruct() {
        if m.StmtFlags(self.next) & ir.FlagGlobRef == 0 {
            return self.reject("exposed local poisons the next statement")
        }
    }

    /* struct arguments only take loads */
    if self.callArg && m.Node(self.use).Type.IsStruct() {
        switch cand.Op {
            case ir.OpLclVar, ir.OpLclFld, ir.OpInd : break
            default                                 : return self.reject("unsupported struct argument")
        }
    }

    /* the local could have been a field access */
    if cand.Op == ir.OpCall && m.CanBeReplacedWithItsField(self.lcl) {
        return self.reject("call result fits in a field")
    }
    return true
}

func (self *_FwdSub) checkMultiReg() bool {
    m := self.m
    cand := m.Node(self.cand)
    parent := m.Node(self.slot.Parent)

    /* multi-register values returned from the method */
    if parent.Op == ir.OpReturn && m.RetRegs > 1 {
        switch {
            case cand.Op == ir.OpLclVar: {
                m.Local(cand.Lcl).MultiRegRet = true
            }

            case cand.Type.IsStruct(): {
                if self.readsImplicitByRef() {
                    return self.reject("implicit by-ref struct in a multi-register return")
                }
                if cand.Op != ir.OpCall && !self.c.Target.MultiRegLoadReturn {
                    return self.reject("multi-register return of a load")
                }
            }

            default: {
                return self.reject("unsupported multi-register return")
            }
        }
    }

    /* multi-register values stored to a local */
    if parent.Op == ir.OpAsg && self.slot.Index == 1 && (isMultiRegCall(cand) || self.dsc.MultiRegRet) {
        if dst := m.Node(parent.Kids[0]); dst.Op == ir.OpLclVar {
            m.Local(dst.Lcl).MultiRegRet = true
        }
    }
    return true
}

func (self *_FwdSub) readsImplicitByRef() bool {
    return self.m.Contains(self.cand, func(p *ir.Node) bool {
        return p.Op.IsLocal() && self.m.Local(p.Lcl).ImplicitByRef
    })
}

func isMultiRegCall(p *ir.Node) bool {
    return p.Op == ir.OpCall && p.Call.RetRegs > 1
}

// needsNarrowing reports whether a value stored to a local of small type t
// must be truncated explicitly.
func needsNarrowing(p *ir.Node, t ir.Type) bool {
    switch {
        case p.Op == ir.OpConst    : return !t.Fits(p.Val)
        case p.Op.IsCompare()      : return false
        case p.Op == ir.OpLclVar   : return p.Type != t
        case p.Op == ir.OpLclFld   : return p.Type != t
        case p.Op == ir.OpInd      : return p.Type != t
        case p.Op == ir.OpCast     : return p.Type != t
        default                    : return true
    }
}

func (self *_FwdSub) commit(invariant bool) {
    m := self.m
    ids := self.s.Locals

    /* the destination is evaluated last */
    if len(ids) == 0 || ids[len(ids) - 1] != self.dst {
        panic(fmt.Sprintf("fwdsub: S%03d does not end with its store destination", self.s.ID))
    }

    /* find the use in the locals list */
    i := self.next.LocalIndex(self.use)
    if i < 0 {
        panic(fmt.Sprintf("fwdsub: local node %d is not indexed in S%03d", self.use, self.next.ID))
    }

    /* rebind the slot and splice the locals of the value */
    vals := append([]ir.NodeID(nil), ids[:len(ids) - 1]...)
    m.SetOperand(self.next, self.slot, self.cand)
    self.next.SpliceLocals(i, vals)
    repairLivenessAfterSplice(m, self.next, i, len(vals))

    /* effects may have moved into the statement */
    if !invariant {
        m.UpdateStmtFlags(self.next)
    }

    /* the definition and the use are gone */
    if self.dsc.RefCount -= 2; self.dsc.RefCount < 0 {
        self.dsc.RefCount = 0
    }

    /* update the statistics */
    substituteCount.Add(1)
    if self.c.Trace.If("fwdsub") {
        self.c.trace("fwdsub", "substituted", "stmt", self.s.ID, "into", self.next.ID, "local", self.dsc.Name, "value", m.Format(self.cand))
    }
}

// repairLivenessAfterSplice clears the death markers of the local reads that
// now run before a spliced-in read of the same storage. Those reads are no
// longer the last uses.
func repairLivenessAfterSplice(m *ir.Method, s *ir.Statement, i int, n int) {
    for _, id := range s.Locals[:i] {
        p := m.Node(id)
        if p.Flags & ir.FlagsDeath == 0 {
            continue
        }

        /* check against the spliced range */
        for _, v := range s.Locals[i:i + n] {
            if m.Overlaps(p.Lcl, m.Node(v).Lcl) {
                p.Flags &^= ir.FlagsDeath
                break
            }
        }
    }
}
