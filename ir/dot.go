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
    `strings`

    `gonum.org/v1/gonum/graph/encoding`
    `gonum.org/v1/gonum/graph/encoding/dot`
    `gonum.org/v1/gonum/graph/multi`
    `tlog.app/go/errors`
)

type _DotBlock struct {
    bb *BasicBlock
}

func (self _DotBlock) ID() int64      { return int64(self.bb.ID) }
func (self _DotBlock) DOTID() string  { return self.bb.String() }

func (self _DotBlock) Attributes() []encoding.Attribute {
    var sb strings.Builder
    m := self.bb.method

    /* block header */
    sb.WriteString(self.bb.String())
    sb.WriteString(`\l`)

    /* statements */
    for s := self.bb.first; s != nil; s = s.next {
        sb.WriteString(strings.ReplaceAll(m.Format(s.Root), `"`, `\"`))
        sb.WriteString(`\l`)
    }

    /* rarely run blocks are grayed out */
    attrs := []encoding.Attribute {
        { Key: "shape", Value: "box" },
        { Key: "label", Value: `"` + sb.String() + `"` },
    }
    if self.bb.Rarely {
        attrs = append(attrs, encoding.Attribute{Key: "color", Value: "gray"})
    }
    return attrs
}

type _DotEdge struct {
    multi.Line
    label string
}

func (self _DotEdge) Attributes() []encoding.Attribute {
    if self.label == "" {
        return nil
    } else {
        return []encoding.Attribute{{ Key: "label", Value: `"` + self.label + `"` }}
    }
}

// DOT renders the control flow graph in Graphviz format. Every control
// transfer is one line, so dispatch tables show their duplicate edges.
func (self *Method) DOT() (string, error) {
    g := multi.NewDirectedGraph()
    nodes := make(map[*BasicBlock]_DotBlock, self.nblocks)

    /* add the blocks */
    for bb := self.first; bb != nil; bb = bb.next {
        nodes[bb] = _DotBlock{bb}
        g.AddNode(nodes[bb])
    }

    /* add the control transfers */
    for bb := self.first; bb != nil; bb = bb.next {
        for i, succ := range bb.Succs() {
            ln := g.NewLine(nodes[bb], nodes[succ]).(multi.Line)
            g.SetLine(_DotEdge{Line: ln, label: edgeLabel(bb, i)})
        }
    }

    /* marshal the graph */
    buf, err := dot.MarshalMulti(g, self.Name, "", "    ")
    if err != nil {
        return "", errors.Wrap(err, "marshal %s", self.Name)
    } else {
        return string(buf), nil
    }
}

func edgeLabel(bb *BasicBlock, i int) string {
    switch bb.Kind {
        case JumpCond   : return [...]string{"F", "T"}[i]
        case JumpSwitch : return switchLabel(bb.Switch, i)
        default         : return ""
    }
}

func switchLabel(sw *SwitchDesc, i int) string {
    if i == len(sw.Targets) - 1 {
        return "default"
    } else {
        return fmt.Sprintf("%d", i)
    }
}
