/*
 *	Copyright 2023 Jan Pfeifer
 *
 *	Licensed under the Apache License, Version 2.0 (the "License");
 *	you may not use this file except in compliance with the License.
 *	You may obtain a copy of the License at
 *
 *	http://www.apache.org/licenses/LICENSE-2.0
 *
 *	Unless required by applicable law or agreed to in writing, software
 *	distributed under the License is distributed on an "AS IS" BASIS,
 *	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *	See the License for the specific language governing permissions and
 *	limitations under the License.
 */

// Package nanwatch locates where NaN and infinite values enter an
// expression graph.
//
// Comparisons over NaN values are silently false and arithmetic happily
// propagates non-finite values, which is the right behavior for a solver
// loop but leaves nothing to debug with when a cost comes out NaN. This
// package walks a graph and points at the origins: nodes whose value is
// non-finite while all of their operands are finite, such as the exact
// division that produced an Inf, or the Log that went negative.
//
//	if nanwatch.Watch("cost", cost) {
//		// findings were logged through klog
//	}
//
// Watching is opt-in and out-of-band: nothing here changes how graphs
// evaluate.
package nanwatch

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"k8s.io/klog/v2"

	"github.com/goptim/goptim/autodiff"
)

// Report points at one origin of a non-finite value.
type Report struct {
	// Node is the node that produced the value; its operands are all
	// finite.
	Node *autodiff.Expression

	// Value is the non-finite value observed.
	Value float64
}

// String implements the fmt.Stringer interface.
func (r Report) String() string {
	return fmt.Sprintf("%v from %s", r.Value, r.Node)
}

func nonFinite(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// Scan refreshes the graphs under roots and returns a report for every
// origin of a non-finite value, in node-creation order. A leaf assigned a
// non-finite value counts as an origin.
func Scan(roots ...autodiff.Variable) []Report {
	seen := make(map[*autodiff.Expression]bool)
	var reports []Report
	for _, root := range roots {
		root.Value()
		stack := []*autodiff.Expression{root.Expression()}
		for len(stack) > 0 {
			node := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if seen[node] {
				continue
			}
			seen[node] = true
			args := node.Args()
			stack = append(stack, args...)
			if !nonFinite(node.Value()) {
				continue
			}
			origin := true
			for _, arg := range args {
				if nonFinite(arg.Value()) {
					origin = false
					break
				}
			}
			if origin {
				reports = append(reports, Report{Node: node, Value: node.Value()})
			}
		}
	}
	slices.SortFunc(reports, func(a, b Report) int {
		return cmp.Compare(a.Node.Id(), b.Node.Id())
	})
	return reports
}

// First returns the earliest-created origin, if any.
func First(roots ...autodiff.Variable) (Report, bool) {
	reports := Scan(roots...)
	if len(reports) == 0 {
		return Report{}, false
	}
	return reports[0], true
}

// Watch scans and logs every finding through klog, tagged with name. It
// reports whether anything was found.
func Watch(name string, roots ...autodiff.Variable) bool {
	reports := Scan(roots...)
	for _, report := range reports {
		klog.Warningf("nanwatch[%s]: %s", name, report)
	}
	return len(reports) > 0
}
