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

// Package optimize models nonlinear optimization problems over autodiff
// expression graphs and hands them to pluggable solvers.
//
// A Problem owns decision variables, at most one cost expression and any
// number of equality and inequality constraints. Build it incrementally:
//
//	p := optimize.NewProblem()
//	x := p.DecisionVariable()
//	y := p.DecisionVariable()
//	p.Minimize(x.Mul(x).Add(y.Mul(y)))
//	p.SubjectTo(autodiff.GreaterEqual(x.Add(y), 1.0))
//	status, err := p.Solve(mySolver)
//
// The package classifies the cost and constraint blocks algebraically
// (linear, quadratic, nonlinear) so a solver can pick its strategy, but it
// performs no solving itself: Solver implementations are external.
package optimize

import (
	"slices"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"k8s.io/klog/v2"

	"github.com/goptim/goptim/autodiff"
	. "github.com/gomlx/exceptions"
)

// ProgressCallback observes one solver iteration. Returning true asks the
// solver to stop early; it then exits with ExitCallbackRequestedStop.
type ProgressCallback func(info IterationInfo) bool

// Problem is a nonlinear optimization model: decision variables, an
// optional cost and constraint blocks. The zero value is not usable, build
// with NewProblem.
type Problem struct {
	decisionVariables []autodiff.Variable
	cost              *autodiff.Variable

	equalityConstraints   []autodiff.Constraint
	inequalityConstraints []autodiff.Constraint

	callbacks []ProgressCallback
}

// NewProblem creates an empty problem.
func NewProblem() *Problem {
	return &Problem{}
}

// AssertValid panics with a corresponding error message if p is nil.
func (p *Problem) AssertValid() {
	if p == nil {
		Panicf("Problem is nil")
	}
}

// DecisionVariable registers and returns one new scalar decision variable,
// initialized to zero.
func (p *Problem) DecisionVariable() autodiff.Variable {
	p.AssertValid()
	v := autodiff.NewVariable(0.0)
	p.decisionVariables = append(p.decisionVariables, v)
	return v
}

// DecisionVariableMatrix registers rows x cols new decision variables and
// returns them as a matrix. Entries are registered in row-major order.
func (p *Problem) DecisionVariableMatrix(rows, cols int) *autodiff.VariableMatrix {
	p.AssertValid()
	m := autodiff.NewVariableMatrix(rows, cols)
	m.ForEach(func(_, _ int, v autodiff.Variable) {
		p.decisionVariables = append(p.decisionVariables, v)
	})
	return m
}

// SymmetricDecisionVariable registers decision variables for one triangle
// of an n x n matrix and returns the symmetric matrix built from them: the
// (i, j) and (j, i) entries share the same variable, so writes through
// either are seen by both. Only the registered triangle appears in the
// flattened variable vector.
func (p *Problem) SymmetricDecisionVariable(n int) *autodiff.VariableMatrix {
	p.AssertValid()
	entries := make([][]autodiff.Variable, n)
	for i := range entries {
		entries[i] = make([]autodiff.Variable, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			v := autodiff.NewVariable(0.0)
			p.decisionVariables = append(p.decisionVariables, v)
			entries[i][j] = v
			entries[j][i] = v
		}
	}
	return autodiff.MatrixFromVariables(entries)
}

// Minimize sets the cost to minimize, replacing any previous cost. The
// cost accepts anything convertible to a scalar expression, including 1x1
// matrices.
func (p *Problem) Minimize(cost any) {
	p.AssertValid()
	v := autodiff.AsVariable(cost)
	p.cost = &v
}

// Maximize sets the objective to maximize, stored internally as the
// negated cost.
func (p *Problem) Maximize(objective any) {
	p.AssertValid()
	v := autodiff.AsVariable(objective).Neg()
	p.cost = &v
}

// SubjectTo adds constraints to the problem. Each argument may be an
// autodiff.Constraint, autodiff.EqualityConstraints or
// autodiff.InequalityConstraints.
func (p *Problem) SubjectTo(constraints ...any) {
	p.AssertValid()
	for _, constraint := range constraints {
		switch c := constraint.(type) {
		case autodiff.Constraint:
			p.addConstraint(c)
		case autodiff.EqualityConstraints:
			for _, ci := range c {
				p.addConstraint(ci)
			}
		case autodiff.InequalityConstraints:
			for _, ci := range c {
				p.addConstraint(ci)
			}
		default:
			Panicf("cannot add %T as a constraint", constraint)
		}
	}
}

func (p *Problem) addConstraint(c autodiff.Constraint) {
	c.AssertValid()
	if c.Relation() == autodiff.RelationEqual {
		p.equalityConstraints = append(p.equalityConstraints, c)
	} else {
		p.inequalityConstraints = append(p.inequalityConstraints, c)
	}
}

// Callback registers a per-iteration callback; solvers deliver iterates to
// it through NotifyIteration. Multiple callbacks run in registration
// order.
func (p *Problem) Callback(cb ProgressCallback) {
	p.AssertValid()
	p.callbacks = append(p.callbacks, cb)
}

// NotifyIteration hands one iterate to the registered callbacks. It
// returns true if any callback asked to stop; later callbacks still run.
func (p *Problem) NotifyIteration(info IterationInfo) bool {
	p.AssertValid()
	stop := false
	for _, cb := range p.callbacks {
		if cb(info) {
			stop = true
		}
	}
	return stop
}

// DecisionVariables returns a copy of the registration-ordered decision
// variable list. The Variable handles still alias the problem's variables.
func (p *Problem) DecisionVariables() []autodiff.Variable {
	p.AssertValid()
	return slices.Clone(p.decisionVariables)
}

// Cost returns the cost expression and whether one was set.
func (p *Problem) Cost() (autodiff.Variable, bool) {
	p.AssertValid()
	if p.cost == nil {
		return autodiff.Variable{}, false
	}
	return *p.cost, true
}

// EqualityConstraints returns a copy of the equality constraint block.
func (p *Problem) EqualityConstraints() []autodiff.Constraint {
	p.AssertValid()
	return slices.Clone(p.equalityConstraints)
}

// InequalityConstraints returns a copy of the inequality constraint block.
func (p *Problem) InequalityConstraints() []autodiff.Constraint {
	p.AssertValid()
	return slices.Clone(p.inequalityConstraints)
}

// CostType classifies the cost function; ExpressionTypeNone when no cost
// is set.
func (p *Problem) CostType() autodiff.ExpressionType {
	p.AssertValid()
	if p.cost == nil {
		return autodiff.ExpressionTypeNone
	}
	return p.cost.Type()
}

// EqualityConstraintType classifies the equality constraint block as the
// highest residual type; ExpressionTypeNone when the block is empty.
func (p *Problem) EqualityConstraintType() autodiff.ExpressionType {
	p.AssertValid()
	return constraintsType(p.equalityConstraints)
}

// InequalityConstraintType classifies the inequality constraint block as
// the highest residual type; ExpressionTypeNone when the block is empty.
func (p *Problem) InequalityConstraintType() autodiff.ExpressionType {
	p.AssertValid()
	return constraintsType(p.inequalityConstraints)
}

func constraintsType(constraints []autodiff.Constraint) autodiff.ExpressionType {
	t := autodiff.ExpressionTypeNone
	for _, c := range constraints {
		if ct := c.Residual().Type(); ct > t {
			t = ct
		}
	}
	return t
}

// VariableValues returns the current decision-variable values as a vector
// in registration order. An empty problem yields an empty vector.
func (p *Problem) VariableValues() *mat.VecDense {
	p.AssertValid()
	if len(p.decisionVariables) == 0 {
		return &mat.VecDense{}
	}
	x := mat.NewVecDense(len(p.decisionVariables), nil)
	for i, v := range p.decisionVariables {
		x.SetVec(i, v.Value())
	}
	return x
}

// SetVariableValues writes x into the decision variables in registration
// order. It panics if the length does not match.
func (p *Problem) SetVariableValues(x *mat.VecDense) {
	p.AssertValid()
	if x.Len() != len(p.decisionVariables) {
		Panicf("got %d values for %d decision variables", x.Len(), len(p.decisionVariables))
	}
	for i, v := range p.decisionVariables {
		v.SetValue(x.AtVec(i))
	}
}

// Solve classifies the problem, runs the solver on it with the given
// options applied over DefaultConfig and returns the solver's status with
// the classification filled in. The solved values are left in the decision
// variables.
func (p *Problem) Solve(solver Solver, options ...Option) (Status, error) {
	p.AssertValid()
	if solver == nil {
		return Status{}, errors.New("cannot solve with a nil solver")
	}
	cfg := DefaultConfig()
	for _, opt := range options {
		opt(&cfg)
	}

	status := Status{
		CostType:                 p.CostType(),
		EqualityConstraintType:   p.EqualityConstraintType(),
		InequalityConstraintType: p.InequalityConstraintType(),
	}
	if cfg.Diagnostics {
		klog.Infof("solving over %s decision variables: cost %s, %s equality and %s inequality constraints",
			humanize.Comma(int64(len(p.decisionVariables))), status.CostType,
			humanize.Comma(int64(len(p.equalityConstraints))),
			humanize.Comma(int64(len(p.inequalityConstraints))))
	}

	start := time.Now()
	solved, err := solver.Solve(p, cfg)
	if err != nil {
		return status, errors.Wrap(err, "solver failed")
	}
	status.ExitCondition = solved.ExitCondition
	if cfg.Diagnostics {
		klog.Infof("solve finished in %s: %s", time.Since(start), status.ExitCondition)
	}
	return status, nil
}
