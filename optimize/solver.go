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

package optimize

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/goptim/goptim/autodiff"
)

// ExitCondition tells how a solver run ended. Non-negative values are
// acceptable outcomes, negative values are failures, mirroring the usual
// nonlinear-programming exit taxonomy.
type ExitCondition int

const (
	// ExitSuccess: solved to the configured tolerance.
	ExitSuccess ExitCondition = 0

	// ExitSolvedToAcceptableTolerance: solved past an acceptable, looser
	// tolerance but not the configured one.
	ExitSolvedToAcceptableTolerance ExitCondition = 1

	// ExitCallbackRequestedStop: an iteration callback returned true.
	ExitCallbackRequestedStop ExitCondition = 2

	// ExitTooFewDOFs: the problem has more equality constraints than
	// decision variables.
	ExitTooFewDOFs ExitCondition = -1

	// ExitLocallyInfeasible: no feasible point exists near the iterates.
	ExitLocallyInfeasible ExitCondition = -2

	// ExitFeasibilityRestorationFailed: the solver failed to reach the
	// desired tolerance and restoring feasibility failed too.
	ExitFeasibilityRestorationFailed ExitCondition = -3

	// ExitNonfiniteInitialCostOrConstraints: the initial point evaluates to
	// NaN or Inf somewhere the solver needs a finite value.
	ExitNonfiniteInitialCostOrConstraints ExitCondition = -4

	// ExitDivergingIterates: the iterates ran away towards infinity.
	ExitDivergingIterates ExitCondition = -5

	// ExitMaxIterationsExceeded: stopped at the iteration bound.
	ExitMaxIterationsExceeded ExitCondition = -6

	// ExitTimeout: stopped at the wall-clock bound.
	ExitTimeout ExitCondition = -7
)

// Ok reports whether the condition is an acceptable outcome rather than a
// failure.
func (c ExitCondition) Ok() bool { return c >= 0 }

// String implements the fmt.Stringer interface.
func (c ExitCondition) String() string {
	switch c {
	case ExitSuccess:
		return "solved to desired tolerance"
	case ExitSolvedToAcceptableTolerance:
		return "solved to acceptable tolerance"
	case ExitCallbackRequestedStop:
		return "callback requested stop"
	case ExitTooFewDOFs:
		return "too few degrees of freedom"
	case ExitLocallyInfeasible:
		return "problem is locally infeasible"
	case ExitFeasibilityRestorationFailed:
		return "feasibility restoration failed to converge"
	case ExitNonfiniteInitialCostOrConstraints:
		return "nonfinite initial cost or constraints"
	case ExitDivergingIterates:
		return "diverging primal iterates"
	case ExitMaxIterationsExceeded:
		return "maximum iterations exceeded"
	case ExitTimeout:
		return "maximum wall clock time exceeded"
	}
	return fmt.Sprintf("ExitCondition(%d)", int(c))
}

// Config carries the solve parameters every solver honors.
type Config struct {
	// Tolerance at which the solver declares convergence.
	Tolerance float64

	// MaxIterations bounds the number of solver iterations.
	MaxIterations int

	// Timeout bounds the wall-clock solve time; zero means unbounded.
	Timeout time.Duration

	// Diagnostics enables klog progress output from Problem.Solve.
	Diagnostics bool
}

// DefaultConfig returns the defaults: 1e-8 tolerance, 5000 iterations, no
// timeout, quiet.
func DefaultConfig() Config {
	return Config{Tolerance: 1e-8, MaxIterations: 5000}
}

// Option mutates a Config; pass them to Problem.Solve.
type Option func(*Config)

// WithTolerance sets the convergence tolerance.
func WithTolerance(tolerance float64) Option {
	return func(c *Config) { c.Tolerance = tolerance }
}

// WithMaxIterations sets the iteration bound.
func WithMaxIterations(n int) Option {
	return func(c *Config) { c.MaxIterations = n }
}

// WithTimeout sets the wall-clock bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithDiagnostics enables progress logging.
func WithDiagnostics() Option {
	return func(c *Config) { c.Diagnostics = true }
}

// IterationInfo is the per-iteration snapshot handed to callbacks.
type IterationInfo struct {
	// Iteration number, starting at zero.
	Iteration int

	// X holds the decision-variable values at this iterate, in
	// registration order.
	X *mat.VecDense

	// Cost is the cost value at this iterate; zero when the problem has no
	// cost.
	Cost float64
}

// Status describes a finished solve: how the run ended plus the algebraic
// classification of the problem, which Problem.Solve fills in from the
// expression graphs.
type Status struct {
	// CostType classifies the cost function.
	CostType autodiff.ExpressionType

	// EqualityConstraintType classifies the equality constraint block.
	EqualityConstraintType autodiff.ExpressionType

	// InequalityConstraintType classifies the inequality constraint block.
	InequalityConstraintType autodiff.ExpressionType

	// ExitCondition tells how the solver stopped.
	ExitCondition ExitCondition
}

// Ok reports whether the run ended in an acceptable outcome.
func (s Status) Ok() bool { return s.ExitCondition.Ok() }

// String implements the fmt.Stringer interface.
func (s Status) String() string {
	return fmt.Sprintf("Status(%s; cost=%s, equality=%s, inequality=%s)",
		s.ExitCondition, s.CostType, s.EqualityConstraintType, s.InequalityConstraintType)
}

// Solver finds values for a problem's decision variables.
//
// Implementations read the cost and constraint graphs through the
// problem's accessors, write candidate values with SetVariableValues or
// through individual variables, call NotifyIteration once per iteration,
// and report how they stopped. Derivative bookkeeping, if any, is the
// solver's own business: the expression graphs expose operations and
// values, nothing more.
type Solver interface {
	Solve(p *Problem, cfg Config) (Status, error)
}
