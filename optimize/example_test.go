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

package optimize_test

import (
	"fmt"
	"math"

	"github.com/janpfeifer/must"

	"github.com/goptim/goptim/autodiff"
	"github.com/goptim/goptim/optimize"
)

// gradientDescent is a minimal Solver for the examples: finite-difference
// gradient descent on an unconstrained cost.
type gradientDescent struct {
	rate float64
}

func (s gradientDescent) Solve(p *optimize.Problem, cfg optimize.Config) (optimize.Status, error) {
	cost, ok := p.Cost()
	if !ok {
		return optimize.Status{ExitCondition: optimize.ExitSuccess}, nil
	}
	vars := p.DecisionVariables()
	const h = 1e-6
	grad := make([]float64, len(vars))
	for iter := 0; iter < cfg.MaxIterations; iter++ {
		norm := 0.0
		for i, v := range vars {
			x0 := v.Value()
			v.SetValue(x0 + h)
			up := cost.Value()
			v.SetValue(x0 - h)
			down := cost.Value()
			v.SetValue(x0)
			grad[i] = (up - down) / (2 * h)
			norm = math.Max(norm, math.Abs(grad[i]))
		}
		if norm < cfg.Tolerance {
			return optimize.Status{ExitCondition: optimize.ExitSuccess}, nil
		}
		for i, v := range vars {
			v.SetValue(v.Value() - s.rate*grad[i])
		}
		info := optimize.IterationInfo{Iteration: iter, X: p.VariableValues(), Cost: cost.Value()}
		if p.NotifyIteration(info) {
			return optimize.Status{ExitCondition: optimize.ExitCallbackRequestedStop}, nil
		}
	}
	return optimize.Status{ExitCondition: optimize.ExitMaxIterationsExceeded}, nil
}

func ExampleProblem() {
	p := optimize.NewProblem()
	x := p.DecisionVariable()
	y := p.DecisionVariable()
	p.Minimize(x.Sub(2.0).Mul(x.Sub(2.0)).Add(y.Add(3.0).Mul(y.Add(3.0))))

	status := must.M1(p.Solve(gradientDescent{rate: 0.25}))
	fmt.Println(status.ExitCondition)
	fmt.Printf("x=%.3f y=%.3f\n", x.Value(), y.Value())
	// Output:
	// solved to desired tolerance
	// x=2.000 y=-3.000
}

func ExampleProblem_SubjectTo() {
	p := optimize.NewProblem()
	x := p.DecisionVariable()
	y := p.DecisionVariable()
	p.Minimize(x.Mul(x).Add(y.Mul(y)))
	p.SubjectTo(autodiff.Equal(x.Add(y), 1.0))
	p.SubjectTo(autodiff.GreaterEqual(x, 0.0))

	fmt.Println(p.CostType())
	fmt.Println(p.EqualityConstraintType())
	fmt.Println(p.InequalityConstraintType())
	// Output:
	// quadratic
	// linear
	// linear
}

func ExampleProblem_Callback() {
	p := optimize.NewProblem()
	x := p.DecisionVariable()
	p.Minimize(x.Sub(1.0).Mul(x.Sub(1.0)))
	p.Callback(func(info optimize.IterationInfo) bool {
		return info.Iteration >= 4
	})

	status := must.M1(p.Solve(gradientDescent{rate: 0.25}))
	fmt.Println(status.ExitCondition)
	// Output:
	// callback requested stop
}
