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
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// ProgressBarStyle used by ProgressBar. Defaults to the ASCII version.
// Consider "progressbar.ThemeUnicode" for a prettier version, if the
// terminal supports the graphical symbols.
var ProgressBarStyle = progressbar.ThemeASCII

// ProgressBar returns a callback that renders solver progress as a
// terminal progress bar on os.Stderr, sized to maxIterations. It never
// requests a stop.
//
// Register it with Problem.Callback before solving:
//
//	p.Callback(optimize.ProgressBar(5000))
func ProgressBar(maxIterations int) ProgressCallback {
	return progressBarTo(os.Stderr, maxIterations)
}

func progressBarTo(w io.Writer, maxIterations int) ProgressCallback {
	bar := progressbar.NewOptions(maxIterations,
		progressbar.OptionSetDescription("solving"),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("iters"),
		progressbar.OptionSetTheme(ProgressBarStyle),
		progressbar.OptionSetWriter(w),
	)
	lastReported := -1
	return func(info IterationInfo) bool {
		if bar.IsFinished() {
			return false
		}
		amount := info.Iteration - lastReported
		if amount > 0 {
			lastReported = info.Iteration
			_ = bar.Add(amount)
		}
		return false
	}
}
