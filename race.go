// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package fabric

// RaceEnabled is true when the race detector is active.
// Used by tests to skip the high-volume fan-in/fan-out stress cases,
// which run long enough under -race to be impractical in CI.
const RaceEnabled = true
