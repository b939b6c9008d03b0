// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fabric

import "errors"

// ErrUnknownModule is returned by Dump when asked about an identifier
// that is out of range or not currently registered.
var ErrUnknownModule = errors.New("fabric: unknown module")
