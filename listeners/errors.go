// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package listeners

import "errors"

// ErrClosed is returned by Update and Call once the dispatcher is closed.
var ErrClosed = errors.New("listeners: dispatcher is closed")
