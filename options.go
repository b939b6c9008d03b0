// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fabric

// DefaultMaxID is the default dense identifier ceiling M: modules may
// register any identifier in [1..M].
const DefaultMaxID = 256

// DefaultRingCapacity and DefaultMsgSize back modules whose Create call
// passes zero for capacity/msgSize.
const (
	DefaultRingCapacity = 256
	DefaultMsgSize      = 256
)

// BusOptions configures a Bus at construction. The zero value is valid
// and selects every default below.
type BusOptions struct {
	// MaxID is the dense identifier ceiling M. Zero selects DefaultMaxID.
	MaxID uint32

	// Policy selects the readiness multiplexer algorithm every module's
	// consumer side uses. Zero value is PollSetPolicy.
	Policy Policy

	// ReactorQueueCapacity sizes the notification queue when Policy is
	// ReactorPolicy. Zero selects wakeup.DefaultReactorQueueCapacity.
	ReactorQueueCapacity int
}

// BusBuilder provides fluent configuration for NewBus, mirroring
// code.hybscloud.com/lfq's Builder for queue algorithm selection.
type BusBuilder struct {
	opts BusOptions
}

// NewBusBuilder creates a builder seeded with every default.
func NewBusBuilder() *BusBuilder {
	return &BusBuilder{}
}

// WithMaxID sets the dense identifier ceiling.
func (b *BusBuilder) WithMaxID(maxID uint32) *BusBuilder {
	b.opts.MaxID = maxID
	return b
}

// WithReactor selects the edge-capable reactor multiplexer policy,
// sized for queueCapacity distinct in-flight ring keys.
func (b *BusBuilder) WithReactor(queueCapacity int) *BusBuilder {
	b.opts.Policy = ReactorPolicy
	b.opts.ReactorQueueCapacity = queueCapacity
	return b
}

// WithPollSet selects the level-triggered poll-set multiplexer policy
// (the default).
func (b *BusBuilder) WithPollSet() *BusBuilder {
	b.opts.Policy = PollSetPolicy
	return b
}

// Build creates the configured Bus.
func (b *BusBuilder) Build() *Bus {
	return NewBus(b.opts)
}
