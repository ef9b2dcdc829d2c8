// Package eventbus provides an in-process publish/subscribe bus for
// lifecycle notifications. It decouples orchestration from observers such as
// audit logging and persistence write-through: PublishAsync awaits every
// handler but isolates their failures, so one misbehaving observer can never
// break a conversation turn. The orchestration core must not depend on
// handler results.
package eventbus
