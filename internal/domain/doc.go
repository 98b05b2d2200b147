// Package domain contains the core domain entities and value objects for
// the acquisition engine.
//
// This package represents the innermost layer of the Clean Architecture. It
// has no dependencies on infrastructure concerns (hardware gateways, file
// systems, logging) and contains only pure business logic.
//
// # Entities
//
//   - [AxisSpec]: One independently varying dimension of an acquisition
//   - [AcquisitionSpec]: The ordered set of axes plus the capture action
//   - [SequenceEvent]: One fully resolved coordinate requiring a capture
//   - [Frame]: One captured image with its coordinate and sequence number
//   - [Command]: A tagged-variant instruction for a single device
//
// # Design Principles
//
// Domain entities are:
//   - Immutable after construction (where practical)
//   - Free of infrastructure dependencies
//   - Focused on business rules and invariants
//   - Testable without mocks or external systems
package domain
