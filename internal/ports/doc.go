// Package ports defines the interfaces (ports) that connect the acquisition
// core to infrastructure adapters.
//
// In Clean Architecture / Hexagonal Architecture, ports are the boundaries
// between the application core and the outside world. They define what the
// core needs from external systems without specifying how those needs are
// fulfilled.
//
// # Port Interfaces
//
//   - [DeviceGateway]: Issues hardware commands and reports asynchronous
//     completions; the core never assumes synchronous execution
//   - [FrameWriter]: Persists frames into chunked storage with sidecar
//     run metadata
//   - [Logger]: Structured logging abstraction
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them with concrete
// implementations (simulated hardware, file system, zerolog, etc.).
//
// This separation enables:
//   - Testing the sequencing logic with mock hardware
//   - Swapping device control layers without changing the engine
//   - Clear boundaries and dependency direction
package ports
