// Package lights implements the gRPC transport for the lighting engine.
//
// The service is declared by hand over protobuf well-known types: requests are
// Empty, wrapper values or Struct objects, and every response is a Struct.
// A server adapts the calls to a Service interface, a guard interceptor checks
// the control token and refuses changes while the alarm plays, and a client
// wraps the calls for the command line tool.
package lights
