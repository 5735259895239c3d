// Package authapi is the wire contract of the credkeeper gRPC service: the
// request and response messages, the JSON codec they travel with, the
// service descriptor used by the server and a typed client stub.
package authapi
