// Package msgs provides the content types carried by port messages
// and their wire encoding.
//
// Every content is wrapped in a Typed envelope carrying the type ID,
// so a receiver knows nothing about the payload in advance.
package msgs
