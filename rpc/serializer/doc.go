// Package serializer renders protocol replies for display. It defines a common
// interface and one implementation per output format, used by the CLI.
//
// Key Components:
//
//   - IReplyFormatter: Core interface that all formatter implementations satisfy.
//
//   - textFormatterImpl: Human readable output with quoted bulk strings, (integer),
//     (error) and (nil) markers and numbered, indented arrays.
//
//   - jsonFormatterImpl/yamlFormatterImpl: Structured output. Status and bulk replies
//     become strings, integers numbers, nil replies null and server errors a map
//     with a single "error" key.
//
//   - rawFormatterImpl: The reply re-encoded in its wire format.
//
// Thread Safety:
//
//	All formatter implementations are stateless and safe for concurrent use
//	across multiple goroutines without additional synchronization.
//
// Usage:
//
//	formatter, err := serializer.ByName("yaml")
//	out, err := formatter.Format(reply)
package serializer
