// Package errors provides coded, actionable error messages for the
// eventserver command.
//
// Each error has a unique code (e.g., "E102") that maps to a short message,
// a longer explanation and a category. Commands wrap the underlying error
// and add a hint:
//
//	err := errors.New("E200").
//	    Wrap(bindErr).
//	    WithDetail("ports 9777-9787 are in use").
//	    WithSuggestion("Stop the other instance or pick another port with --port")
//
//	errors.PrintError(err)
//	// ERROR E200: Unable to bind event server socket
//	//
//	//   ports 9777-9787 are in use
//	//
//	//   Hint: Stop the other instance or pick another port with --port
//
// # Error Codes
//
//   - E100-E119: configuration
//   - E200-E219: startup and transport
//   - E300-E319: command line and sender
package errors
